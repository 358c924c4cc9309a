//go:build tinygo && !stm32f103

package provider

import (
	"timercore/errcode"
	"timercore/timer"
)

// Default on targets without a timer backend: every claim is Unsupported.
func Default() *Registry {
	return newRegistry(newExclusive(func(timer.ID) (timer.Registers, timer.ClockDomain, error) {
		return nil, timer.ClockDomain{}, errcode.Unsupported
	}))
}
