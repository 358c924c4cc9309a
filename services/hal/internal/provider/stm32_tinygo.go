//go:build tinygo && stm32f103

package provider

import (
	"timercore/timer"
	"timercore/timer/stm32"
)

// Default serves the on-chip timers.
func Default() *Registry {
	return newRegistry(newExclusive(func(id timer.ID) (timer.Registers, timer.ClockDomain, error) {
		t, err := stm32.Open(id)
		if err != nil {
			return nil, timer.ClockDomain{}, err
		}
		info, _ := stm32.Lookup(id)
		return t, stm32.TimerClock(info.Bus), nil
	}))
}
