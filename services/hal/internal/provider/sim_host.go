//go:build !tinygo

package provider

import (
	"timercore/timer"
	"timercore/timer/sim"
	"timercore/timer/stm32"
)

// Default is the host registry: a simulated STM32F1 timer set.
func Default() *Registry {
	r, _ := NewSim(stm32.NewSimBoard())
	return r
}

// NewSim serves timers from b. Claims go through b, so the board and the
// registry agree on who holds each timer. The board is returned so callers
// can clock it and observe outputs.
func NewSim(b *sim.Board) (*Registry, *sim.Board) {
	return newRegistry(boardBackend{b}), b
}

type boardBackend struct{ b *sim.Board }

func (s boardBackend) claim(owner string, id timer.ID) (timer.Registers, timer.ClockDomain, error) {
	t, err := s.b.Claim(owner, id)
	if err != nil {
		return nil, timer.ClockDomain{}, err
	}
	return t, s.b.Clock(), nil
}

func (s boardBackend) release(owner string, id timer.ID) { s.b.Release(owner, id) }

func (s boardBackend) owner(id timer.ID) (string, bool) { return s.b.Owner(id) }
