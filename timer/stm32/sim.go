package stm32

import (
	"timercore/timer"
	"timercore/timer/sim"
)

// NewSimBoard models the catalogue on the host: same timers, channel counts
// and internal trigger routing, all clocked at the default timer clock.
func NewSimBoard() *sim.Board {
	specs := make([]sim.Spec, 0, len(catalog))
	for _, in := range catalog {
		specs = append(specs, sim.Spec{
			ID:       in.ID,
			Channels: in.Channels,
			Master:   in.Master(),
			Slave:    in.Slave(),
		})
	}
	b := sim.NewBoard(TimerClock(APB1), specs...)
	b.SetRouter(func(slave, master timer.ID) bool {
		_, ok := InternalTrigger(slave, master)
		return ok
	})
	return b
}
