// Package sim is a cycle-level software model of a set of timers sharing one
// input clock. It implements timer.Registers so the configuration core can be
// exercised and its waveforms observed on the host.
package sim

import (
	"sync"

	"timercore/errcode"
	"timercore/timer"
)

// Spec describes one simulated counter.
type Spec struct {
	ID       timer.ID
	Channels int
	Master   bool
	Slave    bool
}

// Board owns the simulated timers and hands them out exclusively.
type Board struct {
	clock timer.ClockDomain

	mu     sync.Mutex
	timers []*Timer // declaration order is also evaluation order
	owners map[timer.ID]string

	now   uint64
	trace []Event

	route func(slave, master timer.ID) bool
}

// Event is a register write tagged with the timer it went to.
type Event struct {
	Timer timer.ID
	Write
}

func (e Event) String() string { return string(e.Timer) + "." + e.Reg.String() }

// NewBoard builds a board whose timers all run from clock.
func NewBoard(clock timer.ClockDomain, specs ...Spec) *Board {
	b := &Board{clock: clock, owners: map[timer.ID]string{}}
	for _, s := range specs {
		b.timers = append(b.timers, newTimer(b, s))
	}
	return b
}

// NewGeneralPurpose is a board with TIM2..TIM5-like timers: four channels,
// master and slave capable.
func NewGeneralPurpose(clock timer.ClockDomain, ids ...timer.ID) *Board {
	specs := make([]Spec, 0, len(ids))
	for _, id := range ids {
		specs = append(specs, Spec{ID: id, Channels: timer.MaxChannels, Master: true, Slave: true})
	}
	return NewBoard(clock, specs...)
}

func (b *Board) Clock() timer.ClockDomain { return b.clock }

// SetRouter restricts which masters can drive which slaves. Without one, any
// master-capable timer on the board can drive any other.
func (b *Board) SetRouter(route func(slave, master timer.ID) bool) { b.route = route }

func (b *Board) routable(slave, master timer.ID) bool {
	return b.route == nil || b.route(slave, master)
}

// Now is the number of input clock cycles simulated so far.
func (b *Board) Now() uint64 { return b.now }

func (b *Board) lookup(id timer.ID) *Timer {
	for _, t := range b.timers {
		if t.id == id {
			return t
		}
	}
	return nil
}

// Timer returns the simulated counter id without claiming it.
func (b *Board) Timer(id timer.ID) (*Timer, bool) {
	t := b.lookup(id)
	return t, t != nil
}

// Claim gives owner exclusive use of timer id.
func (b *Board) Claim(owner string, id timer.ID) (*Timer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := b.lookup(id)
	if t == nil {
		return nil, errcode.UnknownTimer
	}
	if cur, inUse := b.owners[id]; inUse && cur != "" {
		return nil, errcode.TimerInUse
	}
	b.owners[id] = owner
	return t, nil
}

// Release frees id if owner holds it.
func (b *Board) Release(owner string, id timer.ID) {
	b.mu.Lock()
	if cur, ok := b.owners[id]; ok && cur == owner {
		delete(b.owners, id)
	}
	b.mu.Unlock()
}

// Owner reports who holds id.
func (b *Board) Owner(id timer.ID) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.owners[id]
	return o, ok && o != ""
}

func (b *Board) record(id timer.ID, w Write) {
	b.trace = append(b.trace, Event{Timer: id, Write: w})
}

// Trace returns every register write on the board in program order.
func (b *Board) Trace() []Event { return append([]Event(nil), b.trace...) }

// ClearTrace forgets recorded writes; per-timer journals are kept.
func (b *Board) ClearTrace() { b.trace = b.trace[:0] }

// Step advances every timer by the given number of input clock cycles.
// Trigger inputs are sampled for all timers before any of them advances.
func (b *Board) Step(cycles uint64) {
	for ; cycles > 0; cycles-- {
		for _, t := range b.timers {
			t.sampleTrigger()
		}
		for _, t := range b.timers {
			t.clockEdge()
		}
		b.now++
	}
}
