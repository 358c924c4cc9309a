// Package provider supplies the timer registry for the selected platform:
// the simulator on the host, register blocks on TinyGo targets.
package provider

import (
	"sync"

	"timercore/errcode"
	"timercore/timer"
)

// backend hands out timers and records who holds each one.
type backend interface {
	claim(owner string, id timer.ID) (timer.Registers, timer.ClockDomain, error)
	release(owner string, id timer.ID)
	owner(id timer.ID) (string, bool)
}

// Registry implements core.TimerRegistry over a backend. Ownership lives in
// the backend only.
type Registry struct {
	mu   sync.Mutex
	be   backend
	regs map[timer.ID]timer.Registers
}

func newRegistry(be backend) *Registry {
	return &Registry{be: be, regs: map[timer.ID]timer.Registers{}}
}

func (r *Registry) ClaimTimer(devID string, id timer.ID) (timer.Registers, timer.ClockDomain, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	regs, clk, err := r.be.claim(devID, id)
	if err != nil {
		if err == errcode.TimerInUse {
			owner, _ := r.be.owner(id)
			println("[hal] timer", string(id), "held by", owner, "requested by", devID)
		}
		return nil, timer.ClockDomain{}, err
	}
	r.regs[id] = regs
	return regs, clk, nil
}

func (r *Registry) ReleaseTimer(devID string, id timer.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if owner, ok := r.be.owner(id); !ok || owner != devID {
		return
	}
	// Leave the counter stopped for the next owner.
	if regs := r.regs[id]; regs != nil {
		regs.SetCounterEnabled(false)
	}
	r.be.release(devID, id)
	delete(r.regs, id)
}

// Owner reports who holds id.
func (r *Registry) Owner(id timer.ID) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.be.owner(id)
}

// openFunc resolves a timer id to its registers and clock.
type openFunc func(id timer.ID) (timer.Registers, timer.ClockDomain, error)

// exclusive keeps the owner table for backends that can only open
// registers. Callers hold Registry.mu.
type exclusive struct {
	open   openFunc
	owners map[timer.ID]string
}

func newExclusive(open openFunc) *exclusive {
	return &exclusive{open: open, owners: map[timer.ID]string{}}
}

func (e *exclusive) claim(owner string, id timer.ID) (timer.Registers, timer.ClockDomain, error) {
	if _, held := e.owners[id]; held {
		return nil, timer.ClockDomain{}, errcode.TimerInUse
	}
	regs, clk, err := e.open(id)
	if err != nil {
		return nil, timer.ClockDomain{}, err
	}
	e.owners[id] = owner
	return regs, clk, nil
}

func (e *exclusive) release(owner string, id timer.ID) {
	if e.owners[id] == owner {
		delete(e.owners, id)
	}
}

func (e *exclusive) owner(id timer.ID) (string, bool) {
	o, ok := e.owners[id]
	return o, ok
}
