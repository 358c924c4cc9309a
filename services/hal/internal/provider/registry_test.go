//go:build !tinygo

package provider

import (
	"testing"

	"timercore/errcode"
	"timercore/timer"
	"timercore/timer/stm32"
)

func TestRegistry_Exclusive(t *testing.T) {
	r, b := NewSim(stm32.NewSimBoard())
	regs, clk, err := r.ClaimTimer("dev-a", "tim2")
	if err != nil {
		t.Fatal(err)
	}
	if clk.FrequencyHz != stm32.SysClockHz || regs.ID() != "tim2" {
		t.Fatalf("clock %d id %s", clk.FrequencyHz, regs.ID())
	}
	if _, _, err := r.ClaimTimer("dev-b", "tim2"); err != errcode.TimerInUse {
		t.Fatalf("second claim: %v", err)
	}
	if _, _, err := r.ClaimTimer("dev-b", "tim12"); err != errcode.UnknownTimer {
		t.Fatalf("unknown: %v", err)
	}

	regs.SetCounterEnabled(true)
	r.ReleaseTimer("dev-b", "tim2") // not the owner
	if o, _ := r.Owner("tim2"); o != "dev-a" {
		t.Fatalf("owner = %q", o)
	}
	r.ReleaseTimer("dev-a", "tim2")
	if _, held := r.Owner("tim2"); held {
		t.Fatal("still held")
	}
	t2, _ := b.Timer("tim2")
	if t2.Enabled() {
		t.Fatal("release left the counter running")
	}
	if _, _, err := r.ClaimTimer("dev-b", "tim2"); err != nil {
		t.Fatalf("after release: %v", err)
	}
}

func TestRegistry_OwnershipSharedWithBoard(t *testing.T) {
	r, b := NewSim(stm32.NewSimBoard())
	if _, _, err := r.ClaimTimer("dev-a", "tim2"); err != nil {
		t.Fatal(err)
	}
	if o, held := b.Owner("tim2"); !held || o != "dev-a" {
		t.Fatalf("board owner = %q %v", o, held)
	}
	if _, err := b.Claim("trace", "tim2"); err != errcode.TimerInUse {
		t.Fatalf("board claim of registry timer: %v", err)
	}
	r.ReleaseTimer("dev-a", "tim2")
	if _, held := b.Owner("tim2"); held {
		t.Fatal("board still records an owner")
	}

	// A claim made on the board is visible to the registry.
	if _, err := b.Claim("trace", "tim3"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := r.ClaimTimer("dev-b", "tim3"); err != errcode.TimerInUse {
		t.Fatalf("registry claim of board timer: %v", err)
	}
	if o, _ := r.Owner("tim3"); o != "trace" {
		t.Fatalf("registry owner = %q", o)
	}
	r.ReleaseTimer("dev-b", "tim3") // not the owner
	if o, _ := b.Owner("tim3"); o != "trace" {
		t.Fatalf("non-owner release freed tim3: %q", o)
	}
}

func TestExclusive_OwnerTable(t *testing.T) {
	opened := 0
	r := newRegistry(newExclusive(func(id timer.ID) (timer.Registers, timer.ClockDomain, error) {
		if id != "tim2" {
			return nil, timer.ClockDomain{}, errcode.UnknownTimer
		}
		opened++
		tm, _ := stm32.NewSimBoard().Timer(id)
		return tm, timer.ClockDomain{FrequencyHz: stm32.SysClockHz}, nil
	}))
	if _, _, err := r.ClaimTimer("a", "tim2"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := r.ClaimTimer("b", "tim2"); err != errcode.TimerInUse {
		t.Fatalf("second claim: %v", err)
	}
	if _, _, err := r.ClaimTimer("b", "tim9"); err != errcode.UnknownTimer {
		t.Fatalf("unknown: %v", err)
	}
	if _, held := r.Owner("tim9"); held {
		t.Fatal("failed open recorded an owner")
	}
	r.ReleaseTimer("a", "tim2")
	if _, _, err := r.ClaimTimer("b", "tim2"); err != nil || opened != 2 {
		t.Fatalf("reclaim: %v opened=%d", err, opened)
	}
}

func TestSimBoard_FollowsRouting(t *testing.T) {
	_, b := NewSim(stm32.NewSimBoard())
	t3, _ := b.Timer("tim3")
	if err := t3.SetSlaveMode("tim2", timer.SlaveGated); err != nil {
		t.Fatalf("tim2->tim3: %v", err)
	}
	t5, _ := b.Timer("tim5")
	if err := t5.SetSlaveMode("tim1", timer.SlaveGated); err != errcode.TriggerUnavailable {
		t.Fatalf("tim1->tim5: %v", err)
	}
	t6, _ := b.Timer("tim6")
	if t6.Channels() != 0 || t6.SupportsSlave() {
		t.Fatal("tim6 should be basic")
	}
}
