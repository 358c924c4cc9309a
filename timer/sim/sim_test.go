package sim

import (
	"testing"

	"tinygo.org/x/drivers"

	"timercore/errcode"
	"timercore/timer"
)

var clk = timer.ClockDomain{FrequencyHz: 1000}

func TestBoard_ClaimRelease(t *testing.T) {
	b := NewGeneralPurpose(clk, "tim2", "tim3")
	if _, err := b.Claim("a", "tim2"); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Claim("b", "tim2"); err != errcode.TimerInUse {
		t.Fatalf("second claim: %v", err)
	}
	if _, err := b.Claim("a", "tim9"); err != errcode.UnknownTimer {
		t.Fatalf("unknown: %v", err)
	}
	b.Release("b", "tim2") // not the owner
	if _, err := b.Claim("b", "tim2"); err != errcode.TimerInUse {
		t.Fatalf("release by non-owner freed the timer: %v", err)
	}
	b.Release("a", "tim2")
	if _, err := b.Claim("b", "tim2"); err != nil {
		t.Fatalf("after release: %v", err)
	}
}

func TestTimer_FreeRunningPWM(t *testing.T) {
	b := NewGeneralPurpose(clk, "tim2")
	tm, _ := b.Timer("tim2")
	tm.SetPrescaler(1) // one tick every 2 cycles
	tm.SetReload(9)
	tm.SetCompare(1, 3)
	tm.SetOutputMode(1, timer.ModePWM, timer.ActiveHigh)
	tm.GenerateUpdate()
	tm.SetCounterEnabled(true)

	high := 0
	for i := 0; i < 40; i++ {
		if tm.Output(1) {
			high++
		}
		b.Step(1)
	}
	// 3 of 10 ticks active, 2 cycles each, over two periods.
	if high != 12 {
		t.Fatalf("high cycles = %d, want 12", high)
	}
	if tm.Wraps() != 2 || b.Now() != 40 {
		t.Fatalf("wraps %d now %d", tm.Wraps(), b.Now())
	}
}

func TestTimer_ActiveLowInverts(t *testing.T) {
	b := NewGeneralPurpose(clk, "tim2")
	tm, _ := b.Timer("tim2")
	tm.SetReload(9)
	tm.SetCompare(2, 5)
	tm.SetOutputMode(2, timer.ModePWM, timer.ActiveLow)
	if !tm.Ref(2) || tm.Output(2) {
		t.Fatalf("ref %v out %v at cnt 0", tm.Ref(2), tm.Output(2))
	}
	if tm.Output(3) {
		t.Fatal("unconfigured channel drives high")
	}
}

func TestTimer_SlaveModeRouting(t *testing.T) {
	b := NewBoard(clk,
		Spec{ID: "tim2", Channels: 4, Master: true, Slave: true},
		Spec{ID: "tim6"},
	)
	t2, _ := b.Timer("tim2")
	t6, _ := b.Timer("tim6")
	if err := t6.SetSlaveMode("tim2", timer.SlaveGated); err != errcode.Unsupported {
		t.Fatalf("basic timer: %v", err)
	}
	if err := t2.SetSlaveMode("tim6", timer.SlaveGated); err != errcode.TriggerUnavailable {
		t.Fatalf("from basic timer: %v", err)
	}
	if err := t2.SetSlaveMode("tim2", timer.SlaveGated); err != errcode.TriggerUnavailable {
		t.Fatalf("from itself: %v", err)
	}
	if len(t2.Journal()) != 0 {
		t.Fatalf("rejected routes were written: %v", t2.Journal())
	}
}

func TestProbe_Sensor(t *testing.T) {
	b := NewGeneralPurpose(clk, "tim2")
	tm, _ := b.Timer("tim2")
	tm.SetReload(3)
	tm.SetCompare(1, 3)
	tm.SetOutputMode(1, timer.ModeToggle, timer.ActiveHigh)
	tm.SetCounterEnabled(true)

	var s drivers.Sensor
	p, err := NewProbe(b, tm, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	s = p
	if err := s.Update(drivers.Temperature); err != nil || b.Now() != 0 {
		t.Fatalf("non-time update stepped the board: %v", err)
	}
	if err := p.Run(16); err != nil {
		t.Fatal(err)
	}
	// Toggle every 4 ticks: period 8, two rising edges in 16.
	if p.RisingEdges() != 2 || len(p.Capture()) != 16 {
		t.Fatalf("edges %d samples %d", p.RisingEdges(), len(p.Capture()))
	}
	p.Reset()
	if len(p.Capture()) != 0 || p.RisingEdges() != 0 {
		t.Fatal("reset kept samples")
	}

	if _, err := NewProbe(b, tm, 7, 1); err != errcode.ChannelUnavailable {
		t.Fatalf("bad channel: %v", err)
	}
	other := NewGeneralPurpose(clk, "tim2")
	if _, err := NewProbe(other, tm, 1, 1); err != errcode.InvalidParams {
		t.Fatalf("foreign board: %v", err)
	}
}

func TestBoard_Trace(t *testing.T) {
	b := NewGeneralPurpose(clk, "tim2", "tim3")
	t2, _ := b.Timer("tim2")
	t3, _ := b.Timer("tim3")
	t3.SetReload(5)
	t2.SetPrescaler(2)
	tr := b.Trace()
	if len(tr) != 2 || tr[0].String() != "tim3.ARR" || tr[1].String() != "tim2.PSC" || tr[1].Val != 2 {
		t.Fatalf("trace = %v", tr)
	}
	b.ClearTrace()
	if len(b.Trace()) != 0 || len(t2.Journal()) != 1 {
		t.Fatal("ClearTrace touched journals")
	}
}

func TestBoard_Router(t *testing.T) {
	b := NewGeneralPurpose(clk, "tim2", "tim3", "tim4")
	b.SetRouter(func(slave, master timer.ID) bool { return slave == "tim3" && master == "tim2" })
	t3, _ := b.Timer("tim3")
	t4, _ := b.Timer("tim4")
	if err := t3.SetSlaveMode("tim2", timer.SlaveGated); err != nil {
		t.Fatalf("routed pair: %v", err)
	}
	if err := t4.SetSlaveMode("tim2", timer.SlaveGated); err != errcode.TriggerUnavailable {
		t.Fatalf("unrouted pair: %v", err)
	}
}
