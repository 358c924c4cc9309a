package stm32

import (
	"testing"

	"timercore/timer"
)

func TestInternalTrigger(t *testing.T) {
	cases := []struct {
		slave, master timer.ID
		n             uint8
		ok            bool
	}{
		{"tim3", "tim2", 1, true},
		{"tim3", "tim1", 0, true},
		{"tim3", "tim4", 3, true},
		{"tim2", "tim3", 2, true},
		{"tim5", "tim2", 0, true},
		{"tim1", "tim5", 0, true},
		{"tim3", "tim3", 0, false},
		{"tim6", "tim2", 0, false},
		{"tim2", "tim5", 0, false},
	}
	for _, c := range cases {
		n, ok := InternalTrigger(c.slave, c.master)
		if ok != c.ok || (ok && n != c.n) {
			t.Fatalf("%s<-%s: got ITR%d,%v want ITR%d,%v", c.slave, c.master, n, ok, c.n, c.ok)
		}
	}
}

func TestCatalogue(t *testing.T) {
	in, ok := Lookup("tim6")
	if !ok || in.Master() || in.Slave() || in.Channels != 0 {
		t.Fatalf("tim6 = %+v", in)
	}
	in, ok = Lookup("tim3")
	if !ok || !in.Slave() || in.Channels != 4 || in.Bus != APB1 {
		t.Fatalf("tim3 = %+v", in)
	}
	if _, ok := Lookup("tim9"); ok {
		t.Fatal("tim9 present")
	}
	if got := TimerClock(APB1).FrequencyHz; got != 72_000_000 {
		t.Fatalf("APB1 timer clock = %d", got)
	}
	// Every slave-capable timer has a routing row.
	for _, in := range Timers() {
		if _, ok := itr[in.ID]; ok != in.Slave() {
			t.Fatalf("%s: routing row %v, slave %v", in.ID, ok, in.Slave())
		}
	}
}

func TestEncodings(t *testing.T) {
	if SMCR(1, timer.SlaveGated) != 0x15 {
		t.Fatalf("SMCR gated ITR1 = %#x", SMCR(1, timer.SlaveGated))
	}
	if SMCR(0, timer.SlaveTrigger) != 0x06 || SMCR(2, timer.SlaveReset) != 0x24 {
		t.Fatal("SMCR trigger/reset")
	}
	if MMS(1) != 0b100 || MMS(4) != 0b111 {
		t.Fatalf("MMS = %b %b", MMS(1), MMS(4))
	}

	reg, shift, val := CCMRField(1, timer.ModePWM)
	if reg != 1 || shift != 0 || val != 0x68 {
		t.Fatalf("CH1 PWM = %d %d %#x", reg, shift, val)
	}
	reg, shift, val = CCMRField(4, timer.ModeToggle)
	if reg != 2 || shift != 8 || val != 0x30 {
		t.Fatalf("CH4 toggle = %d %d %#x", reg, shift, val)
	}

	set, mask := CCER(2, true, timer.ActiveLow)
	if set != 0x30 || mask != 0x30 {
		t.Fatalf("CCER ch2 low = %#x/%#x", set, mask)
	}
	set, mask = CCER(3, true, timer.ActiveHigh)
	if set != 0x100 || mask != 0x300 {
		t.Fatalf("CCER ch3 high = %#x/%#x", set, mask)
	}
}
