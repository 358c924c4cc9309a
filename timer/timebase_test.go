package timer

import (
	"testing"

	"timercore/errcode"
)

var clk72 = ClockDomain{FrequencyHz: 72_000_000}

func TestCalculateTimebase_Nearest(t *testing.T) {
	cases := []struct {
		clock  uint32
		tickHz uint32
		reload uint16
		psc    uint16
	}{
		{16_000_000, 2000, 7999, 7999},
		{72_000_000, 2000, 7999, 35999},
		{72_000_000, 1_000_000, 999, 71},
		{72_000_000, 72_000_000, 0xFFFF, 0},
	}
	for _, c := range cases {
		tb, err := CalculateTimebase(ClockDomain{c.clock}, c.tickHz, c.reload)
		if err != nil {
			t.Fatalf("%d/%d: %v", c.clock, c.tickHz, err)
		}
		if tb.Prescaler != c.psc || tb.Reload != c.reload {
			t.Fatalf("%d/%d: got %+v, want psc=%d arr=%d", c.clock, c.tickHz, tb, c.psc, c.reload)
		}
	}
}

func TestCalculateTimebase_ErrorBound(t *testing.T) {
	// |clock - divisor*tick| <= tick/2 for every accepted request.
	for _, hz := range []uint32{1099, 1234, 2000, 3333, 7777, 48_000, 1_000_003, 36_000_000} {
		tb, err := CalculateTimebase(clk72, hz, 100)
		if err != nil {
			t.Fatalf("%d Hz: %v", hz, err)
		}
		prod := int64(tb.Divisor()) * int64(hz)
		diff := int64(clk72.FrequencyHz) - prod
		if diff < 0 {
			diff = -diff
		}
		if 2*diff > int64(hz) {
			t.Fatalf("%d Hz: divisor %d misses by %d", hz, tb.Divisor(), diff)
		}
	}
}

func TestCalculateTimebase_OutOfRange(t *testing.T) {
	cases := []struct {
		name   string
		clock  uint32
		tickHz uint32
	}{
		{"too slow for 16 bits", 72_000_000, 500},
		{"just below floor", 72_000_000, 1098},
		{"zero tick", 72_000_000, 0},
		{"faster than clock", 72_000_000, 72_000_001},
		{"no clock", 0, 1000},
	}
	for _, c := range cases {
		_, err := CalculateTimebase(ClockDomain{c.clock}, c.tickHz, 0)
		if err != errcode.FrequencyOutOfRange {
			t.Fatalf("%s: err = %v, want %v", c.name, err, errcode.FrequencyOutOfRange)
		}
	}
}

func TestMinTickHz(t *testing.T) {
	min := MinTickHz(clk72)
	if min != 1099 {
		t.Fatalf("MinTickHz(72MHz) = %d, want 1099", min)
	}
	if _, err := CalculateTimebase(clk72, min, 0); err != nil {
		t.Fatalf("floor rejected: %v", err)
	}
	if _, err := CalculateTimebase(clk72, min-1, 0); err == nil {
		t.Fatal("below floor accepted")
	}
	for _, c := range []uint32{1_000_000, 8_000_000, 16_000_000, 48_000_000} {
		m := MinTickHz(ClockDomain{c})
		if _, err := CalculateTimebase(ClockDomain{c}, m, 0); err != nil {
			t.Fatalf("clock %d: floor %d rejected", c, m)
		}
		if _, err := CalculateTimebase(ClockDomain{c}, m-1, 0); err == nil {
			t.Fatalf("clock %d: %d accepted", c, m-1)
		}
	}
}

func TestTimebase_Rates(t *testing.T) {
	tb := Timebase{Prescaler: 7999, Reload: 199}
	clock := ClockDomain{16_000_000}
	if got := tb.TickHz(clock); got != 2000 {
		t.Fatalf("TickHz = %d", got)
	}
	if got := tb.OverflowMilliHz(clock); got != 10_000 {
		t.Fatalf("OverflowMilliHz = %d, want 10000", got)
	}
}

func TestPWMCompare(t *testing.T) {
	cases := []struct {
		duty   uint8
		reload uint16
		want   uint16
		err    error
	}{
		{25, 7999, 2000, nil},
		{50, 999, 500, nil},
		{0, 7999, 0, nil},
		{100, 7999, 8000, nil},
		{33, 99, 33, nil},
		{101, 7999, 0, errcode.InvalidParams},
		{100, 0xFFFF, 0, errcode.InvalidParams},
	}
	for _, c := range cases {
		got, err := PWMCompare(c.duty, c.reload)
		if err != c.err || got != c.want {
			t.Fatalf("PWMCompare(%d,%d) = %d,%v want %d,%v", c.duty, c.reload, got, err, c.want, c.err)
		}
	}
}

func TestCompareChannel_WaveRates(t *testing.T) {
	clock := ClockDomain{16_000_000}
	tb := Timebase{Prescaler: 7999, Reload: 199}

	toggle, err := newToggleChannel(1, 199, ActiveHigh, tb)
	if err != nil {
		t.Fatal(err)
	}
	if got := toggle.WaveMilliHz(tb, clock); got != 5_000 {
		t.Fatalf("toggle wave = %d mHz, want 5000", got)
	}
	if _, err := newToggleChannel(1, 200, ActiveHigh, tb); err != errcode.InvalidParams {
		t.Fatalf("compare past reload: %v", err)
	}

	pwm, err := newPWMChannel(2, 25, ActiveHigh, Timebase{Prescaler: 7999, Reload: 7999})
	if err != nil {
		t.Fatal(err)
	}
	if pwm.Compare != 2000 || pwm.ActiveTicks(Timebase{Reload: 7999}) != 2000 {
		t.Fatalf("pwm = %+v", pwm)
	}
	if got := pwm.WaveMilliHz(Timebase{Prescaler: 7999, Reload: 7999}, clock); got != 250 {
		t.Fatalf("pwm wave = %d mHz, want 250", got)
	}
}
