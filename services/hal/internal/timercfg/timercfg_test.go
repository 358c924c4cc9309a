package timercfg

import (
	"errors"
	"testing"

	"timercore/errcode"
	"timercore/timer"
	"timercore/timer/sim"
	"timercore/types"
)

func newPeripheral(t *testing.T, clock uint32) *timer.Peripheral {
	t.Helper()
	clk := timer.ClockDomain{FrequencyHz: clock}
	b := sim.NewGeneralPurpose(clk, "tim2")
	regs, _ := b.Timer("tim2")
	p, err := timer.New(regs, timer.Config{Clock: clk})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestApply_Info(t *testing.T) {
	p := newPeripheral(t, 16_000_000)
	err := Apply(p, types.TimerParams{
		Timer:  "tim2",
		TickHz: 2000,
		Reload: 7999,
		Channels: []types.TimerChannelParams{
			{Index: 1, Mode: "pwm", Duty: 25},
			{Index: 3, Mode: "toggle", Compare: 100, ActiveLow: true},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	in := Info(p)
	if in.Prescaler != 7999 || in.TickHz != 2000 || in.OverflowMilliHz != 250 || in.Role != "none" {
		t.Fatalf("info = %+v", in)
	}
	if len(in.Channels) != 2 {
		t.Fatalf("channels = %+v", in.Channels)
	}
	if c := in.Channels[0]; c.Compare != 2000 || c.Mode != "pwm" || c.WaveMilliHz != 250 {
		t.Fatalf("ch1 = %+v", c)
	}
	if c := in.Channels[1]; !c.ActiveLow || c.Mode != "toggle" || c.WaveMilliHz != 125 {
		t.Fatalf("ch3 = %+v", c)
	}
	if v := Value(p); v.State != "channels_ready" || v.Running {
		t.Fatalf("value = %+v", v)
	}
}

func TestApply_Errors(t *testing.T) {
	cases := []struct {
		name string
		p    types.TimerParams
		op   string
		code errcode.Code
	}{
		{"slow tick", types.TimerParams{TickHz: 500, Reload: 10}, "timebase", errcode.FrequencyOutOfRange},
		{"bad mode", types.TimerParams{TickHz: 2000, Reload: 10, Channels: []types.TimerChannelParams{{Index: 1, Mode: "pulse"}}}, "channel", errcode.InvalidParams},
		{"bad index", types.TimerParams{TickHz: 2000, Reload: 10, Channels: []types.TimerChannelParams{{Index: 7, Mode: "pwm"}}}, "channel", errcode.ChannelUnavailable},
	}
	for _, c := range cases {
		err := Apply(newPeripheral(t, 72_000_000), c.p)
		var e *errcode.E
		if !errors.As(err, &e) || e.Op != c.op || e.C != c.code {
			t.Fatalf("%s: err = %v", c.name, err)
		}
	}
}
