// Package timercfg maps HAL timer params onto timer.Peripheral and reports
// programmed state back in bus types.
package timercfg

import (
	"timercore/errcode"
	"timercore/timer"
	"timercore/types"
)

// Apply programs the timebase, then each channel in order. The first error
// stops the sequence and is wrapped with the step that failed.
func Apply(per *timer.Peripheral, p types.TimerParams) error {
	if err := per.SetTimebaseByFrequency(p.TickHz, p.Reload); err != nil {
		return errcode.Wrap("timebase", err)
	}
	for _, c := range p.Channels {
		pol := timer.ActiveHigh
		if c.ActiveLow {
			pol = timer.ActiveLow
		}
		var err error
		switch c.Mode {
		case "pwm":
			err = per.InitPWM(c.Index, c.Duty, pol)
		case "toggle":
			err = per.InitToggle(c.Index, c.Compare, pol)
		default:
			err = errcode.InvalidParams
		}
		if err != nil {
			return errcode.Wrap("channel", err)
		}
	}
	return nil
}

// Info describes the programmed configuration of per.
func Info(per *timer.Peripheral) types.TimerInfo {
	clk, tb := per.Clock(), per.Timebase()
	in := types.TimerInfo{
		Timer:           string(per.ID()),
		Role:            per.Role().String(),
		ClockHz:         clk.FrequencyHz,
		Prescaler:       tb.Prescaler,
		Reload:          tb.Reload,
		TickHz:          tb.TickHz(clk),
		OverflowMilliHz: tb.OverflowMilliHz(clk),
	}
	for _, c := range per.Snapshot().ChannelList() {
		in.Channels = append(in.Channels, types.TimerChannelInfo{
			Index:       c.Index,
			Mode:        c.Mode.String(),
			Compare:     c.Compare,
			ActiveLow:   c.Polarity == timer.ActiveLow,
			DutyPercent: c.DutyPercent,
			WaveMilliHz: c.WaveMilliHz(tb, clk),
		})
	}
	return in
}

func Value(per *timer.Peripheral) types.TimerValue {
	return types.TimerValue{State: per.State().String(), Running: per.Running()}
}
