// Package timer configures on-chip counter/timer peripherals: timebase,
// output-compare channels, master/slave trigger links and the enable protocol
// that ties two timers together.
package timer

import (
	"timercore/errcode"
	"timercore/x/mathx"
)

// ClockDomain is the input clock feeding a timer's prescaler. It is supplied
// by the platform and never changed by this package.
type ClockDomain struct {
	FrequencyHz uint32
}

// 16-bit counter limits.
const (
	MaxPrescaler = 0xFFFF
	MaxDivisor   = MaxPrescaler + 1
	MaxReload    = 0xFFFF
)

// Timebase is the programmed counter geometry. Prescaler is the register
// value; the clock is divided by Prescaler+1. The counter runs 0..Reload.
type Timebase struct {
	Prescaler uint16
	Reload    uint16
}

func (tb Timebase) Divisor() uint32     { return uint32(tb.Prescaler) + 1 }
func (tb Timebase) PeriodTicks() uint32 { return uint32(tb.Reload) + 1 }

// TickHz is the counter clock actually produced from clock.
func (tb Timebase) TickHz(clock ClockDomain) uint32 {
	return mathx.RoundDiv(clock.FrequencyHz, tb.Divisor())
}

// OverflowMilliHz is the counter wrap rate in mHz.
func (tb Timebase) OverflowMilliHz(clock ClockDomain) uint64 {
	return mathx.RoundDiv(uint64(clock.FrequencyHz)*1000, uint64(tb.Divisor())*uint64(tb.PeriodTicks()))
}

// CalculateTimebase picks the prescaler whose divisor is nearest to
// clock/tickHz. The reload is taken as given. A divisor outside [1, 65536]
// is FrequencyOutOfRange; nothing is clamped.
func CalculateTimebase(clock ClockDomain, tickHz uint32, reload uint16) (Timebase, error) {
	if clock.FrequencyHz == 0 || tickHz == 0 || tickHz > clock.FrequencyHz {
		return Timebase{}, errcode.FrequencyOutOfRange
	}
	div := mathx.RoundDiv(uint64(clock.FrequencyHz), uint64(tickHz))
	if !mathx.Between(div, 1, MaxDivisor) {
		return Timebase{}, errcode.FrequencyOutOfRange
	}
	return Timebase{Prescaler: uint16(div - 1), Reload: reload}, nil
}

// MinTickHz is the lowest tick frequency CalculateTimebase accepts for clock
// (1099 Hz at 72 MHz).
func MinTickHz(clock ClockDomain) uint32 {
	// round(c/t) <= 65536  <=>  t > c/65536.5
	return uint32(uint64(clock.FrequencyHz)*2/(2*MaxDivisor+1)) + 1
}
