package timer

import (
	"timercore/errcode"
	"timercore/x/mathx"
)

// MaxChannels is the number of compare units on a general purpose timer.
const MaxChannels = 4

// OutputMode is the action taken by a compare unit.
type OutputMode uint8

const (
	ModeFrozen OutputMode = iota // compare unit unused
	ModeToggle                   // invert the output on each match
	ModePWM                      // active while counter < compare
)

func (m OutputMode) String() string {
	switch m {
	case ModeToggle:
		return "toggle"
	case ModePWM:
		return "pwm"
	default:
		return "frozen"
	}
}

// Polarity selects which electrical level is "active".
type Polarity uint8

const (
	ActiveHigh Polarity = iota
	ActiveLow
)

// CompareChannel is one output-compare unit. Index is 1-based as in the
// reference manuals (CH1..CH4).
type CompareChannel struct {
	Index       uint8
	Compare     uint16
	Mode        OutputMode
	Polarity    Polarity
	DutyPercent uint8 // PWM only
}

// PWMCompare returns round(duty/100 * (reload+1)).
func PWMCompare(duty uint8, reload uint16) (uint16, error) {
	if duty > 100 {
		return 0, errcode.InvalidParams
	}
	v := mathx.RoundDiv(uint32(duty)*(uint32(reload)+1), 100)
	if v > 0xFFFF {
		// 100% of a full 16-bit period does not fit CCRx.
		return 0, errcode.InvalidParams
	}
	return uint16(v), nil
}

func newPWMChannel(index, duty uint8, pol Polarity, tb Timebase) (CompareChannel, error) {
	cmp, err := PWMCompare(duty, tb.Reload)
	if err != nil {
		return CompareChannel{}, err
	}
	return CompareChannel{Index: index, Compare: cmp, Mode: ModePWM, Polarity: pol, DutyPercent: duty}, nil
}

func newToggleChannel(index uint8, compare uint16, pol Polarity, tb Timebase) (CompareChannel, error) {
	if compare > tb.Reload {
		return CompareChannel{}, errcode.InvalidParams
	}
	return CompareChannel{Index: index, Compare: compare, Mode: ModeToggle, Polarity: pol}, nil
}

// ActiveTicks is how many ticks per period a PWM channel spends active.
func (c CompareChannel) ActiveTicks(tb Timebase) uint32 {
	if c.Mode != ModePWM {
		return 0
	}
	return mathx.Min(uint32(c.Compare), tb.PeriodTicks())
}

// WaveMilliHz is the frequency of the channel's output waveform in mHz:
// the wrap rate for PWM, half of it for toggle.
func (c CompareChannel) WaveMilliHz(tb Timebase, clock ClockDomain) uint64 {
	wrap := tb.OverflowMilliHz(clock)
	switch c.Mode {
	case ModePWM:
		return wrap
	case ModeToggle:
		return wrap / 2
	default:
		return 0
	}
}
