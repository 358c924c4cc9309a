// Package stm32 describes the STM32F1 timer set: which counters exist, how
// their internal triggers are wired, and how timer settings encode into
// register fields. The register backend itself is only built for TinyGo.
package stm32

import "timercore/timer"

// Kind of timer block.
type Kind uint8

const (
	Basic    Kind = iota // TIM6, TIM7: no compare units, no slave mode
	General              // TIM2..TIM5
	Advanced             // TIM1, TIM8
)

func (k Kind) String() string {
	switch k {
	case Basic:
		return "basic"
	case General:
		return "general"
	default:
		return "advanced"
	}
}

// Bus the timer clock is taken from.
type Bus uint8

const (
	APB1 Bus = iota
	APB2
)

// Info is one catalogue entry.
type Info struct {
	ID       timer.ID
	Kind     Kind
	Bus      Bus
	Channels int
}

func (i Info) Master() bool { return i.Kind != Basic }
func (i Info) Slave() bool  { return i.Kind != Basic }

var catalog = [...]Info{
	{ID: "tim1", Kind: Advanced, Bus: APB2, Channels: 4},
	{ID: "tim2", Kind: General, Bus: APB1, Channels: 4},
	{ID: "tim3", Kind: General, Bus: APB1, Channels: 4},
	{ID: "tim4", Kind: General, Bus: APB1, Channels: 4},
	{ID: "tim5", Kind: General, Bus: APB1, Channels: 4},
	{ID: "tim6", Kind: Basic, Bus: APB1},
	{ID: "tim7", Kind: Basic, Bus: APB1},
	{ID: "tim8", Kind: Advanced, Bus: APB2, Channels: 4},
}

// Lookup finds id in the catalogue.
func Lookup(id timer.ID) (Info, bool) {
	for _, in := range catalog {
		if in.ID == id {
			return in, true
		}
	}
	return Info{}, false
}

// Timers lists the catalogue in register-map order.
func Timers() []Info { return append([]Info(nil), catalog[:]...) }

// itr[slave][n] is the master whose TRGO drives ITRn of slave
// (RM0008, TIMx internal trigger connection tables).
var itr = map[timer.ID][4]timer.ID{
	"tim1": {"tim5", "tim2", "tim3", "tim4"},
	"tim8": {"tim1", "tim2", "tim4", "tim5"},
	"tim2": {"tim1", "tim8", "tim3", "tim4"},
	"tim3": {"tim1", "tim2", "tim5", "tim4"},
	"tim4": {"tim1", "tim2", "tim3", "tim8"},
	"tim5": {"tim2", "tim3", "tim4", "tim8"},
}

// InternalTrigger returns n such that ITRn of slave is master's TRGO.
func InternalTrigger(slave, master timer.ID) (uint8, bool) {
	row, ok := itr[slave]
	if !ok {
		return 0, false
	}
	for n, m := range row {
		if m == master {
			return uint8(n), true
		}
	}
	return 0, false
}

// Default clock tree: 8 MHz HSE, PLL x9, APB1 /2, APB2 /1.
const (
	SysClockHz = 72_000_000
	APB1Hz     = SysClockHz / 2
	APB2Hz     = SysClockHz
)

// TimerClock is the prescaler input clock for timers on bus. With APB1
// divided, its timers are clocked at twice the bus frequency.
func TimerClock(bus Bus) timer.ClockDomain {
	if bus == APB1 {
		return timer.ClockDomain{FrequencyHz: APB1Hz * 2}
	}
	return timer.ClockDomain{FrequencyHz: APB2Hz}
}

// ---- field encodings ----

const (
	cr1CEN   = 1 << 0
	egrUG    = 1 << 0
	bdtrMOE  = 1 << 15
	mmsShift = 4
	mmsMask  = 0x7
	smcrMask = 0x77 // TS[6:4] | SMS[2:0]
	ocPE     = 1 << 3
)

// SMS is the SMCR slave mode selection for m.
func SMS(m timer.SlaveMode) uint32 {
	switch m {
	case timer.SlaveReset:
		return 0b100
	case timer.SlaveGated:
		return 0b101
	case timer.SlaveTrigger:
		return 0b110
	default:
		return 0
	}
}

// SMCR is the TS|SMS value selecting ITRn in mode m.
func SMCR(n uint8, m timer.SlaveMode) uint32 { return uint32(n&0x3)<<4 | SMS(m) }

// MMS selects OCxREF of ch as TRGO (CR2 bits 6:4).
func MMS(ch uint8) uint32 { return 0b100 + uint32(ch-1) }

// OCM is the OCxM output compare mode field.
func OCM(m timer.OutputMode) uint32 {
	switch m {
	case timer.ModeToggle:
		return 0b011
	case timer.ModePWM:
		return 0b110
	default:
		return 0b000
	}
}

// CCMRField returns which CCMR register (1 or 2) holds channel ch, the
// shift of its output byte and the byte value for mode m. PWM channels get
// compare preload so CCRx updates land on the next period.
func CCMRField(ch uint8, m timer.OutputMode) (reg int, shift uint8, val uint32) {
	reg = 1
	if ch > 2 {
		reg = 2
	}
	if ch%2 == 0 {
		shift = 8
	}
	val = OCM(m) << 4
	if m == timer.ModePWM {
		val |= ocPE
	}
	return reg, shift, val
}

// CCER returns the enable and polarity bits for ch: mask covers both, set
// is the value to program under it.
func CCER(ch uint8, on bool, p timer.Polarity) (set, mask uint32) {
	base := 4 * uint32(ch-1)
	e, pol := uint32(1)<<base, uint32(1)<<(base+1)
	mask = e | pol
	if on {
		set |= e
	}
	if p == timer.ActiveLow {
		set |= pol
	}
	return set, mask
}
