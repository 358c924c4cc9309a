package sim

import (
	"timercore/errcode"
	"timercore/timer"
)

// Reg names a register field written through timer.Registers.
type Reg uint8

const (
	RegPSC  Reg = iota // prescaler
	RegARR             // auto-reload
	RegCCR             // capture/compare value
	RegCCMR            // output compare mode + polarity
	RegMMS             // master mode selection (trigger output)
	RegSMCR            // slave mode control
	RegEGR             // update generation
	RegCEN             // counter enable
)

func (r Reg) String() string {
	switch r {
	case RegPSC:
		return "PSC"
	case RegARR:
		return "ARR"
	case RegCCR:
		return "CCR"
	case RegCCMR:
		return "CCMR"
	case RegMMS:
		return "MMS"
	case RegSMCR:
		return "SMCR"
	case RegEGR:
		return "EGR"
	case RegCEN:
		return "CEN"
	default:
		return "?"
	}
}

// Write is one journal entry.
type Write struct {
	Reg Reg
	Ch  uint8
	Val uint32
}

// Timer is one simulated counter.
type Timer struct {
	board *Board
	spec  Spec
	id    timer.ID

	// programmed registers
	psc, arr uint16
	ccr      [timer.MaxChannels]uint16
	mode     [timer.MaxChannels]timer.OutputMode
	pol      [timer.MaxChannels]timer.Polarity
	outEn    [timer.MaxChannels]bool
	trgoCh   uint8
	sms      timer.SlaveMode
	src      *Timer
	cen      bool
	armed    bool // trigger mode: enabled, waiting for an edge

	// counter state
	cnt    uint16
	pscCnt uint16
	ref    [timer.MaxChannels]bool // toggle channels only
	trgi   bool
	prev   bool
	wraps  uint64

	journal []Write
}

var _ timer.Registers = (*Timer)(nil)

func newTimer(b *Board, s Spec) *Timer {
	return &Timer{board: b, spec: s, id: s.ID}
}

func (t *Timer) log(r Reg, ch uint8, v uint32) {
	w := Write{Reg: r, Ch: ch, Val: v}
	t.journal = append(t.journal, w)
	t.board.record(t.id, w)
}

// ---- timer.Registers ----

func (t *Timer) ID() timer.ID         { return t.id }
func (t *Timer) Channels() int        { return t.spec.Channels }
func (t *Timer) SupportsMaster() bool { return t.spec.Master }
func (t *Timer) SupportsSlave() bool  { return t.spec.Slave }

func (t *Timer) SetPrescaler(psc uint16) { t.psc = psc; t.log(RegPSC, 0, uint32(psc)) }
func (t *Timer) SetReload(arr uint16)    { t.arr = arr; t.log(RegARR, 0, uint32(arr)) }

func (t *Timer) SetCompare(ch uint8, v uint16) {
	if !t.validCh(ch) {
		return
	}
	t.ccr[ch-1] = v
	t.log(RegCCR, ch, uint32(v))
}

func (t *Timer) SetOutputMode(ch uint8, m timer.OutputMode, p timer.Polarity) {
	if !t.validCh(ch) {
		return
	}
	t.mode[ch-1] = m
	t.pol[ch-1] = p
	t.outEn[ch-1] = m != timer.ModeFrozen
	t.ref[ch-1] = false
	t.log(RegCCMR, ch, uint32(m)|uint32(p)<<4)
}

func (t *Timer) SetMasterOutput(ch uint8) {
	t.trgoCh = ch
	t.log(RegMMS, ch, uint32(ch))
}

func (t *Timer) SetSlaveMode(master timer.ID, m timer.SlaveMode) error {
	if !t.spec.Slave {
		return errcode.Unsupported
	}
	src := t.board.lookup(master)
	if src == nil || src == t || !src.spec.Master || !t.board.routable(t.id, master) {
		return errcode.TriggerUnavailable
	}
	t.src = src
	t.sms = m
	t.log(RegSMCR, 0, uint32(m))
	return nil
}

func (t *Timer) GenerateUpdate() {
	t.cnt = 0
	t.pscCnt = 0
	t.log(RegEGR, 0, 1)
}

func (t *Timer) SetCounterEnabled(on bool) {
	if on && t.sms == timer.SlaveTrigger {
		t.armed = true
	} else {
		t.cen = on
		t.armed = false
	}
	var v uint32
	if on {
		v = 1
	}
	t.log(RegCEN, 0, v)
}

func (t *Timer) validCh(ch uint8) bool { return ch >= 1 && int(ch) <= t.spec.Channels }

// ---- observation ----

// Journal returns the register writes in program order.
func (t *Timer) Journal() []Write { return append([]Write(nil), t.journal...) }

// Counter is the current CNT value.
func (t *Timer) Counter() uint16 { return t.cnt }

// Enabled reports whether the counter is clocked (ignoring gating).
func (t *Timer) Enabled() bool { return t.cen }

// Wraps counts reload-to-zero transitions.
func (t *Timer) Wraps() uint64 { return t.wraps }

// Ref is OCxREF of channel ch: the compare output before polarity.
func (t *Timer) Ref(ch uint8) bool {
	if !t.validCh(ch) {
		return false
	}
	switch t.mode[ch-1] {
	case timer.ModePWM:
		return t.cnt < t.ccr[ch-1]
	case timer.ModeToggle:
		return t.ref[ch-1]
	default:
		return false
	}
}

// Output is the electrical level of channel ch.
func (t *Timer) Output(ch uint8) bool {
	if !t.validCh(ch) || !t.outEn[ch-1] {
		return false
	}
	return t.Ref(ch) != (t.pol[ch-1] == timer.ActiveLow)
}

// TriggerOut is the master trigger output (TRGO).
func (t *Timer) TriggerOut() bool {
	if t.trgoCh == 0 {
		return false
	}
	return t.Ref(t.trgoCh)
}

// ---- clocking ----

func (t *Timer) sampleTrigger() {
	t.prev = t.trgi
	if t.src == nil || t.sms == timer.SlaveDisabled {
		t.trgi = false
		return
	}
	t.trgi = t.src.TriggerOut()
}

func (t *Timer) clockEdge() {
	rising := t.trgi && !t.prev
	switch t.sms {
	case timer.SlaveTrigger:
		if t.armed && rising {
			t.cen, t.armed = true, false
		}
	case timer.SlaveReset:
		if t.cen && rising {
			t.cnt, t.pscCnt = 0, 0
			return
		}
	}
	if !t.cen {
		return
	}
	if t.sms == timer.SlaveGated && !t.trgi {
		return
	}
	if t.pscCnt < t.psc {
		t.pscCnt++
		return
	}
	t.pscCnt = 0
	t.tick()
}

func (t *Timer) tick() {
	if t.cnt >= t.arr {
		t.cnt = 0
		t.wraps++
	} else {
		t.cnt++
	}
	for i := 0; i < t.spec.Channels; i++ {
		if t.mode[i] == timer.ModeToggle && t.cnt == t.ccr[i] {
			t.ref[i] = !t.ref[i]
		}
	}
}
