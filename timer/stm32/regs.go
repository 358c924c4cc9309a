//go:build tinygo && stm32f103

package stm32

import (
	dev "device/stm32"
	"runtime/volatile"

	"timercore/errcode"
	"timercore/timer"
)

type block struct {
	enable *volatile.Register32
	flag   uint32
	regs   *dev.TIM_Type
}

var blocks = map[timer.ID]block{
	"tim1": {&dev.RCC.APB2ENR, dev.RCC_APB2ENR_TIM1EN, dev.TIM1},
	"tim2": {&dev.RCC.APB1ENR, dev.RCC_APB1ENR_TIM2EN, dev.TIM2},
	"tim3": {&dev.RCC.APB1ENR, dev.RCC_APB1ENR_TIM3EN, dev.TIM3},
	"tim4": {&dev.RCC.APB1ENR, dev.RCC_APB1ENR_TIM4EN, dev.TIM4},
}

// Timer is the register block of one STM32F1 counter.
type Timer struct {
	info Info
	r    *dev.TIM_Type
}

var _ timer.Registers = (*Timer)(nil)

// Open clocks the block for id and returns its registers. Timers present in
// the catalogue but absent from this part return Unsupported.
func Open(id timer.ID) (*Timer, error) {
	info, ok := Lookup(id)
	if !ok {
		return nil, errcode.UnknownTimer
	}
	b, ok := blocks[id]
	if !ok {
		return nil, errcode.Unsupported
	}
	b.enable.SetBits(b.flag)
	return &Timer{info: info, r: b.regs}, nil
}

func (t *Timer) ID() timer.ID         { return t.info.ID }
func (t *Timer) Channels() int        { return t.info.Channels }
func (t *Timer) SupportsMaster() bool { return t.info.Master() }
func (t *Timer) SupportsSlave() bool  { return t.info.Slave() }

func (t *Timer) SetPrescaler(psc uint16) { t.r.PSC.Set(uint32(psc)) }
func (t *Timer) SetReload(arr uint16)    { t.r.ARR.Set(uint32(arr)) }

func (t *Timer) ccr(ch uint8) *volatile.Register32 {
	switch ch {
	case 1:
		return &t.r.CCR1
	case 2:
		return &t.r.CCR2
	case 3:
		return &t.r.CCR3
	case 4:
		return &t.r.CCR4
	}
	return nil
}

func (t *Timer) SetCompare(ch uint8, v uint16) {
	if r := t.ccr(ch); r != nil {
		r.Set(uint32(v))
	}
}

func (t *Timer) SetOutputMode(ch uint8, m timer.OutputMode, p timer.Polarity) {
	if ch < 1 || int(ch) > t.info.Channels {
		return
	}
	reg, shift, val := CCMRField(ch, m)
	ccmr := &t.r.CCMR1_Output
	if reg == 2 {
		ccmr = &t.r.CCMR2_Output
	}
	ccmr.ReplaceBits(val, 0xFF, shift)

	set, mask := CCER(ch, m != timer.ModeFrozen, p)
	t.r.CCER.ReplaceBits(set, mask, 0)
	if t.info.Kind == Advanced {
		t.r.BDTR.SetBits(bdtrMOE)
	}
}

func (t *Timer) SetMasterOutput(ch uint8) {
	t.r.CR2.ReplaceBits(MMS(ch), mmsMask, mmsShift)
}

func (t *Timer) SetSlaveMode(master timer.ID, m timer.SlaveMode) error {
	if !t.info.Slave() {
		return errcode.Unsupported
	}
	n, ok := InternalTrigger(t.info.ID, master)
	if !ok {
		return errcode.TriggerUnavailable
	}
	t.r.SMCR.ReplaceBits(SMCR(n, m), smcrMask, 0)
	return nil
}

func (t *Timer) GenerateUpdate() { t.r.EGR.Set(egrUG) }

func (t *Timer) SetCounterEnabled(on bool) {
	if on {
		t.r.CR1.SetBits(cr1CEN)
		return
	}
	t.r.CR1.ClearBits(cr1CEN)
}
