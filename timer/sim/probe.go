package sim

import (
	"tinygo.org/x/drivers"

	"timercore/errcode"
)

// Probe watches one output pin of a simulated timer. It is a drivers.Sensor:
// each Update with drivers.Time advances the board by Period cycles and
// records the pin level.
type Probe struct {
	board  *Board
	timer  *Timer
	ch     uint8
	period uint64

	level   bool
	samples []bool
	rising  int
}

var _ drivers.Sensor = (*Probe)(nil)

// NewProbe attaches to channel ch of t, sampling every period input cycles.
func NewProbe(b *Board, t *Timer, ch uint8, period uint64) (*Probe, error) {
	if b == nil || t == nil || t.board != b {
		return nil, errcode.InvalidParams
	}
	if !t.validCh(ch) {
		return nil, errcode.ChannelUnavailable
	}
	if period == 0 {
		period = 1
	}
	return &Probe{board: b, timer: t, ch: ch, period: period, level: t.Output(ch)}, nil
}

// Update implements drivers.Sensor.
func (p *Probe) Update(which drivers.Measurement) error {
	if which&drivers.Time == 0 {
		return nil
	}
	p.board.Step(p.period)
	lv := p.timer.Output(p.ch)
	if lv && !p.level {
		p.rising++
	}
	p.level = lv
	p.samples = append(p.samples, lv)
	return nil
}

// Level is the most recent sample.
func (p *Probe) Level() bool { return p.level }

// RisingEdges counts low-to-high transitions seen since the last Reset.
func (p *Probe) RisingEdges() int { return p.rising }

// Capture returns the recorded samples.
func (p *Probe) Capture() []bool { return append([]bool(nil), p.samples...) }

// Reset clears the capture but keeps the current level.
func (p *Probe) Reset() {
	p.samples = p.samples[:0]
	p.rising = 0
}

// Run takes n samples.
func (p *Probe) Run(n int) error {
	for i := 0; i < n; i++ {
		if err := p.Update(drivers.Time); err != nil {
			return err
		}
	}
	return nil
}
