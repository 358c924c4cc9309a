package timer

import (
	"timercore/errcode"
)

// Role of a peripheral in a master/slave arrangement.
type Role uint8

const (
	RoleNone Role = iota
	RoleMaster
	RoleSlave
)

func (r Role) String() string {
	switch r {
	case RoleMaster:
		return "master"
	case RoleSlave:
		return "slave"
	default:
		return "none"
	}
}

// State is the peripheral lifecycle.
type State uint8

const (
	Unconfigured State = iota
	TimebaseSet
	ChannelsReady
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case TimebaseSet:
		return "timebase_set"
	case ChannelsReady:
		return "channels_ready"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return "unconfigured"
	}
}

// MasterFeature makes the peripheral a master whose trigger output follows
// OCxREF of Channel.
type MasterFeature struct {
	Channel uint8
}

// Config lists the capabilities a peripheral is built with. At most one of
// Master and Slave may be set.
type Config struct {
	Clock  ClockDomain
	Master *MasterFeature
	Slave  bool
}

// Peripheral drives one physical counter through its lifecycle. It owns the
// register block exclusively and is not safe for concurrent use.
type Peripheral struct {
	regs  Registers
	clock ClockDomain
	role  Role
	trgo  uint8 // master trigger channel

	tb    Timebase
	ch    [MaxChannels]CompareChannel
	used  uint8 // bit i set => ch[i] initialised
	state State

	masterOn bool
	slaveOn  bool
	link     *TriggerLink
}

// New validates cfg against what regs supports.
func New(regs Registers, cfg Config) (*Peripheral, error) {
	if regs == nil {
		return nil, errcode.InvalidParams
	}
	if regs.Channels() > MaxChannels {
		return nil, errcode.Unsupported
	}
	p := &Peripheral{regs: regs, clock: cfg.Clock}
	switch {
	case cfg.Master != nil && cfg.Slave:
		return nil, errcode.InvalidParams
	case cfg.Master != nil:
		if !regs.SupportsMaster() {
			return nil, errcode.Unsupported
		}
		if !p.validIndex(cfg.Master.Channel) {
			return nil, errcode.ChannelUnavailable
		}
		p.role = RoleMaster
		p.trgo = cfg.Master.Channel
	case cfg.Slave:
		if !regs.SupportsSlave() {
			return nil, errcode.Unsupported
		}
		p.role = RoleSlave
	}
	return p, nil
}

func (p *Peripheral) ID() ID             { return p.regs.ID() }
func (p *Peripheral) Role() Role         { return p.role }
func (p *Peripheral) State() State       { return p.state }
func (p *Peripheral) Clock() ClockDomain { return p.clock }
func (p *Peripheral) Timebase() Timebase { return p.tb }
func (p *Peripheral) Running() bool      { return p.state == Running }

// TriggerChannel is the channel driving the trigger output (masters only).
func (p *Peripheral) TriggerChannel() uint8 { return p.trgo }

// Channel returns the configuration of channel index, if initialised.
func (p *Peripheral) Channel(index uint8) (CompareChannel, bool) {
	if !p.validIndex(index) || p.used&(1<<(index-1)) == 0 {
		return CompareChannel{}, false
	}
	return p.ch[index-1], true
}

func (p *Peripheral) validIndex(index uint8) bool {
	return index >= 1 && int(index) <= p.regs.Channels()
}

// started reports whether the counter has ever been enabled.
func (p *Peripheral) started() bool { return p.state == Running || p.state == Stopped }

// configured reports whether a timebase has been programmed.
func (p *Peripheral) configured() bool { return p.state != Unconfigured }

func (p *Peripheral) checkMutable() error {
	if p.started() {
		return errcode.RunningReconfiguration
	}
	return nil
}

// SetTimebaseByFrequency programs the counter to tick at hz with the given
// reload. On error the peripheral is left unchanged.
func (p *Peripheral) SetTimebaseByFrequency(hz uint32, reload uint16) error {
	if err := p.checkMutable(); err != nil {
		return err
	}
	if p.state == ChannelsReady {
		// Compare values were derived from the current reload.
		return errcode.InvalidState
	}
	tb, err := CalculateTimebase(p.clock, hz, reload)
	if err != nil {
		return err
	}
	p.applyTimebase(tb)
	return nil
}

func (p *Peripheral) applyTimebase(tb Timebase) {
	p.regs.SetPrescaler(tb.Prescaler)
	p.regs.SetReload(tb.Reload)
	p.regs.GenerateUpdate()
	p.tb = tb
	p.state = TimebaseSet
}

// InitPWM configures channel index for PWM with duty percent.
func (p *Peripheral) InitPWM(index, duty uint8, pol Polarity) error {
	if err := p.checkChannelInit(index); err != nil {
		return err
	}
	c, err := newPWMChannel(index, duty, pol, p.tb)
	if err != nil {
		return err
	}
	p.commitChannel(c)
	return nil
}

// InitToggle configures channel index to invert its output whenever the
// counter reaches compare.
func (p *Peripheral) InitToggle(index uint8, compare uint16, pol Polarity) error {
	if err := p.checkChannelInit(index); err != nil {
		return err
	}
	c, err := newToggleChannel(index, compare, pol, p.tb)
	if err != nil {
		return err
	}
	p.commitChannel(c)
	return nil
}

func (p *Peripheral) checkChannelInit(index uint8) error {
	if err := p.checkMutable(); err != nil {
		return err
	}
	if !p.configured() {
		return errcode.InvalidState
	}
	if !p.validIndex(index) {
		return errcode.ChannelUnavailable
	}
	return nil
}

func (p *Peripheral) commitChannel(c CompareChannel) {
	p.regs.SetCompare(c.Index, c.Compare)
	p.regs.SetOutputMode(c.Index, c.Mode, c.Polarity)
	p.ch[c.Index-1] = c
	p.used |= 1 << (c.Index - 1)
	p.state = ChannelsReady
}

// EnableMasterFeature routes the trigger channel to the trigger output. It
// must precede EnablePeripheral.
func (p *Peripheral) EnableMasterFeature() error {
	if p.role != RoleMaster {
		return errcode.Unsupported
	}
	if p.masterOn {
		return nil
	}
	if p.started() {
		return errcode.InvalidEnableOrder
	}
	if _, ok := p.Channel(p.trgo); !ok {
		return errcode.InvalidState
	}
	p.regs.SetMasterOutput(p.trgo)
	p.masterOn = true
	return nil
}

// EnableSlaveFeature programs trigger select and slave mode from the
// attached link and consumes it. It must precede EnablePeripheral.
func (p *Peripheral) EnableSlaveFeature() error {
	if p.role != RoleSlave {
		return errcode.Unsupported
	}
	if p.slaveOn {
		return nil
	}
	if p.started() {
		return errcode.InvalidEnableOrder
	}
	l := p.link
	if l == nil || !p.configured() {
		return errcode.InvalidState
	}
	if err := l.check(); err != nil {
		return err
	}
	if err := p.regs.SetSlaveMode(l.master.ID(), l.mode); err != nil {
		return err
	}
	l.consumed = true
	p.slaveOn = true
	return nil
}

// EnablePeripheral starts the counter. Master and slave roles require their
// feature to be enabled first; otherwise InvalidEnableOrder and the counter
// stays off.
func (p *Peripheral) EnablePeripheral() error {
	switch p.state {
	case Running:
		return nil
	case Unconfigured:
		return errcode.InvalidState
	}
	if p.role == RoleMaster && !p.masterOn {
		return errcode.InvalidEnableOrder
	}
	if p.role == RoleSlave && !p.slaveOn {
		return errcode.InvalidEnableOrder
	}
	p.regs.SetCounterEnabled(true)
	p.state = Running
	return nil
}

// DisablePeripheral stops the counter. Timebase and channels are kept so a
// later EnablePeripheral resumes without reconfiguration.
func (p *Peripheral) DisablePeripheral() error {
	switch p.state {
	case Running:
		p.regs.SetCounterEnabled(false)
		p.state = Stopped
		return nil
	case Stopped:
		return nil
	default:
		return errcode.InvalidState
	}
}

// Snapshot is a comparable copy of the programmed configuration.
type Snapshot struct {
	ID       ID
	Role     Role
	Timebase Timebase
	Channels [MaxChannels]CompareChannel
	Used     uint8
	MasterOn bool
	SlaveOn  bool
}

func (p *Peripheral) Snapshot() Snapshot {
	return Snapshot{
		ID:       p.ID(),
		Role:     p.role,
		Timebase: p.tb,
		Channels: p.ch,
		Used:     p.used,
		MasterOn: p.masterOn,
		SlaveOn:  p.slaveOn,
	}
}

// ChannelList lists initialised channels in index order.
func (s Snapshot) ChannelList() []CompareChannel {
	var out []CompareChannel
	for i := 0; i < MaxChannels; i++ {
		if s.Used&(1<<i) != 0 {
			out = append(out, s.Channels[i])
		}
	}
	return out
}
