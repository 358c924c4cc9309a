package timer

import "timercore/errcode"

// Step is one stage of the pair start sequence.
type Step uint8

const (
	StepMasterFeature Step = iota
	StepMasterEnable
	StepSlaveFeature
	StepSlaveEnable
)

func (s Step) String() string {
	switch s {
	case StepMasterFeature:
		return "master.enable_master_feature"
	case StepMasterEnable:
		return "master.enable_peripheral"
	case StepSlaveFeature:
		return "slave.enable_slave_feature"
	case StepSlaveEnable:
		return "slave.enable_peripheral"
	default:
		return "unknown"
	}
}

// Pair owns a master and a slave peripheral joined by a trigger link, and
// brings them up in the only order the hardware tolerates.
type Pair struct {
	master *Peripheral
	slave  *Peripheral
	link   *TriggerLink
}

// NewPair checks that link joins master to slave and is the link the slave
// will program. A link replaced by a later NewTriggerLink is InvalidParams; one
// already consumed is InvalidState.
func NewPair(master, slave *Peripheral, link *TriggerLink) (*Pair, error) {
	if master == nil || slave == nil || link == nil {
		return nil, errcode.InvalidParams
	}
	if link.master != master || link.slave != slave || slave.link != link {
		return nil, errcode.InvalidParams
	}
	if master.role != RoleMaster || slave.role != RoleSlave {
		return nil, errcode.InvalidParams
	}
	if link.consumed {
		return nil, errcode.InvalidState
	}
	return &Pair{master: master, slave: slave, link: link}, nil
}

func (p *Pair) Master() *Peripheral { return p.master }
func (p *Pair) Slave() *Peripheral  { return p.slave }
func (p *Pair) Link() *TriggerLink  { return p.link }

// Running reports whether both counters are enabled.
func (p *Pair) Running() bool { return p.master.Running() && p.slave.Running() }

// Start runs, in order: master feature, master enable, slave feature, slave
// enable. On failure the error is an *errcode.E whose Op names the step, and
// counters enabled by this call are disabled again in reverse order.
// Start after Stop resumes both counters.
func (p *Pair) Start() error {
	steps := [...]func() error{
		p.master.EnableMasterFeature,
		p.master.EnablePeripheral,
		p.slave.EnableSlaveFeature,
		p.slave.EnablePeripheral,
	}
	masterWasRunning := p.master.Running()
	for i, fn := range steps {
		if err := fn(); err != nil {
			if Step(i) > StepMasterEnable && !masterWasRunning {
				_ = p.master.DisablePeripheral()
			}
			return &errcode.E{C: errcode.Of(err), Op: Step(i).String(), Err: err}
		}
	}
	return nil
}

// Stop disables the slave, then the master.
func (p *Pair) Stop() error {
	if err := p.slave.DisablePeripheral(); err != nil && !errcode.Is(err, errcode.InvalidState) {
		return errcode.Wrap("slave.disable_peripheral", err)
	}
	if err := p.master.DisablePeripheral(); err != nil && !errcode.Is(err, errcode.InvalidState) {
		return errcode.Wrap("master.disable_peripheral", err)
	}
	return nil
}
