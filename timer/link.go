package timer

import "timercore/errcode"

// TriggerLink records that slave counts under control of the trigger output
// of master's Channel. It owns neither peripheral and is read once, by the
// slave's EnableSlaveFeature.
type TriggerLink struct {
	master   *Peripheral
	channel  uint8
	slave    *Peripheral
	mode     SlaveMode
	consumed bool
}

// NewTriggerLink validates the relation and attaches it to slave, replacing
// any link not yet consumed.
func NewTriggerLink(master *Peripheral, channel uint8, slave *Peripheral, mode SlaveMode) (*TriggerLink, error) {
	if master == nil || slave == nil || master == slave {
		return nil, errcode.InvalidParams
	}
	if mode == SlaveDisabled {
		return nil, errcode.InvalidParams
	}
	if master.role != RoleMaster || slave.role != RoleSlave {
		return nil, errcode.InvalidParams
	}
	if channel != master.trgo {
		return nil, errcode.ChannelUnavailable
	}
	if slave.slaveOn || slave.started() {
		return nil, errcode.InvalidState
	}
	l := &TriggerLink{master: master, channel: channel, slave: slave, mode: mode}
	if err := l.check(); err != nil {
		return nil, err
	}
	slave.link = l
	return l, nil
}

// check holds while both ends have a timebase and the master's trigger
// channel is initialised. A slave without compare channels stays at
// TimebaseSet and is still a valid link target: it counts without outputs.
func (l *TriggerLink) check() error {
	if !l.master.configured() || !l.slave.configured() {
		return errcode.InvalidState
	}
	if _, ok := l.master.Channel(l.channel); !ok {
		return errcode.InvalidState
	}
	return nil
}

func (l *TriggerLink) Master() *Peripheral { return l.master }
func (l *TriggerLink) Slave() *Peripheral  { return l.slave }
func (l *TriggerLink) Channel() uint8      { return l.channel }
func (l *TriggerLink) Mode() SlaveMode     { return l.mode }

// Consumed reports whether the slave registers have been programmed from it.
func (l *TriggerLink) Consumed() bool { return l.consumed }
