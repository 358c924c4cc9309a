package timer_pair

import (
	"context"

	"timercore/errcode"
	"timercore/services/hal/internal/core"
	"timercore/services/hal/internal/timercfg"
	"timercore/timer"
	"timercore/types"
	"timercore/x/timex"
)

// Device is a master counter whose trigger output controls a slave counter.
type Device struct {
	id     string
	params types.TimerPairParams
	mode   timer.SlaveMode

	master *timer.Peripheral
	slave  *timer.Peripheral
	pair   *timer.Pair // nil until configured
	failed error       // configuration error from Init

	reg  core.TimerRegistry
	pub  core.EventEmitter
	addr core.CapAddr
}

func (d *Device) ID() string { return d.id }

func (d *Device) Capabilities() []core.CapabilitySpec {
	return []core.CapabilitySpec{{
		Domain: d.addr.Domain,
		Kind:   types.KindTimerPair,
		Name:   d.addr.Name,
		Info: types.Info{
			SchemaVersion: 1,
			Driver:        "timer_pair",
			Detail: types.TimerPairInfo{
				Master:         timercfg.Info(d.master),
				Slave:          timercfg.Info(d.slave),
				TriggerChannel: d.params.TriggerChannel,
				SlaveMode:      d.mode.String(),
			},
		},
	}}
}

func (d *Device) Init(ctx context.Context) error {
	if err := d.configure(); err != nil {
		println("[timer_pair]", d.id, "configure:", err.Error())
		d.failed = err
		d.emitErr(err)
		return nil
	}
	if d.params.AutoStart {
		if err := d.pair.Start(); err != nil {
			println("[timer_pair]", d.id, "start:", err.Error())
			d.emitErr(err)
			return nil
		}
	}
	d.emitValue()
	return nil
}

func (d *Device) configure() error {
	if err := timercfg.Apply(d.master, d.params.Master); err != nil {
		return errcode.Wrap("master", err)
	}
	if err := timercfg.Apply(d.slave, d.params.Slave); err != nil {
		return errcode.Wrap("slave", err)
	}
	link, err := timer.NewTriggerLink(d.master, d.params.TriggerChannel, d.slave, d.mode)
	if err != nil {
		return errcode.Wrap("link", err)
	}
	pair, err := timer.NewPair(d.master, d.slave, link)
	if err != nil {
		return errcode.Wrap("pair", err)
	}
	d.pair = pair
	return nil
}

func (d *Device) Control(_ core.CapAddr, verb string, _ any) (core.EnqueueResult, error) {
	if d.failed != nil {
		if verb == "read" {
			d.emitErr(d.failed)
			return core.EnqueueResult{OK: true}, nil
		}
		return core.EnqueueResult{}, errcode.InvalidState
	}
	if d.pair == nil && verb != "read" {
		return core.EnqueueResult{}, errcode.InvalidState
	}
	var err error
	switch verb {
	case "start":
		err = d.pair.Start()
	case "stop":
		err = d.pair.Stop()
	case "read":
	default:
		return core.EnqueueResult{OK: false, Error: errcode.Unsupported}, nil
	}
	if err != nil {
		return core.EnqueueResult{}, err
	}
	d.emitValue()
	return core.EnqueueResult{OK: true}, nil
}

// Close stops both counters, slave first, and releases them.
func (d *Device) Close() error {
	if d.pair != nil {
		_ = d.pair.Stop()
	}
	d.reg.ReleaseTimer(d.id, d.slave.ID())
	d.reg.ReleaseTimer(d.id, d.master.ID())
	return nil
}

func (d *Device) emitValue() {
	d.pub.Emit(core.Event{
		Addr: d.addr,
		Payload: types.TimerPairValue{
			Master:  d.master.State().String(),
			Slave:   d.slave.State().String(),
			Running: d.pair != nil && d.pair.Running(),
		},
		TSms: timex.NowMs(),
	})
}

func (d *Device) emitErr(err error) {
	d.pub.Emit(core.Event{Addr: d.addr, TSms: timex.NowMs(), Err: string(errcode.Of(err))})
}
