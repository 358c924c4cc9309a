package timer_out

import (
	"context"

	"timercore/errcode"
	"timercore/services/hal/internal/core"
	"timercore/services/hal/internal/timercfg"
	"timercore/timer"
	"timercore/types"
	"timercore/x/timex"
)

// Device is a single free-running counter driving its compare outputs.
type Device struct {
	id     string
	params types.TimerParams
	per    *timer.Peripheral
	reg    core.TimerRegistry
	pub    core.EventEmitter
	addr   core.CapAddr
	failed error // configuration error from Init
}

func (d *Device) ID() string { return d.id }

func (d *Device) Capabilities() []core.CapabilitySpec {
	return []core.CapabilitySpec{{
		Domain: d.addr.Domain,
		Kind:   types.KindTimer,
		Name:   d.addr.Name,
		Info: types.Info{
			SchemaVersion: 1,
			Driver:        "timer_out",
			Detail:        timercfg.Info(d.per),
		},
	}}
}

// Init programs the timer. A configuration the hardware cannot produce is
// reported as a degraded status, not a failed device, so it stays visible.
func (d *Device) Init(ctx context.Context) error {
	if err := timercfg.Apply(d.per, d.params); err != nil {
		println("[timer_out]", d.id, "configure:", err.Error())
		d.failed = err
		d.emitErr(err)
		return nil
	}
	if d.params.AutoStart {
		if err := d.per.EnablePeripheral(); err != nil {
			d.emitErr(err)
			return nil
		}
	}
	d.emitValue()
	return nil
}

// Control runs start, stop and read. A device whose configuration failed
// only answers read, which repeats the configuration error.
func (d *Device) Control(_ core.CapAddr, verb string, _ any) (core.EnqueueResult, error) {
	if d.failed != nil {
		if verb == "read" {
			d.emitErr(d.failed)
			return core.EnqueueResult{OK: true}, nil
		}
		return core.EnqueueResult{}, errcode.InvalidState
	}
	var err error
	switch verb {
	case "start":
		err = d.per.EnablePeripheral()
	case "stop":
		err = d.per.DisablePeripheral()
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

// Close stops the counter and releases the claimed timer.
func (d *Device) Close() error {
	if d.per.Running() {
		_ = d.per.DisablePeripheral()
	}
	d.reg.ReleaseTimer(d.id, d.per.ID())
	return nil
}

func (d *Device) emitValue() {
	d.pub.Emit(core.Event{Addr: d.addr, Payload: timercfg.Value(d.per), TSms: timex.NowMs()})
}

func (d *Device) emitErr(err error) {
	d.pub.Emit(core.Event{Addr: d.addr, TSms: timex.NowMs(), Err: string(errcode.Of(err))})
}
