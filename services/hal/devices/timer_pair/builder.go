package timer_pair

import (
	"context"

	"timercore/errcode"
	"timercore/services/hal/internal/core"
	"timercore/timer"
	"timercore/types"
	"timercore/x/strx"
)

func init() { core.RegisterBuilder("timer_pair", builder{}) }

type builder struct{}

func (builder) Build(ctx context.Context, in core.BuilderInput) (core.Device, error) {
	p, code := core.As[types.TimerPairParams](in.Params)
	if code != "" {
		return nil, code
	}
	mode, ok := timer.ParseSlaveMode(p.SlaveMode)
	if !ok || p.Master.Timer == "" || p.Slave.Timer == "" || p.Master.Timer == p.Slave.Timer {
		return nil, errcode.InvalidParams
	}

	mid, sid := timer.ID(p.Master.Timer), timer.ID(p.Slave.Timer)
	mregs, mclk, err := in.Res.Reg.ClaimTimer(in.ID, mid)
	if err != nil {
		return nil, err
	}
	sregs, sclk, err := in.Res.Reg.ClaimTimer(in.ID, sid)
	if err != nil {
		in.Res.Reg.ReleaseTimer(in.ID, mid)
		return nil, err
	}
	release := func() {
		in.Res.Reg.ReleaseTimer(in.ID, sid)
		in.Res.Reg.ReleaseTimer(in.ID, mid)
	}

	master, err := timer.New(mregs, timer.Config{Clock: mclk, Master: &timer.MasterFeature{Channel: p.TriggerChannel}})
	if err != nil {
		release()
		return nil, errcode.Wrap("master", err)
	}
	slave, err := timer.New(sregs, timer.Config{Clock: sclk, Slave: true})
	if err != nil {
		release()
		return nil, errcode.Wrap("slave", err)
	}

	return &Device{
		id:     in.ID,
		params: p,
		mode:   mode,
		master: master,
		slave:  slave,
		reg:    in.Res.Reg,
		pub:    in.Res.Pub,
		addr: core.CapAddr{
			Domain: strx.Coalesce(p.Domain, "timing"),
			Kind:   string(types.KindTimerPair),
			Name:   strx.Coalesce(p.Name, in.ID),
		},
	}, nil
}
