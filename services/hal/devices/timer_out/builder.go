package timer_out

import (
	"context"

	"timercore/errcode"
	"timercore/services/hal/internal/core"
	"timercore/timer"
	"timercore/types"
	"timercore/x/strx"
)

func init() { core.RegisterBuilder("timer_out", builder{}) }

type builder struct{}

func (builder) Build(ctx context.Context, in core.BuilderInput) (core.Device, error) {
	p, code := core.As[types.TimerParams](in.Params)
	if code != "" {
		return nil, code
	}
	if p.Timer == "" {
		return nil, errcode.InvalidParams
	}
	id := timer.ID(p.Timer)
	regs, clk, err := in.Res.Reg.ClaimTimer(in.ID, id)
	if err != nil {
		return nil, err
	}
	per, err := timer.New(regs, timer.Config{Clock: clk})
	if err != nil {
		in.Res.Reg.ReleaseTimer(in.ID, id)
		return nil, err
	}
	return &Device{
		id:     in.ID,
		params: p,
		per:    per,
		reg:    in.Res.Reg,
		pub:    in.Res.Pub,
		addr: core.CapAddr{
			Domain: strx.Coalesce(p.Domain, "timing"),
			Kind:   string(types.KindTimer),
			Name:   strx.Coalesce(p.Name, in.ID),
		},
	}, nil
}
