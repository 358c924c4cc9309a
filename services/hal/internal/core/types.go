package core

import (
	"context"

	"timercore/errcode"
	"timercore/types"
)

// ---- Capability & device model ----

// CapAddr is the public address hal/cap/<domain>/<kind>/<name>.
type CapAddr struct {
	Domain string
	Kind   string
	Name   string
}

type CapabilitySpec struct {
	Domain string
	Kind   types.Kind
	Name   string
	Info   types.Info
}

// EnqueueResult is a device's answer to a control verb. A false OK with an
// empty Error is reported as busy.
type EnqueueResult struct {
	OK    bool
	Error errcode.Code
}

// Device is one configured HAL device. All methods are called from the HAL
// goroutine.
type Device interface {
	ID() string
	Capabilities() []CapabilitySpec
	Init(ctx context.Context) error
	Control(addr CapAddr, verb string, payload any) (EnqueueResult, error)
	Close() error // release claimed resources
}

// Builder input
type BuilderInput struct {
	ID, Type string
	Params   any
	Res      Resources
}

type Builder interface {
	Build(ctx context.Context, in BuilderInput) (Device, error)
}
