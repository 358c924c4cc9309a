package core

import "timercore/timer"

// ---- Timers ----

// TimerRegistry hands out counter register blocks exclusively. A claimed
// timer stays with devID until released.
type TimerRegistry interface {
	// ClaimTimer returns the registers of id and the clock feeding them.
	// Errors: errcode.UnknownTimer, errcode.TimerInUse, errcode.Unsupported.
	ClaimTimer(devID string, id timer.ID) (timer.Registers, timer.ClockDomain, error)
	ReleaseTimer(devID string, id timer.ID)
}

// ---- Device → HAL telemetry (single shape) ----
// An Event is a value update for a capability, published retained on
// .../value. A non-empty Err publishes only .../status=degraded.

type Event struct {
	Addr    CapAddr
	Payload any    // typed value payload (e.g. types.TimerValue)
	TSms    int64  // ms timestamp
	Err     string // errcode string
}

// EventEmitter is implemented by the HAL. Emit must not block; false means
// the event was dropped.
type EventEmitter interface {
	Emit(ev Event) bool
}

// ---- HAL-injected resources ----

type Resources struct {
	Reg TimerRegistry
	Pub EventEmitter // set by NewHAL
}
