// Package hal exposes the configured timers on the bus under hal/cap/...
package hal

import (
	"context"

	"timercore/bus"
	"timercore/services/hal/internal/core"
	"timercore/services/hal/internal/provider"

	// Device builders register themselves.
	_ "timercore/services/hal/devices/timer_out"
	_ "timercore/services/hal/devices/timer_pair"
)

// Run serves the HAL on conn until ctx ends, using the platform's timers.
func Run(ctx context.Context, conn *bus.Connection) {
	run(ctx, conn, provider.Default())
}

func run(ctx context.Context, conn *bus.Connection, reg core.TimerRegistry) {
	core.NewHAL(conn, core.Resources{Reg: reg}).Run(ctx)
}
