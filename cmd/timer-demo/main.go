// Command timer-demo boots the bus, publishes the board's embedded
// configuration and serves the timers it describes.
package main

import (
	"context"
	"time"

	"timercore/bus"
	"timercore/services/bridge"
	"timercore/services/config"
	"timercore/services/hal"
	"timercore/services/heartbeat"
	"timercore/types"
)

func printTopicWith(prefix string, t bus.Topic) {
	print(prefix)
	print(" ")
	for i := 0; i < t.Len(); i++ {
		if i > 0 {
			print("/")
		}
		switch v := t.At(i).(type) {
		case string:
			print(v)
		case int:
			print(v)
		default:
			print("?")
		}
	}
	println()
}

func main() {
	time.Sleep(bootDelay)
	ctx := context.Background()

	println("[main] bootstrapping bus …")
	b := bus.NewBus(8)
	halConn := b.NewConnection("hal")
	uiConn := b.NewConnection("ui")

	mon := uiConn.Subscribe(bus.T("hal", "#"))
	go func() {
		for m := range mon.Channel() {
			printTopicWith("[monitor] <-", m.Topic)
			if s, ok := m.Payload.(types.CapabilityStatus); ok && s.Error != "" {
				println("[monitor]   error:", s.Error)
			}
		}
	}()

	println("[main] starting hal.Run …")
	go hal.Run(ctx, halConn)
	go bridge.Start(ctx, b.NewConnection("bridge"))
	if err := (&heartbeat.Service{}).Start(ctx, b.NewConnection("heartbeat")); err != nil {
		println("[main] heartbeat:", err.Error())
	}

	println("[main] publishing config for", board, "…")
	cfgCtx := context.WithValue(ctx, config.CtxDeviceKey, board)
	config.NewConfigService().Start(cfgCtx, b.NewConnection("config"))

	select {}
}
