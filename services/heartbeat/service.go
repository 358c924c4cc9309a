// Package heartbeat prints a periodic one-line summary of HAL state and of
// how many timer capabilities are running.
package heartbeat

import (
	"context"
	"time"

	"timercore/bus"
	"timercore/types"
	"timercore/x/strconvx"
)

var (
	topicConfigHeartbeat = bus.T("config", "heartbeat")
	topicHALState        = bus.T("hal", "state")
	topicCapValues       = bus.T("hal", "cap", "+", "+", "+", "value")
)

type Service struct {
	hal     string
	running map[string]bool // capability name -> running
}

func (s *Service) observe(m *bus.Message) {
	switch p := m.Payload.(type) {
	case types.HALState:
		s.hal = p.Level
	case types.TimerValue:
		s.running[capKey(m.Topic)] = p.Running
	case types.TimerPairValue:
		s.running[capKey(m.Topic)] = p.Running
	}
}

func capKey(t bus.Topic) string {
	kind, _ := t.At(3).(string)
	name, _ := t.At(4).(string)
	return kind + "/" + name
}

func (s *Service) summary() string {
	n := 0
	for _, on := range s.running {
		if on {
			n++
		}
	}
	hal := s.hal
	if hal == "" {
		hal = "unknown"
	}
	return "hal=" + hal + " running=" + strconvx.Itoa(n) + "/" + strconvx.Itoa(len(s.running))
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	defer conn.Unsubscribe(cfgSub)
	stateSub := conn.Subscribe(topicHALState)
	defer conn.Unsubscribe(stateSub)
	valSub := conn.Subscribe(topicCapValues)
	defer conn.Unsubscribe(valSub)

	tick := time.NewTicker(1 * time.Second)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			println("[heartbeat] stopping")
			return
		case t := <-tick.C:
			println("[heartbeat]", t.Format("15:04:05"), s.summary())
		case m := <-stateSub.Channel():
			s.observe(m)
		case m := <-valSub.Channel():
			s.observe(m)
		case msg := <-cfgSub.Channel():
			if d, ok := interval(msg.Payload); ok {
				tick.Reset(d)
				println("[heartbeat] interval set to", int(d/time.Second), "s")
			}
		}
	}
}

// interval reads {"interval": seconds} as decoded from JSON.
func interval(p any) (time.Duration, bool) {
	m, ok := p.(map[string]any)
	if !ok {
		return 0, false
	}
	v, ok := m["interval"].(float64)
	if !ok || v <= 0 {
		return 0, false
	}
	return time.Duration(v * float64(time.Second)), true
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	s.running = map[string]bool{}
	go s.serviceLoop(ctx, conn)
	return nil
}
