package heartbeat

import (
	"testing"
	"time"

	"timercore/bus"
	"timercore/types"
)

func TestSummaryCountsRunningCapabilities(t *testing.T) {
	s := &Service{running: map[string]bool{}}
	if got := s.summary(); got != "hal=unknown running=0/0" {
		t.Fatalf("empty summary = %q", got)
	}

	s.observe(&bus.Message{Topic: bus.T("hal", "state"), Payload: types.HALState{Level: "ready"}})
	s.observe(&bus.Message{
		Topic:   bus.T("hal", "cap", "timing", "timer_pair", "demo", "value"),
		Payload: types.TimerPairValue{Running: true},
	})
	s.observe(&bus.Message{
		Topic:   bus.T("hal", "cap", "timing", "timer", "pwm0", "value"),
		Payload: types.TimerValue{State: "channels_ready"},
	})
	if got := s.summary(); got != "hal=ready running=1/2" {
		t.Fatalf("summary = %q", got)
	}

	// A later value replaces the earlier one for the same capability.
	s.observe(&bus.Message{
		Topic:   bus.T("hal", "cap", "timing", "timer_pair", "demo", "value"),
		Payload: types.TimerPairValue{Running: false},
	})
	if got := s.summary(); got != "hal=ready running=0/2" {
		t.Fatalf("summary after stop = %q", got)
	}
}

func TestInterval(t *testing.T) {
	if d, ok := interval(map[string]any{"interval": 2.0}); !ok || d != 2*time.Second {
		t.Fatalf("interval = %v, %v", d, ok)
	}
	for _, p := range []any{nil, map[string]any{}, map[string]any{"interval": -1.0}, map[string]any{"interval": "2"}} {
		if _, ok := interval(p); ok {
			t.Fatalf("interval(%v) accepted", p)
		}
	}
}
