package bridge

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"testing"
	"time"

	"timercore/bus"
	"timercore/types"
)

func TestBridge_EstablishesUARTLinkAndReportsState(t *testing.T) {
	b := bus.NewBus(16)
	conn := b.NewConnection("bridge_test")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Start(ctx, conn)

	stateSub := conn.Subscribe(bus.T("bridge", "state"))
	defer conn.Unsubscribe(stateSub)

	first := nextStatePayload(t, stateSub, 500*time.Millisecond)
	assertLevelStatus(t, first, "idle", "awaiting_config")

	prevDial := UARTDial
	defer func() { UARTDial = prevDial }()
	remotes := make(chan net.Conn, 1)
	UARTDial = func(ctx context.Context, _ UARTConfig) (io.ReadWriteCloser, error) {
		lc, rc := net.Pipe()
		go drain(rc)
		remotes <- rc
		return lc, nil
	}

	cfg := `{"transport":{"type":"uart","uart":{"baud":115200,"rx_pin":1,"tx_pin":0}}}`
	conn.Publish(conn.NewMessage(bus.T("config", "bridge"), cfg, false))

	up := nextStatePayload(t, stateSub, time.Second)
	assertLevelStatus(t, up, "up", "link_established")

	// Losing the far end degrades the link.
	_ = (<-remotes).Close()

	degraded := nextStatePayload(t, stateSub, time.Second)
	assertLevelStatus(t, degraded, "degraded", "link_lost_retrying")
}

func TestBridge_UnknownTransportYieldsErrorState(t *testing.T) {
	b := bus.NewBus(8)
	conn := b.NewConnection("bridge_test_bad")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Start(ctx, conn)

	stateSub := conn.Subscribe(bus.T("bridge", "state"))
	defer conn.Unsubscribe(stateSub)

	_ = nextStatePayload(t, stateSub, 500*time.Millisecond)

	conn.Publish(conn.NewMessage(bus.T("config", "bridge"), `{"transport":{"type":"bogus"}}`, false))

	errState := nextStatePayload(t, stateSub, time.Second)
	assertLevelStatus(t, errState, "error", "transport_init_failed")
}

func TestBridge_ForwardsTimerValues(t *testing.T) {
	b := bus.NewBus(16)
	conn := b.NewConnection("bridge_fwd")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Start(ctx, conn)

	stateSub := conn.Subscribe(bus.T("bridge", "state"))
	defer conn.Unsubscribe(stateSub)
	_ = nextStatePayload(t, stateSub, 500*time.Millisecond)

	prevDial := UARTDial
	defer func() { UARTDial = prevDial }()
	remotes := make(chan net.Conn, 1)
	UARTDial = func(ctx context.Context, _ UARTConfig) (io.ReadWriteCloser, error) {
		lc, rc := net.Pipe()
		remotes <- rc
		return lc, nil
	}

	conn.Publish(conn.NewMessage(bus.T("config", "bridge"), Config{
		Transport: TransportConfig{Type: "uart", UART: &UARTConfig{Baud: 115200}},
		Forward:   []string{"hal/cap/timing/+/+/value"},
	}, false))
	assertLevelStatus(t, nextStatePayload(t, stateSub, time.Second), "up", "link_established")
	remote := <-remotes
	defer remote.Close()

	// Not matched by the filter.
	conn.Publish(conn.NewMessage(bus.T("hal", "state"), types.HALState{Level: "ready"}, true))
	conn.Publish(conn.NewMessage(
		bus.T("hal", "cap", "timing", "timer", "pwm0", "value"),
		types.TimerValue{State: "running", Running: true},
		true,
	))

	_ = remote.SetReadDeadline(time.Now().Add(time.Second))
	rd := newFramedReader(remote)
	for {
		f, err := rd.ReadFrame()
		if err != nil {
			t.Fatalf("read frame: %v", err)
		}
		if f.Type != framePub {
			continue
		}
		var got struct {
			Topic    []string         `json:"topic"`
			Payload  types.TimerValue `json:"payload"`
			Retained bool             `json:"retained"`
		}
		if err := json.Unmarshal(f.Payload, &got); err != nil {
			t.Fatalf("decode %s: %v", f.Payload, err)
		}
		if len(got.Topic) != 6 || got.Topic[4] != "pwm0" || got.Topic[5] != "value" {
			t.Fatalf("topic = %v", got.Topic)
		}
		if !got.Payload.Running || got.Payload.State != "running" || !got.Retained {
			t.Fatalf("frame = %+v", got)
		}
		return
	}
}

func TestParseFilter(t *testing.T) {
	got := parseFilter("/hal/cap//+/#")
	want := bus.T("hal", "cap", "+", "#")
	if !bus.Match(want, got) || got.Len() != want.Len() {
		t.Fatalf("parseFilter = %v, want %v", got, want)
	}
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// drain answers pings and discards everything else until the link closes.
func drain(c io.ReadWriteCloser) {
	rd := newFramedReader(c)
	wr := newFramedWriter(c)
	for {
		f, err := rd.ReadFrame()
		if err != nil {
			return
		}
		if f.Type == framePing {
			if err := wr.WriteFrame(Frame{Type: framePong}); err != nil {
				return
			}
		}
	}
}

func nextStatePayload(t *testing.T, sub *bus.Subscription, d time.Duration) map[string]any {
	t.Helper()
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case m := <-sub.Channel():
		p, ok := m.Payload.(map[string]any)
		if !ok {
			t.Fatalf("state payload type: got %T, want map[string]any", m.Payload)
		}
		return p
	case <-timer.C:
		t.Fatalf("timeout waiting for bridge/state")
		return nil
	}
}

func assertLevelStatus(t *testing.T, payload map[string]any, wantLevel, wantStatus string) {
	t.Helper()
	gotLevel, _ := payload["level"].(string)
	gotStatus, _ := payload["status"].(string)
	if gotLevel != wantLevel || gotStatus != wantStatus {
		t.Fatalf("unexpected state: level=%q status=%q, want level=%q status=%q (payload=%v)",
			gotLevel, gotStatus, wantLevel, wantStatus, payload)
	}
}
