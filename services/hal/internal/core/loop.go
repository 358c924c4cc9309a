package core

import (
	"context"
	"time"

	"timercore/bus"
	"timercore/errcode"
	"timercore/types"
	"timercore/x/timex"
)

const (
	eventQueueLen = 16
	pollQueueLen  = 8
)

// HAL owns every configured device and is the only goroutine that touches
// them. Devices report back through Emit.
type HAL struct {
	conn *bus.Connection
	res  Resources

	// Device registry
	dev map[string]Device // devID -> device

	// Capability index: address -> devID
	capIndex map[CapAddr]string

	cfgSub  *bus.Subscription
	ctrlSub *bus.Subscription

	// Single-threaded publication of device events
	evCh chan Event

	pollCh chan PollReq
	poller *Poller
}

func NewHAL(conn *bus.Connection, res Resources) *HAL {
	h := &HAL{
		conn:     conn,
		res:      res,
		dev:      map[string]Device{},
		capIndex: map[CapAddr]string{},
		evCh:     make(chan Event, eventQueueLen),
		pollCh:   make(chan PollReq, pollQueueLen),
	}
	h.poller = NewPoller(h.pollCh)
	// HAL provides the emitter to devices.
	h.res.Pub = h
	return h
}

func (h *HAL) Run(ctx context.Context) {
	h.cfgSub = h.conn.Subscribe(topicConfigHAL())
	h.ctrlSub = h.conn.Subscribe(ctrlWildcard())
	defer h.conn.Unsubscribe(h.cfgSub)
	defer h.conn.Unsubscribe(h.ctrlSub)
	defer h.closeAll()

	go h.poller.Run(ctx)

	h.pubHALState("idle", "awaiting_config")
	ready := false
	for {
		select {
		case <-ctx.Done():
			h.pubHALState("stopped", "context_cancelled")
			return
		case msg := <-h.cfgSub.Channel():
			v, ok := msg.Payload.(types.HALConfig)
			if !ok {
				println("[hal] config/hal payload is not a HALConfig")
				h.pubHALState("error", string(errcode.InvalidPayload))
				continue
			}
			// applyConfig is additive and idempotent for existing devices.
			h.applyConfig(ctx, v)
			if !ready {
				ready = true
				h.pubHALState("ready", "configured")
			}
		case m := <-h.ctrlSub.Channel():
			if !ready {
				// Reject controls until HAL has a configuration.
				h.replyErr(m, errcode.HALNotReady)
				continue
			}
			h.handleControl(m)
		case req := <-h.pollCh:
			h.handlePoll(req)
		case ev := <-h.evCh:
			// All device→HAL telemetry is published from this goroutine.
			h.handleEvent(ev)
		}
	}
}

func (h *HAL) applyConfig(ctx context.Context, cfg types.HALConfig) {
	for i := range cfg.Devices {
		dc := cfg.Devices[i]
		if _, exists := h.dev[dc.ID]; exists {
			continue
		}
		b, ok := lookupBuilder(dc.Type)
		if !ok {
			println("[hal] no builder for type:", dc.Type, "id:", dc.ID)
			continue
		}
		dev, err := b.Build(ctx, BuilderInput{
			ID:     dc.ID,
			Type:   dc.Type,
			Params: dc.Params,
			Res:    h.res,
		})
		if err != nil {
			println("[hal] build failed for:", dc.ID, "err:", err.Error())
			continue
		}
		if err := dev.Init(ctx); err != nil {
			println("[hal] init failed for:", dc.ID, "err:", err.Error())
			_ = dev.Close()
			continue
		}
		h.dev[dev.ID()] = dev

		// Register capabilities, publish retained info + initial status:down
		for _, cs := range dev.Capabilities() {
			a := CapAddr{Domain: cs.Domain, Kind: string(cs.Kind), Name: cs.Name}
			if a.Domain == "" {
				a.Domain = defaultDomain
			}
			if a.Name == "" {
				a.Name = dev.ID()
			}
			h.capIndex[a] = dev.ID()

			h.conn.Publish(h.conn.NewMessage(capInfo(a), cs.Info, true))
			h.conn.Publish(h.conn.NewMessage(
				capStatus(a),
				types.CapabilityStatus{Link: types.LinkDown, TSms: timex.NowMs()},
				true,
			))
		}
	}
	for _, ps := range cfg.Pollers {
		a := CapAddr{Domain: ps.Domain, Kind: string(ps.Kind), Name: ps.Name}
		verb := ps.Verb
		if verb == "" {
			verb = "read"
		}
		h.poller.Upsert(a, verb, time.Duration(ps.IntervalMs)*time.Millisecond, time.Duration(ps.JitterMs)*time.Millisecond)
	}
}

func (h *HAL) handleControl(msg *bus.Message) {
	// hal/cap/<domain>/<kind>/<name>/control/<verb>
	if msg.Topic.Len() < 7 {
		h.replyErr(msg, errcode.InvalidTopic)
		return
	}
	domain, _ := msg.Topic.At(2).(string)
	kind, _ := msg.Topic.At(3).(string)
	name, _ := msg.Topic.At(4).(string)
	verb, _ := msg.Topic.At(6).(string)
	a := CapAddr{Domain: domain, Kind: kind, Name: name}

	dev := h.deviceAt(a)
	if dev == nil {
		h.replyErr(msg, errcode.UnknownCapability)
		return
	}

	switch verb {
	case "poll_start":
		p, code := As[types.PollStart](msg.Payload)
		if code != "" || p.IntervalMs == 0 {
			h.replyErr(msg, errcode.InvalidPayload)
			return
		}
		if p.Verb == "" {
			p.Verb = "read"
		}
		h.poller.Upsert(a, p.Verb, time.Duration(p.IntervalMs)*time.Millisecond, time.Duration(p.JitterMs)*time.Millisecond)
		h.replyOK(msg)
		return
	case "poll_stop":
		p, code := As[types.PollStop](msg.Payload)
		if code != "" {
			h.replyErr(msg, code)
			return
		}
		if p.Verb == "" {
			p.Verb = "read"
		}
		h.poller.Stop(a, p.Verb)
		h.replyOK(msg)
		return
	}

	res, err := dev.Control(a, verb, msg.Payload)
	if err != nil {
		h.replyFromError(msg, err)
		return
	}
	if !msg.CanReply() {
		return
	}
	if res.OK {
		h.replyOK(msg)
		return
	}
	code := res.Error
	if code == "" {
		code = errcode.Busy
	}
	h.replyErr(msg, code)
}

func (h *HAL) handlePoll(req PollReq) {
	dev := h.deviceAt(req.Addr)
	if dev == nil {
		h.poller.StopAll(req.Addr)
		return
	}
	if _, err := dev.Control(req.Addr, req.Verb, nil); err != nil {
		println("[hal] poll", req.Verb, "failed for:", dev.ID(), "err:", err.Error())
	}
}

func (h *HAL) deviceAt(a CapAddr) Device {
	id, ok := h.capIndex[a]
	if !ok {
		return nil
	}
	return h.dev[id]
}

func (h *HAL) handleEvent(ev Event) {
	// Error → retained status:degraded; no value published.
	if ev.Err != "" {
		h.conn.Publish(h.conn.NewMessage(
			capStatus(ev.Addr),
			types.CapabilityStatus{Link: types.LinkDegraded, TSms: ev.TSms, Error: ev.Err},
			true,
		))
		return
	}
	h.conn.Publish(h.conn.NewMessage(capValue(ev.Addr), ev.Payload, true))
	h.conn.Publish(h.conn.NewMessage(
		capStatus(ev.Addr),
		types.CapabilityStatus{Link: types.LinkUp, TSms: ev.TSms},
		true,
	))
}

func (h *HAL) closeAll() {
	for id, d := range h.dev {
		if err := d.Close(); err != nil {
			println("[hal] close failed for:", id, "err:", err.Error())
		}
	}
}

func (h *HAL) pubHALState(level, status string) {
	h.conn.Publish(h.conn.NewMessage(
		topicHALState(),
		types.HALState{Level: level, Status: status, TSms: timex.NowMs()},
		true,
	))
}

const defaultDomain = "timing"

// ---- HAL as EventEmitter (enqueue to single publisher) ----

func (h *HAL) Emit(ev Event) bool {
	select {
	case h.evCh <- ev:
		return true
	default:
		return false
	}
}
