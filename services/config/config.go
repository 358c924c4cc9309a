// Package config publishes a board's embedded JSON configuration as retained
// config/<key> messages. The hal key is decoded into typed HAL parameters.
package config

import (
	"context"
	"encoding/json"

	"timercore/bus"
	"timercore/errcode"
	"timercore/types"
)

const (
	serviceName  = "config"
	configPrefix = "config"
	CtxDeviceKey = "device" // context key holding the board name
)

// EmbeddedConfigLookup resolves a board name to its JSON document.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// paramDecoders maps a HAL device type to the typed params it takes.
var paramDecoders = map[string]func(json.RawMessage) (any, error){
	"timer_out":  decodeAs[types.TimerParams],
	"timer_pair": decodeAs[types.TimerPairParams],
}

func decodeAs[T any](raw json.RawMessage) (any, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

type ConfigService struct {
	Name string
}

func NewConfigService() *ConfigService {
	return &ConfigService{Name: serviceName}
}

// Parse splits a configuration document into one payload per top-level key.
func Parse(raw []byte) (map[string]any, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &errcode.E{C: errcode.InvalidPayload, Op: "config", Msg: err.Error(), Err: err}
	}
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		if k == "hal" {
			cfg, err := DecodeHAL(v)
			if err != nil {
				return nil, err
			}
			out[k] = cfg
			continue
		}
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return nil, &errcode.E{C: errcode.InvalidPayload, Op: "config." + k, Msg: err.Error(), Err: err}
		}
		out[k] = val
	}
	return out, nil
}

// DecodeHAL decodes the hal section. Unknown device types keep their params
// as generic JSON so the HAL can report them.
func DecodeHAL(raw json.RawMessage) (types.HALConfig, error) {
	var doc struct {
		Devices []struct {
			ID     string          `json:"id"`
			Type   string          `json:"type"`
			Params json.RawMessage `json:"params"`
		} `json:"devices"`
		Pollers []types.PollSpec `json:"pollers"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return types.HALConfig{}, &errcode.E{C: errcode.InvalidPayload, Op: "config.hal", Msg: err.Error(), Err: err}
	}
	cfg := types.HALConfig{Pollers: doc.Pollers}
	for _, d := range doc.Devices {
		if d.ID == "" {
			return types.HALConfig{}, &errcode.E{C: errcode.InvalidParams, Op: "config.hal", Msg: "device without id"}
		}
		var params any
		if dec, ok := paramDecoders[d.Type]; ok {
			p, err := dec(d.Params)
			if err != nil {
				return types.HALConfig{}, &errcode.E{C: errcode.InvalidParams, Op: "config.hal." + d.ID, Msg: err.Error(), Err: err}
			}
			params = p
		} else if len(d.Params) > 0 {
			if err := json.Unmarshal(d.Params, &params); err != nil {
				return types.HALConfig{}, &errcode.E{C: errcode.InvalidParams, Op: "config.hal." + d.ID, Msg: err.Error(), Err: err}
			}
		}
		cfg.Devices = append(cfg.Devices, types.HALDevice{ID: d.ID, Type: d.Type, Params: params})
	}
	return cfg, nil
}

// publishConfig reads the board config and publishes each key retained.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(CtxDeviceKey).(string)
	if device == "" {
		return &errcode.E{C: errcode.InvalidParams, Op: "config", Msg: "missing device id in context"}
	}
	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return &errcode.E{C: errcode.InvalidParams, Op: "config", Msg: "no embedded config for " + device}
	}
	m, err := Parse(raw)
	if err != nil {
		return err
	}
	for k, v := range m {
		conn.Publish(conn.NewMessage(bus.T(configPrefix, k), v, true))
	}
	return nil
}

// Start launches the config publisher in a goroutine.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.publishConfig(ctx, conn); err != nil {
			println("[config]", err.Error())
		}
	}()
}
