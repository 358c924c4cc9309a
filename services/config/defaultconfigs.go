package config

// Embedded configuration, keyed by board name (the value placed in ctx
// under CtxDeviceKey).

// The demo pair: tim2 runs at 2 kHz with a 4 s period and drives tim3's gate
// from its 25% CH1 output. tim3 toggles CH1 every 100 ms while gated on.
const halDemo = `{
    "devices": [
      {
        "id": "demo",
        "type": "timer_pair",
        "params": {
          "master": {
            "timer": "tim2", "tick_hz": 2000, "reload": 7999,
            "channels": [{"index": 1, "mode": "pwm", "duty": 25}]
          },
          "slave": {
            "timer": "tim3", "tick_hz": 2000, "reload": 199,
            "channels": [{"index": 1, "mode": "toggle", "compare": 199}]
          },
          "trigger_channel": 1,
          "slave_mode": "gated",
          "autostart": true
        }
      },
      {
        "id": "pwm0",
        "type": "timer_out",
        "params": {
          "timer": "tim4", "tick_hz": 1000000, "reload": 999,
          "channels": [{"index": 1, "mode": "pwm", "duty": 50}],
          "autostart": true
        }
      }
    ],
    "pollers": [
      {"domain": "timing", "kind": "timer_pair", "name": "demo", "verb": "read", "interval_ms": 1000}
    ]
  }`

// Firmware builds have no UART dialler, so the bluepill runs without a bridge.
const cfgBluepill = `{
  "hal": ` + halDemo + `,
  "heartbeat": {
    "interval": 2
  }
}`

const cfgHost = `{
  "hal": ` + halDemo + `,
  "heartbeat": {
    "interval": 1
  }
}`

var embeddedConfigs = map[string][]byte{
	"bluepill": []byte(cfgBluepill),
	"host":     []byte(cfgHost),
}
