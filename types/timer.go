package types

// ---- Params (config/hal) ----

// TimerChannelParams configures one output compare unit.
type TimerChannelParams struct {
	Index     uint8  `json:"index"`                // 1..4
	Mode      string `json:"mode"`                 // "pwm" | "toggle"
	Duty      uint8  `json:"duty,omitempty"`       // pwm: percent of the period
	Compare   uint16 `json:"compare,omitempty"`    // toggle: match value
	ActiveLow bool   `json:"active_low,omitempty"` // invert the pin
}

// TimerParams describes one counter. TickHz is the counter clock after the
// prescaler; the period is Reload+1 ticks.
type TimerParams struct {
	Timer     string               `json:"timer"` // e.g. "tim2"
	TickHz    uint32               `json:"tick_hz"`
	Reload    uint16               `json:"reload"`
	Channels  []TimerChannelParams `json:"channels,omitempty"`
	Domain    string               `json:"domain,omitempty"`
	Name      string               `json:"name,omitempty"`
	AutoStart bool                 `json:"autostart,omitempty"`
}

// TimerPairParams joins a master and a slave counter. The master's
// TriggerChannel output drives the slave in SlaveMode.
type TimerPairParams struct {
	Master         TimerParams `json:"master"`
	Slave          TimerParams `json:"slave"`
	TriggerChannel uint8       `json:"trigger_channel"`
	SlaveMode      string      `json:"slave_mode,omitempty"` // "gated" (default) | "trigger" | "reset"
	Domain         string      `json:"domain,omitempty"`
	Name           string      `json:"name,omitempty"`
	AutoStart      bool        `json:"autostart,omitempty"`
}

// ---- Info (retained) ----

type TimerChannelInfo struct {
	Index       uint8  `json:"index"`
	Mode        string `json:"mode"`
	Compare     uint16 `json:"compare"`
	ActiveLow   bool   `json:"active_low,omitempty"`
	DutyPercent uint8  `json:"duty,omitempty"`
	WaveMilliHz uint64 `json:"wave_mhz"`
}

type TimerInfo struct {
	Timer           string             `json:"timer"`
	Role            string             `json:"role"`
	ClockHz         uint32             `json:"clock_hz"`
	Prescaler       uint16             `json:"prescaler"`
	Reload          uint16             `json:"reload"`
	TickHz          uint32             `json:"tick_hz"`
	OverflowMilliHz uint64             `json:"overflow_mhz"`
	Channels        []TimerChannelInfo `json:"channels,omitempty"`
}

type TimerPairInfo struct {
	Master         TimerInfo `json:"master"`
	Slave          TimerInfo `json:"slave"`
	TriggerChannel uint8     `json:"trigger_channel"`
	SlaveMode      string    `json:"slave_mode"`
}

// ---- Values (retained) ----

type TimerValue struct {
	State   string `json:"state"`
	Running bool   `json:"running"`
}

type TimerPairValue struct {
	Master  string `json:"master"`
	Slave   string `json:"slave"`
	Running bool   `json:"running"`
}
