package timer

// ID names a physical counter, e.g. "tim2".
type ID string

// SlaveMode selects how a slave reacts to its trigger input.
type SlaveMode uint8

const (
	SlaveDisabled SlaveMode = iota
	SlaveGated              // count only while the trigger is high
	SlaveTrigger            // start counting on a rising edge
	SlaveReset              // restart the counter on a rising edge
)

func (m SlaveMode) String() string {
	switch m {
	case SlaveGated:
		return "gated"
	case SlaveTrigger:
		return "trigger"
	case SlaveReset:
		return "reset"
	default:
		return "disabled"
	}
}

// ParseSlaveMode maps the config spelling to a SlaveMode.
func ParseSlaveMode(s string) (SlaveMode, bool) {
	switch s {
	case "gated", "":
		return SlaveGated, true
	case "trigger":
		return SlaveTrigger, true
	case "reset":
		return SlaveReset, true
	default:
		return SlaveDisabled, false
	}
}

// Registers is the register-level view of one physical counter. Every
// method is a synchronous register write; implementations exist for real
// silicon and for the host simulator.
type Registers interface {
	ID() ID
	// Channels is the number of compare units (0 for basic timers).
	Channels() int
	SupportsMaster() bool
	SupportsSlave() bool

	SetPrescaler(psc uint16)
	SetReload(arr uint16)
	SetCompare(ch uint8, v uint16)
	// SetOutputMode programs OCxM/OCxP and enables the channel output.
	SetOutputMode(ch uint8, m OutputMode, p Polarity)
	// SetMasterOutput routes OCxREF of ch to the trigger output.
	SetMasterOutput(ch uint8)
	// SetSlaveMode selects the internal trigger wired to master's trigger
	// output and the slave mode. Unroutable pairs return TriggerUnavailable.
	SetSlaveMode(master ID, m SlaveMode) error
	// GenerateUpdate reloads the prescaler and zeroes the counter.
	GenerateUpdate()
	SetCounterEnabled(on bool)
}
