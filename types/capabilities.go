package types

// ------------------------
// Capability addressing & kinds
// ------------------------

type Kind string

const (
	KindTimer     Kind = "timer"      // one counter and its compare outputs
	KindTimerPair Kind = "timer_pair" // master/slave counters joined by a trigger
)

// CapabilityAddress identifies a public capability on the bus.
type CapabilityAddress struct {
	Domain string `json:"domain"` // e.g. "timing"
	Kind   Kind   `json:"kind"`
	Name   string `json:"name"`
}
