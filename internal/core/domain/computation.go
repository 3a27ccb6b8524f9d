package domain

import "time"

// ComputationState tracks when a derived result was last computed and which input change it reflects.
// Checksum identifies the result content and is never used to decide whether inputs changed.
type ComputationState struct {
	Key               string    `json:"key"`
	LastComputedAt    time.Time `json:"last_computed_at"`
	LastInputChangeAt time.Time `json:"last_input_change_at"`
	Checksum          []byte    `json:"checksum"`
	Version           uint64    `json:"version"`
	TouchedAt         time.Time `json:"touched_at"`
	Stale             bool      `json:"stale,omitzero"`
}

// CoversInputs reports whether the state already reflects inputs changed at changedAt.
func (s ComputationState) CoversInputs(changedAt time.Time) bool {
	return !s.Stale && !changedAt.After(s.LastInputChangeAt)
}
