package domain

import (
	"time"

	"go.trai.ch/zerr"
)

// MutationEvent is emitted by the surrounding system after a write.
type MutationEvent struct {
	Type       string    `json:"type"`
	EntityID   string    `json:"entity_id,omitzero"`
	TenantID   string    `json:"tenant_id,omitzero"`
	OccurredAt time.Time `json:"occurred_at,omitzero"`
}

// Validate checks that the event has a type and that its ids are usable inside keys.
// Ids are substituted into invalidation patterns, so a wildcard in an id is rejected.
func (ev MutationEvent) Validate() error {
	if ev.Type == "" {
		return zerr.With(ErrInvalidEvent, "reason", "missing type")
	}
	ids := [...]struct{ field, id string }{
		{"tenant_id", ev.TenantID},
		{"entity_id", ev.EntityID},
	}
	for _, id := range ids {
		if id.id == "" {
			continue
		}
		if err := ValidateKey(id.id); err != nil {
			return zerr.With(zerr.Wrap(err, ErrInvalidEvent.Error()), "field", id.field)
		}
	}
	return nil
}
