// Package events turns mutation events into cache invalidations and stale computation states.
package events

import (
	"context"
	"strings"

	"go.trai.ch/hoard/internal/core/domain"
	"go.trai.ch/hoard/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	// TenantPlaceholder is replaced by the event's tenant id.
	TenantPlaceholder = "{tenant}"
	// EntityPlaceholder is replaced by the event's entity id.
	EntityPlaceholder = "{entity}"
)

// Invalidator removes cached entries matching a pattern.
type Invalidator interface {
	Invalidate(pattern string) (int, error)
}

// StaleMarker flags computation states matching a pattern as stale.
type StaleMarker interface {
	MarkStaleMatching(pattern string) (int, error)
}

// Outcome reports what one event touched.
type Outcome struct {
	Invalidated int
	MarkedStale int
}

// Router maps event types to invalidation patterns.
type Router struct {
	patterns map[string][]string
	cache    Invalidator
	states   StaleMarker
	logger   ports.Logger
}

// NewRouter creates a Router. patterns is copied.
func NewRouter(patterns map[string][]string, cache Invalidator, states StaleMarker, logger ports.Logger) *Router {
	table := make(map[string][]string, len(patterns))
	for eventType, list := range patterns {
		table[eventType] = append([]string(nil), list...)
	}
	return &Router{patterns: table, cache: cache, states: states, logger: logger}
}

// Handle routes ev and logs failures. It satisfies ports.EventHandler.
func (r *Router) Handle(_ context.Context, ev domain.MutationEvent) {
	if _, err := r.Route(ev); err != nil {
		r.logger.Error(err)
	}
}

// Route applies every pattern registered for ev.Type. Unknown types are logged and ignored.
// Events with unusable ids are rejected before any pattern is applied.
// A pattern that expands to something invalid is skipped and reported after the rest are applied.
func (r *Router) Route(ev domain.MutationEvent) (Outcome, error) {
	var out Outcome
	if err := ev.Validate(); err != nil {
		return out, err
	}

	patterns, ok := r.patterns[ev.Type]
	if !ok {
		r.logger.Warn("ignoring mutation event of unknown type " + ev.Type)
		return out, nil
	}

	var firstErr error
	for _, pattern := range patterns {
		expanded := Expand(pattern, ev)

		n, err := r.cache.Invalidate(expanded)
		if err != nil {
			if firstErr == nil {
				firstErr = zerr.With(zerr.With(err, "event_type", ev.Type), "pattern", expanded)
			}
			continue
		}
		out.Invalidated += n

		if r.states == nil {
			continue
		}
		n, err = r.states.MarkStaleMatching(expanded)
		if err != nil {
			if firstErr == nil {
				firstErr = zerr.With(zerr.With(err, "event_type", ev.Type), "pattern", expanded)
			}
			continue
		}
		out.MarkedStale += n
	}
	return out, firstErr
}

// Expand substitutes the tenant and entity placeholders of pattern.
func Expand(pattern string, ev domain.MutationEvent) string {
	return strings.NewReplacer(
		TenantPlaceholder, ev.TenantID,
		EntityPlaceholder, ev.EntityID,
	).Replace(pattern)
}
