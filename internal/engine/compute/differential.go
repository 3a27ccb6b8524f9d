package compute

import (
	"context"
	"time"

	"go.trai.ch/hoard/internal/core/domain"
	"go.trai.ch/zerr"
)

// DeltaFunc derives the next result from the previous one.
// It must yield exactly what a full recomputation over the changed inputs would.
type DeltaFunc func(prev any) (any, error)

// DifferentialUpdate applies apply to the cached previous result of key when a fresh state and a
// live cached result exist, and falls back to full otherwise. A failing delta also falls back to
// full. The result is cached and recorded like a full recomputation. Updates of one key are
// serialized so no delta is lost.
func (e *Engine) DifferentialUpdate(
	ctx context.Context,
	key string,
	inputsChangedAt time.Time,
	apply DeltaFunc,
	full ComputeFunc,
	opts ...Option,
) (any, error) {
	if err := domain.ValidateKey(key); err != nil {
		return nil, err
	}
	o := e.options(opts)

	unlock := e.keys.lock(key)
	defer unlock()

	e.begin(key)
	defer e.end(key)

	result, applied := e.applyDelta(key, apply)
	if !applied {
		var err error
		result, err = full(ctx)
		if err != nil {
			return nil, err
		}
	}

	e.record(key, inputsChangedAt, result, o.ttl)
	return result, nil
}

func (e *Engine) applyDelta(key string, apply DeltaFunc) (any, bool) {
	e.stateMu.Lock()
	s, ok := e.states[key]
	fresh := ok && !s.Stale
	e.stateMu.Unlock()
	if !fresh {
		return nil, false
	}

	prev, ok := e.cache.Get(key)
	if !ok {
		return nil, false
	}

	next, err := apply(prev)
	if err != nil {
		e.logger.Warn("delta update of " + key + " failed, recomputing: " + err.Error())
		return nil, false
	}
	return next, true
}

// ApplyTotals returns the additive shortcut that adds delta to a cached domain.Totals.
func ApplyTotals(delta domain.TotalsDelta) DeltaFunc {
	return func(prev any) (any, error) {
		totals, ok := prev.(domain.Totals)
		if !ok {
			return nil, zerr.With(domain.ErrResultTypeMismatch, "want", "domain.Totals")
		}
		return totals.Apply(delta), nil
	}
}
