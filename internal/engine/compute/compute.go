package compute

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/hoard/internal/core/domain"
	"go.trai.ch/zerr"
)

// ComputeFunc produces a fresh result from the authoritative data.
type ComputeFunc func(ctx context.Context) (any, error)

type options struct {
	force bool
	ttl   time.Duration
}

// Option adjusts a single computation.
type Option func(*options)

// ForceRefresh recomputes even when the stored state covers the inputs.
func ForceRefresh() Option {
	return func(o *options) { o.force = true }
}

// WithTTL caches the result for ttl instead of the configured result TTL.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) { o.ttl = ttl }
}

func (e *Engine) options(opts []Option) options {
	o := options{ttl: e.cfg.ResultTTL}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ComputeOrReuse returns the cached result for key when the recorded state already covers inputs
// changed at inputsChangedAt and the cached value is still live. Otherwise it runs compute, caches
// the result and records a new state version. Concurrent recomputations of the same key and input
// time share one compute call, and recomputations of one key never overlap with each other or with
// DifferentialUpdate. Compute errors are returned unchanged and leave state and cache as they were.
// A result whose key was marked stale while compute ran is returned but not cached.
func (e *Engine) ComputeOrReuse(
	ctx context.Context,
	key string,
	inputsChangedAt time.Time,
	compute ComputeFunc,
	opts ...Option,
) (any, error) {
	if err := domain.ValidateKey(key); err != nil {
		return nil, err
	}
	o := e.options(opts)

	if !o.force {
		if v, ok := e.reuse(key, inputsChangedAt); ok {
			return v, nil
		}
	}

	flight := key + "@" + strconv.FormatInt(inputsChangedAt.UnixNano(), 10)
	if o.force {
		flight += "@force"
	}
	v, err, _ := e.flights.Do(flight, func() (any, error) {
		unlock := e.keys.lock(key)
		defer unlock()

		if !o.force {
			if v, ok := e.reuse(key, inputsChangedAt); ok {
				return v, nil
			}
		}
		e.begin(key)
		defer e.end(key)

		result, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		e.record(key, inputsChangedAt, result, o.ttl)
		return result, nil
	})
	return v, err
}

// Compute is ComputeOrReuse for results of a known type.
// A reused value of a different type is recomputed.
func Compute[T any](
	ctx context.Context,
	e *Engine,
	key string,
	inputsChangedAt time.Time,
	compute func(ctx context.Context) (T, error),
	opts ...Option,
) (T, error) {
	var zero T
	wrapped := func(ctx context.Context) (any, error) { return compute(ctx) }

	v, err := e.ComputeOrReuse(ctx, key, inputsChangedAt, wrapped, opts...)
	if err != nil {
		return zero, err
	}
	if typed, ok := v.(T); ok {
		return typed, nil
	}

	v, err = e.ComputeOrReuse(ctx, key, inputsChangedAt, wrapped, append(opts, ForceRefresh())...)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, zerr.With(zerr.With(domain.ErrResultTypeMismatch, "key", key), "type", fmt.Sprintf("%T", v))
	}
	return typed, nil
}

func (e *Engine) reuse(key string, inputsChangedAt time.Time) (any, bool) {
	e.stateMu.Lock()
	s, ok := e.states[key]
	covered := ok && s.CoversInputs(inputsChangedAt)
	e.stateMu.Unlock()
	if !covered {
		return nil, false
	}

	v, ok := e.cache.Get(key)
	if !ok {
		return nil, false
	}

	e.stateMu.Lock()
	if s, ok := e.states[key]; ok {
		s.TouchedAt = time.Now()
	}
	e.stateMu.Unlock()
	return v, true
}

// begin registers key as being recomputed so stale marks on it during the computation are
// counted. Callers hold the key lock, so at most one computation per key is registered.
func (e *Engine) begin(key string) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	e.pending[key] = 0
}

func (e *Engine) end(key string) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	delete(e.pending, key)
}

// record caches result and advances the state of key, unless key was marked stale since begin.
// LastInputChangeAt never moves backwards.
func (e *Engine) record(key string, inputsChangedAt time.Time, result any, ttl time.Duration) {
	sum := Checksum(result)

	e.stateMu.Lock()
	if e.pending[key] != 0 {
		e.stateMu.Unlock()
		return
	}
	s, ok := e.states[key]

	setErr := e.cache.Set(key, result, ttl)

	now := time.Now()
	if !ok {
		s = &domain.ComputationState{Key: key}
		e.states[key] = s
	}
	s.LastComputedAt = now
	if inputsChangedAt.After(s.LastInputChangeAt) {
		s.LastInputChangeAt = inputsChangedAt
	}
	s.Checksum = sum
	s.Version++
	s.TouchedAt = now
	s.Stale = false
	e.stateMu.Unlock()

	if setErr != nil {
		e.logger.Error(zerr.With(zerr.Wrap(setErr, "failed to cache computed result"), "key", key))
	}
}

// Checksum hashes the JSON encoding of v with xxhash64.
// Values that cannot be encoded are hashed from their default formatting.
func Checksum(v any) []byte {
	h := xxhash.New()
	if b, err := json.Marshal(v); err == nil {
		_, _ = h.Write(b)
	} else {
		_, _ = fmt.Fprintf(h, "%#v", v)
	}
	return binary.BigEndian.AppendUint64(nil, h.Sum64())
}
