package kvcache

import (
	"context"
	"time"

	"go.trai.ch/hoard/internal/core/domain"
	"go.trai.ch/zerr"
)

// LoadFunc fetches the authoritative value for a cache miss.
type LoadFunc[T any] func(ctx context.Context) (T, error)

// GetOrLoad returns the cached value under key or loads, stores and returns it.
// Concurrent misses for the same key share a single load. An entry of the wrong type is treated
// as a miss. Load errors are returned unchanged and nothing is stored.
func GetOrLoad[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, load LoadFunc[T]) (T, error) {
	var zero T

	if err := domain.ValidateKey(key); err != nil {
		return zero, err
	}
	if ttl < 0 {
		return zero, zerr.With(domain.ErrInvalidTTL, "ttl", ttl.String())
	}

	if v, ok := c.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	v, err, _ := c.loads.Do(key, func() (any, error) {
		val, err := load(ctx)
		if err != nil {
			return nil, err
		}
		// Key and ttl were validated above, so Set cannot fail here.
		_ = c.Set(key, val, ttl)
		return val, nil
	})
	if err != nil {
		return zero, err
	}

	typed, ok := v.(T)
	if !ok {
		// A caller loading a different type shared this flight.
		return load(ctx)
	}
	return typed, nil
}
