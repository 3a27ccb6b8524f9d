// Package kvcache implements a process-local, size-bounded TTL cache with least-recently-used eviction
// and wildcard invalidation.
package kvcache

import (
	"encoding/json"
	"slices"
	"sync"
	"time"

	"go.trai.ch/hoard/internal/core/domain"
	"go.trai.ch/hoard/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultMaxEntries is the capacity used when Config.MaxEntries is not set.
	DefaultMaxEntries = 10_000
	// DefaultTTL is the time-to-live applied when Set is called with a zero ttl.
	DefaultTTL = 5 * time.Minute
	// DefaultSweepInterval is how often RunSweeper reaps expired entries by default.
	DefaultSweepInterval = 5 * time.Minute
)

// Config holds the cache limits.
type Config struct {
	MaxEntries int
	DefaultTTL time.Duration
}

// Cache maps string keys to opaque values.
// Get moves entries in the recency list, so every operation takes the same exclusive lock.
type Cache struct {
	mu    sync.Mutex
	items map[string]*element
	order recencyList

	maxEntries int
	defaultTTL time.Duration
	metrics    ports.Metrics

	totalBytes    uint64
	hits          uint64
	misses        uint64
	evictions     uint64
	expirations   uint64
	invalidations uint64

	loads singleflight.Group
}

// New creates an empty cache. Zero config values fall back to the package defaults.
func New(cfg Config, metrics ports.Metrics) *Cache {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = DefaultTTL
	}
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	return &Cache{
		items:      make(map[string]*element),
		maxEntries: cfg.MaxEntries,
		defaultTTL: cfg.DefaultTTL,
		metrics:    metrics,
	}
}

// Get returns the live value stored under key.
// Expired entries are reaped on the spot and reported as a miss. A malformed key is a miss.
func (c *Cache) Get(key string) (any, bool) {
	now := time.Now()

	c.mu.Lock()
	el, ok := c.items[key]
	if !ok {
		c.misses++
		c.mu.Unlock()
		c.metrics.CacheMiss()
		return nil, false
	}
	if el.entry.Expired(now) {
		c.removeLocked(el)
		c.expirations++
		c.misses++
		c.mu.Unlock()
		c.metrics.CacheExpiration(1)
		c.metrics.CacheMiss()
		return nil, false
	}

	el.entry.AccessCount++
	el.entry.LastAccessedAt = now
	c.order.moveToFront(el)
	c.hits++
	value := el.entry.Value
	c.mu.Unlock()

	c.metrics.CacheHit()
	return value, true
}

// Set stores value under key, replacing any previous entry.
// A zero ttl means the configured default. Inserting a new key into a full cache first evicts
// the least recently used entry.
func (c *Cache) Set(key string, value any, ttl time.Duration) error {
	if err := domain.ValidateKey(key); err != nil {
		return err
	}
	if ttl < 0 {
		return zerr.With(domain.ErrInvalidTTL, "ttl", ttl.String())
	}
	if ttl == 0 {
		ttl = c.defaultTTL
	}

	now := time.Now()
	entry := domain.CacheEntry{
		Key:             key,
		Value:           value,
		StoredAt:        now,
		TTL:             ttl,
		LastAccessedAt:  now,
		ApproxSizeBytes: approxSize(key, value),
	}

	evicted := false

	c.mu.Lock()
	if el, ok := c.items[key]; ok {
		c.totalBytes -= el.entry.ApproxSizeBytes
		el.entry = entry
		c.totalBytes += entry.ApproxSizeBytes
		c.order.moveToFront(el)
	} else {
		if len(c.items) >= c.maxEntries {
			if lru := c.order.back(); lru != nil {
				c.removeLocked(lru)
				c.evictions++
				evicted = true
			}
		}
		el := &element{entry: entry}
		c.items[key] = el
		c.order.pushFront(el)
		c.totalBytes += entry.ApproxSizeBytes
	}
	c.mu.Unlock()

	if evicted {
		c.metrics.CacheEviction()
	}
	return nil
}

// Delete removes the entry under key and reports whether one existed.
func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return false
	}
	c.removeLocked(el)
	return true
}

// Invalidate removes every key matching pattern and returns how many were removed.
func (c *Cache) Invalidate(pattern string) (int, error) {
	match, err := CompilePattern(pattern)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, el := range c.items {
		if match(key) {
			c.removeLocked(el)
			removed++
		}
	}
	c.invalidations += uint64(removed)
	return removed, nil
}

// SweepExpired removes all entries whose TTL has elapsed and returns how many were removed.
func (c *Cache) SweepExpired() int {
	now := time.Now()

	c.mu.Lock()
	removed := 0
	for _, el := range c.items {
		if el.entry.Expired(now) {
			c.removeLocked(el)
			removed++
		}
	}
	c.expirations += uint64(removed)
	c.mu.Unlock()

	if removed > 0 {
		c.metrics.CacheExpiration(removed)
	}
	return removed
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() domain.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := domain.CacheStats{
		Hits:          c.hits,
		Misses:        c.misses,
		EntryCount:    len(c.items),
		TotalBytes:    c.totalBytes,
		Evictions:     c.evictions,
		Expirations:   c.expirations,
		Invalidations: c.invalidations,
	}
	if lookups := c.hits + c.misses; lookups > 0 {
		stats.HitRate = float64(c.hits) / float64(lookups)
	}
	return stats
}

// Len returns the number of stored entries, including expired ones not yet reaped.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Keys returns the sorted keys of all live entries.
func (c *Cache) Keys() []string {
	now := time.Now()

	c.mu.Lock()
	keys := make([]string, 0, len(c.items))
	for key, el := range c.items {
		if !el.entry.Expired(now) {
			keys = append(keys, key)
		}
	}
	c.mu.Unlock()

	slices.Sort(keys)
	return keys
}

func (c *Cache) removeLocked(el *element) {
	c.order.remove(el)
	delete(c.items, el.entry.Key)
	c.totalBytes -= el.entry.ApproxSizeBytes
}

// approxSize estimates the memory held by an entry from its key and encoded value.
// Values that cannot be encoded count for their key only.
func approxSize(key string, value any) uint64 {
	size := uint64(len(key))
	switch v := value.(type) {
	case nil:
	case string:
		size += uint64(len(v))
	case []byte:
		size += uint64(len(v))
	default:
		if b, err := json.Marshal(v); err == nil {
			size += uint64(len(b))
		}
	}
	return size
}
