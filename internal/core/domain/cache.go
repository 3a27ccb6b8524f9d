package domain

import "time"

// CacheEntry is one value held by the key-value cache.
// AccessCount and LastAccessedAt are updated on every hit.
type CacheEntry struct {
	Key             string
	Value           any
	StoredAt        time.Time
	TTL             time.Duration
	AccessCount     uint64
	LastAccessedAt  time.Time
	ApproxSizeBytes uint64
}

// ExpiresAt returns the hard expiry of the entry.
func (e *CacheEntry) ExpiresAt() time.Time {
	return e.StoredAt.Add(e.TTL)
}

// Expired reports whether the entry must no longer be served at now.
func (e *CacheEntry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt())
}

// CacheStats is a point-in-time snapshot of cache counters.
type CacheStats struct {
	Hits          uint64  `json:"hits"`
	Misses        uint64  `json:"misses"`
	HitRate       float64 `json:"hit_rate"`
	EntryCount    int     `json:"entry_count"`
	TotalBytes    uint64  `json:"total_bytes"`
	Evictions     uint64  `json:"evictions"`
	Expirations   uint64  `json:"expirations"`
	Invalidations uint64  `json:"invalidations"`
}
