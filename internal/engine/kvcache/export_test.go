// export_test.go exposes internals for black-box tests.
package kvcache

import (
	"time"

	"go.trai.ch/hoard/internal/core/domain"
)

// Peek returns a copy of the live entry under key without counting a lookup or touching recency.
func (c *Cache) Peek(key string) (domain.CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok || el.entry.Expired(time.Now()) {
		return domain.CacheEntry{}, false
	}
	return el.entry, true
}
