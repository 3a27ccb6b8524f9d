package kvcache

import (
	"context"
	"time"
)

// RunSweeper reaps expired entries every interval until ctx is done.
func (c *Cache) RunSweeper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.SweepExpired()
		}
	}
}
