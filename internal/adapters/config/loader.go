// Package config provides the configuration loader for hoard.
package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"go.trai.ch/hoard/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

const (
	// EnvPath names the environment variable that overrides the config file location.
	EnvPath = "HOARD_CONFIG"
	// DefaultPath is the config file read when EnvPath is unset.
	DefaultPath = "hoard.yaml"
	// DefaultRedisChannel is the Pub/Sub channel used when none is configured.
	DefaultRedisChannel = "hoard:mutations"
)

// Path returns the config file location.
func Path() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return DefaultPath
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Cache: CacheConfig{
			MaxEntries:    10_000,
			DefaultTTL:    Duration(5 * time.Minute),
			SweepInterval: Duration(5 * time.Minute),
		},
		Compute: ComputeConfig{
			MaxConcurrency:      4,
			TickInterval:        Duration(time.Second),
			ResultTTL:           Duration(10 * time.Minute),
			StateHorizon:        Duration(24 * time.Hour),
			JobRetention:        Duration(time.Hour),
			WarmInterval:        Duration(30 * time.Second),
			MaintenanceInterval: Duration(time.Hour),
		},
		Query: QueryConfig{
			CacheTTL:      Duration(5 * time.Minute),
			MaxPageSize:   1000,
			SlowThreshold: Duration(time.Second),
		},
		Store: StoreConfig{
			SQLitePath: "hoard.db",
		},
		Telemetry: TelemetryConfig{
			SQLitePath:    "hoard-telemetry.db",
			BatchSize:     100,
			FlushInterval: Duration(5 * time.Second),
		},
		Events: EventsConfig{
			Redis: RedisConfig{Channel: DefaultRedisChannel},
		},
	}
}

// Load reads the configuration file at path on top of Default and validates it.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "path", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return cfg, nil
}

// Validate rejects non-positive limits and intervals and malformed invalidation patterns.
func (c *Config) Validate() error {
	positiveInts := []struct {
		field string
		value int
	}{
		{"cache.max_entries", c.Cache.MaxEntries},
		{"compute.max_concurrency", c.Compute.MaxConcurrency},
		{"query.max_page_size", c.Query.MaxPageSize},
		{"telemetry.batch_size", c.Telemetry.BatchSize},
	}
	for _, p := range positiveInts {
		if p.value <= 0 {
			return invalid(p.field, "must be positive")
		}
	}

	positiveDurations := []struct {
		field string
		value Duration
	}{
		{"cache.default_ttl", c.Cache.DefaultTTL},
		{"cache.sweep_interval", c.Cache.SweepInterval},
		{"compute.tick_interval", c.Compute.TickInterval},
		{"compute.result_ttl", c.Compute.ResultTTL},
		{"compute.state_horizon", c.Compute.StateHorizon},
		{"compute.job_retention", c.Compute.JobRetention},
		{"compute.warm_interval", c.Compute.WarmInterval},
		{"compute.maintenance_interval", c.Compute.MaintenanceInterval},
		{"query.cache_ttl", c.Query.CacheTTL},
		{"query.slow_threshold", c.Query.SlowThreshold},
		{"telemetry.flush_interval", c.Telemetry.FlushInterval},
	}
	for _, p := range positiveDurations {
		if p.value <= 0 {
			return invalid(p.field, "must be a positive duration")
		}
	}

	if c.Store.SQLitePath == "" {
		return invalid("store.sqlite_path", "must not be empty")
	}
	if c.Events.Redis.Addr != "" && c.Events.Redis.Channel == "" {
		return invalid("events.redis.channel", "must be set when events.redis.addr is set")
	}

	for eventType, patterns := range c.Events.Patterns {
		if eventType == "" {
			return invalid("events.patterns", "event type must not be empty")
		}
		for _, pattern := range patterns {
			if err := domain.ValidatePattern(pattern); err != nil {
				return zerr.With(zerr.Wrap(err, domain.ErrInvalidConfig.Error()), "event_type", eventType)
			}
		}
	}

	for i, h := range c.Hot {
		if h.Kind == "" {
			return zerr.With(invalid("hot.kind", "must not be empty"), "index", i)
		}
		if h.Every < 0 {
			return zerr.With(invalid("hot.every", "must not be negative"), "index", i)
		}
	}
	return nil
}

func invalid(field, reason string) error {
	return zerr.With(zerr.With(domain.ErrInvalidConfig, "field", field), "reason", reason)
}
