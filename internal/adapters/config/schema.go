package config

import (
	"time"

	"go.trai.ch/hoard/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Config represents the structure of the hoard.yaml configuration file.
type Config struct {
	Cache     CacheConfig     `yaml:"cache"`
	Compute   ComputeConfig   `yaml:"compute"`
	Query     QueryConfig     `yaml:"query"`
	Store     StoreConfig     `yaml:"store"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Events    EventsConfig    `yaml:"events"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Hot       []HotDTO        `yaml:"hot"`
}

// CacheConfig configures the key-value cache.
type CacheConfig struct {
	MaxEntries    int      `yaml:"max_entries"`
	DefaultTTL    Duration `yaml:"default_ttl"`
	SweepInterval Duration `yaml:"sweep_interval"`
}

// ComputeConfig configures the incremental compute engine and its background loops.
type ComputeConfig struct {
	MaxConcurrency      int      `yaml:"max_concurrency"`
	TickInterval        Duration `yaml:"tick_interval"`
	ResultTTL           Duration `yaml:"result_ttl"`
	StateHorizon        Duration `yaml:"state_horizon"`
	JobRetention        Duration `yaml:"job_retention"`
	WarmInterval        Duration `yaml:"warm_interval"`
	MaintenanceInterval Duration `yaml:"maintenance_interval"`
}

// QueryConfig configures the paginated query executor.
type QueryConfig struct {
	CacheTTL      Duration `yaml:"cache_ttl"`
	MaxPageSize   int      `yaml:"max_page_size"`
	SlowThreshold Duration `yaml:"slow_threshold"`
}

// StoreConfig locates the authoritative document store.
type StoreConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

// TelemetryConfig configures where query samples are persisted and how they are batched.
type TelemetryConfig struct {
	SQLitePath    string   `yaml:"sqlite_path"`
	BatchSize     int      `yaml:"batch_size"`
	FlushInterval Duration `yaml:"flush_interval"`
}

// EventsConfig configures the mutation event feed and its invalidation table.
// Patterns maps an event type to cache key patterns, which may contain {tenant} and {entity}.
type EventsConfig struct {
	Redis    RedisConfig         `yaml:"redis"`
	Patterns map[string][]string `yaml:"patterns"`
}

// RedisConfig configures the Redis Pub/Sub subscription. An empty Addr disables it.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

// MetricsConfig configures the Prometheus endpoint. An empty ListenAddr disables it.
type MetricsConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// HotDTO represents a hot computation kept warm by the pre-computation scheduler.
type HotDTO struct {
	Kind     string         `yaml:"kind"`
	TenantID string         `yaml:"tenant_id"`
	EntityID string         `yaml:"entity_id"`
	Priority *int           `yaml:"priority"`
	Every    Duration       `yaml:"every"`
	Params   map[string]any `yaml:"params"`
}

// PriorityOrDefault returns the configured priority or domain.DefaultPriority.
func (h HotDTO) PriorityOrDefault() int {
	if h.Priority == nil {
		return domain.DefaultPriority
	}
	return *h.Priority
}

// Duration is a time.Duration written as a Go duration string such as "90s" or "5m".
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "invalid duration"), "value", s)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML writes the duration string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}
