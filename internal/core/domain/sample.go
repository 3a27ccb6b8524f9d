package domain

import "time"

// QueryPerformanceSample is one telemetry record of a query executed by the engine.
// Samples are append-only and only read back by the summarizer.
type QueryPerformanceSample struct {
	Collection        string        `json:"collection,omitzero"`
	TenantID          string        `json:"tenant_id,omitzero"`
	Latency           time.Duration `json:"latency"`
	DocumentsRead     int           `json:"documents_read"`
	DocumentsReturned int           `json:"documents_returned"`
	CacheHit          bool          `json:"cache_hit"`
	IndexUsed         bool          `json:"index_used"`
	Description       string        `json:"description,omitzero"`
	Suggestions       []string      `json:"suggestions,omitempty"`
	Timestamp         time.Time     `json:"timestamp"`
}

// SlowQuery is a summary entry for one slow sample.
type SlowQuery struct {
	Description string        `json:"description"`
	Collection  string        `json:"collection,omitzero"`
	Latency     time.Duration `json:"latency"`
	Timestamp   time.Time     `json:"timestamp"`
}

// PerformanceSummary aggregates samples over a time window.
type PerformanceSummary struct {
	Period         time.Duration `json:"period"`
	TotalQueries   int           `json:"total_queries"`
	AvgLatency     time.Duration `json:"avg_latency"`
	SlowQueryCount int           `json:"slow_query_count"`
	CacheHitRate   float64       `json:"cache_hit_rate"`
	TopSlowQueries []SlowQuery   `json:"top_slow_queries"`
}
