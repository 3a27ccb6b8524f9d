// Package metrics implements ports.Metrics with Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.trai.ch/hoard/internal/core/domain"
	"go.trai.ch/hoard/internal/core/ports"
)

// Namespace prefixes every hoard metric.
const Namespace = "hoard"

var _ ports.Metrics = (*Prometheus)(nil)

// Prometheus holds the cache, job and query collectors.
type Prometheus struct {
	registry *prometheus.Registry

	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
	CacheEvictions   prometheus.Counter
	CacheExpirations prometheus.Counter

	JobsScheduled *prometheus.CounterVec
	JobsFinished  *prometheus.CounterVec
	JobDuration   *prometheus.HistogramVec
	PendingJobs   prometheus.Gauge

	Queries         *prometheus.CounterVec
	QueryLatency    *prometheus.HistogramVec
	QueryDocsRead   *prometheus.HistogramVec
	SlowSuggestions prometheus.Counter
}

// New creates the collectors and registers them on reg. A nil reg gets a fresh registry.
func New(reg *prometheus.Registry) *Prometheus {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	p := &Prometheus{registry: reg}

	p.initCacheMetrics(factory)
	p.initJobMetrics(factory)
	p.initQueryMetrics(factory)
	return p
}

// Registry returns the registry the collectors are registered on.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

func (p *Prometheus) initCacheMetrics(factory promauto.Factory) {
	p.CacheHits = factory.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total number of cache lookups that found a live entry",
	})
	p.CacheMisses = factory.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total number of cache lookups that found no live entry",
	})
	p.CacheEvictions = factory.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "cache",
		Name:      "evictions_total",
		Help:      "Total number of entries evicted to stay within capacity",
	})
	p.CacheExpirations = factory.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "cache",
		Name:      "expirations_total",
		Help:      "Total number of entries removed because their TTL elapsed",
	})
}

func (p *Prometheus) initJobMetrics(factory promauto.Factory) {
	p.JobsScheduled = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "jobs",
		Name:      "scheduled_total",
		Help:      "Total number of background jobs scheduled",
	}, []string{"kind"})
	p.JobsFinished = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "jobs",
		Name:      "finished_total",
		Help:      "Total number of background jobs that reached a terminal status",
	}, []string{"kind", "status"})
	p.JobDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Subsystem: "jobs",
		Name:      "duration_seconds",
		Help:      "Duration of background job execution in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 15),
	}, []string{"kind"})
	p.PendingJobs = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Subsystem: "jobs",
		Name:      "queue_depth",
		Help:      "Number of pending jobs waiting for a slot",
	})
}

func (p *Prometheus) initQueryMetrics(factory promauto.Factory) {
	p.Queries = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "query",
		Name:      "executed_total",
		Help:      "Total number of paginated queries observed",
	}, []string{"collection", "cache_hit"})
	p.QueryLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Subsystem: "query",
		Name:      "latency_seconds",
		Help:      "Latency of paginated queries in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"collection"})
	p.QueryDocsRead = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Subsystem: "query",
		Name:      "documents_read",
		Help:      "Documents read by the store per paginated query",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
	}, []string{"collection"})
	p.SlowSuggestions = factory.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "query",
		Name:      "suggestions_total",
		Help:      "Total number of optimization suggestions produced",
	})
}

func (p *Prometheus) CacheHit() {
	p.CacheHits.Inc()
}

func (p *Prometheus) CacheMiss() {
	p.CacheMisses.Inc()
}

func (p *Prometheus) CacheEviction() {
	p.CacheEvictions.Inc()
}

func (p *Prometheus) CacheExpiration(n int) {
	p.CacheExpirations.Add(float64(n))
}

func (p *Prometheus) JobScheduled(kind string) {
	p.JobsScheduled.WithLabelValues(kind).Inc()
}

func (p *Prometheus) JobFinished(kind string, status domain.JobStatus, took time.Duration) {
	p.JobsFinished.WithLabelValues(kind, string(status)).Inc()
	p.JobDuration.WithLabelValues(kind).Observe(took.Seconds())
}

func (p *Prometheus) QueueDepth(n int) {
	p.PendingJobs.Set(float64(n))
}

func (p *Prometheus) QueryObserved(s domain.QueryPerformanceSample) {
	hit := "false"
	if s.CacheHit {
		hit = "true"
	}
	p.Queries.WithLabelValues(s.Collection, hit).Inc()
	p.QueryLatency.WithLabelValues(s.Collection).Observe(s.Latency.Seconds())
	p.QueryDocsRead.WithLabelValues(s.Collection).Observe(float64(s.DocumentsRead))
	p.SlowSuggestions.Add(float64(len(s.Suggestions)))
}
