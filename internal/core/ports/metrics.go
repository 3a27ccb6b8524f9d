package ports

import (
	"time"

	"go.trai.ch/hoard/internal/core/domain"
)

// Metrics observes cache, job and query activity.
type Metrics interface {
	CacheHit()
	CacheMiss()
	CacheEviction()
	CacheExpiration(n int)
	JobScheduled(kind string)
	JobFinished(kind string, status domain.JobStatus, took time.Duration)
	QueueDepth(n int)
	QueryObserved(sample domain.QueryPerformanceSample)
}

// NoopMetrics discards every observation.
type NoopMetrics struct{}

func (NoopMetrics) CacheHit()                                           {}
func (NoopMetrics) CacheMiss()                                          {}
func (NoopMetrics) CacheEviction()                                      {}
func (NoopMetrics) CacheExpiration(int)                                 {}
func (NoopMetrics) JobScheduled(string)                                 {}
func (NoopMetrics) JobFinished(string, domain.JobStatus, time.Duration) {}
func (NoopMetrics) QueueDepth(int)                                      {}
func (NoopMetrics) QueryObserved(domain.QueryPerformanceSample)         {}
