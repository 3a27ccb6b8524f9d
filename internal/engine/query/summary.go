package query

import (
	"cmp"
	"context"
	"slices"
	"time"

	"go.trai.ch/hoard/internal/core/domain"
	"go.trai.ch/zerr"
)

// TopSlowQueries is the number of slow queries listed in a summary.
const TopSlowQueries = 5

// Summarize aggregates the samples recorded in the last period.
func (e *Executor) Summarize(ctx context.Context, period time.Duration) (domain.PerformanceSummary, error) {
	if period <= 0 {
		return domain.PerformanceSummary{}, zerr.With(domain.ErrInvalidPeriod, "period", period.String())
	}
	if e.reader == nil {
		return domain.PerformanceSummary{}, zerr.With(domain.ErrSampleReadFailed, "reason", "no sample reader configured")
	}

	now := time.Now()
	samples, err := e.reader.Since(ctx, now.Add(-period))
	if err != nil {
		return domain.PerformanceSummary{}, zerr.Wrap(err, domain.ErrSampleReadFailed.Error())
	}

	inWindow := make([]domain.QueryPerformanceSample, 0, len(samples))
	for _, s := range samples {
		if !s.Timestamp.After(now) {
			inWindow = append(inWindow, s)
		}
	}
	return BuildSummary(inWindow, period, e.cfg.SlowThreshold), nil
}

// BuildSummary aggregates samples into a PerformanceSummary.
// A sample is slow when its latency exceeds slowThreshold.
func BuildSummary(samples []domain.QueryPerformanceSample, period, slowThreshold time.Duration) domain.PerformanceSummary {
	summary := domain.PerformanceSummary{
		Period:         period,
		TotalQueries:   len(samples),
		TopSlowQueries: []domain.SlowQuery{},
	}
	if len(samples) == 0 {
		return summary
	}

	var totalLatency time.Duration
	hits := 0
	var slow []domain.QueryPerformanceSample
	for _, s := range samples {
		totalLatency += s.Latency
		if s.CacheHit {
			hits++
		}
		if s.Latency > slowThreshold {
			slow = append(slow, s)
		}
	}

	summary.AvgLatency = totalLatency / time.Duration(len(samples))
	summary.CacheHitRate = float64(hits) / float64(len(samples))
	summary.SlowQueryCount = len(slow)

	slices.SortStableFunc(slow, func(a, b domain.QueryPerformanceSample) int {
		return cmp.Compare(b.Latency, a.Latency)
	})
	for _, s := range slow[:min(len(slow), TopSlowQueries)] {
		summary.TopSlowQueries = append(summary.TopSlowQueries, domain.SlowQuery{
			Description: s.Description,
			Collection:  s.Collection,
			Latency:     s.Latency,
			Timestamp:   s.Timestamp,
		})
	}
	return summary
}
