package ports

import (
	"context"
	"time"

	"go.trai.ch/hoard/internal/core/domain"
)

//go:generate go run go.uber.org/mock/mockgen -source=samples.go -destination=mocks/mock_samples.go -package=mocks

// SampleSink is an append-only destination for query performance samples.
type SampleSink interface {
	Append(ctx context.Context, sample domain.QueryPerformanceSample) error
}

// SampleReader reads persisted samples back for offline summaries.
type SampleReader interface {
	// Since returns all samples with a timestamp at or after from, oldest first.
	Since(ctx context.Context, from time.Time) ([]domain.QueryPerformanceSample, error)
}
