package telemetry

import (
	"context"
	"sync"
	"time"

	"go.trai.ch/hoard/internal/core/domain"
	"go.trai.ch/hoard/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	// DefaultBatchSize is the number of samples that triggers a flush if not specified.
	DefaultBatchSize = 100
	// DefaultFlushInterval is the default flush interval if not specified.
	DefaultFlushInterval = 5 * time.Second
)

// BatchSink is implemented by sinks that can persist several samples in one write.
type BatchSink interface {
	AppendBatch(ctx context.Context, samples []domain.QueryPerformanceSample) error
}

// SampleBatcher buffers query samples until a size limit or time limit is reached and then
// writes them to the underlying sink from its Run loop. It implements ports.SampleSink and never
// blocks the caller on the sink.
type SampleBatcher struct {
	sink          ports.SampleSink
	logger        ports.Logger
	sizeLimit     int
	flushInterval time.Duration

	mu      sync.Mutex
	buffer  []domain.QueryPerformanceSample
	closed  bool
	flushCh chan struct{}

	// flushMu keeps batches in order.
	flushMu sync.Mutex
}

// NewSampleBatcher returns a SampleBatcher writing to sink.
func NewSampleBatcher(sink ports.SampleSink, logger ports.Logger, sizeLimit int, flushInterval time.Duration) *SampleBatcher {
	if sizeLimit <= 0 {
		sizeLimit = DefaultBatchSize
	}
	if flushInterval <= 0 {
		flushInterval = DefaultFlushInterval
	}
	return &SampleBatcher{
		sink:          sink,
		logger:        logger,
		sizeLimit:     sizeLimit,
		flushInterval: flushInterval,
		flushCh:       make(chan struct{}, 1),
	}
}

// Append buffers sample. Reaching the size limit wakes the Run loop.
func (b *SampleBatcher) Append(_ context.Context, sample domain.QueryPerformanceSample) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return domain.ErrBatcherClosed
	}

	b.buffer = append(b.buffer, sample)
	if len(b.buffer) >= b.sizeLimit {
		select {
		case b.flushCh <- struct{}{}:
		default:
		}
	}
	return nil
}

// Pending returns the number of buffered samples.
func (b *SampleBatcher) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buffer)
}

// Run flushes on every interval and whenever the buffer fills, until ctx is done.
// A final flush runs before it returns.
func (b *SampleBatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.Flush(context.WithoutCancel(ctx))
			return nil
		case <-b.flushCh:
			b.Flush(ctx)
			ticker.Reset(b.flushInterval)
		case <-ticker.C:
			b.Flush(ctx)
		}
	}
}

// Flush writes all buffered samples now. Write failures are logged and the samples dropped.
func (b *SampleBatcher) Flush(ctx context.Context) {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	b.mu.Lock()
	batch := b.buffer
	b.buffer = nil
	b.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	if err := b.write(ctx, batch); err != nil {
		b.logger.Error(zerr.With(zerr.Wrap(err, domain.ErrSampleWriteFailed.Error()), "samples", len(batch)))
	}
}

func (b *SampleBatcher) write(ctx context.Context, batch []domain.QueryPerformanceSample) error {
	if bs, ok := b.sink.(BatchSink); ok {
		return bs.AppendBatch(ctx, batch)
	}
	for _, s := range batch {
		if err := b.sink.Append(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// Close rejects further samples and flushes what is buffered.
func (b *SampleBatcher) Close(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.Flush(ctx)
	return nil
}
