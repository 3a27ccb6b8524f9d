// Package query runs paginated reads against the authoritative store, memoizes result pages and
// records per-query performance samples.
package query

import (
	"context"
	"strconv"
	"time"

	"go.trai.ch/hoard/internal/core/domain"
	"go.trai.ch/hoard/internal/core/ports"
	"go.trai.ch/hoard/internal/engine/kvcache"
	"go.trai.ch/zerr"
)

const (
	// DefaultCacheTTL is how long a memoized page stays cached.
	DefaultCacheTTL = 5 * time.Minute
	// DefaultMaxPageSize is the largest page a caller may request.
	DefaultMaxPageSize = 1000
	// DefaultSlowThreshold is the latency above which a query counts as slow.
	DefaultSlowThreshold = time.Second
	// IndexLatencyThreshold approximates index usage: faster queries are assumed to use one.
	// It is a heuristic, not a measurement.
	IndexLatencyThreshold = time.Second
)

// Config holds the executor limits.
type Config struct {
	CacheTTL      time.Duration
	MaxPageSize   int
	SlowThreshold time.Duration
}

// Executor serves paginated reads.
type Executor struct {
	store   ports.DocumentStore
	cache   *kvcache.Cache
	sink    ports.SampleSink
	reader  ports.SampleReader
	logger  ports.Logger
	tracer  ports.Tracer
	metrics ports.Metrics
	cfg     Config
}

// New creates an Executor. sink and reader may be nil, which disables sample recording and
// summaries respectively.
func New(
	cfg Config,
	store ports.DocumentStore,
	cache *kvcache.Cache,
	sink ports.SampleSink,
	reader ports.SampleReader,
	logger ports.Logger,
	tracer ports.Tracer,
	metrics ports.Metrics,
) *Executor {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = DefaultMaxPageSize
	}
	if cfg.SlowThreshold <= 0 {
		cfg.SlowThreshold = DefaultSlowThreshold
	}
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	return &Executor{
		store:   store,
		cache:   cache,
		sink:    sink,
		reader:  reader,
		logger:  logger,
		tracer:  tracer,
		metrics: metrics,
		cfg:     cfg,
	}
}

// PaginatedQuery returns one page of documents with pagination metadata.
// With a cache key, a copy of a live memoized page is returned; otherwise the page is fetched,
// counted with a separate unpaginated query and memoized. Store errors are returned unchanged.
func (e *Executor) PaginatedQuery(ctx context.Context, req domain.PageRequest) (domain.PaginatedResult, error) {
	start := time.Now()

	q, err := e.findQuery(req)
	if err != nil {
		return domain.PaginatedResult{}, err
	}
	description := req.Description
	if description == "" {
		description = req.Collection + " page " + strconv.Itoa(req.Page)
	}

	if req.CacheKey != "" {
		if v, ok := e.cache.Get(req.CacheKey); ok {
			if res, ok := v.(domain.PaginatedResult); ok {
				e.RecordSample(ctx, domain.QueryPerformanceSample{
					Collection:        req.Collection,
					TenantID:          req.TenantID,
					Latency:           time.Since(start),
					DocumentsReturned: len(res.Data),
					CacheHit:          true,
					Description:       description,
				})
				return res.Clone(), nil
			}
		}
	}

	ctx, span := e.tracer.Start(ctx, "query.paginated",
		ports.WithAttribute("query.collection", req.Collection),
		ports.WithAttribute("query.page", req.Page),
		ports.WithAttribute("query.page_size", req.PageSize),
	)
	defer span.End()

	found, err := e.store.Find(ctx, q)
	if err != nil {
		span.RecordError(err)
		return domain.PaginatedResult{}, err
	}
	total, err := e.store.Count(ctx, q)
	if err != nil {
		span.RecordError(err)
		return domain.PaginatedResult{}, err
	}

	data := found.Documents
	if data == nil {
		data = []domain.Document{}
	}
	res := domain.PaginatedResult{
		Data:       data,
		Pagination: domain.NewPagination(req.Page, req.PageSize, total),
	}
	span.SetAttribute("query.total", total)

	if req.CacheKey != "" {
		if err := e.cache.Set(req.CacheKey, res, e.cfg.CacheTTL); err != nil {
			e.logger.Error(zerr.With(zerr.Wrap(err, "failed to memoize query page"), "key", req.CacheKey))
		}
	}

	e.RecordSample(ctx, domain.QueryPerformanceSample{
		Collection:        req.Collection,
		TenantID:          req.TenantID,
		Latency:           time.Since(start),
		DocumentsRead:     max(found.Scanned, len(found.Documents)),
		DocumentsReturned: len(found.Documents),
		Description:       description,
	})
	return res.Clone(), nil
}

func (e *Executor) findQuery(req domain.PageRequest) (domain.FindQuery, error) {
	if req.Page < 1 {
		return domain.FindQuery{}, zerr.With(zerr.With(domain.ErrInvalidPage, "reason", "page must be at least 1"), "page", req.Page)
	}
	if req.PageSize < 1 || req.PageSize > e.cfg.MaxPageSize {
		return domain.FindQuery{}, zerr.With(zerr.With(domain.ErrInvalidPage, "page_size", req.PageSize), "max_page_size", e.cfg.MaxPageSize)
	}
	order, err := domain.ParseSortOrder(string(req.SortOrder))
	if err != nil {
		return domain.FindQuery{}, err
	}
	if req.SortKey != "" {
		if err := domain.ValidateField(req.SortKey); err != nil {
			return domain.FindQuery{}, err
		}
	}
	for field := range req.Filter {
		if err := domain.ValidateField(field); err != nil {
			return domain.FindQuery{}, err
		}
	}
	if req.CacheKey != "" {
		if err := domain.ValidateKey(req.CacheKey); err != nil {
			return domain.FindQuery{}, err
		}
	}

	return domain.FindQuery{
		Collection: req.Collection,
		TenantID:   req.TenantID,
		Filter:     req.Filter,
		SortKey:    req.SortKey,
		SortOrder:  order,
		Offset:     (req.Page - 1) * req.PageSize,
		Limit:      req.PageSize,
	}, nil
}

// RecordSample fills in the index heuristic and suggestions and appends the sample to the sink.
// Sink failures are logged and never returned.
func (e *Executor) RecordSample(ctx context.Context, sample domain.QueryPerformanceSample) {
	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now()
	}
	sample.IndexUsed = sample.Latency < IndexLatencyThreshold
	sample.Suggestions = Suggestions(sample)

	e.metrics.QueryObserved(sample)
	if e.sink == nil {
		return
	}
	if err := e.sink.Append(ctx, sample); err != nil {
		e.logger.Error(zerr.Wrap(err, "failed to record query sample"))
	}
}
