// Package compute implements incremental recomputation of derived results and a priority queue of
// background jobs drained by a bounded-concurrency dispatcher.
package compute

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.trai.ch/hoard/internal/core/domain"
	"go.trai.ch/hoard/internal/core/ports"
	"go.trai.ch/hoard/internal/engine/kvcache"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultMaxConcurrency is the number of jobs the dispatcher runs at once by default.
	DefaultMaxConcurrency = 4
	// DefaultTickInterval is how often the dispatcher polls the queue without a wake-up.
	DefaultTickInterval = time.Second
	// DefaultResultTTL is how long computed results stay cached.
	DefaultResultTTL = 10 * time.Minute
	// DefaultStateHorizon is how long an untouched computation state is kept.
	DefaultStateHorizon = 24 * time.Hour
	// DefaultJobRetention is how long finished jobs stay queryable.
	DefaultJobRetention = time.Hour
	// DefaultWarmInterval is the re-schedule interval of hot computations that do not set one.
	DefaultWarmInterval = 5 * time.Minute
)

// Config holds the engine limits and intervals.
type Config struct {
	MaxConcurrency int
	TickInterval   time.Duration
	ResultTTL      time.Duration
	StateHorizon   time.Duration
	JobRetention   time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = DefaultMaxConcurrency
	}
	if c.TickInterval <= 0 {
		c.TickInterval = DefaultTickInterval
	}
	if c.ResultTTL <= 0 {
		c.ResultTTL = DefaultResultTTL
	}
	if c.StateHorizon <= 0 {
		c.StateHorizon = DefaultStateHorizon
	}
	if c.JobRetention <= 0 {
		c.JobRetention = DefaultJobRetention
	}
	return c
}

// Handler computes the result of one background job.
// The context is not cancelled when the dispatcher stops; handlers own their timeouts.
type Handler func(ctx context.Context, job domain.Job) (any, error)

// Engine tracks computation states and runs background jobs.
// States and jobs are guarded by separate locks so foreground computations never wait on the queue.
type Engine struct {
	cache   *kvcache.Cache
	logger  ports.Logger
	tracer  ports.Tracer
	metrics ports.Metrics
	cfg     Config

	stateMu sync.Mutex
	states  map[string]*domain.ComputationState
	pending map[string]uint64

	jobMu       sync.Mutex
	handlers    map[string]Handler
	queue       queue
	jobs        map[string]*domain.Job
	done        map[string]chan struct{}
	dispatching bool
	wake        chan struct{}

	warmMu sync.Mutex
	hot    []*hotEntry

	flights singleflight.Group
	keys    keyLocks
}

// New creates an engine that stores results in cache.
func New(cfg Config, cache *kvcache.Cache, logger ports.Logger, tracer ports.Tracer, metrics ports.Metrics) *Engine {
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	return &Engine{
		cache:    cache,
		logger:   logger,
		tracer:   tracer,
		metrics:  metrics,
		cfg:      cfg.withDefaults(),
		states:   make(map[string]*domain.ComputationState),
		pending:  make(map[string]uint64),
		handlers: make(map[string]Handler),
		jobs:     make(map[string]*domain.Job),
		done:     make(map[string]chan struct{}),
		wake:     make(chan struct{}, 1),
	}
}

// Register installs the handler for a job kind, replacing any previous one.
func (e *Engine) Register(kind string, handler Handler) {
	e.jobMu.Lock()
	defer e.jobMu.Unlock()
	e.handlers[kind] = handler
}

// Kinds returns the sorted registered job kinds.
func (e *Engine) Kinds() []string {
	e.jobMu.Lock()
	kinds := make([]string, 0, len(e.handlers))
	for kind := range e.handlers {
		kinds = append(kinds, kind)
	}
	e.jobMu.Unlock()

	slices.Sort(kinds)
	return kinds
}

// State returns a copy of the computation state for key.
func (e *Engine) State(key string) (domain.ComputationState, bool) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	s, ok := e.states[key]
	if !ok {
		return domain.ComputationState{}, false
	}
	c := *s
	c.Checksum = slices.Clone(s.Checksum)
	return c, true
}

// MarkStale forces the next computation of key to run again and reports whether a state existed.
// A computation of key that is running discards its result instead of caching it.
func (e *Engine) MarkStale(key string) bool {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	if n, running := e.pending[key]; running {
		e.pending[key] = n + 1
	}
	s, ok := e.states[key]
	if ok {
		s.Stale = true
	}
	return ok
}

// MarkStaleMatching marks every state whose key matches pattern as stale.
func (e *Engine) MarkStaleMatching(pattern string) (int, error) {
	match, err := kvcache.CompilePattern(pattern)
	if err != nil {
		return 0, err
	}

	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	for key, n := range e.pending {
		if match(key) {
			e.pending[key] = n + 1
		}
	}
	marked := 0
	for key, s := range e.states {
		if match(key) && !s.Stale {
			s.Stale = true
			marked++
		}
	}
	return marked, nil
}

// keyLocks serializes updates of a single key without blocking other keys.
type keyLocks struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func (k *keyLocks) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
