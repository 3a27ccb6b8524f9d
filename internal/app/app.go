// Package app implements the application layer for hoard.
package app

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"go.trai.ch/hoard/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/hoard/internal/adapters/events"    //nolint:depguard // Wired in app layer
	"go.trai.ch/hoard/internal/adapters/metrics"   //nolint:depguard // Wired in app layer
	"go.trai.ch/hoard/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/hoard/internal/core/domain"
	"go.trai.ch/hoard/internal/core/ports"
	"go.trai.ch/hoard/internal/engine/compute"
	"go.trai.ch/hoard/internal/engine/kvcache"
	"go.trai.ch/hoard/internal/engine/query"
	"go.trai.ch/zerr"
)

// Components contains all the initialized application components.
type Components struct {
	App    *App
	Logger ports.Logger
}

// Deps are the collaborators of an App. Batcher, Source and Metrics are optional.
type Deps struct {
	Config  *config.Config
	Logger  ports.Logger
	Cache   *kvcache.Cache
	Engine  *compute.Engine
	Query   *query.Executor
	Store   ports.DocumentStore
	Batcher *telemetry.SampleBatcher
	Source  ports.EventSource
	Metrics *metrics.Prometheus
	Closers []io.Closer
}

// App owns the engines and the service supervising their background loops.
type App struct {
	cfg        *config.Config
	logger     ports.Logger
	cache      *kvcache.Cache
	engine     *compute.Engine
	query      *query.Executor
	aggregates *Aggregates
	router     *events.Router
	batcher    *telemetry.SampleBatcher
	service    *Service
	closers    []io.Closer
}

// New registers the built-in job kinds and the configured hot computations and assembles
// the background loops.
func New(d Deps) (*App, error) {
	a := &App{
		cfg:     d.Config,
		logger:  d.Logger,
		cache:   d.Cache,
		engine:  d.Engine,
		query:   d.Query,
		batcher: d.Batcher,
		closers: d.Closers,
	}
	a.aggregates = NewAggregates(d.Store, d.Engine)
	a.router = events.NewRouter(d.Config.Events.Patterns, d.Cache, d.Engine, d.Logger)

	for _, h := range d.Config.Hot {
		err := d.Engine.RegisterHot(compute.HotComputation{
			Kind:     h.Kind,
			TenantID: h.TenantID,
			EntityID: h.EntityID,
			Params:   h.Params,
			Priority: h.PriorityOrDefault(),
			Every:    h.Every.Std(),
		})
		if err != nil {
			return nil, zerr.Wrap(err, "failed to register hot computation")
		}
	}

	a.service = NewService(d.Logger, a.loops(d)...)
	d.Logger.Info("registered job kinds " + strings.Join(d.Engine.Kinds(), ", "))
	return a, nil
}

func (a *App) loops(d Deps) []Loop {
	cfg := d.Config
	loops := []Loop{
		{Name: "sweeper", Run: func(ctx context.Context) error {
			return a.cache.RunSweeper(ctx, cfg.Cache.SweepInterval.Std())
		}},
		{Name: "dispatcher", Run: a.engine.Run},
		{Name: "warmer", Run: func(ctx context.Context) error {
			return a.engine.RunWarmer(ctx, cfg.Compute.WarmInterval.Std())
		}},
		{Name: "maintenance", Run: func(ctx context.Context) error {
			return a.engine.RunMaintenance(ctx, cfg.Compute.MaintenanceInterval.Std())
		}},
	}
	if d.Batcher != nil {
		loops = append(loops, Loop{Name: "sample-batcher", Run: d.Batcher.Run})
	}
	if d.Source != nil {
		loops = append(loops, Loop{Name: "event-listener", Run: func(ctx context.Context) error {
			return d.Source.Listen(ctx, a.router.Handle)
		}})
	}
	if d.Metrics != nil && cfg.Metrics.ListenAddr != "" {
		loops = append(loops, Loop{Name: "metrics", Run: func(ctx context.Context) error {
			return d.Metrics.Serve(ctx, cfg.Metrics.ListenAddr, a.logger)
		}})
	}
	return loops
}

// Serve runs the service until ctx is done or a loop fails, then stops it and flushes
// buffered samples.
func (a *App) Serve(ctx context.Context) error {
	if err := a.service.Start(ctx); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case <-a.service.Done():
	}

	err := a.service.Stop()
	if a.batcher != nil {
		if closeErr := a.batcher.Close(context.WithoutCancel(ctx)); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}
	return err
}

// Summarize aggregates the persisted query samples of the last period.
func (a *App) Summarize(ctx context.Context, period time.Duration) (domain.PerformanceSummary, error) {
	return a.query.Summarize(ctx, period)
}

// Service returns the background loop supervisor.
func (a *App) Service() *Service { return a.service }

// Aggregates returns the built-in aggregates.
func (a *App) Aggregates() *Aggregates { return a.aggregates }

// Router returns the mutation event router.
func (a *App) Router() *events.Router { return a.router }

// Query returns the paginated query executor.
func (a *App) Query() *query.Executor { return a.query }

// Engine returns the compute engine.
func (a *App) Engine() *compute.Engine { return a.engine }

// Cache returns the key-value cache.
func (a *App) Cache() *kvcache.Cache { return a.cache }

// Close releases the stores and the event source.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
