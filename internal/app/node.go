package app

import (
	"context"
	"io"

	"github.com/grindlemire/graft"
	"go.trai.ch/hoard/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/hoard/internal/adapters/events"    //nolint:depguard // Wired in app layer
	"go.trai.ch/hoard/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/hoard/internal/adapters/metrics"   //nolint:depguard // Wired in app layer
	"go.trai.ch/hoard/internal/adapters/sqlite"    //nolint:depguard // Wired in app layer
	"go.trai.ch/hoard/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/hoard/internal/core/ports"
	"go.trai.ch/hoard/internal/engine/compute"
	"go.trai.ch/hoard/internal/engine/kvcache"
	"go.trai.ch/hoard/internal/engine/query"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			logger.NodeID,
			kvcache.NodeID,
			compute.NodeID,
			query.NodeID,
			sqlite.DocumentStoreNodeID,
			sqlite.SampleStoreNodeID,
			telemetry.BatcherNodeID,
			events.SourceNodeID,
			metrics.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			a, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return &Components{App: a, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	cfg, err := graft.Dep[*config.Config](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	cache, err := graft.Dep[*kvcache.Cache](ctx)
	if err != nil {
		return nil, err
	}

	engine, err := graft.Dep[*compute.Engine](ctx)
	if err != nil {
		return nil, err
	}

	executor, err := graft.Dep[*query.Executor](ctx)
	if err != nil {
		return nil, err
	}

	store, err := graft.Dep[*sqlite.DocumentStore](ctx)
	if err != nil {
		return nil, err
	}

	samples, err := graft.Dep[*sqlite.SampleStore](ctx)
	if err != nil {
		return nil, err
	}

	batcher, err := graft.Dep[*telemetry.SampleBatcher](ctx)
	if err != nil {
		return nil, err
	}

	source, err := graft.Dep[*events.RedisSource](ctx)
	if err != nil {
		return nil, err
	}

	m, err := graft.Dep[*metrics.Prometheus](ctx)
	if err != nil {
		return nil, err
	}

	deps := Deps{
		Config:  cfg,
		Logger:  log,
		Cache:   cache,
		Engine:  engine,
		Query:   executor,
		Store:   store,
		Batcher: batcher,
		Metrics: m,
		Closers: []io.Closer{store, samples},
	}
	// A nil *RedisSource must not become a non-nil ports.EventSource.
	if source != nil {
		deps.Source = source
		deps.Closers = append(deps.Closers, source)
	}
	return New(deps)
}
