package query

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/hoard/internal/adapters/config"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/hoard/internal/adapters/logger"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/hoard/internal/adapters/metrics"   //nolint:depguard // Wired in engine wiring
	"go.trai.ch/hoard/internal/adapters/sqlite"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/hoard/internal/adapters/telemetry" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/hoard/internal/core/ports"
	"go.trai.ch/hoard/internal/engine/kvcache"
)

// NodeID is the unique identifier for the query executor Graft node.
const NodeID graft.ID = "engine.query"

func init() {
	graft.Register(graft.Node[*Executor]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			sqlite.DocumentStoreNodeID,
			sqlite.SampleStoreNodeID,
			kvcache.NodeID,
			telemetry.BatcherNodeID,
			telemetry.TracerNodeID,
			logger.NodeID,
			metrics.NodeID,
		},
		Run: func(ctx context.Context) (*Executor, error) {
			cfg, err := graft.Dep[*config.Config](ctx)
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

			cache, err := graft.Dep[*kvcache.Cache](ctx)
			if err != nil {
				return nil, err
			}

			batcher, err := graft.Dep[*telemetry.SampleBatcher](ctx)
			if err != nil {
				return nil, err
			}

			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			m, err := graft.Dep[*metrics.Prometheus](ctx)
			if err != nil {
				return nil, err
			}

			return New(Config{
				CacheTTL:      cfg.Query.CacheTTL.Std(),
				MaxPageSize:   cfg.Query.MaxPageSize,
				SlowThreshold: cfg.Query.SlowThreshold.Std(),
			}, store, cache, batcher, samples, log, tracer, m), nil
		},
	})
}
