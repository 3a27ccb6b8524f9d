package compute

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/hoard/internal/adapters/config"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/hoard/internal/adapters/logger"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/hoard/internal/adapters/metrics"   //nolint:depguard // Wired in engine wiring
	"go.trai.ch/hoard/internal/adapters/telemetry" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/hoard/internal/core/ports"
	"go.trai.ch/hoard/internal/engine/kvcache"
)

// NodeID is the unique identifier for the compute engine Graft node.
const NodeID graft.ID = "engine.compute"

func init() {
	graft.Register(graft.Node[*Engine]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			kvcache.NodeID,
			logger.NodeID,
			telemetry.TracerNodeID,
			metrics.NodeID,
		},
		Run: func(ctx context.Context) (*Engine, error) {
			cfg, err := graft.Dep[*config.Config](ctx)
			if err != nil {
				return nil, err
			}

			cache, err := graft.Dep[*kvcache.Cache](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}

			m, err := graft.Dep[*metrics.Prometheus](ctx)
			if err != nil {
				return nil, err
			}

			return New(Config{
				MaxConcurrency: cfg.Compute.MaxConcurrency,
				TickInterval:   cfg.Compute.TickInterval.Std(),
				ResultTTL:      cfg.Compute.ResultTTL.Std(),
				StateHorizon:   cfg.Compute.StateHorizon.Std(),
				JobRetention:   cfg.Compute.JobRetention.Std(),
			}, cache, log, tracer, m), nil
		},
	})
}
