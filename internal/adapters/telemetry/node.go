package telemetry

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/hoard/internal/adapters/config"
	"go.trai.ch/hoard/internal/adapters/logger"
	"go.trai.ch/hoard/internal/adapters/sqlite"
	"go.trai.ch/hoard/internal/core/ports"
)

const (
	// TracerNodeID is the unique identifier for the Telemetry adapter Graft node.
	TracerNodeID graft.ID = "adapter.telemetry"
	// BatcherNodeID is the unique identifier for the sample batcher Graft node.
	BatcherNodeID graft.ID = "adapter.telemetry.batcher"
)

func init() {
	graft.Register(graft.Node[ports.Tracer]{
		ID:        TracerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Tracer, error) {
			return NewOTelTracer("hoard"), nil
		},
	})

	graft.Register(graft.Node[*SampleBatcher]{
		ID:        BatcherNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.NodeID, logger.NodeID, sqlite.SampleStoreNodeID},
		Run: func(ctx context.Context) (*SampleBatcher, error) {
			cfg, err := graft.Dep[*config.Config](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			store, err := graft.Dep[*sqlite.SampleStore](ctx)
			if err != nil {
				return nil, err
			}
			return NewSampleBatcher(store, log, cfg.Telemetry.BatchSize, cfg.Telemetry.FlushInterval.Std()), nil
		},
	})
}
