package kvcache

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/hoard/internal/adapters/config"  //nolint:depguard // Wired in engine wiring
	"go.trai.ch/hoard/internal/adapters/metrics" //nolint:depguard // Wired in engine wiring
)

// NodeID is the unique identifier for the cache Graft node.
const NodeID graft.ID = "engine.kvcache"

func init() {
	graft.Register(graft.Node[*Cache]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.NodeID, metrics.NodeID},
		Run: func(ctx context.Context) (*Cache, error) {
			cfg, err := graft.Dep[*config.Config](ctx)
			if err != nil {
				return nil, err
			}

			m, err := graft.Dep[*metrics.Prometheus](ctx)
			if err != nil {
				return nil, err
			}

			return New(Config{
				MaxEntries: cfg.Cache.MaxEntries,
				DefaultTTL: cfg.Cache.DefaultTTL.Std(),
			}, m), nil
		},
	})
}
