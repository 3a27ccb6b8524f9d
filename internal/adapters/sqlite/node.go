package sqlite

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/hoard/internal/adapters/config"
)

const (
	// DocumentStoreNodeID is the unique identifier for the document store Graft node.
	DocumentStoreNodeID graft.ID = "adapter.sqlite.documents"
	// SampleStoreNodeID is the unique identifier for the query sample store Graft node.
	SampleStoreNodeID graft.ID = "adapter.sqlite.samples"
)

func init() {
	graft.Register(graft.Node[*DocumentStore]{
		ID:        DocumentStoreNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.NodeID},
		Run: func(ctx context.Context) (*DocumentStore, error) {
			cfg, err := graft.Dep[*config.Config](ctx)
			if err != nil {
				return nil, err
			}
			return OpenDocumentStore(cfg.Store.SQLitePath)
		},
	})

	graft.Register(graft.Node[*SampleStore]{
		ID:        SampleStoreNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.NodeID},
		Run: func(ctx context.Context) (*SampleStore, error) {
			cfg, err := graft.Dep[*config.Config](ctx)
			if err != nil {
				return nil, err
			}
			return OpenSampleStore(cfg.Telemetry.SQLitePath)
		},
	})
}
