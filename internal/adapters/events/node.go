package events

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/redis/go-redis/v9"
	"go.trai.ch/hoard/internal/adapters/config"
	"go.trai.ch/hoard/internal/adapters/logger"
	"go.trai.ch/hoard/internal/core/ports"
)

// SourceNodeID is the unique identifier for the mutation event source Graft node.
// It resolves to nil when no Redis address is configured.
const SourceNodeID graft.ID = "adapter.events.source"

func init() {
	graft.Register(graft.Node[*RedisSource]{
		ID:        SourceNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.NodeID, logger.NodeID},
		Run: func(ctx context.Context) (*RedisSource, error) {
			cfg, err := graft.Dep[*config.Config](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			rc := cfg.Events.Redis
			if rc.Addr == "" {
				return nil, nil
			}
			client := redis.NewClient(&redis.Options{
				Addr:     rc.Addr,
				Password: rc.Password,
				DB:       rc.DB,
			})
			return NewRedisSource(client, rc.Channel, log), nil
		},
	})
}
