package ports

import (
	"context"

	"go.trai.ch/hoard/internal/core/domain"
)

// EventHandler consumes one mutation event.
type EventHandler func(ctx context.Context, event domain.MutationEvent)

// EventSource delivers mutation events emitted by the surrounding system.
type EventSource interface {
	// Listen blocks, calling handle for each event, until ctx is done or the feed fails.
	Listen(ctx context.Context, handle EventHandler) error
}
