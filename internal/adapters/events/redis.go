package events

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.trai.ch/hoard/internal/core/domain"
	"go.trai.ch/hoard/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.EventSource = (*RedisSource)(nil)

// RedisSource reads JSON mutation events from one Redis Pub/Sub channel.
type RedisSource struct {
	client  *redis.Client
	channel string
	logger  ports.Logger
}

// NewRedisSource creates a RedisSource on client.
func NewRedisSource(client *redis.Client, channel string, logger ports.Logger) *RedisSource {
	return &RedisSource{client: client, channel: channel, logger: logger}
}

// Listen subscribes to the channel and calls handle for each decoded event until ctx is done.
// Malformed payloads are logged and skipped. The subscription reconnects on its own after
// transient failures; only the initial subscribe error is returned.
func (s *RedisSource) Listen(ctx context.Context, handle ports.EventHandler) error {
	sub := s.client.Subscribe(ctx, s.channel)
	defer func() { _ = sub.Close() }()

	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return zerr.With(zerr.Wrap(err, "failed to subscribe to mutation events"), "channel", s.channel)
	}
	s.logger.Info("listening for mutation events on " + s.channel)

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			ev, err := DecodeEvent([]byte(msg.Payload))
			if err != nil {
				s.logger.Warn("skipping mutation event: " + err.Error())
				continue
			}
			handle(ctx, ev)
		}
	}
}

// Close closes the Redis client.
func (s *RedisSource) Close() error {
	if err := s.client.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return err
	}
	return nil
}

// DecodeEvent parses and validates one JSON mutation event.
func DecodeEvent(payload []byte) (domain.MutationEvent, error) {
	var ev domain.MutationEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return domain.MutationEvent{}, zerr.Wrap(err, domain.ErrInvalidEvent.Error())
	}
	if err := ev.Validate(); err != nil {
		return domain.MutationEvent{}, err
	}
	return ev, nil
}
