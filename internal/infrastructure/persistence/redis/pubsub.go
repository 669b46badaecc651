package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/skillswap/skillswap-hub/internal/infrastructure/messaging"
)

// PubSub adapts a go-redis client to messaging.RedisClient.
type PubSub struct {
	client redis.UniversalClient
	logger *slog.Logger
	subs   []*redis.PubSub
}

// NewPubSub creates the adapter. The client is owned by the caller.
func NewPubSub(client redis.UniversalClient, logger *slog.Logger) *PubSub {
	if logger == nil {
		logger = slog.Default()
	}
	return &PubSub{client: client, logger: logger.With("component", "redis_pubsub")}
}

// Publish sends message to channel.
func (p *PubSub) Publish(ctx context.Context, channel string, message interface{}) error {
	if channel == "" {
		return ErrCacheKeyEmpty
	}
	return p.client.Publish(ctx, channel, message).Err()
}

// Subscribe subscribes to channels and forwards messages until ctx is done.
func (p *PubSub) Subscribe(ctx context.Context, channels ...string) (<-chan messaging.RedisMessage, error) {
	sub := p.client.Subscribe(ctx, channels...)

	// Wait for the subscription confirmation so errors surface here.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %v: %w", channels, err)
	}
	p.subs = append(p.subs, sub)

	out := make(chan messaging.RedisMessage, 64)
	go func() {
		defer close(out)
		in := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- messaging.RedisMessage{Channel: msg.Channel, Payload: msg.Payload}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Close closes the subscriptions opened by this adapter.
func (p *PubSub) Close() error {
	var firstErr error
	for _, sub := range p.subs {
		if err := sub.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.subs = nil
	return firstErr
}
