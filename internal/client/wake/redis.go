package wake

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the pub/sub channel used when none is configured.
const DefaultChannel = "offlinedesk:sync"

// Redis carries wake signals between processes over a pub/sub channel.
// The dev server publishes one when it starts listening, so a client that
// is running `offlinedesk watch` drains its queue as soon as the API is back.
// Each client process owns its bbolt file, so this is not a way to share one
// queue between clients.
type Redis struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

var _ Waker = (*Redis)(nil)

// NewRedisClient parses url and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("error parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("error pinging redis: %w", err)
	}

	return client, nil
}

// NewRedis creates a publisher on channel (DefaultChannel when empty).
func NewRedis(client *redis.Client, channel string, logger *slog.Logger) *Redis {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Redis{client: client, channel: channel, logger: logger}
}

func (r *Redis) Wake(ctx context.Context) error {
	if err := r.client.Publish(ctx, r.channel, "wake").Err(); err != nil {
		return fmt.Errorf("failed to publish wake signal: %w", err)
	}
	return nil
}

// Listen subscribes to the channel and forwards messages to a Local
// listener until ctx is done. The subscription is confirmed before
// Listen returns.
func (r *Redis) Listen(ctx context.Context) (Listener, error) {
	sub := r.client.Subscribe(ctx, r.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", r.channel, err)
	}

	local := NewLocal()
	go func() {
		defer func() {
			if err := sub.Close(); err != nil {
				r.logger.Debug("Failed to close wake subscription", "error", err)
			}
		}()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				_ = local.Wake(ctx)
			}
		}
	}()

	return local, nil
}
