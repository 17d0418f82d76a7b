package events

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisPublisher delivers events over Redis pub/sub.
type RedisPublisher struct {
	client   *redis.Client
	channel  string
	instance string
}

// NewRedisPublisher creates a publisher on channel, stamping every event with
// instance.
func NewRedisPublisher(client *redis.Client, channel, instance string) *RedisPublisher {
	return &RedisPublisher{
		client:   client,
		channel:  channel,
		instance: instance,
	}
}

// Publish sends one event to the configured channel.
func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	event.Instance = p.instance
	if err := p.client.Publish(ctx, p.channel, event).Err(); err != nil {
		return fmt.Errorf("failed to publish event to redis: %w", err)
	}
	return nil
}

func (p *RedisPublisher) Type() string {
	return "redis"
}

// Close is a no-op; the Redis client is shared and owned by the caller.
func (p *RedisPublisher) Close() error {
	return nil
}
