package tokens

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore implements the Store interface using Redis, for deployments where
// several keeper processes share one credential per backend.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a new RedisStore. A zero ttl means entries never expire.
func NewRedisStore(client *redis.Client, ttl time.Duration) Store {
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

func tokenKey(host, username string) string {
	return fmt.Sprintf("emby:token:%s:%s", host, username)
}

// Load retrieves an entry from Redis.
func (s *RedisStore) Load(ctx context.Context, host, username string) (*Entry, error) {
	data, err := s.client.Get(ctx, tokenKey(host, username)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Not found is not an error, just means no cached token
		}
		return nil, err
	}

	var entry Entry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token entry: %w", err)
	}
	return &entry, nil
}

// Save stores an entry in Redis with the configured TTL.
func (s *RedisStore) Save(ctx context.Context, host, username string, entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal token entry: %w", err)
	}
	return s.client.Set(ctx, tokenKey(host, username), data, s.ttl).Err()
}

// Delete removes an entry from Redis.
func (s *RedisStore) Delete(ctx context.Context, host, username string) error {
	return s.client.Del(ctx, tokenKey(host, username)).Err()
}
