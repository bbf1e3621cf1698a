package storage

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements KeyValueStore on top of Redis. Snapshots are kept
// without expiry by default; an optional TTL (with jitter, so a burst of
// carts does not expire at once) can be set for deployments that want
// abandoned carts to age out.
type RedisStore struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewRedisStore(client *redis.Client, baseTTL time.Duration) *RedisStore {
	return &RedisStore{
		client:  client,
		baseTTL: baseTTL,
	}
}

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	return data, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	ttl := r.baseTTL
	if ttl > 0 {
		ttl += time.Duration(rand.Intn(5)) * time.Minute
	}

	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	deleted, err := r.client.Del(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	if deleted == 0 {
		return ErrKeyNotFound
	}

	return nil
}
