package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jacentio/socialmedia/platform"
)

// RedisKeyPrefix prefixes every snapshot key.
const RedisKeyPrefix = "socialmedia:platform:"

// RedisStore keeps the snapshot as a JSON string under one key.
type RedisStore struct {
	rdb redis.Cmdable
	key string
	ttl time.Duration
}

// NewRedisStore creates a RedisStore for the named platform. A zero ttl keeps the
// snapshot until it is overwritten.
func NewRedisStore(rdb redis.Cmdable, name string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		rdb: rdb,
		key: RedisKeyPrefix + name,
		ttl: ttl,
	}
}

// Key returns the Redis key holding the snapshot.
func (r *RedisStore) Key() string {
	return r.key
}

// Save replaces the stored snapshot and resets its expiry.
func (r *RedisStore) Save(ctx context.Context, s *platform.Snapshot) error {
	data, err := Marshal(s)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}

// Load reads the stored snapshot. A missing or expired key yields ErrNoSnapshot.
func (r *RedisStore) Load(ctx context.Context) (*platform.Snapshot, error) {
	data, err := r.rdb.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", r.key, err)
	}
	return Unmarshal(data)
}

// Delete removes the stored snapshot.
func (r *RedisStore) Delete(ctx context.Context) error {
	return r.rdb.Del(ctx, r.key).Err()
}
