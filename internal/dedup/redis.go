package dedup

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultKey is the Redis set holding fingerprints.
const DefaultKey = "forumscan:fingerprints"

// RedisConfig locates the Redis server.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// Key is the set name. Empty means DefaultKey.
	Key string
}

// RedisIndex stores fingerprints in one Redis set.
type RedisIndex struct {
	rdb *redis.Client
	key string
}

// NewRedisIndex connects to Redis and verifies the connection with PING.
func NewRedisIndex(ctx context.Context, cfg RedisConfig) (*RedisIndex, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}
	return NewRedisIndexFromClient(rdb, cfg.Key), nil
}

// NewRedisIndexFromClient wraps an existing client.
func NewRedisIndexFromClient(rdb *redis.Client, key string) *RedisIndex {
	if key == "" {
		key = DefaultKey
	}
	return &RedisIndex{rdb: rdb, key: key}
}

// Key returns the set name.
func (r *RedisIndex) Key() string {
	return r.key
}

// Seen implements Index.
func (r *RedisIndex) Seen(ctx context.Context, hash string) (bool, error) {
	ok, err := r.rdb.SIsMember(ctx, r.key, hash).Result()
	if err != nil {
		return false, fmt.Errorf("redis SISMEMBER %s: %w", r.key, err)
	}
	return ok, nil
}

// Add implements Index.
func (r *RedisIndex) Add(ctx context.Context, hashes ...string) error {
	if len(hashes) == 0 {
		return nil
	}
	members := make([]any, len(hashes))
	for i, h := range hashes {
		members[i] = h
	}
	if err := r.rdb.SAdd(ctx, r.key, members...).Err(); err != nil {
		return fmt.Errorf("redis SADD %s: %w", r.key, err)
	}
	return nil
}

// Close implements Index.
func (r *RedisIndex) Close() error {
	return r.rdb.Close()
}
