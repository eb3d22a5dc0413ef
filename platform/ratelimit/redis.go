package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis shares limiter state between processes. Each allowed request sets
// a key that expires after the window; keys expire on their own, so the
// keyspace stays bounded by the number of clients active in one window.
type Redis struct {
	client *redis.Client
	window time.Duration
	prefix string
}

// NewRedis creates a limiter from a redis:// URL.
func NewRedis(redisURL string, window time.Duration, prefix string) (*Redis, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisWithClient(redis.NewClient(opt), window, prefix), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, window time.Duration, prefix string) *Redis {
	return &Redis{client: client, window: window, prefix: prefix}
}

// Allow sets the client's key only if it is absent.
func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.prefix+key, 1, r.window).Result()
	if err != nil {
		return false, fmt.Errorf("redis rate limit: %w", err)
	}
	return ok, nil
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the client.
func (r *Redis) Close() error {
	return r.client.Close()
}

var _ Limiter = (*Redis)(nil)
