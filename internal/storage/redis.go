package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/defi-dashboard/internal/config"
	"github.com/defi-dashboard/internal/retry"
	"github.com/redis/go-redis/v9"
)

// RedisCache wraps the Redis client
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis connection and verifies it with a ping
// bounded by ctx and a 5s timeout.
func NewRedisCache(ctx context.Context, cfg *config.RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// ConnectRedis calls NewRedisCache with exponential backoff until Redis answers
// or the attempts run out.
func ConnectRedis(ctx context.Context, cfg *config.RedisConfig, retryCfg *retry.RetryConfig) (*RedisCache, error) {
	var cache *RedisCache
	err := retry.WithExponentialBackoff(ctx, retryCfg, "redis connect", func(ctx context.Context, _ int) error {
		c, err := NewRedisCache(ctx, cfg)
		if err != nil {
			return err
		}
		cache = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cache, nil
}

// Close closes the Redis connection
func (r *RedisCache) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// Incr increments the integer stored at key and returns the new value
func (r *RedisCache) Incr(ctx context.Context, key string) (int64, error) {
	return r.client.Incr(ctx, key).Result()
}

// MGet retrieves several keys at once; missing keys come back as nil
func (r *RedisCache) MGet(ctx context.Context, keys ...string) ([]interface{}, error) {
	return r.client.MGet(ctx, keys...).Result()
}
