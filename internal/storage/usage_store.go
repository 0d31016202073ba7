// Package storage keeps operational counters for the dashboard tools.
// No domain data is stored: balances and prices always come from the catalog.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	gocache "github.com/patrickmn/go-cache"

	"github.com/defi-dashboard/internal/circuitbreaker"
	apperrors "github.com/defi-dashboard/internal/errors"
)

// UsageKeyPrefix prefixes every usage counter key.
const UsageKeyPrefix = "usage"

// UsageStore counts tool invocations.
type UsageStore interface {
	Increment(ctx context.Context, tool string) error
	Counts(ctx context.Context, tools []string) (map[string]int64, error)
}

// UsageKey returns the counter key for a tool.
// Format: usage:<tool>
func UsageKey(tool string) string {
	return strings.Join([]string{UsageKeyPrefix, strings.ToLower(tool)}, ":")
}

// RedisUsageStore keeps counters in Redis so several server instances share them.
type RedisUsageStore struct {
	redis *RedisCache
}

// NewRedisUsageStore creates a Redis-backed usage store
func NewRedisUsageStore(redis *RedisCache) *RedisUsageStore {
	return &RedisUsageStore{redis: redis}
}

// Increment adds one to the tool's counter
func (s *RedisUsageStore) Increment(ctx context.Context, tool string) error {
	if _, err := s.redis.Incr(ctx, UsageKey(tool)); err != nil {
		return apperrors.NewStorageError("increment", err)
	}
	return nil
}

// Counts returns the counter of every requested tool; unseen tools count 0
func (s *RedisUsageStore) Counts(ctx context.Context, tools []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(tools))
	if len(tools) == 0 {
		return counts, nil
	}

	keys := make([]string, len(tools))
	for i, tool := range tools {
		keys[i] = UsageKey(tool)
	}

	values, err := s.redis.MGet(ctx, keys...)
	if err != nil {
		return nil, apperrors.NewStorageError("counts", err)
	}

	for i, tool := range tools {
		counts[tool] = 0
		raw, ok := values[i].(string)
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, apperrors.NewStorageError("counts", fmt.Errorf("counter %s holds %q: %w", keys[i], raw, err))
		}
		counts[tool] = n
	}
	return counts, nil
}

// MemoryUsageStore keeps counters in process memory.
type MemoryUsageStore struct {
	cache *gocache.Cache
}

// NewMemoryUsageStore creates an in-memory usage store whose counters never expire
func NewMemoryUsageStore() *MemoryUsageStore {
	return &MemoryUsageStore{cache: gocache.New(gocache.NoExpiration, 0)}
}

// Increment adds one to the tool's counter
func (s *MemoryUsageStore) Increment(_ context.Context, tool string) error {
	key := UsageKey(tool)
	// Add fails when the key exists, which is the common path.
	if err := s.cache.Add(key, int64(1), gocache.NoExpiration); err == nil {
		return nil
	}
	if _, err := s.cache.IncrementInt64(key, 1); err != nil {
		return apperrors.NewStorageError("increment", err)
	}
	return nil
}

// Counts returns the counter of every requested tool; unseen tools count 0
func (s *MemoryUsageStore) Counts(_ context.Context, tools []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(tools))
	for _, tool := range tools {
		counts[tool] = 0
		if v, ok := s.cache.Get(UsageKey(tool)); ok {
			if n, ok := v.(int64); ok {
				counts[tool] = n
			}
		}
	}
	return counts, nil
}

// BreakerUsageStore fails fast while the wrapped store keeps failing, so a
// Redis outage does not add its timeouts to every tool call.
type BreakerUsageStore struct {
	inner   UsageStore
	breaker *circuitbreaker.CircuitBreaker
}

// NewBreakerUsageStore wraps inner with breaker
func NewBreakerUsageStore(inner UsageStore, breaker *circuitbreaker.CircuitBreaker) *BreakerUsageStore {
	return &BreakerUsageStore{inner: inner, breaker: breaker}
}

// Increment adds one to the tool's counter unless the circuit is open
func (s *BreakerUsageStore) Increment(ctx context.Context, tool string) error {
	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		return s.inner.Increment(ctx, tool)
	})
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		return apperrors.NewStorageError("increment", err)
	}
	return err
}

// Counts reads the counters unless the circuit is open
func (s *BreakerUsageStore) Counts(ctx context.Context, tools []string) (map[string]int64, error) {
	var counts map[string]int64
	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		counts, err = s.inner.Counts(ctx, tools)
		return err
	})
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		return nil, apperrors.NewStorageError("counts", err)
	}
	if err != nil {
		return nil, err
	}
	return counts, nil
}
