package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coin-ledger/internal/circuitbreaker"
	"github.com/coin-ledger/internal/types"
	"github.com/redis/go-redis/v9"
)

// CacheService provides JSON caching on top of Redis. Calls go through a
// circuit breaker so an unreachable Redis fails fast.
type CacheService struct {
	redis   *RedisCache
	ttl     time.Duration
	breaker *circuitbreaker.CircuitBreaker
}

// NewCacheService creates a new cache service
func NewCacheService(redis *RedisCache, ttl time.Duration) *CacheService {
	return &CacheService{
		redis:   redis,
		ttl:     ttl,
		breaker: circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig("redis-cache")),
	}
}

// BreakerStats reports the state of the cache's circuit breaker
func (c *CacheService) BreakerStats() circuitbreaker.Stats {
	return c.breaker.GetStats()
}

// CacheKeyType represents different types of cache keys
type CacheKeyType string

const (
	// CacheKeyPerformance is for portfolio performance results
	CacheKeyPerformance CacheKeyType = "performance"
	// CacheKeyTokenPerformance is for holding performance results
	CacheKeyTokenPerformance CacheKeyType = "token-performance"
)

// GenerateCacheKey generates a cache key for a given type and parameters
// Format: <type>:<param1>:<param2>:...
func GenerateCacheKey(keyType CacheKeyType, params ...string) string {
	parts := make([]string, 0, len(params)+1)
	parts = append(parts, string(keyType))
	for _, p := range params {
		parts = append(parts, strings.ToLower(p))
	}
	return strings.Join(parts, ":")
}

// PerformanceKey returns performance:<portfolio>:<period>
func PerformanceKey(portfolioID string, period types.Period) string {
	return GenerateCacheKey(CacheKeyPerformance, portfolioID, string(period))
}

// TokenPerformanceKey returns token-performance:<holding>:<period>
func TokenPerformanceKey(holdingID string, period types.Period) string {
	return GenerateCacheKey(CacheKeyTokenPerformance, holdingID, string(period))
}

// Set stores a value in cache with the configured TTL
func (c *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return c.breaker.Execute(ctx, func() error {
		return c.redis.Set(ctx, key, data, c.ttl)
	})
}

// Get retrieves a value from cache and deserializes it.
// A miss returns false with a nil error.
func (c *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	var data string
	miss := false
	err := c.breaker.Execute(ctx, func() error {
		var err error
		data, err = c.redis.Get(ctx, key)
		if errors.Is(err, redis.Nil) {
			miss = true
			return nil
		}
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to get from cache: %w", err)
	}
	if miss {
		return false, nil
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached value: %w", err)
	}
	return true, nil
}

// InvalidatePortfolio drops every cached performance result of a portfolio
func (c *CacheService) InvalidatePortfolio(ctx context.Context, portfolioID string) error {
	return c.breaker.Execute(ctx, func() error {
		return c.redis.DelPattern(ctx, GenerateCacheKey(CacheKeyPerformance, portfolioID, "*"))
	})
}

// InvalidateHolding drops every cached performance result of a holding
func (c *CacheService) InvalidateHolding(ctx context.Context, holdingID string) error {
	return c.breaker.Execute(ctx, func() error {
		return c.redis.DelPattern(ctx, GenerateCacheKey(CacheKeyTokenPerformance, holdingID, "*"))
	})
}
