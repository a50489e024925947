package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/coin-ledger/internal/circuitbreaker"
	"github.com/coin-ledger/internal/types"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestCache(t *testing.T, ttl time.Duration) (*CacheService, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewCacheService(NewRedisCacheFromClient(client), ttl), mr
}

func TestPerformanceKeys(t *testing.T) {
	assert.Equal(t, "performance:abc:1m", PerformanceKey("ABC", types.Period1M))
	assert.Equal(t, "token-performance:h1:all", TokenPerformanceKey("h1", types.PeriodAll))
}

func TestCacheService_SetGet(t *testing.T) {
	cache, mr := setupTestCache(t, time.Minute)
	ctx := context.Background()

	type payload struct {
		Value string `json:"value"`
	}

	found, err := cache.Get(ctx, "missing", &payload{})
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.Set(ctx, "k", payload{Value: "v"}))
	assert.Equal(t, time.Minute, mr.TTL("k"))

	var got payload
	found, err = cache.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", got.Value)

	mr.FastForward(2 * time.Minute)
	found, err = cache.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCacheService_Invalidate(t *testing.T) {
	cache, mr := setupTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, PerformanceKey("p1", types.Period1D), 1))
	require.NoError(t, cache.Set(ctx, PerformanceKey("p1", types.PeriodAll), 2))
	require.NoError(t, cache.Set(ctx, PerformanceKey("p2", types.Period1D), 3))
	require.NoError(t, cache.Set(ctx, TokenPerformanceKey("h1", types.Period1W), 4))

	require.NoError(t, cache.InvalidatePortfolio(ctx, "p1"))
	assert.False(t, mr.Exists(PerformanceKey("p1", types.Period1D)))
	assert.False(t, mr.Exists(PerformanceKey("p1", types.PeriodAll)))
	assert.True(t, mr.Exists(PerformanceKey("p2", types.Period1D)))

	require.NoError(t, cache.InvalidateHolding(ctx, "h1"))
	assert.False(t, mr.Exists(TokenPerformanceKey("h1", types.Period1W)))

	require.NoError(t, cache.InvalidatePortfolio(ctx, "nothing-here"))
}

func TestCacheService_BreakerOpensWhenRedisIsDown(t *testing.T) {
	cache, mr := setupTestCache(t, time.Minute)
	ctx := context.Background()

	found, err := cache.Get(ctx, "missing", &struct{}{})
	require.NoError(t, err)
	assert.False(t, found)
	assert.Zero(t, cache.BreakerStats().TotalFailures, "a miss is not a failure")

	mr.Close()
	for i := 0; i < 5; i++ {
		_, err := cache.Get(ctx, "k", &struct{}{})
		require.Error(t, err)
	}

	_, err = cache.Get(ctx, "k", &struct{}{})
	require.Error(t, err)
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
	assert.Equal(t, circuitbreaker.StateOpen, cache.BreakerStats().State)
}
