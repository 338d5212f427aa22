package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRedisLimiter starts an in-process redis and returns a limiter
// backed by it.
func newTestRedisLimiter(t *testing.T) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisLimiter(client, "test:"), mr
}

// ============================================================================
// Test Cases for RedisLimiter
// ============================================================================

func TestRedisLimiter_Allow(t *testing.T) {
	limiter, _ := newTestRedisLimiter(t)
	ctx := context.Background()
	rule := Rule{Limit: 5, Window: time.Minute}
	key := "user:42|POST /api/invitations"

	for i := 0; i < 5; i++ {
		result, err := limiter.Allow(ctx, key, rule)
		require.NoError(t, err)
		assert.True(t, result.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 5, result.Limit)
		assert.Equal(t, 5-i-1, result.Remaining)
	}

	result, err := limiter.Allow(ctx, key, rule)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, 0, result.Remaining)
	assert.Equal(t, time.Minute, result.RetryAfter)
	assert.Greater(t, result.ResetAfter, time.Duration(0))
}

func TestRedisLimiter_Allow_WindowExpires(t *testing.T) {
	limiter, mr := newTestRedisLimiter(t)
	ctx := context.Background()
	rule := Rule{Limit: 1, Window: time.Second}
	key := "expiry"

	result, err := limiter.Allow(ctx, key, rule)
	require.NoError(t, err)
	require.True(t, result.Allowed)

	result, err = limiter.Allow(ctx, key, rule)
	require.NoError(t, err)
	require.False(t, result.Allowed)

	// Advance miniredis past the window; the ZSET entries fall out of range.
	mr.FastForward(2 * time.Second)

	result, err = limiter.Allow(ctx, key, rule)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestRedisLimiter_Allow_IndependentKeys(t *testing.T) {
	limiter, _ := newTestRedisLimiter(t)
	ctx := context.Background()
	rule := Rule{Limit: 1, Window: time.Minute}

	result, err := limiter.Allow(ctx, "a", rule)
	require.NoError(t, err)
	require.True(t, result.Allowed)

	result, err = limiter.Allow(ctx, "b", rule)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestRedisLimiter_Allow_ServerUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	limiter := NewRedisLimiter(client, "")
	mr.Close()

	_, err := limiter.Allow(context.Background(), "k", Rule{Limit: 1, Window: time.Minute})
	assert.Error(t, err)
}

func TestRedisLimiter_Reset(t *testing.T) {
	limiter, _ := newTestRedisLimiter(t)
	ctx := context.Background()
	rule := Rule{Limit: 1, Window: time.Minute}
	key := "reset"

	result, err := limiter.Allow(ctx, key, rule)
	require.NoError(t, err)
	require.True(t, result.Allowed)

	require.NoError(t, limiter.Reset(ctx, key))

	result, err = limiter.Allow(ctx, key, rule)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestNewRedisLimiter_DefaultPrefix(t *testing.T) {
	limiter := NewRedisLimiter(nil, "")
	assert.Equal(t, "ratelimit:", limiter.prefix)
}
