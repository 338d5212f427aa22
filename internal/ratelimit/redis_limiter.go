package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// slidingWindowScript atomically prunes, counts, and appends within a ZSET
// per key. The whole read-modify-write runs server-side, so concurrent
// bursts on the same key cannot overrun the limit.
// Returns: allowed (0 or 1), remaining count, reset time in ms.
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local limit = tonumber(ARGV[1])
	local window_ms = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])

	local window_start = now - window_ms
	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local count = redis.call('ZCARD', key)

	local allowed = 0
	if count < limit then
		redis.call('ZADD', key, now, now .. ':' .. math.random())
		count = count + 1
		allowed = 1
	end

	redis.call('PEXPIRE', key, window_ms)

	local newest = redis.call('ZRANGE', key, -1, -1, 'WITHSCORES')
	local reset_ms = window_ms
	if #newest > 0 then
		reset_ms = tonumber(newest[2]) + window_ms - now
	end

	local remaining = limit - count
	if remaining < 0 then
		remaining = 0
	end

	return {allowed, remaining, reset_ms}
`)

// RedisLimiter implements the sliding window algorithm on Redis, sharing
// counters across instances. Counter keys expire with the rule window.
type RedisLimiter struct {
	client *redis.Client
	prefix string
}

// NewRedisLimiter creates a Redis-backed sliding window limiter.
func NewRedisLimiter(client *redis.Client, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = "ratelimit:"
	}
	return &RedisLimiter{client: client, prefix: prefix}
}

// Allow implements Limiter.
func (l *RedisLimiter) Allow(ctx context.Context, key string, rule Rule) (*Result, error) {
	nowMs := time.Now().UnixMilli()
	windowMs := rule.Window.Milliseconds()

	raw, err := slidingWindowScript.Run(
		ctx, l.client,
		[]string{l.prefix + key},
		rule.Limit, windowMs, nowMs,
	).Result()
	if err != nil {
		return nil, fmt.Errorf("sliding window script: %w", err)
	}

	values, ok := raw.([]interface{})
	if !ok || len(values) != 3 {
		return nil, fmt.Errorf("sliding window script returned unexpected result: %v", raw)
	}

	allowed, okA := values[0].(int64)
	remaining, okR := values[1].(int64)
	resetMs, okT := values[2].(int64)
	if !okA || !okR || !okT {
		return nil, fmt.Errorf("sliding window script returned unexpected types: %v", raw)
	}

	result := &Result{
		Allowed:    allowed == 1,
		Limit:      rule.Limit,
		Remaining:  int(remaining),
		ResetAfter: time.Duration(resetMs) * time.Millisecond,
	}
	if !result.Allowed {
		result.RetryAfter = rule.Window
	}
	return result, nil
}

// Reset implements Limiter.
func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.prefix+key).Err(); err != nil {
		return fmt.Errorf("delete counter: %w", err)
	}
	return nil
}

// Ensure implementations satisfy the interface.
var _ Limiter = (*RedisLimiter)(nil)
