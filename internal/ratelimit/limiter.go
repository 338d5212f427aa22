// Package ratelimit provides sliding-window rate limiting keyed by
// (client, endpoint).
package ratelimit

import (
	"context"
	"time"
)

// Rule is a resolved rate limit: a request count over a sliding window.
type Rule struct {
	// Limit is the maximum number of requests allowed in the window.
	Limit int

	// Window is the sliding time window.
	Window time.Duration
}

// Result is the outcome of a rate limit check.
type Result struct {
	// Allowed indicates whether the request may proceed.
	Allowed bool

	// Limit is the maximum number of requests allowed in the window.
	Limit int

	// Remaining is the number of requests left in the current window.
	Remaining int

	// ResetAfter is the duration until the window fully clears.
	ResetAfter time.Duration

	// RetryAfter is the duration to wait before retrying (when denied).
	RetryAfter time.Duration
}

// Limiter evaluates sliding-window limits per key. The read-modify-write on
// a key's counter is atomic: concurrent bursts on the same key cannot
// overrun the limit.
type Limiter interface {
	// Allow checks whether one request under the rule is allowed for the
	// key, recording it when allowed.
	Allow(ctx context.Context, key string, rule Rule) (*Result, error)

	// Reset clears the counter for the key.
	Reset(ctx context.Context, key string) error
}
