package ratelimit

import (
	"context"
	"sync"
	"time"
)

// LocalLimiter implements the sliding window algorithm in process memory.
// Each key owns an ordered sequence of request timestamps guarded by a
// per-key mutex, so prune-count-append runs as one critical section.
type LocalLimiter struct {
	windows sync.Map
}

// windowState is the counter for one (client, endpoint) key.
type windowState struct {
	mu       sync.Mutex
	requests []time.Time
}

// NewLocalLimiter creates a new in-memory sliding window limiter.
func NewLocalLimiter() *LocalLimiter {
	return &LocalLimiter{}
}

// Allow implements Limiter.
func (l *LocalLimiter) Allow(_ context.Context, key string, rule Rule) (*Result, error) {
	now := time.Now()
	ws := l.getOrCreateWindowState(key)

	ws.mu.Lock()
	defer ws.mu.Unlock()

	pruneExpired(ws, now, rule.Window)

	count := len(ws.requests)
	allowed := count < rule.Limit
	if allowed {
		ws.requests = append(ws.requests, now)
		count++
	}

	remaining := rule.Limit - count
	if remaining < 0 {
		remaining = 0
	}

	result := &Result{
		Allowed:    allowed,
		Limit:      rule.Limit,
		Remaining:  remaining,
		ResetAfter: resetAfter(ws, now, rule.Window),
	}
	if !allowed {
		result.RetryAfter = rule.Window
	}
	return result, nil
}

// getOrCreateWindowState retrieves or creates the counter for a key.
func (l *LocalLimiter) getOrCreateWindowState(key string) *windowState {
	value, _ := l.windows.LoadOrStore(key, &windowState{})
	return value.(*windowState)
}

// pruneExpired removes timestamps outside the current window.
func pruneExpired(ws *windowState, now time.Time, window time.Duration) {
	windowStart := now.Add(-window)
	valid := ws.requests[:0]
	for _, t := range ws.requests {
		if t.After(windowStart) {
			valid = append(valid, t)
		}
	}
	ws.requests = valid
}

// resetAfter returns the time until the window fully clears: when the newest
// recorded request leaves the window.
func resetAfter(ws *windowState, now time.Time, window time.Duration) time.Duration {
	if len(ws.requests) == 0 {
		return 0
	}
	newest := ws.requests[len(ws.requests)-1]
	after := newest.Add(window).Sub(now)
	if after < 0 {
		after = 0
	}
	return after
}

// Reset implements Limiter.
func (l *LocalLimiter) Reset(_ context.Context, key string) error {
	l.windows.Delete(key)
	return nil
}

// Cleanup removes keys whose every timestamp is older than maxAge, bounding
// memory growth as clients come and go.
func (l *LocalLimiter) Cleanup(maxAge time.Duration) {
	cutoff := time.Now().Add(-maxAge)

	l.windows.Range(func(key, value interface{}) bool {
		ws := value.(*windowState)
		ws.mu.Lock()

		stale := true
		for _, t := range ws.requests {
			if t.After(cutoff) {
				stale = false
				break
			}
		}
		if stale {
			l.windows.Delete(key)
		}

		ws.mu.Unlock()
		return true
	})
}

// StartCleanup runs Cleanup periodically until stopCh closes.
func (l *LocalLimiter) StartCleanup(interval, maxAge time.Duration, stopCh <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				l.Cleanup(maxAge)
			case <-stopCh:
				return
			}
		}
	}()
}

// Ensure implementations satisfy the interface.
var _ Limiter = (*LocalLimiter)(nil)
