package ratelimit

import (
	"context"
	"sync"
	"time"

	domain "github.com/example/task-manager-demo/domain/ratelimit"
)

// MemoryLimiter is an in-process sliding window limiter. It mirrors the
// Redis implementation's semantics for single-instance deployments and
// tests: per-key timestamp windows, atomic increment-and-check under one
// mutex per limiter.
type MemoryLimiter struct {
	mu        sync.Mutex
	config    domain.Config
	windows   map[string][]time.Time
	lastSweep time.Time
}

// NewMemoryLimiter creates a new in-memory sliding window limiter.
func NewMemoryLimiter(config domain.Config) *MemoryLimiter {
	return &MemoryLimiter{
		config:    config,
		windows:   make(map[string][]time.Time),
		lastSweep: time.Now(),
	}
}

// Allow checks if a request identified by key is allowed under the rate limit.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (*domain.Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-l.config.WindowSize)

	// Drop idle keys periodically so the map does not grow with every
	// client ever seen. The redis variant gets this for free via PEXPIRE.
	if now.Sub(l.lastSweep) >= l.config.WindowSize {
		l.sweep(windowStart)
		l.lastSweep = now
	}

	// Drop entries that slid out of the window.
	kept := l.windows[key][:0]
	for _, ts := range l.windows[key] {
		if ts.After(windowStart) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= l.config.RequestsPerWindow {
		l.windows[key] = kept
		return &domain.Result{
			Allowed:    false,
			Remaining:  0,
			ResetAt:    now.Add(l.config.WindowSize),
			RetryAfter: kept[0].Add(l.config.WindowSize).Sub(now),
		}, nil
	}

	l.windows[key] = append(kept, now)
	return &domain.Result{
		Allowed:   true,
		Remaining: l.config.RequestsPerWindow - len(kept) - 1,
		ResetAt:   now.Add(l.config.WindowSize),
	}, nil
}

// sweep removes keys whose entire window slid out. Callers must hold mu.
func (l *MemoryLimiter) sweep(windowStart time.Time) {
	for key, window := range l.windows {
		if len(window) == 0 || !window[len(window)-1].After(windowStart) {
			delete(l.windows, key)
		}
	}
}

// Close releases the limiter's state.
func (l *MemoryLimiter) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.windows = make(map[string][]time.Time)
	return nil
}
