// Package ratelimit provides domain types and interfaces for rate limiting.
package ratelimit

import (
	"context"
	"time"
)

// Config holds rate limiting configuration.
type Config struct {
	// RequestsPerWindow is the maximum number of requests allowed in the window.
	RequestsPerWindow int
	// WindowSize is the duration of the sliding window.
	WindowSize time.Duration
}

// Result represents the outcome of a rate limit check.
type Result struct {
	// Allowed indicates whether the request is allowed.
	Allowed bool
	// Remaining is the number of requests remaining in the current window.
	Remaining int
	// ResetAt is when the rate limit window resets.
	ResetAt time.Time
	// RetryAfter is the duration to wait before retrying (only set when not allowed).
	RetryAfter time.Duration
}

// Limiter is the interface for rate limiting implementations.
type Limiter interface {
	// Allow checks if a request identified by key is allowed under the rate limit.
	// It returns the result of the check and any error encountered.
	Allow(ctx context.Context, key string) (*Result, error)

	// Close releases any resources held by the limiter.
	Close() error
}

// DefaultLoginConfig returns the rate limit applied to the login route.
func DefaultLoginConfig() Config {
	return Config{
		RequestsPerWindow: 5,
		WindowSize:        time.Minute,
	}
}

// DefaultResetRequestConfig returns the rate limit applied to the
// password-reset request route.
func DefaultResetRequestConfig() Config {
	return Config{
		RequestsPerWindow: 3,
		WindowSize:        time.Minute,
	}
}
