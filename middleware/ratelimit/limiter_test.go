package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	domain "github.com/example/task-manager-demo/domain/ratelimit"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T, config domain.Config) (*SlidingWindowLimiter, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewSlidingWindowLimiter(client, config, "test:"), mr
}

func TestSlidingWindowLimiter_AllowWithinLimit(t *testing.T) {
	limiter, _ := newTestLimiter(t, domain.Config{
		RequestsPerWindow: 5,
		WindowSize:        time.Minute,
	})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		result, err := limiter.Allow(ctx, "login:10.0.0.1")
		if err != nil {
			t.Fatalf("Allow() request %d error = %v", i+1, err)
		}
		if !result.Allowed {
			t.Errorf("Allow() request %d allowed = false, want true", i+1)
		}
		if want := 5 - i - 1; result.Remaining != want {
			t.Errorf("Allow() request %d remaining = %d, want %d", i+1, result.Remaining, want)
		}
	}
}

func TestSlidingWindowLimiter_DenyOverLimit(t *testing.T) {
	limiter, _ := newTestLimiter(t, domain.Config{
		RequestsPerWindow: 3,
		WindowSize:        time.Minute,
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := limiter.Allow(ctx, "login:10.0.0.1"); err != nil {
			t.Fatalf("Allow() error = %v", err)
		}
	}

	result, err := limiter.Allow(ctx, "login:10.0.0.1")
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if result.Allowed {
		t.Error("Allow() over limit allowed = true, want false")
	}
	if result.RetryAfter <= 0 || result.RetryAfter > time.Minute {
		t.Errorf("Allow() retry after = %v, want within (0, 1m]", result.RetryAfter)
	}
}

func TestSlidingWindowLimiter_KeysAreIndependent(t *testing.T) {
	limiter, _ := newTestLimiter(t, domain.Config{
		RequestsPerWindow: 1,
		WindowSize:        time.Minute,
	})
	ctx := context.Background()

	if result, _ := limiter.Allow(ctx, "login:10.0.0.1"); !result.Allowed {
		t.Error("Allow() first key allowed = false, want true")
	}
	if result, _ := limiter.Allow(ctx, "login:10.0.0.1"); result.Allowed {
		t.Error("Allow() first key second request allowed = true, want false")
	}
	if result, _ := limiter.Allow(ctx, "login:10.0.0.2"); !result.Allowed {
		t.Error("Allow() second key allowed = false, want true")
	}
}

func TestSlidingWindowLimiter_BackendDownReturnsError(t *testing.T) {
	limiter, mr := newTestLimiter(t, domain.Config{
		RequestsPerWindow: 5,
		WindowSize:        time.Minute,
	})
	mr.Close()

	if _, err := limiter.Allow(context.Background(), "login:10.0.0.1"); err == nil {
		t.Error("Allow() with closed backend error = nil, want error")
	}
}
