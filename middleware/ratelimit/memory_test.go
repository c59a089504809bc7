package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	domain "github.com/example/task-manager-demo/domain/ratelimit"
)

func TestMemoryLimiter_AllowWithinLimit(t *testing.T) {
	limiter := NewMemoryLimiter(domain.Config{
		RequestsPerWindow: 5,
		WindowSize:        time.Minute,
	})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		result, err := limiter.Allow(ctx, "client-1")
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

func TestMemoryLimiter_DenyOverLimit(t *testing.T) {
	limiter := NewMemoryLimiter(domain.Config{
		RequestsPerWindow: 3,
		WindowSize:        time.Minute,
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := limiter.Allow(ctx, "client-1"); err != nil {
			t.Fatalf("Allow() error = %v", err)
		}
	}

	result, err := limiter.Allow(ctx, "client-1")
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if result.Allowed {
		t.Error("Allow() request over limit allowed = true, want false")
	}
	if result.Remaining != 0 {
		t.Errorf("Allow() remaining = %d, want 0", result.Remaining)
	}
	if result.RetryAfter <= 0 || result.RetryAfter > time.Minute {
		t.Errorf("Allow() retry after = %v, want within (0, 1m]", result.RetryAfter)
	}
}

func TestMemoryLimiter_WindowSlides(t *testing.T) {
	limiter := NewMemoryLimiter(domain.Config{
		RequestsPerWindow: 2,
		WindowSize:        50 * time.Millisecond,
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := limiter.Allow(ctx, "client-1"); err != nil {
			t.Fatalf("Allow() error = %v", err)
		}
	}
	if result, _ := limiter.Allow(ctx, "client-1"); result.Allowed {
		t.Fatal("Allow() over limit allowed = true, want false")
	}

	time.Sleep(60 * time.Millisecond)

	result, err := limiter.Allow(ctx, "client-1")
	if err != nil {
		t.Fatalf("Allow() after window error = %v", err)
	}
	if !result.Allowed {
		t.Error("Allow() after window allowed = false, want true")
	}
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	limiter := NewMemoryLimiter(domain.Config{
		RequestsPerWindow: 1,
		WindowSize:        time.Minute,
	})
	ctx := context.Background()

	if result, _ := limiter.Allow(ctx, "client-1"); !result.Allowed {
		t.Error("Allow() first key allowed = false, want true")
	}
	if result, _ := limiter.Allow(ctx, "client-1"); result.Allowed {
		t.Error("Allow() first key second request allowed = true, want false")
	}
	if result, _ := limiter.Allow(ctx, "client-2"); !result.Allowed {
		t.Error("Allow() second key allowed = false, want true")
	}
}

func TestMemoryLimiter_SweepsIdleKeys(t *testing.T) {
	limiter := NewMemoryLimiter(domain.Config{
		RequestsPerWindow: 2,
		WindowSize:        30 * time.Millisecond,
	})
	ctx := context.Background()

	if _, err := limiter.Allow(ctx, "idle-client"); err != nil {
		t.Fatalf("Allow() error = %v", err)
	}

	// Let the idle key's window slide out, then touch another key to
	// trigger the sweep.
	time.Sleep(40 * time.Millisecond)
	if _, err := limiter.Allow(ctx, "active-client"); err != nil {
		t.Fatalf("Allow() error = %v", err)
	}

	limiter.mu.Lock()
	_, idleKept := limiter.windows["idle-client"]
	_, activeKept := limiter.windows["active-client"]
	limiter.mu.Unlock()

	if idleKept {
		t.Error("idle key still tracked after its window expired")
	}
	if !activeKept {
		t.Error("active key missing after sweep")
	}
}

func TestMemoryLimiter_Concurrent(t *testing.T) {
	limit := 50
	limiter := NewMemoryLimiter(domain.Config{
		RequestsPerWindow: limit,
		WindowSize:        time.Minute,
	})
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := limiter.Allow(ctx, "shared")
			if err != nil {
				t.Errorf("Allow() error = %v", err)
				return
			}
			if result.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != limit {
		t.Errorf("concurrent Allow() let %d requests through, want %d", allowed, limit)
	}
}
