package auth

import (
	"sync"
	"time"
)

// ResetTokenRegistry tracks consumed password-reset token ids so a reset
// token grants exactly one password change.
type ResetTokenRegistry interface {
	// Consume marks the token id as used. It returns false if the id was
	// already consumed.
	Consume(id string, expiresAt time.Time) bool
}

// memoryResetRegistry is an in-process registry suitable for
// single-instance deployments and tests. Entries are purged once the
// underlying token would have expired anyway.
type memoryResetRegistry struct {
	mu       sync.Mutex
	consumed map[string]time.Time
}

// NewMemoryResetRegistry creates an empty in-memory registry.
func NewMemoryResetRegistry() ResetTokenRegistry {
	return &memoryResetRegistry{
		consumed: make(map[string]time.Time),
	}
}

func (r *memoryResetRegistry) Consume(id string, expiresAt time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for tokenID, exp := range r.consumed {
		if now.After(exp) {
			delete(r.consumed, tokenID)
		}
	}

	if _, used := r.consumed[id]; used {
		return false
	}
	r.consumed[id] = expiresAt
	return true
}
