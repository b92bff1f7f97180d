package store

import (
	"context"
	"sync"
	"time"

	purchase "github.com/subpay-ng/purchasekit"
)

// Memory provides an in-memory implementation of OutcomeStore.
//
// Suitable for single-instance deployments where reconciliation happens in
// the same process as the purchase. For distributed deployments use Redis.
//
// Features:
//   - Thread-safe with mutex protection
//   - Configurable TTL for recorded outcomes
//   - Lazy cleanup of expired entries
type Memory struct {
	mu      sync.Mutex
	results map[string]*purchase.Outcome
	expiry  map[string]time.Time
	ttl     time.Duration
}

// NewMemory creates a new in-memory outcome store with the specified TTL.
//
// The TTL bounds how long a recorded outcome stays resolvable. Typical values
// are hours rather than minutes: an ambiguous purchase may be re-checked long
// after the user has left the screen.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		results: make(map[string]*purchase.Outcome),
		expiry:  make(map[string]time.Time),
		ttl:     ttl,
	}
}

// Put records the outcome for a request id, refreshing its TTL
func (s *Memory) Put(ctx context.Context, requestID string, out *purchase.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results[requestID] = out
	s.expiry[requestID] = time.Now().Add(s.ttl)

	s.cleanupExpiredLocked()
	return nil
}

// Get retrieves a recorded outcome if it exists and hasn't expired.
// Returns nil, nil when absent.
func (s *Memory) Get(ctx context.Context, requestID string) (*purchase.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, exists := s.expiry[requestID]
	if !exists {
		return nil, nil
	}

	if time.Now().After(expiry) {
		// Expired - clean it up
		delete(s.results, requestID)
		delete(s.expiry, requestID)
		return nil, nil
	}

	return s.results[requestID], nil
}

// cleanupExpiredLocked removes expired entries. Must be called with lock held.
func (s *Memory) cleanupExpiredLocked() {
	now := time.Now()
	for key, expiry := range s.expiry {
		if now.After(expiry) {
			delete(s.results, key)
			delete(s.expiry, key)
		}
	}
}

// Ensure Memory implements OutcomeStore
var _ OutcomeStore = (*Memory)(nil)
