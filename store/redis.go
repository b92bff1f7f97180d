package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	purchase "github.com/subpay-ng/purchasekit"
)

// Redis provides a redis-backed implementation of OutcomeStore for
// deployments where the instance that re-queries a transaction is not the
// one that submitted it. Outcomes are stored as JSON with the TTL enforced
// by redis key expiry.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedis creates a redis-backed outcome store
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{
		client: client,
		ttl:    ttl,
		prefix: "purchase:outcome:",
	}
}

// Put records the outcome for a request id, refreshing its TTL
func (s *Redis) Put(ctx context.Context, requestID string, out *purchase.Outcome) error {
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to marshal outcome: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+requestID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store outcome: %w", err)
	}
	return nil
}

// Get retrieves a recorded outcome. Returns nil, nil when absent or expired.
func (s *Redis) Get(ctx context.Context, requestID string) (*purchase.Outcome, error) {
	data, err := s.client.Get(ctx, s.prefix+requestID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load outcome: %w", err)
	}

	var out purchase.Outcome
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal outcome: %w", err)
	}
	return &out, nil
}

// Ensure Redis implements OutcomeStore
var _ OutcomeStore = (*Redis)(nil)
