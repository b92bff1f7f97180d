// Package store persists terminal purchase outcomes keyed by idempotency
// request id, so that Ambiguous and Pending outcomes can be settled after the
// fact by re-querying the authoritative transaction record.
//
// Two implementations are provided: Memory for single-instance deployments,
// and Redis for load-balanced clusters where reconciliation may happen on a
// different instance than the purchase.
package store

import (
	"context"

	purchase "github.com/subpay-ng/purchasekit"
)

// OutcomeStore is the storage interface for recorded outcomes.
// Implementations must be safe for concurrent use.
//
// Get returns (nil, nil) when no outcome is recorded for the request id:
// absence is an answer, not an error.
type OutcomeStore interface {
	Put(ctx context.Context, requestID string, out *purchase.Outcome) error
	Get(ctx context.Context, requestID string) (*purchase.Outcome, error)
}
