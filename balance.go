package purchase

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// BalanceFunc fetches the authoritative wallet balance from the backend
type BalanceFunc func(ctx context.Context) (float64, error)

// Reconciler owns the single wallet-balance refresh path. The balance is
// always re-fetched from the backend, never decremented locally, so the
// wallet shown to the user cannot drift from ledger truth. Components
// subscribe to refreshes instead of reading shared mutable state.
type Reconciler struct {
	mu    sync.Mutex
	fetch BalanceFunc
	subs  []func(float64)
	hooks Hooks
}

// NewReconciler creates a reconciler around a balance fetcher
func NewReconciler(fetch BalanceFunc) *Reconciler {
	return &Reconciler{fetch: fetch}
}

// Subscribe registers a callback invoked with each successfully refreshed
// balance. Callbacks run on the reconciling goroutine and must not block.
func (r *Reconciler) Subscribe(fn func(balance float64)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = append(r.subs, fn)
}

// Reconcile refreshes the wallet balance. Failures are reported through the
// OnReconcile hook and swallowed: a balance refresh must never mask the
// purchase outcome it follows.
func (r *Reconciler) Reconcile(ctx context.Context) {
	if r == nil || r.fetch == nil {
		return
	}

	balance, err := r.fetch(ctx)
	r.hooks.reconciled(ReconcileContext{
		Ctx:       ctx,
		Balance:   balance,
		Err:       err,
		Timestamp: time.Now(),
	})
	if err != nil {
		return
	}

	r.mu.Lock()
	subs := make([]func(float64), len(r.subs))
	copy(subs, r.subs)
	r.mu.Unlock()

	for _, fn := range subs {
		fn(balance)
	}
}

// NormalizeBalance extracts a wallet balance from a loosely-shaped backend
// payload. The balance may sit under data.balance or balance directly, quoted
// or not. Total failure yields 0, never an error: balance display degrades,
// it does not break purchases.
func NormalizeBalance(raw map[string]interface{}) float64 {
	if raw == nil {
		return 0
	}
	if data, ok := raw["data"].(map[string]interface{}); ok {
		if v, ok := numericField(data, "balance"); ok {
			return v
		}
	}
	if v, ok := numericField(raw, "balance"); ok {
		return v
	}
	return 0
}

func numericField(m map[string]interface{}, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
