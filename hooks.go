package purchase

import (
	"context"
	"time"
)

// ============================================================================
// Hook Context Types
// ============================================================================

// SubmitContext contains information passed to submit hooks
type SubmitContext struct {
	Ctx       context.Context
	Attempt   *Attempt
	Timestamp time.Time
}

// ResultContext contains an attempt's outcome and context
type ResultContext struct {
	SubmitContext
	Outcome  Outcome
	Duration time.Duration
}

// AmbiguousContext is emitted when a response could not be classified.
// It carries the raw payload so an undetected success can be found later.
type AmbiguousContext struct {
	SubmitContext
	Raw      map[string]interface{}
	Duration time.Duration
}

// ReconcileContext contains the result of a balance reconciliation
type ReconcileContext struct {
	Ctx       context.Context
	Balance   float64
	Err       error
	Timestamp time.Time
}

// Notification is the single user-facing message per finished attempt
type Notification struct {
	Status      Status
	Message     string
	Reference   string
	Retryable   bool
	RetriesLeft int
}

// ============================================================================
// Hooks
// ============================================================================

// Hooks are optional observation points on the purchase lifecycle. The engine
// carries no logger; consumers wire these to their logging and toast layers.
// Any nil hook is skipped. Hooks must not block.
type Hooks struct {
	// OnSubmit fires when an attempt goes in flight
	OnSubmit func(SubmitContext)
	// OnResult fires once per finished attempt with its canonical outcome
	OnResult func(ResultContext)
	// OnAmbiguous fires in addition to OnResult when the outcome is Ambiguous
	OnAmbiguous func(AmbiguousContext)
	// OnNotification fires exactly once per Submit/Retry call with the
	// user-facing message for its final outcome
	OnNotification func(Notification)
	// OnReconcile fires after each balance reconciliation, success or not
	OnReconcile func(ReconcileContext)
}

func (h Hooks) submit(sc SubmitContext) {
	if h.OnSubmit != nil {
		h.OnSubmit(sc)
	}
}

func (h Hooks) result(rc ResultContext) {
	if h.OnResult != nil {
		h.OnResult(rc)
	}
	if rc.Outcome.Status == StatusAmbiguous && h.OnAmbiguous != nil {
		h.OnAmbiguous(AmbiguousContext{
			SubmitContext: rc.SubmitContext,
			Raw:           rc.Outcome.Raw,
			Duration:      rc.Duration,
		})
	}
}

func (h Hooks) notify(n Notification) {
	if h.OnNotification != nil {
		h.OnNotification(n)
	}
}

func (h Hooks) reconciled(rc ReconcileContext) {
	if h.OnReconcile != nil {
		h.OnReconcile(rc)
	}
}
