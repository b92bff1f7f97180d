package purchase

import (
	"context"
	"time"
)

// StatusFunc looks up the authoritative transaction record for a request id,
// returning the stored raw payload for late reconciliation
type StatusFunc func(ctx context.Context, requestID string) (map[string]interface{}, error)

// OutcomeRecorder persists terminal outcomes keyed by request id so that an
// ambiguous or pending purchase can be settled later. Get returns nil with a
// nil error when nothing is recorded.
type OutcomeRecorder interface {
	Put(ctx context.Context, requestID string, out *Outcome) error
	Get(ctx context.Context, requestID string) (*Outcome, error)
}

// Orchestrator is the single entry point the rest of the application calls
// for purchases. It composes the retry coordinator, the normalizer, and the
// balance reconciler; callers only ever see a canonical Outcome and a display
// message, never raw provider payloads.
type Orchestrator struct {
	coordinator *Coordinator
	submit      SubmitFunc
	status      StatusFunc
	reconciler  *Reconciler
	recorder    OutcomeRecorder
	hooks       Hooks
	timeoutFor  func(Category) time.Duration

	coordinatorOpts []CoordinatorOption
}

// Option configures the orchestrator
type Option func(*Orchestrator)

// WithHooks attaches lifecycle hooks
func WithHooks(h Hooks) Option {
	return func(o *Orchestrator) {
		o.hooks = h
	}
}

// WithReconciler attaches the wallet-balance reconciler
func WithReconciler(r *Reconciler) Option {
	return func(o *Orchestrator) {
		o.reconciler = r
	}
}

// WithOutcomeRecorder attaches a store for terminal outcomes
func WithOutcomeRecorder(rec OutcomeRecorder) Option {
	return func(o *Orchestrator) {
		o.recorder = rec
	}
}

// WithStatusLookup attaches the transaction status collaborator used to
// settle ambiguous outcomes after the fact
func WithStatusLookup(fn StatusFunc) Option {
	return func(o *Orchestrator) {
		o.status = fn
	}
}

// WithCoordinator replaces the default retry coordinator
func WithCoordinator(opts ...CoordinatorOption) Option {
	return func(o *Orchestrator) {
		o.coordinatorOpts = opts
	}
}

// WithTimeouts overrides the per-category attempt deadline
func WithTimeouts(fn func(Category) time.Duration) Option {
	return func(o *Orchestrator) {
		o.timeoutFor = fn
	}
}

// New creates an orchestrator around the submit collaborator
func New(submit SubmitFunc, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		submit:     submit,
		timeoutFor: Category.Timeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	coordOpts := append([]CoordinatorOption{WithObserver(o.observeResult)}, o.coordinatorOpts...)
	o.coordinator = NewCoordinator(coordOpts...)
	if o.reconciler != nil {
		o.reconciler.hooks = o.hooks
	}
	return o
}

// Submit starts a new purchase session and runs its first attempt. The
// returned session is what Retry takes; its last outcome is also returned
// directly for convenience.
func (o *Orchestrator) Submit(ctx context.Context, req Request) (*Session, *Outcome, error) {
	session, out, err := o.coordinator.Begin(ctx, req, o.timedSubmit)
	if err != nil {
		return session, nil, err
	}
	o.finish(ctx, session, out)
	return session, out, nil
}

// Retry runs the next attempt for a session whose last outcome was retryable.
// Settled and exhausted sessions reject; a session with an attempt still in
// flight rejects with concurrent_submission.
func (o *Orchestrator) Retry(ctx context.Context, session *Session) (*Outcome, error) {
	out, err := o.coordinator.Retry(ctx, session, o.timedSubmit)
	if err != nil {
		return nil, err
	}
	o.finish(ctx, session, out)
	return out, nil
}

// Resolve settles a past attempt by request id: recorded settled outcomes are
// returned as-is, anything else is re-queried against the authoritative
// transaction record. This is the follow-up path for Ambiguous and Pending
// outcomes, where the original call could not prove what happened.
func (o *Orchestrator) Resolve(ctx context.Context, requestID string) (*Outcome, error) {
	if o.recorder != nil {
		recorded, err := o.recorder.Get(ctx, requestID)
		if err == nil && recorded != nil && recorded.Status == StatusSuccess {
			return recorded, nil
		}
	}
	if o.status == nil {
		return nil, NewPurchaseError(ErrCodeInvalidRequest,
			"no transaction status collaborator configured", nil)
	}
	raw, err := o.status(ctx, requestID)
	if err != nil {
		return nil, err
	}
	out := Normalize(raw)
	if o.recorder != nil && out.Settled() {
		_ = o.recorder.Put(ctx, requestID, &out)
	}
	return &out, nil
}

// timedSubmit wraps the submit collaborator with the per-category deadline
// and the submit hook
func (o *Orchestrator) timedSubmit(ctx context.Context, attempt *Attempt) (map[string]interface{}, error) {
	o.hooks.submit(SubmitContext{Ctx: ctx, Attempt: attempt, Timestamp: attempt.StartedAt})

	tctx, cancel := context.WithTimeout(ctx, o.timeoutFor(attempt.Request.Category))
	defer cancel()
	return o.submit(tctx, attempt)
}

func (o *Orchestrator) observeResult(rc ResultContext) {
	o.hooks.result(rc)
}

// finish runs the once-per-terminal-outcome side effects: record the outcome,
// emit the single user notification, and reconcile the wallet balance.
func (o *Orchestrator) finish(ctx context.Context, session *Session, out *Outcome) {
	attempts := session.Attempts()
	if o.recorder != nil && len(attempts) > 0 {
		last := attempts[len(attempts)-1]
		_ = o.recorder.Put(ctx, last.RequestID, out)
	}

	o.hooks.notify(Notification{
		Status:      out.Status,
		Message:     out.Message,
		Reference:   out.Reference,
		Retryable:   !out.Settled() && out.Retryable && session.State() == SessionRetryable,
		RetriesLeft: session.RetriesLeft(o.coordinator.MaxRetries()),
	})

	o.reconciler.Reconcile(ctx)
}
