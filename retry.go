package purchase

import (
	"context"
	"errors"
	"time"
)

// DefaultMaxRetries is the retry ceiling per session: one initial attempt
// plus at most this many retries.
const DefaultMaxRetries = 3

// SubmitFunc performs one purchase attempt against the aggregator and returns
// the raw, uninterpreted payload. The attempt's RequestID must travel with
// the submission as its idempotency key.
type SubmitFunc func(ctx context.Context, attempt *Attempt) (map[string]interface{}, error)

// Coordinator drives the bounded, idempotent retry protocol for one session
// at a time. Every transition into Submitting mints a new Attempt with a
// fresh idempotency key; a retry never reuses the previous attempt's key.
type Coordinator struct {
	keygen     KeyGenerator
	maxRetries int
	autoRetry  int
	observer   func(ResultContext)
}

// CoordinatorOption configures the coordinator
type CoordinatorOption func(*Coordinator)

// WithKeyGenerator replaces the idempotency key generator
func WithKeyGenerator(gen KeyGenerator) CoordinatorOption {
	return func(c *Coordinator) {
		c.keygen = gen
	}
}

// WithMaxRetries overrides the retry ceiling
func WithMaxRetries(n int) CoordinatorOption {
	return func(c *Coordinator) {
		c.maxRetries = n
	}
}

// WithAutoRetry opts into bounded automatic retry of transport-kind failures
// (provider unavailable, timeouts). Provider rejections are never retried
// automatically, and the session ceiling still applies.
func WithAutoRetry(n int) CoordinatorOption {
	return func(c *Coordinator) {
		c.autoRetry = n
	}
}

// WithObserver registers a callback fired once per finished attempt with its
// canonical outcome. Automatic retries report every intermediate attempt, not
// just the final one.
func WithObserver(fn func(ResultContext)) CoordinatorOption {
	return func(c *Coordinator) {
		c.observer = fn
	}
}

// NewCoordinator creates a retry coordinator
func NewCoordinator(opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		keygen:     DefaultKeyGenerator,
		maxRetries: DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MaxRetries returns the configured retry ceiling
func (c *Coordinator) MaxRetries() int {
	return c.maxRetries
}

// Begin creates a session for the request and runs its first attempt
func (c *Coordinator) Begin(ctx context.Context, req Request, submit SubmitFunc) (*Session, *Outcome, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, NewPurchaseError(ErrCodeInvalidRequest, err.Error(), nil)
	}
	session := NewSession(req)
	out, err := c.run(ctx, session, submit)
	if err != nil {
		return session, nil, err
	}
	return session, out, nil
}

// Retry runs the next attempt for a session whose last outcome was Failed or
// Ambiguous. Settled sessions reject with session_terminal, exhausted ones
// with retries_exhausted.
func (c *Coordinator) Retry(ctx context.Context, session *Session, submit SubmitFunc) (*Outcome, error) {
	return c.run(ctx, session, submit)
}

func (c *Coordinator) run(ctx context.Context, session *Session, submit SubmitFunc) (*Outcome, error) {
	autoBudget := c.autoRetry
	for {
		out, err := c.runOnce(ctx, session, submit)
		if err != nil {
			return nil, err
		}
		if out.Status == StatusFailed && out.Kind == KindProviderUnavailable &&
			autoBudget > 0 && session.State() == SessionRetryable {
			autoBudget--
			continue
		}
		return out, nil
	}
}

// runOnce executes exactly one attempt. Connection-level failures where the
// call never reached the aggregator are rolled back without consuming retry
// budget; timeouts are not, because the purchase may have gone through.
func (c *Coordinator) runOnce(ctx context.Context, session *Session, submit SubmitFunc) (*Outcome, error) {
	attempt, err := session.beginAttempt(c.keygen, c.maxRetries)
	if err != nil {
		return nil, err
	}

	raw, submitErr := submit(ctx, attempt)

	var out Outcome
	switch {
	case submitErr == nil:
		out = Normalize(raw)
	case isTimeout(submitErr):
		out = Outcome{
			Status:    StatusFailed,
			Kind:      KindProviderUnavailable,
			Message:   kindMessages[KindProviderUnavailable],
			Retryable: true,
		}
	default:
		// Never attempted: connection refused, DNS failure, caller cancel.
		session.abortAttempt(attempt)
		return nil, submitErr
	}

	session.finishAttempt(&out, c.maxRetries)
	if c.observer != nil {
		c.observer(ResultContext{
			SubmitContext: SubmitContext{Ctx: ctx, Attempt: attempt, Timestamp: attempt.StartedAt},
			Outcome:       out,
			Duration:      time.Since(attempt.StartedAt),
		})
	}
	return &out, nil
}

func isTimeout(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Timeout
	}
	return errors.Is(err, context.DeadlineExceeded)
}
