package purchase

import (
	"sync"
	"time"
)

// SessionState tracks where a purchase session is in its lifecycle
type SessionState string

const (
	// SessionIdle means no attempt has been made yet
	SessionIdle SessionState = "idle"
	// SessionSubmitting means an attempt is in flight
	SessionSubmitting SessionState = "submitting"
	// SessionRetryable means the last attempt failed and retry budget remains
	SessionRetryable SessionState = "retryable"
	// SessionSettled means the last attempt succeeded or went pending
	SessionSettled SessionState = "settled"
	// SessionExhausted means the retry ceiling was hit without a settlement
	SessionExhausted SessionState = "exhausted"
)

// Session aggregates one Request, its ordered attempts, and the outcome of
// the most recent attempt. At most one attempt per session is ever in flight;
// a second submission while one is running is rejected, not queued.
type Session struct {
	mu       sync.Mutex
	request  Request
	state    SessionState
	attempts []*Attempt
	outcome  *Outcome
}

// NewSession creates an idle session for a request
func NewSession(req Request) *Session {
	return &Session{request: req, state: SessionIdle}
}

// Request returns the immutable purchase request
func (s *Session) Request() Request {
	return s.request
}

// State returns the current lifecycle state
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Attempts returns a copy of the attempt list in submission order
func (s *Session) Attempts() []*Attempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Attempt, len(s.attempts))
	copy(out, s.attempts)
	return out
}

// LastOutcome returns the outcome of the most recent finished attempt,
// or nil before the first attempt completes
func (s *Session) LastOutcome() *Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

// RetriesLeft returns how many more attempts the session may make
func (s *Session) RetriesLeft(maxRetries int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	left := maxRetries + 1 - len(s.attempts)
	if left < 0 {
		return 0
	}
	return left
}

func (s *Session) lastRequestID() string {
	if len(s.attempts) == 0 {
		return ""
	}
	return s.attempts[len(s.attempts)-1].RequestID
}

// beginAttempt transitions the session into Submitting and mints the next
// attempt. It is the single-flight gate: a session already Submitting rejects
// immediately rather than racing two network calls for the same purchase.
func (s *Session) beginAttempt(keygen KeyGenerator, maxRetries int) (*Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case SessionSubmitting:
		return nil, NewPurchaseError(ErrCodeConcurrentSubmission,
			"a submission for this purchase is already in flight", nil)
	case SessionSettled:
		return nil, NewPurchaseError(ErrCodeSessionTerminal,
			"this purchase already settled; retrying it is a caller bug", nil)
	case SessionExhausted:
		return nil, NewPurchaseError(ErrCodeRetriesExhausted,
			"retry limit reached; contact support with the reference below",
			map[string]interface{}{"lastRequestID": s.lastRequestID()})
	}

	ordinal := len(s.attempts)
	if ordinal > maxRetries {
		// State should already be Exhausted once the budget is gone
		s.state = SessionExhausted
		return nil, NewPurchaseError(ErrCodeRetriesExhausted,
			"retry limit reached; contact support with the reference below",
			map[string]interface{}{"lastRequestID": s.lastRequestID()})
	}

	attempt := &Attempt{
		RequestID: keygen(s.request.Category, ordinal),
		Ordinal:   ordinal,
		Request:   s.request,
		StartedAt: time.Now(),
	}
	s.attempts = append(s.attempts, attempt)
	s.state = SessionSubmitting
	return attempt, nil
}

// finishAttempt records the attempt's outcome and moves the session to its
// next state. Failed and Ambiguous outcomes stay retryable while budget
// remains; Success and Pending settle the session.
func (s *Session) finishAttempt(out *Outcome, maxRetries int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.outcome = out
	if out.Settled() {
		s.state = SessionSettled
		return
	}
	if len(s.attempts) > maxRetries {
		s.state = SessionExhausted
		return
	}
	s.state = SessionRetryable
}

// abortAttempt rolls back an attempt whose call never reached the aggregator.
// The attempt is discarded without consuming retry budget.
func (s *Session) abortAttempt(attempt *Attempt) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, a := range s.attempts {
		if a == attempt {
			s.attempts = append(s.attempts[:i], s.attempts[i+1:]...)
			break
		}
	}
	if len(s.attempts) == 0 {
		s.state = SessionIdle
	} else {
		s.state = SessionRetryable
	}
}
