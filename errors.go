package purchase

import "fmt"

// PurchaseError represents a purchase-flow usage error
type PurchaseError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *PurchaseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Common error codes
const (
	ErrCodeConcurrentSubmission = "concurrent_submission"
	ErrCodeRetriesExhausted     = "retries_exhausted"
	ErrCodeSessionTerminal      = "session_terminal"
	ErrCodeInvalidRequest       = "invalid_request"
)

// NewPurchaseError creates a new purchase error
func NewPurchaseError(code, message string, details map[string]interface{}) *PurchaseError {
	return &PurchaseError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// TransportError wraps a network-level failure talking to the aggregator.
// Timeout distinguishes "the call may have reached the aggregator" from
// "the call never got out". The two retry differently: a timeout consumes
// a retry slot because the purchase may have happened, a connection failure
// does not.
type TransportError struct {
	Timeout bool
	Err     error
}

func (e *TransportError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("aggregator call timed out: %v", e.Err)
	}
	return fmt.Sprintf("aggregator unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
