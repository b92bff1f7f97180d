package purchase

import (
	"fmt"
	"strings"
)

// The aggregator does not version its envelopes: the same purchase can come
// back with the status at the top level, nested under content.transactions,
// or wrapped one level down in a response object. Normalize walks a fixed,
// ordered table of known locations instead of guessing, and a new provider
// shape is supported by appending a path, not by adding a branch somewhere.
//
// Precedence law: a success marker found at any recognized path wins over a
// failure marker found at a shallower one. Absence of evidence is never
// treated as success or failure; it is Ambiguous.

// Success and pending markers for the transaction status field
var (
	successStatuses = map[string]bool{"delivered": true, "successful": true}
	pendingStatuses = map[string]bool{"pending": true, "initiated": true}
	failureStatuses = map[string]bool{"failed": true, "reversed": true}
)

// scope is one known location of status signals inside a raw payload
type scope struct {
	name string
	m    map[string]interface{}
}

// scopesOf returns the recognized envelopes of a payload in priority order:
// the payload itself, then the wrapped response object if present.
func scopesOf(raw map[string]interface{}) []scope {
	out := []scope{{name: "top", m: raw}}
	if inner, ok := raw["response"].(map[string]interface{}); ok {
		out = append(out, scope{name: "response", m: inner})
	}
	return out
}

func (s scope) code() string {
	return stringField(s.m, "code")
}

func (s scope) description() string {
	if d := stringField(s.m, "response_description"); d != "" {
		return d
	}
	return stringField(s.m, "description")
}

func (s scope) suggestedAction() string {
	return stringField(s.m, "suggested_action")
}

// transaction returns the content.transactions object if the scope carries one
func (s scope) transaction() map[string]interface{} {
	content, ok := s.m["content"].(map[string]interface{})
	if !ok {
		return nil
	}
	txn, ok := content["transactions"].(map[string]interface{})
	if !ok {
		return nil
	}
	return txn
}

func (s scope) transactionStatus() string {
	return strings.ToLower(stringField(s.transaction(), "status"))
}

func (s scope) productName() string {
	return stringField(s.transaction(), "product_name")
}

// reference returns the first provider reference found in the scope, checking
// the transaction object before the envelope
func (s scope) reference() string {
	for _, m := range []map[string]interface{}{s.transaction(), s.m} {
		for _, key := range []string{"reference", "transactionId", "requestId", "request_id", "token"} {
			if v := stringField(m, key); v != "" {
				return v
			}
		}
	}
	return ""
}

// Normalize maps a raw aggregator payload of unknown shape into a canonical
// Outcome. Transport errors never reach this function; the orchestrator maps
// those before the payload stage.
func Normalize(raw map[string]interface{}) Outcome {
	if len(raw) == 0 {
		return Outcome{
			Status:    StatusAmbiguous,
			Kind:      KindUnknown,
			Message:   kindMessages[KindUnknown],
			Retryable: true,
		}
	}

	scopes := scopesOf(raw)

	// Pass 1: success markers. First match wins and short-circuits, so a
	// success reported anywhere beats a failure code sitting next to it.
	for _, s := range scopes {
		if s.code() == codeSuccess || successStatuses[s.transactionStatus()] {
			return successOutcome(s)
		}
	}
	for _, s := range scopes {
		desc := strings.ToUpper(s.description())
		// "TRANSACTION UNSUCCESSFUL" must not match here
		if strings.Contains(desc, "SUCCESSFUL") && !strings.Contains(desc, "UNSUCCESSFUL") {
			return successOutcome(s)
		}
	}

	// Pass 2: pending markers
	for _, s := range scopes {
		if s.code() == codePending || pendingStatuses[s.transactionStatus()] {
			return Outcome{
				Status:    StatusPending,
				Reference: s.reference(),
				Kind:      KindTransactionPending,
				Message:   kindMessages[KindTransactionPending],
			}
		}
	}

	// Pass 3: failure markers, classified through the taxonomy
	for _, s := range scopes {
		code := s.code()
		_, knownFailure := codeKinds[code]
		if knownFailure || failureStatuses[s.transactionStatus()] {
			cls := Classify(code, s.description(), s.suggestedAction())
			return Outcome{
				Status:    StatusFailed,
				Reference: s.reference(),
				Kind:      cls.Kind,
				Message:   cls.Message,
				Retryable: cls.Kind.Retryable(),
			}
		}
	}

	// Nothing recognized anywhere. Never guess a favorable outcome; keep the
	// raw payload attached so an undetected success is visible in diagnostics.
	return Outcome{
		Status:    StatusAmbiguous,
		Kind:      KindUnknown,
		Message:   kindMessages[KindUnknown],
		Retryable: true,
		Raw:       raw,
	}
}

func successOutcome(s scope) Outcome {
	message := "Purchase successful."
	if name := s.productName(); name != "" {
		message = fmt.Sprintf("Purchase successful: %s.", name)
	}
	return Outcome{
		Status:      StatusSuccess,
		Reference:   s.reference(),
		ProductName: s.productName(),
		Message:     message,
	}
}

// stringField reads a field as a string, coercing JSON numbers. Aggregator
// payloads are inconsistent about quoting numeric codes.
func stringField(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%v", v)
	default:
		return ""
	}
}
