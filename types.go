package purchase

import (
	"fmt"
	"time"
)

// Category identifies a purchase vertical on the aggregator.
type Category string

const (
	CategoryAirtime     Category = "airtime"
	CategoryData        Category = "data"
	CategoryExam        Category = "education"
	CategoryTV          Category = "tv-subscription"
	CategoryElectricity Category = "electricity-bill"
)

// ParseCategory validates a category string from an untrusted source
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown purchase category: %s", s)
	}
	return c, nil
}

// Valid reports whether the category is one the engine knows how to purchase
func (c Category) Valid() bool {
	switch c {
	case CategoryAirtime, CategoryData, CategoryExam, CategoryTV, CategoryElectricity:
		return true
	}
	return false
}

// Timeout returns the per-attempt deadline for the category.
// Electricity token generation and exam PIN issuance are the slow paths.
func (c Category) Timeout() time.Duration {
	switch c {
	case CategoryExam, CategoryTV, CategoryElectricity:
		return 30 * time.Second
	default:
		return 20 * time.Second
	}
}

// Request is the immutable description of what the user wants to buy.
// A retry produces a new Attempt, never a mutated Request.
type Request struct {
	Category      Category          `json:"category"`
	ServiceID     string            `json:"serviceID"`
	VariationCode string            `json:"variationCode,omitempty"`
	Amount        float64           `json:"amount"`
	Recipient     string            `json:"recipient"`
	WalletPIN     string            `json:"-"`
	Extras        map[string]string `json:"extras,omitempty"`
}

// Validate performs basic validation on a purchase request
func (r Request) Validate() error {
	if !r.Category.Valid() {
		return fmt.Errorf("unknown purchase category: %s", r.Category)
	}
	if r.ServiceID == "" {
		return fmt.Errorf("service identifier is required")
	}
	if r.Recipient == "" {
		return fmt.Errorf("recipient is required")
	}
	if r.Amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	return nil
}

// Attempt binds one idempotency key to one Request and one ordinal.
// Ordinal 0 is the first try, 1..MaxRetries are retries.
type Attempt struct {
	RequestID string    `json:"requestID"`
	Ordinal   int       `json:"ordinal"`
	Request   Request   `json:"request"`
	StartedAt time.Time `json:"startedAt"`
}

// Status is the canonical classification of one attempt's result
type Status string

const (
	// StatusSuccess means the aggregator confirmed delivery
	StatusSuccess Status = "success"
	// StatusPending means the aggregator accepted but has not confirmed delivery
	StatusPending Status = "pending"
	// StatusFailed means the aggregator reported a recognizable failure
	StatusFailed Status = "failed"
	// StatusAmbiguous means the response shape was unrecognized or contradictory.
	// Operationally handled like a failure, but logged distinctly since it may
	// hide a success the engine could not detect.
	StatusAmbiguous Status = "ambiguous"
)

// Outcome is the canonical result of one purchase attempt. Exactly one
// Outcome is produced per Attempt; it is pure output, never partially filled.
type Outcome struct {
	Status      Status                 `json:"status"`
	Reference   string                 `json:"reference,omitempty"`
	ProductName string                 `json:"productName,omitempty"`
	Kind        ErrorKind              `json:"kind,omitempty"`
	Message     string                 `json:"message"`
	Retryable   bool                   `json:"retryable"`
	Raw         map[string]interface{} `json:"raw,omitempty"`
}

// Settled reports whether the outcome ends the session (no retry offered)
func (o Outcome) Settled() bool {
	return o.Status == StatusSuccess || o.Status == StatusPending
}
