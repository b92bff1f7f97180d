package aggregator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	purchase "github.com/subpay-ng/purchasekit"
)

// ============================================================================
// HTTP Aggregator Client
// ============================================================================

// Client communicates with the bill-payment aggregator over HTTP. It returns
// raw, uninterpreted payloads; all outcome classification happens in the
// purchase package. Its method values plug straight into the orchestrator as
// the submit, status and balance collaborators.
type Client struct {
	url          string
	httpClient   *http.Client
	authProvider AuthProvider
	breaker      *gobreaker.CircuitBreaker
}

// AuthProvider generates authentication headers for aggregator requests
type AuthProvider interface {
	GetAuthHeaders(ctx context.Context) (map[string]string, error)
}

// StaticAuth is the usual api-key plus secret-key header pair
type StaticAuth struct {
	APIKey    string
	SecretKey string
}

// GetAuthHeaders implements AuthProvider
func (a StaticAuth) GetAuthHeaders(ctx context.Context) (map[string]string, error) {
	return map[string]string{
		"api-key":    a.APIKey,
		"secret-key": a.SecretKey,
	}, nil
}

// Config configures the aggregator client
type Config struct {
	// URL is the base URL of the aggregator service
	URL string

	// HTTPClient is the HTTP client to use (optional)
	HTTPClient *http.Client

	// AuthProvider provides authentication headers (optional)
	AuthProvider AuthProvider

	// Timeout for requests (optional, defaults to 35s; per-attempt deadlines
	// from the orchestrator are tighter and govern in practice)
	Timeout time.Duration

	// Breaker overrides the circuit breaker settings (optional)
	Breaker *gobreaker.Settings
}

// NewClient creates a new aggregator client
func NewClient(config *Config) *Client {
	if config == nil {
		config = &Config{}
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		timeout := config.Timeout
		if timeout == 0 {
			timeout = 35 * time.Second
		}
		httpClient = &http.Client{
			Timeout: timeout,
		}
	}

	settings := config.Breaker
	if settings == nil {
		settings = &gobreaker.Settings{
			Name:    "aggregator",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}
	}

	return &Client{
		url:          config.URL,
		httpClient:   httpClient,
		authProvider: config.AuthProvider,
		breaker:      gobreaker.NewCircuitBreaker(*settings),
	}
}

// ============================================================================
// Collaborator Endpoints
// ============================================================================

// Purchase submits one purchase attempt. The attempt's idempotency key
// travels as request_id so the aggregator can deduplicate a resubmission.
func (c *Client) Purchase(ctx context.Context, attempt *purchase.Attempt) (map[string]interface{}, error) {
	req := attempt.Request
	body := map[string]interface{}{
		"request_id": attempt.RequestID,
		"serviceID":  req.ServiceID,
		"amount":     req.Amount,
		"phone":      req.Recipient,
	}
	if req.VariationCode != "" {
		body["variation_code"] = req.VariationCode
	}
	for k, v := range req.Extras {
		body[k] = v
	}

	return c.postJSON(ctx, "/pay", body)
}

// TransactionStatus re-queries the authoritative record for a past attempt
func (c *Client) TransactionStatus(ctx context.Context, requestID string) (map[string]interface{}, error) {
	return c.postJSON(ctx, "/requery", map[string]interface{}{
		"request_id": requestID,
	})
}

// WalletBalance fetches the current wallet balance. Extraction is tolerant of
// the balance key moving around; total failure yields 0 without an error so a
// broken balance endpoint cannot break a purchase flow.
func (c *Client) WalletBalance(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.url+"/balance", nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create balance request: %w", err)
	}
	if err := c.applyHeaders(ctx, req); err != nil {
		return 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, transportError(err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, transportError(err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(responseBody, &raw); err != nil {
		return 0, nil
	}
	return purchase.NormalizeBalance(raw), nil
}

// ============================================================================
// Internals
// ============================================================================

// postJSON performs a POST through the circuit breaker and decodes the raw
// payload. A non-JSON body comes back as a one-key map carrying the raw text,
// which the normalizer classifies as Ambiguous rather than dropping.
func (c *Client) postJSON(ctx context.Context, path string, body map[string]interface{}) (map[string]interface{}, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", path, err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, "POST", c.url+path, bytes.NewReader(encoded))
		if err != nil {
			return nil, fmt.Errorf("failed to create %s request: %w", path, err)
		}
		req.Header.Set("Content-Type", "application/json")
		if err := c.applyHeaders(ctx, req); err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, transportError(err)
		}
		defer resp.Body.Close()

		responseBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, transportError(err)
		}

		var raw map[string]interface{}
		if err := json.Unmarshal(responseBody, &raw); err != nil {
			// The request reached the aggregator; its result is unknown,
			// not absent. Surface the body for diagnostics.
			return map[string]interface{}{
				"http_status": resp.StatusCode,
				"raw_body":    string(responseBody),
			}, nil
		}
		return raw, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &purchase.TransportError{Err: fmt.Errorf("aggregator circuit open: %w", err)}
		}
		return nil, err
	}

	return result.(map[string]interface{}), nil
}

func (c *Client) applyHeaders(ctx context.Context, req *http.Request) error {
	if c.authProvider == nil {
		return nil
	}
	headers, err := c.authProvider.GetAuthHeaders(ctx)
	if err != nil {
		return fmt.Errorf("failed to get auth headers: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return nil
}

// transportError classifies a network-level failure for the retry protocol
func transportError(err error) *purchase.TransportError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &purchase.TransportError{Timeout: true, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &purchase.TransportError{Timeout: true, Err: err}
	}
	return &purchase.TransportError{Err: err}
}
