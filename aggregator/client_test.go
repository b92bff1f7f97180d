package aggregator

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker"

	purchase "github.com/subpay-ng/purchasekit"
)

func testAttempt() *purchase.Attempt {
	return &purchase.Attempt{
		RequestID: "202501010101abcdef-airtime-0",
		Ordinal:   0,
		Request: purchase.Request{
			Category:      purchase.CategoryAirtime,
			ServiceID:     "mtn",
			VariationCode: "mtn-2gb",
			Amount:        200,
			Recipient:     "08030000000",
			Extras:        map[string]string{"billersCode": "12345"},
		},
	}
}

func TestClient_PurchaseSendsIdempotencyKeyAndAuth(t *testing.T) {
	var received map[string]interface{}
	var gotAPIKey string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("api-key")
		_ = json.NewDecoder(r.Body).Decode(&received)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"code": "000"})
	}))
	defer server.Close()

	client := NewClient(&Config{
		URL:          server.URL,
		AuthProvider: StaticAuth{APIKey: "key", SecretKey: "secret"},
	})

	raw, err := client.Purchase(context.Background(), testAttempt())
	if err != nil {
		t.Fatalf("Purchase failed: %v", err)
	}
	if raw["code"] != "000" {
		t.Errorf("Expected raw payload passed through, got %v", raw)
	}
	if received["request_id"] != "202501010101abcdef-airtime-0" {
		t.Errorf("Expected idempotency key as request_id, got %v", received["request_id"])
	}
	if received["variation_code"] != "mtn-2gb" {
		t.Errorf("Expected variation code forwarded, got %v", received["variation_code"])
	}
	if received["billersCode"] != "12345" {
		t.Errorf("Expected extras merged into the payload, got %v", received)
	}
	if gotAPIKey != "key" {
		t.Errorf("Expected api-key header, got %q", gotAPIKey)
	}
}

func TestClient_PurchaseNonJSONBodyIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>Bad Gateway</html>"))
	}))
	defer server.Close()

	client := NewClient(&Config{URL: server.URL})
	raw, err := client.Purchase(context.Background(), testAttempt())
	if err != nil {
		t.Fatalf("Expected no error for non-JSON body, got %v", err)
	}

	// The request reached the aggregator; the normalizer must see Ambiguous,
	// not a transport failure.
	out := purchase.Normalize(raw)
	if out.Status != purchase.StatusAmbiguous {
		t.Errorf("Expected StatusAmbiguous, got %v", out.Status)
	}
}

func TestClient_PurchaseTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server can detect the client disconnect and
		// cancel the request context; otherwise Close deadlocks.
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewClient(&Config{URL: server.URL})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := client.Purchase(ctx, testAttempt())
	var te *purchase.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("Expected TransportError, got %v", err)
	}
	if !te.Timeout {
		t.Error("Expected the error flagged as a timeout")
	}
}

func TestClient_PurchaseConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(&Config{URL: url})
	_, err := client.Purchase(context.Background(), testAttempt())

	var te *purchase.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("Expected TransportError, got %v", err)
	}
	if te.Timeout {
		t.Error("Connection refused is not a timeout")
	}
}

func TestClient_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(&Config{
		URL: url,
		Breaker: &gobreaker.Settings{
			Name: "aggregator-test",
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 2
			},
		},
	})

	for i := 0; i < 2; i++ {
		_, _ = client.Purchase(context.Background(), testAttempt())
	}

	_, err := client.Purchase(context.Background(), testAttempt())
	var te *purchase.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("Expected TransportError from open breaker, got %v", err)
	}
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("Expected the breaker state wrapped, got %v", err)
	}
}

func TestClient_TransactionStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/requery" {
			t.Errorf("Expected /requery, got %s", r.URL.Path)
		}
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["request_id"] != "req-9" {
			t.Errorf("Expected request_id forwarded, got %v", body)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"code": "000"})
	}))
	defer server.Close()

	client := NewClient(&Config{URL: server.URL})
	raw, err := client.TransactionStatus(context.Background(), "req-9")
	if err != nil {
		t.Fatalf("TransactionStatus failed: %v", err)
	}
	if raw["code"] != "000" {
		t.Errorf("Expected raw payload back, got %v", raw)
	}
}

func TestClient_WalletBalance(t *testing.T) {
	cases := []struct {
		name string
		body string
		want float64
	}{
		{"nested", `{"data":{"balance":"10250.75"}}`, 10250.75},
		{"direct", `{"balance":500}`, 500},
		{"garbage", `not json at all`, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := NewClient(&Config{URL: server.URL})
			got, err := client.WalletBalance(context.Background())
			if err != nil {
				t.Fatalf("WalletBalance failed: %v", err)
			}
			if got != tc.want {
				t.Errorf("Expected %v, got %v", tc.want, got)
			}
		})
	}
}
