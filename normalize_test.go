package purchase

import (
	"encoding/json"
	"testing"
)

func payload(t *testing.T, raw string) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("bad test payload: %v", err)
	}
	return m
}

func TestNormalize_TopLevelSuccess(t *testing.T) {
	out := Normalize(payload(t, `{"code":"000","response_description":"TRANSACTION SUCCESSFUL"}`))
	if out.Status != StatusSuccess {
		t.Errorf("Expected StatusSuccess, got %v", out.Status)
	}
	if out.Message == "" {
		t.Error("Expected non-empty message")
	}
}

func TestNormalize_NestedSuccess(t *testing.T) {
	out := Normalize(payload(t, `{"response":{"code":"000"}}`))
	if out.Status != StatusSuccess {
		t.Errorf("Expected StatusSuccess for nested response.code, got %v", out.Status)
	}
}

func TestNormalize_TransactionStatusSuccess(t *testing.T) {
	out := Normalize(payload(t, `{
		"content":{"transactions":{"status":"delivered","product_name":"MTN Airtime VTU"}},
		"requestId":"202501010101abc-airtime-0"
	}`))
	if out.Status != StatusSuccess {
		t.Fatalf("Expected StatusSuccess, got %v", out.Status)
	}
	if out.ProductName != "MTN Airtime VTU" {
		t.Errorf("Expected product name carried through, got %q", out.ProductName)
	}
	if out.Reference != "202501010101abc-airtime-0" {
		t.Errorf("Expected requestId as reference, got %q", out.Reference)
	}
}

func TestNormalize_SuccessBeatsShallowerFailure(t *testing.T) {
	// Precedence law: a success marker anywhere wins over failure-shaped
	// sibling fields.
	cases := []string{
		`{"code":"016","content":{"transactions":{"status":"delivered"}}}`,
		`{"code":"016","response":{"code":"000"}}`,
		`{"code":"016","response_description":"TRANSACTION SUCCESSFUL"}`,
	}
	for _, raw := range cases {
		out := Normalize(payload(t, raw))
		if out.Status != StatusSuccess {
			t.Errorf("Expected StatusSuccess for %s, got %v", raw, out.Status)
		}
	}
}

func TestNormalize_Pending(t *testing.T) {
	for _, raw := range []string{
		`{"code":"099"}`,
		`{"content":{"transactions":{"status":"pending"}}}`,
		`{"response":{"code":"099"}}`,
	} {
		out := Normalize(payload(t, raw))
		if out.Status != StatusPending {
			t.Errorf("Expected StatusPending for %s, got %v", raw, out.Status)
		}
		if out.Retryable {
			t.Errorf("Pending must not be retryable: %s", raw)
		}
	}
}

func TestNormalize_KnownFailureCode(t *testing.T) {
	out := Normalize(payload(t, `{"code":"014"}`))
	if out.Status != StatusFailed {
		t.Fatalf("Expected StatusFailed, got %v", out.Status)
	}
	if out.Kind != KindInsufficientProviderFunds {
		t.Errorf("Expected KindInsufficientProviderFunds, got %v", out.Kind)
	}
	if out.Message == "" {
		t.Error("Expected non-empty message for bare failure code")
	}
	if !out.Retryable {
		t.Error("Expected insufficient provider funds to be retryable")
	}
}

func TestNormalize_FailureNotRetryableForInputErrors(t *testing.T) {
	out := Normalize(payload(t, `{"code":"010","response_description":"invalid variation code"}`))
	if out.Status != StatusFailed {
		t.Fatalf("Expected StatusFailed, got %v", out.Status)
	}
	if out.Kind != KindInvalidPlanOrVariation {
		t.Errorf("Expected KindInvalidPlanOrVariation, got %v", out.Kind)
	}
	if out.Retryable {
		t.Error("Plan errors need changed input, not a retry")
	}
}

func TestNormalize_UnsuccessfulDescriptionIsNotSuccess(t *testing.T) {
	out := Normalize(payload(t, `{"response_description":"TRANSACTION UNSUCCESSFUL"}`))
	if out.Status == StatusSuccess {
		t.Error("UNSUCCESSFUL must never read as a success marker")
	}
}

func TestNormalize_FailedTransactionStatus(t *testing.T) {
	out := Normalize(payload(t, `{
		"content":{"transactions":{"status":"failed"}},
		"response_description":"TRANSACTION FAILED"
	}`))
	if out.Status != StatusFailed {
		t.Errorf("Expected StatusFailed, got %v", out.Status)
	}
}

func TestNormalize_UnrecognizedShapeIsAmbiguous(t *testing.T) {
	for _, raw := range []string{
		`{"weird":"shape"}`,
		`{"code":"definitely-not-a-code"}`,
		`{"response":{"something":"else"}}`,
	} {
		out := Normalize(payload(t, raw))
		if out.Status != StatusAmbiguous {
			t.Errorf("Expected StatusAmbiguous for %s, got %v", raw, out.Status)
		}
		if out.Raw == nil {
			t.Errorf("Expected raw payload attached for diagnostics: %s", raw)
		}
		if !out.Retryable {
			t.Errorf("Ambiguous must be retryable: %s", raw)
		}
	}
}

func TestNormalize_EmptyPayloadIsAmbiguous(t *testing.T) {
	out := Normalize(nil)
	if out.Status != StatusAmbiguous {
		t.Errorf("Expected StatusAmbiguous for nil payload, got %v", out.Status)
	}
	if out.Message == "" {
		t.Error("Expected non-empty message")
	}
}

func TestNormalize_SuggestedActionAppended(t *testing.T) {
	out := Normalize(payload(t, `{
		"code":"014",
		"suggested_action":"Fund the wallet and retry."
	}`))
	if out.Kind != KindInsufficientProviderFunds {
		t.Fatalf("Expected KindInsufficientProviderFunds, got %v", out.Kind)
	}
	if got := out.Message; got == "" || got == kindMessages[KindInsufficientProviderFunds] {
		t.Errorf("Expected suggested action appended to message, got %q", got)
	}
}
