package purchase

import (
	"context"
	"fmt"
	"testing"
)

func TestNormalizeBalance(t *testing.T) {
	cases := []struct {
		name string
		raw  map[string]interface{}
		want float64
	}{
		{"nested", map[string]interface{}{"data": map[string]interface{}{"balance": 1234.5}}, 1234.5},
		{"direct", map[string]interface{}{"balance": 99.0}, 99},
		{"quoted", map[string]interface{}{"balance": "10250.75"}, 10250.75},
		{"nested quoted", map[string]interface{}{"data": map[string]interface{}{"balance": "7"}}, 7},
		{"garbage string", map[string]interface{}{"balance": "not a number"}, 0},
		{"missing", map[string]interface{}{"something": "else"}, 0},
		{"nil", nil, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeBalance(tc.raw); got != tc.want {
				t.Errorf("Expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestNormalizeBalance_NestedWinsOverDirect(t *testing.T) {
	raw := map[string]interface{}{
		"data":    map[string]interface{}{"balance": 50.0},
		"balance": 99.0,
	}
	if got := NormalizeBalance(raw); got != 50 {
		t.Errorf("Expected the nested balance preferred, got %v", got)
	}
}

func TestReconciler_SwallowsFetchErrors(t *testing.T) {
	r := NewReconciler(func(ctx context.Context) (float64, error) {
		return 0, fmt.Errorf("backend down")
	})

	notified := false
	r.Subscribe(func(balance float64) {
		notified = true
	})

	// Must not panic and must not notify subscribers on failure
	r.Reconcile(context.Background())
	if notified {
		t.Error("Subscribers must not fire on a failed refresh")
	}
}

func TestReconciler_NotifiesSubscribers(t *testing.T) {
	r := NewReconciler(func(ctx context.Context) (float64, error) {
		return 321.5, nil
	})

	var got []float64
	r.Subscribe(func(balance float64) {
		got = append(got, balance)
	})

	r.Reconcile(context.Background())
	r.Reconcile(context.Background())
	if len(got) != 2 || got[0] != 321.5 {
		t.Errorf("Expected two refreshes of 321.5, got %v", got)
	}
}

func TestReconciler_NilSafe(t *testing.T) {
	var r *Reconciler
	// The orchestrator calls Reconcile unconditionally
	r.Reconcile(context.Background())
}
