// Package purchase resolves the outcome of wallet-funded bill purchases made
// through a third-party aggregator, and drives their bounded, idempotent
// retry protocol.
//
// The aggregator reports success, pending and failure in several mutually
// inconsistent shapes. This package normalizes any of them into one canonical
// Outcome, folds provider error codes into a stable user-presentable
// taxonomy, mints a fresh idempotency key per attempt so retries can never
// double-charge, and reconciles the wallet balance exactly once per terminal
// outcome.
//
// The Orchestrator is the only surface applications call:
//
//	client := aggregator.NewClient(&aggregator.Config{URL: url})
//	o := purchase.New(client.Purchase,
//		purchase.WithReconciler(purchase.NewReconciler(client.WalletBalance)),
//		purchase.WithStatusLookup(client.TransactionStatus),
//	)
//	session, outcome, err := o.Submit(ctx, req)
//
// Callers only ever see an Outcome and a display message; raw provider
// payloads never leave this package.
package purchase
