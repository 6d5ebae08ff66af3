// Package domain contains the core business entities and interfaces for the donation service.
package domain

import "context"

// Gateway defines the payment-gateway operations the orchestrator needs.
// This is a "port" in hexagonal architecture - the domain defines what it
// needs, and the platform adapter provides the implementation.
//
// A non-nil error always wraps ErrGatewayUnavailable (transport failure).
// Business-level declines come back as a result with IsSuccess false.
type Gateway interface {
	// CreateCustomer creates a customer record and vaults the payment method
	// authorized by the request's nonce. The result's Customer carries the
	// vaulted payment-method tokens.
	CreateCustomer(ctx context.Context, req CustomerRequest) (*GatewayResult, error)

	// CreateTransaction runs a one-time charge, optionally submitting it for
	// settlement immediately.
	CreateTransaction(ctx context.Context, req TransactionRequest) (*GatewayResult, error)

	// CreateSubscription starts a recurring billing agreement on a vaulted
	// payment method.
	CreateSubscription(ctx context.Context, req SubscriptionRequest) (*GatewayResult, error)
}

// TaskQueue defines fire-and-forget delivery of background jobs to workers.
type TaskQueue interface {
	// Enqueue pushes a job for the named handler. Delivery is at-most-once;
	// callers treat enqueue failures as best-effort.
	Enqueue(ctx context.Context, handler string, payload any) error
}

// PageStore looks up the content pages donations originate from.
type PageStore interface {
	// LookupLive returns the page only if it exists and is live, and
	// ErrPageNotFound otherwise.
	LookupLive(ctx context.Context, id int64) (*Page, error)
}
