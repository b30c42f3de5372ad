// Package adapter defines the collaborators the checkout orchestrator drives:
// the merchant backend that mints checkout IDs and reports payment status, and
// the gateway-owned native transaction routine that collects card data and
// executes the charge.
// Implementations live in subpackages: merchant (HTTP) and mock (tests, demos).
package adapter

import (
	"context"
	"net/http"

	"github.com/yourorg/checkout-orchestrator/internal/gateway"
	"github.com/yourorg/checkout-orchestrator/internal/session"
)

// CheckoutRequest carries the fields posted to the checkout endpoint.
type CheckoutRequest struct {
	EntityID         string
	Amount           string // already formatted with two fraction digits
	AdditionalParams map[string]string
	Headers          map[string]string
}

// StatusRequest carries the fields posted to the status endpoint.
type StatusRequest struct {
	EntityID   string
	CheckoutID string
	Headers    map[string]string
}

// Exchange is a completed HTTP exchange with the merchant backend whose body
// satisfied the response contract.
type Exchange struct {
	HTTPStatus  int
	LatencyMs   int64
	RawResponse []byte
	Result      gateway.Result
}

// MerchantBackend talks to the merchant's checkout and status endpoints.
// Failures of the exchange itself are reported as *gateway.TransportError;
// interpreting the decoded result code is left to the caller.
type MerchantBackend interface {
	RequestCheckoutID(ctx context.Context, req CheckoutRequest) (Exchange, error)
	RequestStatus(ctx context.Context, req StatusRequest) (Exchange, error)
}

// OutcomeKind tags how the native transaction routine finished.
type OutcomeKind int

const (
	// OutcomeCompleted means the routine ran the transaction; its result must be
	// fetched from the merchant backend.
	OutcomeCompleted OutcomeKind = iota
	// OutcomeCanceled means the shopper or the routine aborted before charging.
	OutcomeCanceled
)

func (k OutcomeKind) String() string {
	if k == OutcomeCanceled {
		return "canceled"
	}
	return "completed"
}

// TransactionOutcome is the non-error result of a native transaction.
type TransactionOutcome struct {
	Kind OutcomeKind
	// Detail is whatever the routine reported alongside completion, for logging.
	Detail string
}

// Completed and Canceled build the two outcome variants.
func Completed(detail string) TransactionOutcome {
	return TransactionOutcome{Kind: OutcomeCompleted, Detail: detail}
}

func Canceled() TransactionOutcome {
	return TransactionOutcome{Kind: OutcomeCanceled}
}

// TransactionRequest is handed to the native routine as-is.
type TransactionRequest struct {
	CheckoutID string
	Brand      session.Brand
	Card       session.CardInfo
}

// NativeBridge is the gateway-supplied transaction routine.
// The orchestrator holds its lock while a transaction runs, so implementations
// must not call back into the orchestrator from StartPaymentTransaction or any
// callback it drives; doing so deadlocks.
type NativeBridge interface {
	// SetupService tells the routine which gateway environment to use.
	SetupService(ctx context.Context, mode session.Mode) error
	// StartPaymentTransaction runs one transaction for the given checkout.
	StartPaymentTransaction(ctx context.Context, req TransactionRequest) (TransactionOutcome, error)
}

// IsSuccessStatus reports whether an HTTP status is 2xx.
func IsSuccessStatus(code int) bool {
	return code >= http.StatusOK && code < http.StatusMultipleChoices
}
