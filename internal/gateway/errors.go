package gateway

import (
	"errors"
	"fmt"
)

// Lifecycle and decoding errors.
var (
	// ErrNotConfigured is returned by every session operation before Setup succeeded.
	ErrNotConfigured = errors.New("checkout orchestrator is not configured")

	// ErrAlreadyConfigured is returned when Setup is called a second time.
	ErrAlreadyConfigured = errors.New("checkout orchestrator is already configured")

	// ErrInvalidEndpoint is returned when an endpoint is not an absolute URI.
	ErrInvalidEndpoint = errors.New("endpoint must be an absolute URI")

	// ErrInvalidMode is returned for payment modes other than test and live.
	ErrInvalidMode = errors.New("invalid payment mode")

	// ErrNoActiveSession is returned when an operation needs checkout settings and none were adopted.
	ErrNoActiveSession = errors.New("no active checkout session")

	// ErrNoCheckoutID is returned by Pay before a checkout ID was acquired.
	ErrNoCheckoutID = errors.New("no checkout ID for the active session")

	// ErrUnknownBrand is returned when a brand has no entity ID configured.
	ErrUnknownBrand = errors.New("unknown payment brand")

	// ErrMalformedResponse is wrapped when a 2xx body does not match the response contract.
	ErrMalformedResponse = errors.New("malformed gateway response")
)

// TransportError reports a failed HTTP exchange with the merchant backend:
// a network failure (StatusCode 0), a non-2xx status, or an unusable body.
type TransportError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode == 0 && e.Err != nil:
		return fmt.Sprintf("transport error: %v", e.Err)
	case e.Err != nil:
		return fmt.Sprintf("transport error: HTTP %d: %v", e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("transport error: HTTP %d: %s", e.StatusCode, e.Body)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// GatewayError is a decoded gateway failure. Details holds the formatted
// parameter errors for validation failures and is empty otherwise.
type GatewayError struct {
	Code        string
	Description string
	Details     string
}

func (e *GatewayError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("gateway error %s: %s: %s", e.Code, e.Description, e.Details)
	}
	return fmt.Sprintf("gateway error %s: %s", e.Code, e.Description)
}

// IsValidation reports whether the gateway rejected the request parameters.
func (e *GatewayError) IsValidation() bool {
	return e.Code == CodeInvalidParameters
}

// NewGatewayError builds the error for a non-success checkout response.
func NewGatewayError(res Result) *GatewayError {
	ge := &GatewayError{Code: res.Code, Description: res.Description}
	if res.Code == CodeInvalidParameters {
		ge.Details = FormatParameterErrors(res.ParameterErrors)
	}
	return ge
}

// PaymentRejected is returned when a completed transaction resolves to a rejected status.
type PaymentRejected struct {
	Code        string
	Description string
}

func (e *PaymentRejected) Error() string {
	return fmt.Sprintf("payment rejected %s: %s", e.Code, e.Description)
}
