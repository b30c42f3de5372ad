// Package merchant implements adapter.MerchantBackend over HTTP.
package merchant

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/checkout-orchestrator/internal/adapter"
	"github.com/yourorg/checkout-orchestrator/internal/gateway"
	"github.com/yourorg/checkout-orchestrator/internal/monitor"
)

const (
	defaultTimeout = 30 * time.Second
	// maxBodyBytes bounds how much of a response is read; gateway responses are small.
	maxBodyBytes = 1 << 20

	RequestIDHeader = "X-Request-ID"
)

// MerchantAdapter posts form-encoded requests to the merchant backend's
// checkout and status endpoints. It never retries.
type MerchantAdapter struct {
	httpClient       *http.Client
	checkoutURL      string
	statusURL        string
	checkoutContract *monitor.ContractMonitor
	statusContract   *monitor.ContractMonitor
}

// NewMerchantAdapter creates a MerchantAdapter for the given endpoints.
func NewMerchantAdapter(client *http.Client, checkoutURL, statusURL string) *MerchantAdapter {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &MerchantAdapter{
		httpClient:       client,
		checkoutURL:      checkoutURL,
		statusURL:        statusURL,
		checkoutContract: monitor.NewCheckoutResponseMonitor(),
		statusContract:   monitor.NewStatusResponseMonitor(),
	}
}

// buildCheckoutForm merges the additional parameters first so the required
// fields win on key collision.
func buildCheckoutForm(req adapter.CheckoutRequest) url.Values {
	form := url.Values{}
	for k, v := range req.AdditionalParams {
		form.Set(k, v)
	}
	form.Set("entityID", req.EntityID)
	form.Set("amount", req.Amount)
	return form
}

func buildStatusForm(req adapter.StatusRequest) url.Values {
	form := url.Values{}
	form.Set("entityID", req.EntityID)
	form.Set("checkoutID", req.CheckoutID)
	return form
}

// RequestCheckoutID posts the checkout parameters and returns the decoded response.
func (m *MerchantAdapter) RequestCheckoutID(ctx context.Context, req adapter.CheckoutRequest) (adapter.Exchange, error) {
	return m.post(ctx, m.checkoutURL, buildCheckoutForm(req), req.Headers, m.checkoutContract)
}

// RequestStatus posts the checkout ID and returns the decoded status response.
func (m *MerchantAdapter) RequestStatus(ctx context.Context, req adapter.StatusRequest) (adapter.Exchange, error) {
	return m.post(ctx, m.statusURL, buildStatusForm(req), req.Headers, m.statusContract)
}

func (m *MerchantAdapter) post(
	ctx context.Context,
	endpoint string,
	form url.Values,
	headers map[string]string,
	contract *monitor.ContractMonitor,
) (adapter.Exchange, error) {
	startTime := time.Now()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return adapter.Exchange{}, &gateway.TransportError{Err: fmt.Errorf("merchant: failed to create http request: %w", err)}
	}
	// Caller headers go first so the protocol headers below cannot be overridden.
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(RequestIDHeader, uuid.NewString())

	resp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return adapter.Exchange{LatencyMs: time.Since(startTime).Milliseconds()},
			&gateway.TransportError{Err: fmt.Errorf("merchant: http client error: %w", err)}
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	exchange := adapter.Exchange{
		HTTPStatus:  resp.StatusCode,
		LatencyMs:   time.Since(startTime).Milliseconds(),
		RawResponse: body,
	}
	if readErr != nil {
		return exchange, &gateway.TransportError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("merchant: failed to read response body: %w", readErr),
		}
	}

	if !adapter.IsSuccessStatus(resp.StatusCode) {
		return exchange, &gateway.TransportError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	valid, violations, err := contract.Validate(body)
	if err != nil {
		return exchange, &gateway.TransportError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
			Err:        fmt.Errorf("%w: %v", gateway.ErrMalformedResponse, err),
		}
	}
	if !valid {
		return exchange, &gateway.TransportError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
			Err:        fmt.Errorf("%w: %s", gateway.ErrMalformedResponse, monitor.FormatErrors(violations)),
		}
	}

	result, err := gateway.Decode(body)
	if err != nil {
		return exchange, &gateway.TransportError{StatusCode: resp.StatusCode, Body: string(body), Err: err}
	}
	exchange.Result = result
	return exchange, nil
}
