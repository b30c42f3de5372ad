package orchestrator

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/yourorg/checkout-orchestrator/internal/gateway"
	"github.com/yourorg/checkout-orchestrator/internal/policy"
)

const (
	endpointCheckout = "checkout"
	endpointStatus   = "status"

	outcomeSuccess        = "success"
	outcomeGatewayError   = "gateway_error"
	outcomeTransportError = "transport_error"
	outcomeError          = "error"
)

// Metrics holds the orchestrator's prometheus collectors.
type Metrics struct {
	GatewayRequestsTotal   *prometheus.CounterVec
	GatewayRequestDuration *prometheus.HistogramVec
	PaymentsTotal          *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		GatewayRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "checkout",
			Name:      "gateway_requests_total",
			Help:      "Requests sent to the merchant backend, by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		GatewayRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "checkout",
			Name:      "gateway_request_duration_seconds",
			Help:      "Latency of merchant backend requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		PaymentsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "checkout",
			Name:      "payments_total",
			Help:      "Finished payment attempts by resulting status.",
		}, []string{"status"}),
	}
}

func (m *Metrics) observeRequest(endpoint string, latencyMs int64, err error) {
	m.GatewayRequestsTotal.WithLabelValues(endpoint, outcomeLabel(err)).Inc()
	m.GatewayRequestDuration.WithLabelValues(endpoint).Observe(float64(latencyMs) / 1000)
}

func (m *Metrics) observePayment(status policy.PaymentStatus) {
	m.PaymentsTotal.WithLabelValues(status.String()).Inc()
}

func outcomeLabel(err error) string {
	var te *gateway.TransportError
	var ge *gateway.GatewayError
	switch {
	case err == nil:
		return outcomeSuccess
	case errors.As(err, &te):
		return outcomeTransportError
	case errors.As(err, &ge):
		return outcomeGatewayError
	default:
		return outcomeError
	}
}
