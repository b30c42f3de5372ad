package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/checkout-orchestrator/internal/adapter/mock"
	"github.com/yourorg/checkout-orchestrator/internal/gateway"
	"github.com/yourorg/checkout-orchestrator/internal/orchestrator"
	"github.com/yourorg/checkout-orchestrator/internal/session"
)

type testServer struct {
	router *gin.Engine
	orc    *orchestrator.Orchestrator

	mu           sync.Mutex
	checkoutBody string
	statusBody   string
	statusCode   int
}

func (ts *testServer) respond(statusCode int, checkoutBody, statusBody string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if statusCode != 0 {
		ts.statusCode = statusCode
	}
	if checkoutBody != "" {
		ts.checkoutBody = checkoutBody
	}
	if statusBody != "" {
		ts.statusBody = statusBody
	}
}

// setupTestRouter wires the router to an in-memory merchant backend.
func setupTestRouter(t *testing.T, configure bool) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ts := &testServer{
		checkoutBody: `{"id":"8ac7a4c7","result":{"code":"000.200.100","description":"successfully created checkout"}}`,
		statusBody:   `{"result":{"code":"000.100.110","description":"Request successfully processed"}}`,
		statusCode:   http.StatusOK,
	}
	merchant := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.mu.Lock()
		defer ts.mu.Unlock()
		w.WriteHeader(ts.statusCode)
		if strings.HasSuffix(r.URL.Path, "/checkout") {
			fmt.Fprint(w, ts.checkoutBody)
			return
		}
		fmt.Fprint(w, ts.statusBody)
	}))
	t.Cleanup(merchant.Close)

	logger, _ := test.NewNullLogger()
	registry := prometheus.NewRegistry()
	ts.orc = orchestrator.New(mock.NewMockBridge("test-bridge"),
		orchestrator.WithLogger(logger),
		orchestrator.WithMetrics(orchestrator.NewMetrics(registry)),
		orchestrator.WithHTTPClient(merchant.Client()),
	)
	if configure {
		require.NoError(t, ts.orc.Setup(context.Background(), merchant.URL+"/checkout", merchant.URL+"/status", session.Config{
			Mode:      session.ModeTest,
			EntityIDs: map[session.Brand]string{session.BrandVisa: "entity-visa"},
		}))
	}
	ts.router = setupRouter(ts.orc, logger, registry)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err, "Failed to create request")
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) gin.H {
	t.Helper()
	var body gin.H
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), "Failed to unmarshal response body")
	return body
}

func startVisaSession(t *testing.T, ts *testServer) {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/session", gin.H{"brand": "VISA", "amount": "10.5"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestFullFlow(t *testing.T) {
	ts := setupTestRouter(t, true)

	w := ts.do(t, http.MethodPost, "/session", gin.H{"brand": "visa", "amount": 10.5, "additionalParams": gin.H{"merchantTransactionId": "o-1"}})
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "session_active", body["state"])
	assert.Equal(t, "VISA", body["brand"])
	assert.Equal(t, "", body["checkoutId"])

	w = ts.do(t, http.MethodPost, "/session/checkout-id", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "8ac7a4c7", decodeBody(t, w)["checkoutId"])

	w = ts.do(t, http.MethodPost, "/session/pay", gin.H{"holder": "Jane Roe", "number": "4200000000000000", "expiryMonth": "12", "expiryYear": "2030", "cvv": "123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body = decodeBody(t, w)
	assert.Equal(t, "successful", body["status"])
	assert.Equal(t, true, body["terminal"])

	w = ts.do(t, http.MethodPost, "/session/status", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body = decodeBody(t, w)
	assert.Equal(t, "8ac7a4c7", body["checkoutId"])
	assert.Equal(t, "000.100.110", body["code"])
	assert.Equal(t, "successful", body["status"])
	assert.Equal(t, true, body["terminal"])

	w = ts.do(t, http.MethodGet, "/session", nil)
	assert.Equal(t, "checkout_id_obtained", decodeBody(t, w)["state"])

	w = ts.do(t, http.MethodDelete, "/session", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "configured", decodeBody(t, ts.do(t, http.MethodGet, "/session", nil))["state"])
}

func TestStartSession_InvalidRequests(t *testing.T) {
	ts := setupTestRouter(t, true)

	cases := []struct {
		name    string
		body    interface{}
		message string
	}{
		{"NotJSON", "this is not json", "Invalid request format"},
		{"MissingBrand", gin.H{"amount": "1"}, "Invalid request format"},
		{"UnknownBrand", gin.H{"brand": "AMEX", "amount": "1"}, "Validation failed"},
		{"ZeroAmount", gin.H{"brand": "VISA", "amount": "0"}, "Amount must be positive"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, "/session", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decodeBody(t, w)["error"], tc.message)
		})
	}
}

func TestErrorMapping_Conflict(t *testing.T) {
	ts := setupTestRouter(t, false)
	startVisaSession(t, ts)

	w := ts.do(t, http.MethodPost, "/session/checkout-id", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], gateway.ErrNotConfigured.Error())

	ts = setupTestRouter(t, true)
	startVisaSession(t, ts)
	w = ts.do(t, http.MethodPost, "/session/pay", gin.H{"number": "4200000000000000"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestErrorMapping_GatewayErrors(t *testing.T) {
	ts := setupTestRouter(t, true)
	startVisaSession(t, ts)

	ts.respond(0, `{"result":{"code":"200.300.404","description":"invalid or missing parameter","parameterErrors":[{"name":"amount","value":"x","message":"bad"}]}}`, "")
	w := ts.do(t, http.MethodPost, "/session/checkout-id", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "(param: amount, value: x)", decodeBody(t, w)["details"])

	ts.respond(0, `{"result":{"code":"200.300.404","description":"invalid or missing parameter","parameterErrors":[{"value":"x"}]}}`, "")
	w = ts.do(t, http.MethodPost, "/session/checkout-id", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "200.300.404", decodeBody(t, w)["code"])

	ts.respond(0, `{"result":{"code":"800.900.300","description":"invalid authentication information"}}`, "")
	w = ts.do(t, http.MethodPost, "/session/checkout-id", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "800.900.300", decodeBody(t, w)["code"])

	ts.respond(http.StatusInternalServerError, "", "")
	w = ts.do(t, http.MethodPost, "/session/checkout-id", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, float64(http.StatusInternalServerError), decodeBody(t, w)["upstreamStatus"])
}

func TestErrorMapping_PaymentRejected(t *testing.T) {
	ts := setupTestRouter(t, true)
	startVisaSession(t, ts)
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/session/checkout-id", nil).Code)

	ts.respond(0, "", `{"result":{"code":"800.100.151","description":"transaction declined (invalid card)"}}`)
	w := ts.do(t, http.MethodPost, "/session/pay", gin.H{"number": "4000000000000002"})
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "rejected", body["status"])
	assert.Equal(t, "800.100.151", body["code"])
	assert.NotContains(t, w.Body.String(), "4000000000000002")
}

func TestPay_CanceledReturnsInit(t *testing.T) {
	ts := setupTestRouter(t, true)
	startVisaSession(t, ts)
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/session/checkout-id", nil).Code)

	w := ts.do(t, http.MethodPost, "/session/pay", gin.H{})
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "init", body["status"])
	assert.Equal(t, false, body["terminal"])
	assert.Equal(t, "8ac7a4c7", decodeBody(t, ts.do(t, http.MethodGet, "/session", nil))["checkoutId"])
}

func TestWriteError_Default(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	writeError(c, errors.New("unexpected"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHealthzAndMetrics(t *testing.T) {
	ts := setupTestRouter(t, true)

	w := ts.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "configured", decodeBody(t, w)["session"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	startVisaSession(t, ts)
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/session/checkout-id", nil).Code)

	w = ts.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `checkout_gateway_requests_total{endpoint="checkout",outcome="success"} 1`)
}
