package mock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/checkout-orchestrator/internal/adapter"
	"github.com/yourorg/checkout-orchestrator/internal/session"
)

// MockBridge is a mock implementation of the NativeBridge interface for tests
// and for running the server without the vendor's transaction routine.
type MockBridge struct {
	Name      string
	SetupFunc func(ctx context.Context, mode session.Mode) error
	StartFunc func(ctx context.Context, req adapter.TransactionRequest) (adapter.TransactionOutcome, error)
	// Latency simulates the time the shopper spends in the native UI.
	Latency time.Duration

	mu          sync.Mutex
	mode        session.Mode
	setupCalls  int
	startCalls  int
	lastRequest adapter.TransactionRequest
}

// NewMockBridge creates a new MockBridge.
func NewMockBridge(name string) *MockBridge {
	return &MockBridge{Name: name}
}

// SetupService implements the NativeBridge interface.
func (m *MockBridge) SetupService(ctx context.Context, mode session.Mode) error {
	m.mu.Lock()
	m.setupCalls++
	m.mode = mode
	m.mu.Unlock()

	if m.SetupFunc != nil {
		return m.SetupFunc(ctx, mode)
	}
	return nil
}

// StartPaymentTransaction implements the NativeBridge interface.
// It calls StartFunc if defined. Otherwise a card without a number is treated
// as the shopper backing out, and anything else completes.
func (m *MockBridge) StartPaymentTransaction(ctx context.Context, req adapter.TransactionRequest) (adapter.TransactionOutcome, error) {
	m.mu.Lock()
	m.startCalls++
	m.lastRequest = req
	m.mu.Unlock()

	if m.StartFunc != nil {
		return m.StartFunc(ctx, req)
	}

	if m.Latency > 0 {
		select {
		case <-time.After(m.Latency):
		case <-ctx.Done():
			return adapter.TransactionOutcome{}, ctx.Err()
		}
	}

	if req.Card.Number == "" {
		return adapter.Canceled(), nil
	}
	return adapter.Completed("mock_transaction:" + uuid.NewString()), nil
}

// GetName returns the bridge name.
func (m *MockBridge) GetName() string {
	return m.Name
}

// Mode returns the mode passed to the last SetupService call.
func (m *MockBridge) Mode() session.Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// SetupCalls returns how many times SetupService was called.
func (m *MockBridge) SetupCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setupCalls
}

// StartCalls returns how many times StartPaymentTransaction was called.
func (m *MockBridge) StartCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startCalls
}

// LastRequest returns the request of the most recent transaction.
func (m *MockBridge) LastRequest() adapter.TransactionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRequest
}
