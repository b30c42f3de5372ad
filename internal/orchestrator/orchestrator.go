// Package orchestrator drives one checkout at a time through the payment
// gateway: it owns the session slot, obtains checkout IDs from the merchant
// backend, hands them to the native transaction routine and resolves the
// resulting payment status.
//
// All exported operations are serialized. An InitSession issued while a Pay
// is in flight waits for it and then replaces the session.
package orchestrator

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yourorg/checkout-orchestrator/internal/adapter"
	"github.com/yourorg/checkout-orchestrator/internal/adapter/merchant"
	"github.com/yourorg/checkout-orchestrator/internal/gateway"
	"github.com/yourorg/checkout-orchestrator/internal/policy"
	"github.com/yourorg/checkout-orchestrator/internal/session"
)

const (
	opSetup             = "setup"
	opInitSession       = "init_session"
	opEndSession        = "end_session"
	opAcquireCheckoutID = "acquire_checkout_id"
	opPay               = "pay"
	opResolveStatus     = "resolve_status"

	tracerName = "orchestrator"
)

// BackendFactory builds the merchant backend once the endpoints are known.
type BackendFactory func(checkoutURL, statusURL string) adapter.MerchantBackend

// Option configures an Orchestrator.
type Option func(*Orchestrator)

func WithLogger(l logrus.FieldLogger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

func WithClassifier(c *policy.Classifier) Option {
	return func(o *Orchestrator) { o.classifier = c }
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *Orchestrator) { o.tracer = tp.Tracer(tracerName) }
}

// WithHTTPClient makes Setup build an HTTP merchant adapter using client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *Orchestrator) {
		o.newBackend = func(checkoutURL, statusURL string) adapter.MerchantBackend {
			return merchant.NewMerchantAdapter(client, checkoutURL, statusURL)
		}
	}
}

// WithBackendFactory replaces the merchant backend Setup builds.
func WithBackendFactory(f BackendFactory) Option {
	return func(o *Orchestrator) { o.newBackend = f }
}

// Orchestrator owns exactly one checkout session.
type Orchestrator struct {
	mu         sync.Mutex
	session    *session.Session
	bridge     adapter.NativeBridge
	backend    adapter.MerchantBackend
	newBackend BackendFactory
	classifier *policy.Classifier
	logger     logrus.FieldLogger
	metrics    *Metrics
	tracer     trace.Tracer
}

// New creates an unconfigured Orchestrator driving bridge.
func New(bridge adapter.NativeBridge, opts ...Option) *Orchestrator {
	if bridge == nil {
		panic("NativeBridge cannot be nil")
	}
	o := &Orchestrator{
		session: session.New(),
		bridge:  bridge,
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.newBackend == nil {
		WithHTTPClient(nil)(o)
	}
	if o.classifier == nil {
		o.classifier = policy.NewDefaultClassifier()
	}
	if o.logger == nil {
		o.logger = logrus.StandardLogger()
	}
	if o.metrics == nil {
		o.metrics = NewMetrics(nil)
	}
	return o
}

// fail records err on the span and logs it under the operation's entry.
func fail(span trace.Span, entry logrus.FieldLogger, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	entry.WithError(err).Error("operation failed")
	return err
}

func validateEndpoint(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%w: %q", gateway.ErrInvalidEndpoint, raw)
	}
	return nil
}

// Setup establishes the configuration and initializes the native routine.
// It succeeds at most once.
func (o *Orchestrator) Setup(ctx context.Context, checkoutEndpoint, statusEndpoint string, cfg session.Config) error {
	ctx, span := o.tracer.Start(ctx, "Orchestrator.Setup")
	defer span.End()
	entry := o.logger.WithField("operation", opSetup)

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session.State() != session.Unconfigured {
		return fail(span, entry, gateway.ErrAlreadyConfigured)
	}
	for _, ep := range []string{checkoutEndpoint, statusEndpoint} {
		if err := validateEndpoint(ep); err != nil {
			return fail(span, entry, err)
		}
	}
	mode, err := session.ParseMode(string(cfg.Mode))
	if err != nil {
		return fail(span, entry, err)
	}
	span.SetAttributes(attribute.String("checkout.mode", string(mode)))

	if err := o.bridge.SetupService(ctx, mode); err != nil {
		return fail(span, entry, fmt.Errorf("native setup service: %w", err))
	}

	entityIDs := make(map[session.Brand]string, len(cfg.EntityIDs))
	for b, id := range cfg.EntityIDs {
		entityIDs[b] = id
	}
	if err := o.session.Configure(session.Config{Mode: mode, EntityIDs: entityIDs}); err != nil {
		return fail(span, entry, err)
	}
	o.backend = o.newBackend(checkoutEndpoint, statusEndpoint)

	entry.WithFields(logrus.Fields{
		"mode":              mode,
		"checkout_endpoint": checkoutEndpoint,
		"status_endpoint":   statusEndpoint,
	}).Info("orchestrator configured")
	return nil
}

// InitSession replaces the current session with one using settings. The
// previous settings are cleared and the checkout ID reset first. It never
// fails; operations needing configuration report ErrNotConfigured later.
func (o *Orchestrator) InitSession(settings *session.CheckoutSettings) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.session.Init(settings)

	entry := o.logger.WithFields(logrus.Fields{"operation": opInitSession, "state": o.session.State()})
	if settings != nil {
		entry = entry.WithFields(logrus.Fields{"brand": settings.Brand, "amount": settings.FormattedAmount()})
	}
	entry.Debug("session initialized")
}

// EndSession clears the active session, if any.
func (o *Orchestrator) EndSession() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.session.End()
	o.logger.WithFields(logrus.Fields{"operation": opEndSession, "state": o.session.State()}).Debug("session ended")
}

// Snapshot returns a copy of the observable session state.
func (o *Orchestrator) Snapshot() session.Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session.Snapshot()
}

// Classify maps a result code to a payment status.
func (o *Orchestrator) Classify(code string) policy.PaymentStatus {
	return o.classifier.Classify(code)
}

// AcquireCheckoutID asks the merchant backend for a checkout ID for the
// active session and stores it in the session.
func (o *Orchestrator) AcquireCheckoutID(ctx context.Context) (string, error) {
	ctx, span := o.tracer.Start(ctx, "Orchestrator.AcquireCheckoutID")
	defer span.End()
	entry := o.logger.WithField("operation", opAcquireCheckoutID)

	o.mu.Lock()
	defer o.mu.Unlock()

	entityID, err := o.session.EntityID()
	if err != nil {
		return "", fail(span, entry, err)
	}
	settings := o.session.Settings()
	req := adapter.CheckoutRequest{
		EntityID:         entityID,
		Amount:           settings.FormattedAmount(),
		AdditionalParams: settings.AdditionalParams,
		Headers:          settings.Headers,
	}
	entry = entry.WithFields(logrus.Fields{"brand": settings.Brand, "amount": req.Amount})

	ex, err := o.backend.RequestCheckoutID(ctx, req)
	if err == nil && ex.Result.Code != gateway.CodeCheckoutCreated {
		err = gateway.NewGatewayError(ex.Result)
	}
	o.metrics.observeRequest(endpointCheckout, ex.LatencyMs, err)
	if err != nil {
		return "", fail(span, entry.WithField("http_status", ex.HTTPStatus), err)
	}

	if err := o.session.SetCheckoutID(ex.Result.ID); err != nil {
		return "", fail(span, entry, &gateway.TransportError{
			StatusCode: ex.HTTPStatus,
			Body:       string(ex.RawResponse),
			Err:        err,
		})
	}

	span.SetAttributes(attribute.String("checkout.id", ex.Result.ID))
	entry.WithFields(logrus.Fields{
		"checkout_id": ex.Result.ID,
		"code":        ex.Result.Code,
		"description": ex.Result.Description,
	}).Info("checkout ID obtained")
	return ex.Result.ID, nil
}

// Pay runs the native transaction for the current checkout ID with card and,
// when the routine completes, resolves and classifies the payment status.
// A canceled transaction reports StatusInit and leaves the session usable.
// A rejected payment returns StatusRejected together with *gateway.PaymentRejected.
func (o *Orchestrator) Pay(ctx context.Context, card session.CardInfo) (policy.PaymentStatus, error) {
	ctx, span := o.tracer.Start(ctx, "Orchestrator.Pay")
	defer span.End()
	entry := o.logger.WithField("operation", opPay)

	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.session.Require(session.CheckoutIDObtained); err != nil {
		return "", fail(span, entry, err)
	}
	checkoutID := o.session.CheckoutID()
	brand := o.session.Settings().Brand
	span.SetAttributes(attribute.String("checkout.id", checkoutID), attribute.String("checkout.brand", string(brand)))
	entry = entry.WithFields(logrus.Fields{"checkout_id": checkoutID, "brand": brand})

	outcome, err := o.bridge.StartPaymentTransaction(ctx, adapter.TransactionRequest{
		CheckoutID: checkoutID,
		Brand:      brand,
		Card:       card,
	})
	if err != nil {
		return "", fail(span, entry, fmt.Errorf("native payment transaction: %w", err))
	}

	if outcome.Kind == adapter.OutcomeCanceled {
		o.metrics.observePayment(policy.StatusInit)
		entry.Info("payment transaction canceled")
		return policy.StatusInit, nil
	}
	entry.WithField("detail", outcome.Detail).Debug("payment transaction completed")

	res, err := o.resolveStatus(ctx, entry, checkoutID)
	if err != nil {
		return "", fail(span, entry, err)
	}

	status := o.classifier.Classify(res.Code)
	o.metrics.observePayment(status)
	span.SetAttributes(attribute.String("payment.status", status.String()))
	entry = entry.WithFields(logrus.Fields{"code": res.Code, "status": status})

	if status == policy.StatusRejected {
		return status, fail(span, entry, &gateway.PaymentRejected{Code: res.Code, Description: res.Description})
	}
	entry.Info("payment resolved")
	return status, nil
}

// ResolveStatus fetches the result of checkoutID from the merchant backend
// and returns it verbatim. It does not modify the session.
func (o *Orchestrator) ResolveStatus(ctx context.Context, checkoutID string) (gateway.Result, error) {
	ctx, span := o.tracer.Start(ctx, "Orchestrator.ResolveStatus")
	defer span.End()
	entry := o.logger.WithFields(logrus.Fields{"operation": opResolveStatus, "checkout_id": checkoutID})

	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.session.Require(session.SessionActive); err != nil {
		return gateway.Result{}, fail(span, entry, err)
	}
	if checkoutID == "" {
		return gateway.Result{}, fail(span, entry, gateway.ErrNoCheckoutID)
	}
	res, err := o.resolveStatus(ctx, entry, checkoutID)
	if err != nil {
		return gateway.Result{}, fail(span, entry, err)
	}
	return res, nil
}

// resolveStatus must be called with o.mu held and an active session.
func (o *Orchestrator) resolveStatus(ctx context.Context, entry logrus.FieldLogger, checkoutID string) (gateway.Result, error) {
	entityID, err := o.session.EntityID()
	if err != nil {
		return gateway.Result{}, err
	}

	ex, err := o.backend.RequestStatus(ctx, adapter.StatusRequest{
		EntityID:   entityID,
		CheckoutID: checkoutID,
		Headers:    o.session.Settings().Headers,
	})
	o.metrics.observeRequest(endpointStatus, ex.LatencyMs, err)
	if err != nil {
		return gateway.Result{}, err
	}

	entry.WithFields(logrus.Fields{
		"code":        ex.Result.Code,
		"description": ex.Result.Description,
	}).Info("payment status received")
	return ex.Result, nil
}
