package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/yourorg/checkout-orchestrator/internal/adapter/mock"
	"github.com/yourorg/checkout-orchestrator/internal/config"
	"github.com/yourorg/checkout-orchestrator/internal/logging"
	"github.com/yourorg/checkout-orchestrator/internal/orchestrator"
)

const serviceName = "checkout-orchestrator"

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func setupRouter(orc *orchestrator.Orchestrator, logger logrus.FieldLogger, gatherer prometheus.Gatherer) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestID(), otelgin.Middleware(serviceName), logging.GinLogger(logger))

	h := &handlers{orc: orc, logger: logger}
	router.GET("/healthz", h.healthz)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	s := router.Group("/session")
	s.POST("", h.startSession)
	s.GET("", h.getSession)
	s.DELETE("", h.endSession)
	s.POST("/checkout-id", h.acquireCheckoutID)
	s.POST("/pay", h.pay)
	s.POST("/status", h.resolveStatus)
	return router
}

func newTracerProvider(stdout bool) (*sdktrace.TracerProvider, error) {
	if !stdout {
		return sdktrace.NewTracerProvider(), nil
	}
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	return sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter)), nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	cfg := config.Load()
	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}
	gin.SetMode(cfg.Server.GinMode)

	tp, err := newTracerProvider(cfg.Tracing.Stdout)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create tracer provider")
	}
	otel.SetTracerProvider(tp)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.WithError(err).Error("Failed to shut down tracer provider")
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// The vendor's transaction routine is not available server-side; the mock bridge stands in.
	bridge := mock.NewMockBridge("simulated-native")
	logger.WithField("bridge", bridge.GetName()).Info("Using simulated native bridge")
	orc := orchestrator.New(bridge,
		orchestrator.WithLogger(logger),
		orchestrator.WithMetrics(orchestrator.NewMetrics(registry)),
		orchestrator.WithTracerProvider(tp),
		orchestrator.WithHTTPClient(&http.Client{Timeout: cfg.Gateway.HTTPTimeout}),
	)

	sessionCfg, err := cfg.Gateway.SessionConfig()
	if err != nil {
		logger.WithError(err).Fatal("Invalid gateway configuration")
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := orc.Setup(ctx, cfg.Gateway.CheckoutEndpoint, cfg.Gateway.StatusEndpoint, sessionCfg); err != nil {
		logger.WithError(err).Fatal("Failed to set up orchestrator")
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: setupRouter(orc, logger, registry),
	}
	go func() {
		logger.WithField("addr", srv.Addr).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to run server")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
}
