// Package config loads the server's settings from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/yourorg/checkout-orchestrator/internal/session"
)

// Config holds all configuration for the server.
type Config struct {
	Server  ServerConfig
	Gateway GatewayConfig
	Log     LogConfig
	Tracing TracingConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port    string
	GinMode string // "debug", "release", or "test"
}

// GatewayConfig holds the merchant backend endpoints and gateway entity IDs.
type GatewayConfig struct {
	CheckoutEndpoint string
	StatusEndpoint   string
	Mode             string
	// EntityIDCreditCard serves both VISA and MASTER.
	EntityIDCreditCard string
	EntityIDMada       string
	EntityIDApplePay   string
	EntityIDSTCPay     string
	HTTPTimeout        time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type TracingConfig struct {
	Stdout bool
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			GinMode: getEnv("GIN_MODE", "debug"),
		},
		Gateway: GatewayConfig{
			CheckoutEndpoint:   getEnv("CHECKOUT_ENDPOINT", ""),
			StatusEndpoint:     getEnv("STATUS_ENDPOINT", ""),
			Mode:               getEnv("PAYMENT_MODE", string(session.ModeTest)),
			EntityIDCreditCard: getEnv("ENTITY_ID_CREDIT_CARD", ""),
			EntityIDMada:       getEnv("ENTITY_ID_MADA", ""),
			EntityIDApplePay:   getEnv("ENTITY_ID_APPLEPAY", ""),
			EntityIDSTCPay:     getEnv("ENTITY_ID_STC_PAY", ""),
			HTTPTimeout:        time.Duration(getEnvAsInt("HTTP_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Tracing: TracingConfig{
			Stdout: getEnvAsBool("TRACE_STDOUT", false),
		},
	}
}

// Validate checks that the required settings are present.
func (c *Config) Validate() error {
	var errs []error
	if c.Gateway.CheckoutEndpoint == "" {
		errs = append(errs, errors.New("CHECKOUT_ENDPOINT is required"))
	}
	if c.Gateway.StatusEndpoint == "" {
		errs = append(errs, errors.New("STATUS_ENDPOINT is required"))
	}
	if _, err := session.ParseMode(c.Gateway.Mode); err != nil {
		errs = append(errs, fmt.Errorf("PAYMENT_MODE: %w", err))
	}
	if len(c.Gateway.EntityIDs()) == 0 {
		errs = append(errs, errors.New("at least one ENTITY_ID_* is required"))
	}
	if c.Gateway.HTTPTimeout <= 0 {
		errs = append(errs, errors.New("HTTP_TIMEOUT_SECONDS must be positive"))
	}
	return errors.Join(errs...)
}

// EntityIDs maps each brand to its configured entity ID. Brands without one are omitted.
func (g GatewayConfig) EntityIDs() map[session.Brand]string {
	ids := map[session.Brand]string{}
	set := func(id string, brands ...session.Brand) {
		if id == "" {
			return
		}
		for _, b := range brands {
			ids[b] = id
		}
	}
	set(g.EntityIDCreditCard, session.BrandVisa, session.BrandMaster)
	set(g.EntityIDMada, session.BrandMada)
	set(g.EntityIDApplePay, session.BrandApplePay)
	set(g.EntityIDSTCPay, session.BrandSTCPay)
	return ids
}

// SessionConfig converts the gateway settings into the orchestrator's configuration.
func (g GatewayConfig) SessionConfig() (session.Config, error) {
	mode, err := session.ParseMode(g.Mode)
	if err != nil {
		return session.Config{}, err
	}
	return session.Config{Mode: mode, EntityIDs: g.EntityIDs()}, nil
}

// getEnv retrieves an environment variable with a fallback default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}
