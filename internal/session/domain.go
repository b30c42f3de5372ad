// Package session holds the state of the single active checkout: its
// settings, its gateway-assigned checkout ID, and the lifecycle rules that
// reset both between checkouts.
package session

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/yourorg/checkout-orchestrator/internal/gateway"
)

// Mode selects the gateway environment the native bridge talks to.
type Mode string

const (
	ModeTest Mode = "test"
	ModeLive Mode = "live"
)

// ParseMode accepts "test" and "live" in any case.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeTest, ModeLive:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", gateway.ErrInvalidMode, s)
}

// Brand is the card network or payment method of a checkout.
type Brand string

const (
	BrandVisa     Brand = "VISA"
	BrandMaster   Brand = "MASTER"
	BrandMada     Brand = "MADA"
	BrandApplePay Brand = "APPLEPAY"
	BrandSTCPay   Brand = "STC_PAY"
)

// Brands lists every supported brand.
var Brands = []Brand{BrandVisa, BrandMaster, BrandMada, BrandApplePay, BrandSTCPay}

// ParseBrand accepts brand names in any case.
func ParseBrand(s string) (Brand, error) {
	b := Brand(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Brands {
		if b == known {
			return b, nil
		}
	}
	return "", fmt.Errorf("%w: %q", gateway.ErrUnknownBrand, s)
}

// Config is established once per orchestrator and never changes afterwards.
type Config struct {
	Mode Mode
	// EntityIDs maps each brand to the merchant entity the gateway knows it by.
	// Visa and Mastercard usually share one entity.
	EntityIDs map[Brand]string
}

// EntityID returns the merchant entity identifier of brand.
func (c Config) EntityID(b Brand) (string, error) {
	id, ok := c.EntityIDs[b]
	if !ok || id == "" {
		return "", fmt.Errorf("%w: no entity ID configured for %q", gateway.ErrUnknownBrand, b)
	}
	return id, nil
}

// CheckoutSettings are the per-checkout inputs. A Session owns the settings it
// adopted and clears them in place when the session ends or is replaced.
type CheckoutSettings struct {
	Brand            Brand
	Amount           decimal.Decimal
	AdditionalParams map[string]string
	Headers          map[string]string
}

// FormattedAmount renders the amount with exactly two fraction digits.
func (s *CheckoutSettings) FormattedAmount() string {
	return s.Amount.StringFixed(2)
}

// Clear resets every field. Maps are emptied rather than replaced so callers
// still holding a reference observe the reset.
func (s *CheckoutSettings) Clear() {
	if s == nil {
		return
	}
	s.Brand = ""
	s.Amount = decimal.Zero
	for k := range s.AdditionalParams {
		delete(s.AdditionalParams, k)
	}
	for k := range s.Headers {
		delete(s.Headers, k)
	}
}

// CardInfo is handed verbatim to the native transaction routine. It is never
// sent to the merchant backend, and its formatted form masks every field.
type CardInfo struct {
	Holder      string
	Number      string
	ExpiryMonth string
	ExpiryYear  string
	CVV         string
}

func (c CardInfo) String() string {
	return "CardInfo{redacted}"
}

// GoString keeps %#v from printing card fields.
func (c CardInfo) GoString() string {
	return c.String()
}
