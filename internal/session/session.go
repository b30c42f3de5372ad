package session

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/yourorg/checkout-orchestrator/internal/gateway"
)

// State is the lifecycle position of a Session. States are ordered: each one
// implies the ones before it.
type State int

const (
	Unconfigured State = iota
	Configured
	SessionActive
	CheckoutIDObtained
)

func (s State) String() string {
	switch s {
	case Unconfigured:
		return "unconfigured"
	case Configured:
		return "configured"
	case SessionActive:
		return "session_active"
	case CheckoutIDObtained:
		return "checkout_id_obtained"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Session is the single checkout slot of an orchestrator. It is not safe for
// concurrent use; the orchestrator serializes access.
type Session struct {
	config     *Config
	settings   *CheckoutSettings
	checkoutID string
	state      State
}

// New returns an unconfigured session.
func New() *Session {
	return &Session{state: Unconfigured}
}

// Configure establishes the configuration. It can succeed only once.
func (s *Session) Configure(cfg Config) error {
	if s.config != nil {
		return gateway.ErrAlreadyConfigured
	}
	if _, err := ParseMode(string(cfg.Mode)); err != nil {
		return err
	}
	s.config = &cfg
	s.state = s.settledState()
	return nil
}

// Config returns the established configuration.
func (s *Session) Config() (Config, bool) {
	if s.config == nil {
		return Config{}, false
	}
	return *s.config, true
}

// Init replaces the current session with one using settings. The previous
// settings are cleared and the checkout ID reset before settings is adopted.
// Passing the settings already owned keeps them intact and only resets the
// checkout ID. A nil settings ends the session.
func (s *Session) Init(settings *CheckoutSettings) {
	if s.settings != settings {
		s.settings.Clear()
	}
	s.checkoutID = ""
	s.settings = settings
	s.state = s.settledState()
}

// End clears the active settings and checkout ID.
func (s *Session) End() {
	s.settings.Clear()
	s.settings = nil
	s.checkoutID = ""
	s.state = s.settledState()
}

// settledState derives the state from what the session holds.
func (s *Session) settledState() State {
	switch {
	case s.config == nil:
		return Unconfigured
	case s.settings == nil:
		return Configured
	case s.checkoutID != "":
		return CheckoutIDObtained
	default:
		return SessionActive
	}
}

// SetCheckoutID records the identifier minted for the active session.
func (s *Session) SetCheckoutID(id string) error {
	if err := s.Require(SessionActive); err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("%w: empty checkout ID", gateway.ErrMalformedResponse)
	}
	s.checkoutID = id
	s.state = CheckoutIDObtained
	return nil
}

// Require fails with the sentinel matching the first missing precondition of want.
func (s *Session) Require(want State) error {
	if s.state >= want {
		return nil
	}
	switch {
	case s.state == Unconfigured:
		return gateway.ErrNotConfigured
	case s.state < SessionActive:
		return gateway.ErrNoActiveSession
	default:
		return gateway.ErrNoCheckoutID
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// CheckoutID returns the current checkout ID, or "" when none was obtained.
func (s *Session) CheckoutID() string { return s.checkoutID }

// Settings returns the adopted settings, or nil.
func (s *Session) Settings() *CheckoutSettings { return s.settings }

// EntityID resolves the entity identifier of the active session's brand.
func (s *Session) EntityID() (string, error) {
	if err := s.Require(SessionActive); err != nil {
		return "", err
	}
	return s.config.EntityID(s.settings.Brand)
}

// Snapshot is a read-only view of a session.
type Snapshot struct {
	State      State           `json:"-"`
	StateName  string          `json:"state"`
	CheckoutID string          `json:"checkoutId"`
	Brand      Brand           `json:"brand,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
}

// Snapshot copies the observable session fields.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		State:      s.state,
		StateName:  s.state.String(),
		CheckoutID: s.checkoutID,
	}
	if s.settings != nil {
		snap.Brand = s.settings.Brand
		snap.Amount = s.settings.Amount
	}
	return snap
}
