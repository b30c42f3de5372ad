package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourorg/checkout-orchestrator/internal/gateway"
	"github.com/yourorg/checkout-orchestrator/internal/orchestrator"
	"github.com/yourorg/checkout-orchestrator/internal/policy"
	"github.com/yourorg/checkout-orchestrator/internal/session"
)

type sessionRequest struct {
	Brand            string            `json:"brand" binding:"required"`
	Amount           decimal.Decimal   `json:"amount"`
	AdditionalParams map[string]string `json:"additionalParams"`
	Headers          map[string]string `json:"headers"`
}

type cardRequest struct {
	Holder      string `json:"holder"`
	Number      string `json:"number"`
	ExpiryMonth string `json:"expiryMonth"`
	ExpiryYear  string `json:"expiryYear"`
	CVV         string `json:"cvv"`
}

type statusRequest struct {
	CheckoutID string `json:"checkoutId"`
}

type handlers struct {
	orc    *orchestrator.Orchestrator
	logger logrus.FieldLogger
}

func (h *handlers) startSession(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Warn("Error binding session request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	brand, err := session.ParseBrand(req.Brand)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed: " + err.Error()})
		return
	}
	if !req.Amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed: Amount must be positive"})
		return
	}

	h.orc.InitSession(&session.CheckoutSettings{
		Brand:            brand,
		Amount:           req.Amount,
		AdditionalParams: req.AdditionalParams,
		Headers:          req.Headers,
	})
	c.JSON(http.StatusOK, h.orc.Snapshot())
}

func (h *handlers) endSession(c *gin.Context) {
	h.orc.EndSession()
	c.Status(http.StatusNoContent)
}

func (h *handlers) getSession(c *gin.Context) {
	c.JSON(http.StatusOK, h.orc.Snapshot())
}

func (h *handlers) acquireCheckoutID(c *gin.Context) {
	id, err := h.orc.AcquireCheckoutID(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"checkoutId": id})
}

func (h *handlers) pay(c *gin.Context) {
	var req cardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// The binding error may echo card fields; it is not logged.
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	status, err := h.orc.Pay(c.Request.Context(), session.CardInfo{
		Holder:      req.Holder,
		Number:      req.Number,
		ExpiryMonth: req.ExpiryMonth,
		ExpiryYear:  req.ExpiryYear,
		CVV:         req.CVV,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "terminal": status.IsTerminal()})
}

// resolveStatus defaults to the session's checkout ID when the body names none.
func (h *handlers) resolveStatus(c *gin.Context) {
	var req statusRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
			return
		}
	}
	if req.CheckoutID == "" {
		req.CheckoutID = h.orc.Snapshot().CheckoutID
	}

	res, err := h.orc.ResolveStatus(c.Request.Context(), req.CheckoutID)
	if err != nil {
		writeError(c, err)
		return
	}
	status := h.orc.Classify(res.Code)
	c.JSON(http.StatusOK, gin.H{
		"checkoutId":  req.CheckoutID,
		"code":        res.Code,
		"description": res.Description,
		"status":      status,
		"terminal":    status.IsTerminal(),
	})
}

func (h *handlers) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "session": h.orc.Snapshot().StateName})
}

// writeError maps orchestrator errors onto HTTP responses.
func writeError(c *gin.Context, err error) {
	var (
		ge       *gateway.GatewayError
		te       *gateway.TransportError
		rejected *gateway.PaymentRejected
	)
	switch {
	case errors.Is(err, gateway.ErrNotConfigured),
		errors.Is(err, gateway.ErrNoActiveSession),
		errors.Is(err, gateway.ErrNoCheckoutID):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, gateway.ErrUnknownBrand):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &rejected):
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":       err.Error(),
			"status":      policy.StatusRejected,
			"code":        rejected.Code,
			"description": rejected.Description,
		})
	case errors.As(err, &ge):
		status := http.StatusBadGateway
		if ge.IsValidation() {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{
			"error":       err.Error(),
			"code":        ge.Code,
			"description": ge.Description,
			"details":     ge.Details,
		})
	case errors.As(err, &te):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "upstreamStatus": te.StatusCode})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
