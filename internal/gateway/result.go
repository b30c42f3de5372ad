// Package gateway decodes the payment gateway's coded responses as relayed by
// the merchant backend, and defines the error taxonomy shared by the adapters
// and the orchestrator.
package gateway

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// CodeCheckoutCreated is returned when a checkout was created successfully.
	CodeCheckoutCreated = "000.200.100"
	// CodeInvalidParameters is returned when request parameters failed validation.
	// Responses with this code carry parameterErrors.
	CodeInvalidParameters = "200.300.404"
)

// ParameterError is a single field-level validation failure reported by the gateway.
type ParameterError struct {
	Name    string `json:"name"`
	Value   string `json:"value"`
	Message string `json:"message,omitempty"`
}

// Result is the parsed gateway response.
type Result struct {
	ID              string           `json:"id,omitempty"`
	Code            string           `json:"code"`
	Description     string           `json:"description"`
	ParameterErrors []ParameterError `json:"parameterErrors,omitempty"`
}

// wireResponse mirrors the JSON the merchant backend relays from the gateway.
type wireResponse struct {
	ID     string `json:"id"`
	Result struct {
		Code            string         `json:"code"`
		Description     string         `json:"description"`
		ParameterErrors []wireParamErr `json:"parameterErrors"`
	} `json:"result"`
}

// wireParamErr accepts values of any JSON type; the gateway echoes the
// offending value as it received it, which is not always a string.
type wireParamErr struct {
	Name    string          `json:"name"`
	Value   json.RawMessage `json:"value"`
	Message string          `json:"message"`
}

// Decode parses a gateway response body.
func Decode(body []byte) (Result, error) {
	var wire wireResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if wire.Result.Code == "" {
		return Result{}, fmt.Errorf("%w: missing result.code", ErrMalformedResponse)
	}

	res := Result{
		ID:          wire.ID,
		Code:        wire.Result.Code,
		Description: wire.Result.Description,
	}
	for _, pe := range wire.Result.ParameterErrors {
		res.ParameterErrors = append(res.ParameterErrors, ParameterError{
			Name:    pe.Name,
			Value:   rawToString(pe.Value),
			Message: pe.Message,
		})
	}
	return res, nil
}

func rawToString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// FormatParameterErrors joins parameter errors as "(param: <name>, value: <value>)"
// entries separated by ", ".
func FormatParameterErrors(errs []ParameterError) string {
	parts := make([]string, 0, len(errs))
	for _, pe := range errs {
		parts = append(parts, fmt.Sprintf("(param: %s, value: %s)", pe.Name, pe.Value))
	}
	return strings.Join(parts, ", ")
}
