// Package monitor validates merchant backend responses against their JSON
// contracts before they are decoded.
package monitor

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var (
	//go:embed schemas/checkout_response.json
	checkoutResponseSchema string

	//go:embed schemas/status_response.json
	statusResponseSchema string
)

// ContractMonitor validates response bodies against a compiled JSON schema.
type ContractMonitor struct {
	schema *gojsonschema.Schema
}

// NewContractMonitor compiles the given JSON schema document.
func NewContractMonitor(schemaJSON string) (*ContractMonitor, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("error loading or compiling schema: %w", err)
	}
	return &ContractMonitor{schema: schema}, nil
}

// NewCheckoutResponseMonitor validates checkout endpoint responses.
func NewCheckoutResponseMonitor() *ContractMonitor {
	return mustMonitor(checkoutResponseSchema)
}

// NewStatusResponseMonitor validates status endpoint responses.
func NewStatusResponseMonitor() *ContractMonitor {
	return mustMonitor(statusResponseSchema)
}

func mustMonitor(schemaJSON string) *ContractMonitor {
	cm, err := NewContractMonitor(schemaJSON)
	if err != nil {
		panic(fmt.Sprintf("monitor: embedded schema: %v", err))
	}
	return cm
}

// Validate validates the given body against the schema.
// It returns true if valid, or false and a list of validation errors if invalid.
// The error is non-nil only when the body could not be validated at all (e.g. it is not JSON).
func (cm *ContractMonitor) Validate(body []byte) (bool, []string, error) {
	result, err := cm.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return false, nil, fmt.Errorf("error during validation: %w", err)
	}

	if result.Valid() {
		return true, nil, nil
	}

	var errors []string
	for _, desc := range result.Errors() {
		errors = append(errors, desc.String())
	}
	return false, errors, nil
}

// FormatErrors formats a slice of validation error strings into a single string.
func FormatErrors(validationErrors []string) string {
	if len(validationErrors) == 0 {
		return ""
	}
	return "Validation errors: " + strings.Join(validationErrors, "; ")
}
