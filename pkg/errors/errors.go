package errors

import (
	"fmt"
)

// ErrorCategory classifies a gateway failure for handling.
type ErrorCategory string

const (
	CategoryDeclined       ErrorCategory = "declined"
	CategoryNotFound       ErrorCategory = "not_found"
	CategorySystemError    ErrorCategory = "system_error"
	CategoryNetworkError   ErrorCategory = "network_error"
	CategoryInvalidRequest ErrorCategory = "invalid_request"
)

// GatewayError is a payment gateway failure with the provider's description.
type GatewayError struct {
	Provider       string
	Code           string
	Message        string
	GatewayMessage string
	IsRetriable    bool
	Category       ErrorCategory
}

func (e *GatewayError) Error() string {
	if e.GatewayMessage != "" {
		return fmt.Sprintf("%s: %s: %s (gateway: %s)", e.Provider, e.Code, e.Message, e.GatewayMessage)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Code, e.Message)
}

// NewGatewayError creates a new gateway error.
func NewGatewayError(provider, code, message string, category ErrorCategory, retriable bool) *GatewayError {
	return &GatewayError{
		Provider:    provider,
		Code:        code,
		Message:     message,
		Category:    category,
		IsRetriable: retriable,
	}
}

// WithGatewayMessage attaches the provider's own description.
func (e *GatewayError) WithGatewayMessage(msg string) *GatewayError {
	e.GatewayMessage = msg
	return e
}

// ValidationError represents input validation errors.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
