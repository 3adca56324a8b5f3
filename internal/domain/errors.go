package domain

import (
	"errors"
	"fmt"
)

// ErrorCode is a machine-readable error code.
type ErrorCode string

const (
	// Not-found (NOT_FOUND_*)
	ErrorCodeOrderNotFound   ErrorCode = "ORDER_NOT_FOUND"
	ErrorCodeTheaterNotFound ErrorCode = "THEATER_NOT_FOUND"
	ErrorCodeTxnNotFound     ErrorCode = "TRANSACTION_NOT_FOUND"

	// Configuration (CONFIG_*)
	ErrorCodeGatewayNotConfigured ErrorCode = "GATEWAY_NOT_CONFIGURED"
	ErrorCodeProviderUnsupported  ErrorCode = "PROVIDER_UNSUPPORTED"

	// Gateway (GATEWAY_*)
	ErrorCodeGatewayError   ErrorCode = "GATEWAY_ERROR"
	ErrorCodeGatewayTimeout ErrorCode = "GATEWAY_TIMEOUT"

	// Verification (VERIFY_*)
	ErrorCodeSignatureFailed ErrorCode = "SIGNATURE_VERIFICATION_FAILED"
	ErrorCodeAmountMismatch  ErrorCode = "AMOUNT_MISMATCH"
	ErrorCodeOrderMismatch   ErrorCode = "ORDER_MISMATCH"
	ErrorCodeStalePayment    ErrorCode = "STALE_PAYMENT"
	ErrorCodeStatusMismatch  ErrorCode = "PAYMENT_STATUS_MISMATCH"

	// Validation (VALIDATION_*)
	ErrorCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrorCodeMissingField     ErrorCode = "VALIDATION_MISSING_FIELD"
	ErrorCodeInvalidChannel   ErrorCode = "VALIDATION_INVALID_CHANNEL"

	// Internal (INTERNAL_*)
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrorCodeDatabaseError ErrorCode = "INTERNAL_DATABASE_ERROR"
)

// DomainError is a structured error carrying a code and optional context.
type DomainError struct {
	Err     error
	Details map[string]interface{}
	Code    ErrorCode
	Message string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// WithDetail adds a detail field to the error.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error.
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with a domain error code.
func WrapError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Err:     err,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
func IsDomainError(err error, code ErrorCode) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error, empty if not a
// DomainError.
func GetErrorCode(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// IsNotFoundError checks if an error represents a "not found" condition.
func IsNotFoundError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeOrderNotFound ||
		code == ErrorCodeTheaterNotFound ||
		code == ErrorCodeTxnNotFound
}

// IsVerificationError checks if an error represents a failed verification.
// These collapse to a generic user-facing message at the API boundary.
func IsVerificationError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeSignatureFailed ||
		code == ErrorCodeAmountMismatch ||
		code == ErrorCodeOrderMismatch ||
		code == ErrorCodeStatusMismatch ||
		code == ErrorCodeStalePayment
}

// IsGatewayError checks if an error originated at the payment gateway.
func IsGatewayError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeGatewayError || code == ErrorCodeGatewayTimeout
}

// IsValidationError checks if an error is an input validation error.
func IsValidationError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeValidationFailed ||
		code == ErrorCodeMissingField ||
		code == ErrorCodeInvalidChannel
}

// Structured error instances.
var (
	ErrOrderNotFound   = NewDomainError(ErrorCodeOrderNotFound, "order not found")
	ErrTheaterNotFound = NewDomainError(ErrorCodeTheaterNotFound, "theater not found")
	ErrTxnNotFound     = NewDomainError(ErrorCodeTxnNotFound, "transaction not found")

	ErrGatewayNotConfigured = NewDomainError(ErrorCodeGatewayNotConfigured, "no payment gateway configured for this channel")
	ErrProviderUnsupported  = NewDomainError(ErrorCodeProviderUnsupported, "payment provider not supported")

	ErrGatewayError   = NewDomainError(ErrorCodeGatewayError, "payment gateway error")
	ErrGatewayTimeout = NewDomainError(ErrorCodeGatewayTimeout, "payment gateway timeout")

	ErrSignatureFailed = NewDomainError(ErrorCodeSignatureFailed, "payment signature verification failed")
	ErrAmountMismatch  = NewDomainError(ErrorCodeAmountMismatch, "captured amount does not match transaction amount")
	ErrOrderMismatch   = NewDomainError(ErrorCodeOrderMismatch, "order does not match transaction")
	ErrStalePayment    = NewDomainError(ErrorCodeStalePayment, "payment verification window expired")
	ErrStatusMismatch  = NewDomainError(ErrorCodeStatusMismatch, "gateway payment is not captured")

	ErrValidationFailed = NewDomainError(ErrorCodeValidationFailed, "validation failed")
	ErrMissingField     = NewDomainError(ErrorCodeMissingField, "required field missing")
	ErrInvalidChannel   = NewDomainError(ErrorCodeInvalidChannel, "channel must be kiosk or online")

	ErrInternalError = NewDomainError(ErrorCodeInternalError, "internal server error")
	ErrDatabaseError = NewDomainError(ErrorCodeDatabaseError, "database error")
)
