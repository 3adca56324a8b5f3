package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_ErrorAndUnwrap(t *testing.T) {
	base := errors.New("connection refused")
	err := WrapError(ErrorCodeDatabaseError, "query failed", base)

	assert.Contains(t, err.Error(), "INTERNAL_DATABASE_ERROR")
	assert.Contains(t, err.Error(), "connection refused")
	assert.ErrorIs(t, err, base)
}

func TestErrorClassifiers(t *testing.T) {
	assert.True(t, IsNotFoundError(ErrOrderNotFound))
	assert.True(t, IsNotFoundError(ErrTxnNotFound))
	assert.False(t, IsNotFoundError(ErrSignatureFailed))

	assert.True(t, IsVerificationError(ErrSignatureFailed))
	assert.True(t, IsVerificationError(ErrAmountMismatch))
	assert.True(t, IsVerificationError(ErrOrderMismatch))
	assert.True(t, IsVerificationError(ErrStalePayment))
	assert.False(t, IsVerificationError(ErrGatewayError))

	assert.True(t, IsGatewayError(ErrGatewayError))
	assert.True(t, IsGatewayError(ErrGatewayTimeout))
	assert.False(t, IsGatewayError(ErrOrderNotFound))

	assert.True(t, IsValidationError(ErrMissingField))
	assert.True(t, IsValidationError(ErrInvalidChannel))
	assert.False(t, IsValidationError(ErrTxnNotFound))

	assert.False(t, IsNotFoundError(errors.New("plain")))
	assert.Equal(t, ErrorCode(""), GetErrorCode(errors.New("plain")))
}

func TestGetErrorCode_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", ErrAmountMismatch)
	assert.Equal(t, ErrorCodeAmountMismatch, GetErrorCode(wrapped))
	assert.True(t, IsDomainError(wrapped, ErrorCodeAmountMismatch))
}

func TestWithDetail(t *testing.T) {
	err := NewDomainError(ErrorCodeValidationFailed, "bad input").
		WithDetail("field", "orderId")
	assert.Equal(t, "orderId", err.Details["field"])
}
