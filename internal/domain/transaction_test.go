package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransactionStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from TransactionStatus
		to   TransactionStatus
		want bool
	}{
		{"pending to success", TransactionStatusPending, TransactionStatusSuccess, true},
		{"pending to failed", TransactionStatusPending, TransactionStatusFailed, true},
		{"processing to success", TransactionStatusProcessing, TransactionStatusSuccess, true},
		{"initiated to pending", TransactionStatusInitiated, TransactionStatusPending, true},
		{"failed retried to success", TransactionStatusFailed, TransactionStatusSuccess, true},
		{"failed to pending", TransactionStatusFailed, TransactionStatusPending, false},
		{"success to refunded", TransactionStatusSuccess, TransactionStatusRefunded, true},
		{"success never regresses to failed", TransactionStatusSuccess, TransactionStatusFailed, false},
		{"success never regresses to pending", TransactionStatusSuccess, TransactionStatusPending, false},
		{"refunded is absorbing", TransactionStatusRefunded, TransactionStatusSuccess, false},
		{"no self transition", TransactionStatusPending, TransactionStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestTransactionStatus_IsOpen(t *testing.T) {
	assert.True(t, TransactionStatusInitiated.IsOpen())
	assert.True(t, TransactionStatusPending.IsOpen())
	assert.True(t, TransactionStatusProcessing.IsOpen())
	assert.False(t, TransactionStatusSuccess.IsOpen())
	assert.False(t, TransactionStatusFailed.IsOpen())
	assert.False(t, TransactionStatusRefunded.IsOpen())
}

func TestTransactionStatus_IsTerminal(t *testing.T) {
	assert.True(t, TransactionStatusSuccess.IsTerminal())
	assert.True(t, TransactionStatusFailed.IsTerminal())
	assert.True(t, TransactionStatusRefunded.IsTerminal())
	assert.False(t, TransactionStatusPending.IsTerminal())
}

func TestAmount_EqualsWithinOneUnit(t *testing.T) {
	amount := Amount{Value: decimal.NewFromInt(50000), Currency: "INR"}

	assert.True(t, amount.EqualsWithinOneUnit(decimal.NewFromInt(50000)))
	assert.True(t, amount.EqualsWithinOneUnit(decimal.NewFromInt(50001)))
	assert.True(t, amount.EqualsWithinOneUnit(decimal.NewFromInt(49999)))
	assert.False(t, amount.EqualsWithinOneUnit(decimal.NewFromInt(50002)))
	assert.False(t, amount.EqualsWithinOneUnit(decimal.NewFromInt(49998)))
	assert.False(t, amount.EqualsWithinOneUnit(decimal.NewFromInt(0)))
}

func TestPaymentTransaction_IsStale(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	txn := &PaymentTransaction{CreatedAt: created}

	assert.False(t, txn.IsStale(created.Add(5*time.Minute)))
	assert.False(t, txn.IsStale(created.Add(VerificationWindow)))
	assert.True(t, txn.IsStale(created.Add(VerificationWindow+time.Second)))
}
