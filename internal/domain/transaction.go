package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the lifecycle state of a payment attempt.
type TransactionStatus string

const (
	TransactionStatusInitiated  TransactionStatus = "initiated"
	TransactionStatusPending    TransactionStatus = "pending"
	TransactionStatusProcessing TransactionStatus = "processing"
	TransactionStatusSuccess    TransactionStatus = "success"
	TransactionStatusFailed     TransactionStatus = "failed"
	TransactionStatusRefunded   TransactionStatus = "refunded"
)

// IsTerminal reports whether the status is absorbing for this pipeline.
// Failed transactions may still be re-verified; success and refunded may not
// regress.
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusSuccess || s == TransactionStatusFailed || s == TransactionStatusRefunded
}

// IsOpen reports whether the transaction is still waiting on the gateway and
// eligible for a reconciliation sweep.
func (s TransactionStatus) IsOpen() bool {
	return s == TransactionStatusInitiated || s == TransactionStatusPending || s == TransactionStatusProcessing
}

// CanTransitionTo enforces transaction monotonicity: success never regresses,
// refunded only follows success, and failed may be retried back to success.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	if s == next {
		return false
	}
	switch s {
	case TransactionStatusInitiated:
		return next == TransactionStatusPending || next == TransactionStatusProcessing ||
			next == TransactionStatusSuccess || next == TransactionStatusFailed
	case TransactionStatusPending, TransactionStatusProcessing:
		return next == TransactionStatusSuccess || next == TransactionStatusFailed ||
			next == TransactionStatusProcessing
	case TransactionStatusFailed:
		// A failed verification may be retried with a valid signature.
		return next == TransactionStatusSuccess
	case TransactionStatusSuccess:
		return next == TransactionStatusRefunded
	case TransactionStatusRefunded:
		return false
	}
	return false
}

// GatewayRef links a transaction to its gateway-side identifiers.
type GatewayRef struct {
	Provider  Provider `bson:"provider" json:"provider"`
	Channel   Channel  `bson:"channel" json:"channel"`
	OrderID   string   `bson:"orderId,omitempty" json:"orderId,omitempty"`
	PaymentID string   `bson:"paymentId,omitempty" json:"paymentId,omitempty"`
	Signature string   `bson:"signature,omitempty" json:"-"`
	// SessionID carries Cashfree's payment_session_id.
	SessionID string `bson:"sessionId,omitempty" json:"sessionId,omitempty"`
}

// Amount is a monetary value in the smallest currency unit.
type Amount struct {
	Value    decimal.Decimal `bson:"value" json:"value"`
	Currency string          `bson:"currency" json:"currency"`
}

// EqualsWithinOneUnit reports whether other differs from the amount by at
// most one smallest currency unit. Gateways occasionally round captured
// amounts by a paisa.
func (a Amount) EqualsWithinOneUnit(other decimal.Decimal) bool {
	diff := a.Value.Sub(other).Abs()
	return diff.LessThanOrEqual(decimal.NewFromInt(1))
}

// TxnError captures why a transaction failed.
type TxnError struct {
	Code    ErrorCode `bson:"code" json:"code"`
	Message string    `bson:"message,omitempty" json:"message,omitempty"`
}

// PaymentTransaction is the core's authoritative record of one payment
// attempt.
type PaymentTransaction struct {
	ID             string                 `bson:"_id" json:"id"`
	TheaterID      string                 `bson:"theater" json:"theaterId"`
	OrderID        string                 `bson:"order" json:"orderId"`
	Method         string                 `bson:"method" json:"method"`
	Gateway        GatewayRef             `bson:"gateway" json:"gateway"`
	Amount         Amount                 `bson:"amount" json:"amount"`
	Status         TransactionStatus      `bson:"status" json:"status"`
	Metadata       map[string]interface{} `bson:"metadata,omitempty" json:"metadata,omitempty"`
	Error          *TxnError              `bson:"error,omitempty" json:"error,omitempty"`
	VerificationIP string                 `bson:"verificationIp,omitempty" json:"-"`
	CreatedAt      time.Time              `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time              `bson:"updatedAt" json:"updatedAt"`
	CompletedAt    *time.Time             `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	VerifiedAt     *time.Time             `bson:"verifiedAt,omitempty" json:"verifiedAt,omitempty"`
}

// VerificationWindow is how long after creation a pending transaction may be
// verified interactively before the attempt is considered stale.
const VerificationWindow = 30 * time.Minute

// IsStale reports whether an interactive verification at now falls outside
// the verification window.
func (t *PaymentTransaction) IsStale(now time.Time) bool {
	return now.Sub(t.CreatedAt) > VerificationWindow
}
