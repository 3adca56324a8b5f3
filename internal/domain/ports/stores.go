package ports

import (
	"context"
	"time"

	"github.com/cinepos/concession-service/internal/domain"
)

// TxnSuccessUpdate carries the fields written when a transaction converges to
// success. Zero-valued fields are left untouched.
type TxnSuccessUpdate struct {
	GatewayPaymentID string
	Signature        string
	VerificationIP   string
	CompletedAt      time.Time
	VerifiedAt       time.Time
}

// TransactionStore persists payment transactions. Updates are atomic
// single-document writes whose selectors bind to the expected prior state, so
// concurrent verify and webhook converge without locking.
type TransactionStore interface {
	Create(ctx context.Context, txn *domain.PaymentTransaction) error

	GetByID(ctx context.Context, id string) (*domain.PaymentTransaction, error)
	// GetByOrderID returns the most recent transaction for the order.
	GetByOrderID(ctx context.Context, orderID string) (*domain.PaymentTransaction, error)
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.PaymentTransaction, error)
	GetByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*domain.PaymentTransaction, error)

	// MarkSuccess moves a non-successful transaction to success. Returns
	// false with nil error when the transaction was already terminal-success,
	// making replays a store-level no-op.
	MarkSuccess(ctx context.Context, id string, upd TxnSuccessUpdate) (bool, error)

	// MarkFailed moves a non-terminal transaction to failed with the given
	// error record. Success is never regressed.
	MarkFailed(ctx context.Context, id string, txnErr domain.TxnError, verificationIP string) (bool, error)

	// ListOpen returns up to limit transactions still waiting on the gateway
	// (initiated/pending/processing) that carry a gateway order id.
	ListOpen(ctx context.Context, theaterID string, limit int) ([]*domain.PaymentTransaction, error)
}

// OrderPaidUpdate is the mirror write applied to an order after its
// transaction reaches success.
type OrderPaidUpdate struct {
	Method            string
	TransactionID     string
	RazorpayOrderID   string
	RazorpayPaymentID string
	RazorpaySignature string
	PaidAt            time.Time
}

// OrderStore persists orders across both physical layouts (standalone
// documents and per-theater array elements). All writes are field-path
// updates addressed to the element; implementations never save whole
// documents, which would re-run validation on unrelated sibling orders.
type OrderStore interface {
	// GetByID loads an order from whichever layout holds it and records the
	// layout on the returned order.
	GetByID(ctx context.Context, orderID string) (*domain.Order, error)

	// SetPaymentMethod updates the order's declared payment method.
	SetPaymentMethod(ctx context.Context, order *domain.Order, method string) error

	// MarkPaid sets the payment mirror fields and confirms the order.
	MarkPaid(ctx context.Context, order *domain.Order, upd OrderPaidUpdate) error

	// SetStockRecorded durably sets the stock idempotency guard.
	SetStockRecorded(ctx context.Context, order *domain.Order) error
}

// TheaterStore reads theater gateway configuration. The admin surfaces own
// writes.
type TheaterStore interface {
	GetByID(ctx context.Context, theaterID string) (*domain.Theater, error)

	// ListConfigured returns theaters with at least one channel carrying an
	// active provider.
	ListConfigured(ctx context.Context) ([]*domain.Theater, error)
}
