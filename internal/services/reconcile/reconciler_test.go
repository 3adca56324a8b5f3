package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cinepos/concession-service/internal/adapters/logging"
	"github.com/cinepos/concession-service/internal/domain"
	"github.com/cinepos/concession-service/internal/domain/ports"
	"github.com/cinepos/concession-service/internal/services/channel"
	"github.com/cinepos/concession-service/internal/services/payment"
	"github.com/cinepos/concession-service/test/mocks"
)

type fixture struct {
	txns       *mocks.TransactionStore
	orders     *mocks.OrderStore
	gateway    *mocks.Gateway
	reconciler *Reconciler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := logging.NewZapLogger(zap.NewNop())

	theater := &domain.Theater{
		ID: "th-1",
		Gateways: map[domain.Channel]domain.PaymentGatewayConfig{
			domain.ChannelKiosk: {
				Provider: domain.ProviderRazorpay,
				Enabled:  true,
				Razorpay: &domain.ProviderConfig{Enabled: true, KeyID: "k", KeySecret: "s"},
			},
		},
	}
	theaters := mocks.NewTheaterStore(theater)

	f := &fixture{
		txns:    mocks.NewTransactionStore(),
		orders:  mocks.NewOrderStore(),
		gateway: &mocks.Gateway{ProviderName: domain.ProviderRazorpay},
	}
	factory := &mocks.GatewayFactory{GatewayMock: f.gateway}
	resolver := channel.NewResolver(theaters, logger)
	orchestrator := payment.NewOrchestrator(f.txns, f.orders, resolver, factory,
		&mocks.StockService{}, nil, payment.StalePolicyWarn, logger)
	f.reconciler = NewReconciler(f.txns, theaters, resolver, factory, orchestrator, logger)
	return f
}

func seed(f *fixture, status domain.TransactionStatus) *domain.PaymentTransaction {
	txn := &domain.PaymentTransaction{
		ID:        "txn-1",
		TheaterID: "th-1",
		OrderID:   "ord-1",
		Gateway: domain.GatewayRef{
			Provider: domain.ProviderRazorpay,
			Channel:  domain.ChannelKiosk,
			OrderID:  "order_G1",
		},
		Amount:    domain.Amount{Value: decimal.NewFromInt(50000), Currency: "INR"},
		Status:    status,
		CreatedAt: time.Now().Add(-time.Hour),
	}
	f.txns.Transactions[txn.ID] = txn
	f.orders.Orders["ord-1"] = &domain.Order{
		ID:        "ord-1",
		TheaterID: "th-1",
		Source:    "pos",
		Status:    domain.OrderStatusPending,
		Items: []domain.OrderItem{
			{ProductID: "popcorn-l", Name: "Popcorn L", Quantity: 1, UnitPrice: decimal.NewFromInt(50000)},
		},
		Pricing: domain.Pricing{Total: decimal.NewFromInt(50000), Currency: "INR"},
	}
	return txn
}

func TestSyncOne_ConvergesCapturedPayment(t *testing.T) {
	f := newFixture(t)
	txn := seed(f, domain.TransactionStatusPending)
	f.gateway.FetchStatusFn = func(ctx context.Context, ref ports.StatusRef) (*ports.PaymentView, error) {
		return &ports.PaymentView{
			Status:    ports.StatusCaptured,
			Amount:    decimal.NewFromInt(50000),
			OrderID:   "order_G1",
			PaymentID: "pay_P1",
		}, nil
	}

	outcome, err := f.reconciler.SyncOne(context.Background(), Selector{GatewayOrderID: "order_G1"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSynced, outcome)

	assert.Equal(t, domain.TransactionStatusSuccess, txn.Status)
	assert.Equal(t, "pay_P1", txn.Gateway.PaymentID)
	assert.Equal(t, payment.SignatureSync, txn.Gateway.Signature)
	assert.Equal(t, domain.OrderStatusConfirmed, f.orders.Orders["ord-1"].Status)
	assert.True(t, f.orders.Orders["ord-1"].StockRecorded)
}

func TestSyncOne_AlreadySuccessful(t *testing.T) {
	f := newFixture(t)
	seed(f, domain.TransactionStatusSuccess)

	outcome, err := f.reconciler.SyncOne(context.Background(), Selector{GatewayOrderID: "order_G1"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpToDate, outcome)
	// No gateway traffic for a settled transaction.
	assert.Equal(t, 0, f.gateway.FetchStatusCalls)
}

func TestSyncOne_GatewayReportsFailed(t *testing.T) {
	f := newFixture(t)
	txn := seed(f, domain.TransactionStatusPending)
	f.gateway.FetchStatusFn = func(ctx context.Context, ref ports.StatusRef) (*ports.PaymentView, error) {
		return &ports.PaymentView{Status: ports.StatusFailed}, nil
	}

	outcome, err := f.reconciler.SyncOne(context.Background(), Selector{GatewayOrderID: "order_G1"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, outcome)
	assert.Equal(t, domain.TransactionStatusFailed, txn.Status)
}

func TestSyncOne_StillPendingAtGateway(t *testing.T) {
	f := newFixture(t)
	txn := seed(f, domain.TransactionStatusPending)
	f.gateway.FetchStatusFn = func(ctx context.Context, ref ports.StatusRef) (*ports.PaymentView, error) {
		return &ports.PaymentView{Status: ports.StatusPending}, nil
	}

	outcome, err := f.reconciler.SyncOne(context.Background(), Selector{GatewayOrderID: "order_G1"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeStillOpen, outcome)
	assert.Equal(t, domain.TransactionStatusPending, txn.Status)
}

func TestSyncOne_AmountMismatch(t *testing.T) {
	f := newFixture(t)
	txn := seed(f, domain.TransactionStatusPending)
	f.gateway.FetchStatusFn = func(ctx context.Context, ref ports.StatusRef) (*ports.PaymentView, error) {
		return &ports.PaymentView{
			Status: ports.StatusCaptured,
			Amount: decimal.NewFromInt(100),
		}, nil
	}

	outcome, err := f.reconciler.SyncOne(context.Background(), Selector{GatewayOrderID: "order_G1"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, outcome)
	assert.Equal(t, domain.TransactionStatusFailed, txn.Status)
	require.NotNil(t, txn.Error)
	assert.Equal(t, domain.ErrorCodeAmountMismatch, txn.Error.Code)
}

func TestSyncOne_FetchError(t *testing.T) {
	f := newFixture(t)
	seed(f, domain.TransactionStatusPending)
	f.gateway.FetchStatusFn = func(ctx context.Context, ref ports.StatusRef) (*ports.PaymentView, error) {
		return nil, errors.New("gateway down")
	}

	outcome, err := f.reconciler.SyncOne(context.Background(), Selector{GatewayOrderID: "order_G1"})
	assert.Error(t, err)
	assert.Equal(t, OutcomeError, outcome)
}

func TestSyncOne_NotFound(t *testing.T) {
	f := newFixture(t)

	outcome, err := f.reconciler.SyncOne(context.Background(), Selector{OrderID: "ghost"})
	assert.True(t, domain.IsNotFoundError(err))
	assert.Equal(t, OutcomeError, outcome)
}

func TestSyncPending_Sweep(t *testing.T) {
	f := newFixture(t)
	seed(f, domain.TransactionStatusPending)
	f.gateway.FetchStatusFn = func(ctx context.Context, ref ports.StatusRef) (*ports.PaymentView, error) {
		return &ports.PaymentView{
			Status:    ports.StatusCaptured,
			Amount:    decimal.NewFromInt(50000),
			PaymentID: "pay_P1",
		}, nil
	}

	summary, err := f.reconciler.SyncPending(context.Background(), "th-1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Synced)
	assert.Equal(t, 0, summary.Failed)
	assert.Empty(t, summary.Errors)
}

func TestSyncPending_SkipsTxnWithoutGatewayOrder(t *testing.T) {
	f := newFixture(t)
	txn := seed(f, domain.TransactionStatusPending)
	txn.Gateway.OrderID = ""

	summary, err := f.reconciler.SyncPending(context.Background(), "th-1")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Synced)
	assert.Equal(t, 0, f.gateway.FetchStatusCalls)
}

func TestSyncAllTheaters(t *testing.T) {
	f := newFixture(t)
	seed(f, domain.TransactionStatusPending)
	f.gateway.FetchStatusFn = func(ctx context.Context, ref ports.StatusRef) (*ports.PaymentView, error) {
		return &ports.PaymentView{
			Status:    ports.StatusCaptured,
			Amount:    decimal.NewFromInt(50000),
			PaymentID: "pay_P1",
		}, nil
	}

	summary, err := f.reconciler.SyncAllTheaters(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Synced)
}
