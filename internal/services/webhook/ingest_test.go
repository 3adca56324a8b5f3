package webhook

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cinepos/concession-service/internal/adapters/logging"
	"github.com/cinepos/concession-service/internal/domain"
	"github.com/cinepos/concession-service/internal/services/channel"
	"github.com/cinepos/concession-service/internal/services/payment"
	"github.com/cinepos/concession-service/test/mocks"
)

type fixture struct {
	txns    *mocks.TransactionStore
	orders  *mocks.OrderStore
	gateway *mocks.Gateway
	ingest  *Ingest
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
				Razorpay: &domain.ProviderConfig{Enabled: true, KeyID: "k", KeySecret: "s", WebhookSecret: "whsec"},
			},
		},
	}

	f := &fixture{
		txns:    mocks.NewTransactionStore(),
		orders:  mocks.NewOrderStore(),
		gateway: &mocks.Gateway{ProviderName: domain.ProviderRazorpay, WebhookSecret: true},
	}
	factory := &mocks.GatewayFactory{GatewayMock: f.gateway}
	resolver := channel.NewResolver(mocks.NewTheaterStore(theater), logger)
	orchestrator := payment.NewOrchestrator(f.txns, f.orders, resolver, factory,
		&mocks.StockService{}, nil, payment.StalePolicyWarn, logger)
	f.ingest = NewIngest(f.txns, resolver, factory, orchestrator, nil, logger)
	return f
}

func seedTxn(f *fixture) *domain.PaymentTransaction {
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
		Status:    domain.TransactionStatusPending,
		CreatedAt: time.Now(),
	}
	f.txns.Transactions[txn.ID] = txn
	f.orders.Orders["ord-1"] = &domain.Order{
		ID:        "ord-1",
		TheaterID: "th-1",
		Source:    "pos",
		Status:    domain.OrderStatusPending,
		Pricing:   domain.Pricing{Total: decimal.NewFromInt(50000), Currency: "INR"},
	}
	return txn
}

const capturedBody = `{
	"event": "payment.captured",
	"payload": {"payment": {"entity": {
		"id": "pay_P1", "order_id": "order_G1", "amount": 50000, "status": "captured"
	}}}
}`

func TestHandleRazorpay_Processed(t *testing.T) {
	f := newFixture(t)
	txn := seedTxn(f)

	result, err := f.ingest.HandleRazorpay(context.Background(), []byte(capturedBody), "sig")
	require.NoError(t, err)
	assert.True(t, result.Success)

	assert.Equal(t, domain.TransactionStatusSuccess, txn.Status)
	assert.Equal(t, "pay_P1", txn.Gateway.PaymentID)
	assert.Equal(t, payment.SignatureWebhook, txn.Gateway.Signature)
	assert.Equal(t, domain.OrderStatusConfirmed, f.orders.Orders["ord-1"].Status)
}

func TestHandleRazorpay_ReplayConverges(t *testing.T) {
	f := newFixture(t)
	txn := seedTxn(f)

	_, err := f.ingest.HandleRazorpay(context.Background(), []byte(capturedBody), "sig")
	require.NoError(t, err)
	result, err := f.ingest.HandleRazorpay(context.Background(), []byte(capturedBody), "sig")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, domain.TransactionStatusSuccess, txn.Status)
	// The order was mirrored exactly once.
	assert.Equal(t, 1, f.orders.MarkPaidCalls)
}

func TestHandleRazorpay_MissingSignature(t *testing.T) {
	f := newFixture(t)
	seedTxn(f)

	_, err := f.ingest.HandleRazorpay(context.Background(), []byte(capturedBody), "")
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeMissingField))
}

func TestHandleRazorpay_BadSignature(t *testing.T) {
	f := newFixture(t)
	txn := seedTxn(f)
	f.gateway.VerifyWebhookFn = func(rawBody []byte, signature string) bool { return false }

	_, err := f.ingest.HandleRazorpay(context.Background(), []byte(capturedBody), "forged")
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeSignatureFailed))
	assert.Equal(t, domain.TransactionStatusPending, txn.Status)
}

func TestHandleRazorpay_NoSecretSkipsVerification(t *testing.T) {
	f := newFixture(t)
	txn := seedTxn(f)
	f.gateway.WebhookSecret = false
	// Would fail if consulted.
	f.gateway.VerifyWebhookFn = func(rawBody []byte, signature string) bool { return false }

	result, err := f.ingest.HandleRazorpay(context.Background(), []byte(capturedBody), "sig")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, domain.TransactionStatusSuccess, txn.Status)
}

func TestHandleRazorpay_IgnoredEvent(t *testing.T) {
	f := newFixture(t)
	txn := seedTxn(f)

	body := `{"event":"payment.authorized","payload":{"payment":{"entity":{"id":"pay_P1","order_id":"order_G1"}}}}`
	result, err := f.ingest.HandleRazorpay(context.Background(), []byte(body), "sig")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "event ignored", result.Message)
	assert.Equal(t, domain.TransactionStatusPending, txn.Status)
}

func TestHandleRazorpay_MalformedPayload(t *testing.T) {
	f := newFixture(t)

	result, err := f.ingest.HandleRazorpay(context.Background(), []byte("not-json{"), "sig")
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestHandleRazorpay_TransactionNotFound(t *testing.T) {
	f := newFixture(t)

	result, err := f.ingest.HandleRazorpay(context.Background(), []byte(capturedBody), "sig")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "transaction not found", result.Message)
}

func TestHandleRazorpay_AmountMismatch(t *testing.T) {
	f := newFixture(t)
	txn := seedTxn(f)

	body := `{
		"event": "payment.captured",
		"payload": {"payment": {"entity": {
			"id": "pay_P1", "order_id": "order_G1", "amount": 100, "status": "captured"
		}}}
	}`
	result, err := f.ingest.HandleRazorpay(context.Background(), []byte(body), "sig")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "amount mismatch", result.Message)
	assert.Equal(t, domain.TransactionStatusFailed, txn.Status)
	require.NotNil(t, txn.Error)
	assert.Equal(t, domain.ErrorCodeAmountMismatch, txn.Error.Code)
}

const cashfreeBody = `{
	"type": "PAYMENT_SUCCESS_WEBHOOK",
	"data": {
		"order": {"order_id": "order_G1"},
		"payment": {"cf_payment_id": 987, "payment_status": "SUCCESS", "payment_amount": 500.00}
	}
}`

func TestHandleCashfree_Processed(t *testing.T) {
	f := newFixture(t)
	txn := seedTxn(f)
	txn.Gateway.Provider = domain.ProviderCashfree
	f.gateway.ProviderName = domain.ProviderCashfree

	result, err := f.ingest.HandleCashfree(context.Background(), []byte(cashfreeBody), "sig", "1750000000")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, domain.TransactionStatusSuccess, txn.Status)
	assert.Equal(t, "987", txn.Gateway.PaymentID)
}

func TestHandleCashfree_MissingSignatureWithSecret(t *testing.T) {
	f := newFixture(t)
	seedTxn(f)

	_, err := f.ingest.HandleCashfree(context.Background(), []byte(cashfreeBody), "", "1750000000")
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeMissingField))
}

func TestHandleCashfree_IgnoredEvent(t *testing.T) {
	f := newFixture(t)
	txn := seedTxn(f)

	body := `{"type":"PAYMENT_FAILED_WEBHOOK","data":{"order":{"order_id":"order_G1"}}}`
	result, err := f.ingest.HandleCashfree(context.Background(), []byte(body), "sig", "ts")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "event ignored", result.Message)
	assert.Equal(t, domain.TransactionStatusPending, txn.Status)
}

func TestHandleCashfree_AmountMismatch(t *testing.T) {
	f := newFixture(t)
	txn := seedTxn(f)

	// 2.00 rupees = 200 paise against a 50000 paise transaction.
	body := `{
		"type": "PAYMENT_SUCCESS_WEBHOOK",
		"data": {
			"order": {"order_id": "order_G1"},
			"payment": {"cf_payment_id": 987, "payment_status": "SUCCESS", "payment_amount": 2.00}
		}
	}`
	result, err := f.ingest.HandleCashfree(context.Background(), []byte(body), "sig", "ts")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, domain.TransactionStatusFailed, txn.Status)
}

func TestCashfreeSuccessEvent(t *testing.T) {
	assert.True(t, cashfreeSuccessEvent("PAYMENT_SUCCESS_WEBHOOK"))
	assert.True(t, cashfreeSuccessEvent("ORDER.PAYMENT.SUCCESS"))
	assert.True(t, cashfreeSuccessEvent("PAYMENT_SUCCESS"))
	assert.False(t, cashfreeSuccessEvent("PAYMENT_FAILED_WEBHOOK"))
	assert.False(t, cashfreeSuccessEvent(""))
}
