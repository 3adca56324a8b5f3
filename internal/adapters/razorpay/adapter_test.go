package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cinepos/concession-service/internal/adapters/logging"
	"github.com/cinepos/concession-service/internal/domain"
	"github.com/cinepos/concession-service/internal/domain/ports"
	pkgerrors "github.com/cinepos/concession-service/pkg/errors"
)

type fakeHTTPClient struct {
	lastRequest *http.Request
	lastBody    []byte
	status      int
	response    string
	err         error
}

func (f *fakeHTTPClient) Do(req *http.Request) (*http.Response, error) {
	f.lastRequest = req
	if req.Body != nil {
		f.lastBody, _ = io.ReadAll(req.Body)
	}
	if f.err != nil {
		return nil, f.err
	}
	status := f.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader([]byte(f.response))),
	}, nil
}

func newTestAdapter(client *fakeHTTPClient) *Adapter {
	creds := &domain.ProviderConfig{
		KeyID:         "rzp_test_key",
		KeySecret:     "test_secret",
		WebhookSecret: "whsec",
	}
	return New(creds, client, logging.NewZapLogger(zap.NewNop())).WithBaseURL("https://rzp.test")
}

func TestCreateOrder(t *testing.T) {
	client := &fakeHTTPClient{
		response: `{"id":"order_G1","amount":50000,"currency":"INR","status":"created"}`,
	}
	adapter := newTestAdapter(client)

	result, err := adapter.CreateOrder(context.Background(), ports.CreateOrderRequest{
		Amount:      decimal.NewFromInt(50000),
		Currency:    "INR",
		OrderID:     "ord-1",
		OrderNumber: "A-42",
		TheaterID:   "th-1",
		Channel:     domain.ChannelKiosk,
	})
	require.NoError(t, err)
	assert.Equal(t, "order_G1", result.GatewayOrderID)
	assert.Empty(t, result.SessionID)

	require.NotNil(t, client.lastRequest)
	assert.Equal(t, http.MethodPost, client.lastRequest.Method)
	assert.Equal(t, "https://rzp.test/v1/orders", client.lastRequest.URL.String())

	user, pass, ok := client.lastRequest.BasicAuth()
	require.True(t, ok)
	assert.Equal(t, "rzp_test_key", user)
	assert.Equal(t, "test_secret", pass)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(client.lastBody, &payload))
	assert.Equal(t, float64(50000), payload["amount"])
	assert.Equal(t, "order_ord-1", payload["receipt"])
	notes := payload["notes"].(map[string]interface{})
	assert.Equal(t, "ord-1", notes["orderId"])
	assert.Equal(t, "th-1", notes["theaterId"])
}

func TestCreateOrder_APIError(t *testing.T) {
	client := &fakeHTTPClient{
		status:   http.StatusBadRequest,
		response: `{"error":{"code":"BAD_REQUEST_ERROR","description":"amount too low"}}`,
	}
	adapter := newTestAdapter(client)

	_, err := adapter.CreateOrder(context.Background(), ports.CreateOrderRequest{
		Amount:   decimal.NewFromInt(1),
		Currency: "INR",
		OrderID:  "ord-1",
	})
	require.Error(t, err)

	var gwErr *pkgerrors.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "BAD_REQUEST_ERROR", gwErr.Code)
	assert.Equal(t, pkgerrors.CategoryInvalidRequest, gwErr.Category)
	assert.False(t, gwErr.IsRetriable)
}

func TestVerifyCallback(t *testing.T) {
	adapter := newTestAdapter(&fakeHTTPClient{})

	valid := Signature("order_G1", "pay_P1", "test_secret")
	ok, err := adapter.VerifyCallback(context.Background(), ports.CallbackParams{
		GatewayOrderID:   "order_G1",
		GatewayPaymentID: "pay_P1",
		Signature:        valid,
	})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = adapter.VerifyCallback(context.Background(), ports.CallbackParams{
		GatewayOrderID:   "order_G1",
		GatewayPaymentID: "pay_P1",
		Signature:        "deadbeef",
	})
	require.NoError(t, err)
	assert.False(t, ok)

	// Signature computed over a different order must not verify.
	other := Signature("order_G2", "pay_P1", "test_secret")
	ok, err = adapter.VerifyCallback(context.Background(), ports.CallbackParams{
		GatewayOrderID:   "order_G1",
		GatewayPaymentID: "pay_P1",
		Signature:        other,
	})
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = adapter.VerifyCallback(context.Background(), ports.CallbackParams{
		GatewayOrderID: "order_G1",
	})
	assert.Error(t, err)
}

func TestFetchStatus(t *testing.T) {
	client := &fakeHTTPClient{
		response: `{"id":"pay_P1","order_id":"order_G1","amount":50000,"currency":"INR","status":"captured"}`,
	}
	adapter := newTestAdapter(client)

	view, err := adapter.FetchStatus(context.Background(), ports.StatusRef{GatewayPaymentID: "pay_P1"})
	require.NoError(t, err)
	assert.Equal(t, ports.StatusCaptured, view.Status)
	assert.Equal(t, "order_G1", view.OrderID)
	assert.Equal(t, "pay_P1", view.PaymentID)
	assert.True(t, view.Amount.Equal(decimal.NewFromInt(50000)))
	assert.Equal(t, "https://rzp.test/v1/payments/pay_P1", client.lastRequest.URL.String())
}

func TestFetchStatus_NormalizesStatuses(t *testing.T) {
	tests := []struct {
		gateway string
		want    ports.NormalizedStatus
	}{
		{"created", ports.StatusPending},
		{"authorized", ports.StatusAuthorized},
		{"captured", ports.StatusCaptured},
		{"refunded", ports.StatusRefunded},
		{"failed", ports.StatusFailed},
		{"something_new", ports.StatusPending},
	}
	for _, tt := range tests {
		t.Run(tt.gateway, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeStatus(tt.gateway))
		})
	}
}

func TestVerifyWebhook(t *testing.T) {
	adapter := newTestAdapter(&fakeHTTPClient{})
	body := []byte(`{"event":"payment.captured"}`)

	assert.True(t, adapter.VerifyWebhook(body, signBytes(body, "whsec")))
	assert.False(t, adapter.VerifyWebhook(body, signBytes(body, "wrong")))
	assert.False(t, adapter.VerifyWebhook(body, ""))

	// Any byte difference invalidates the signature.
	tampered := append([]byte{}, body...)
	tampered[0] = ' '
	assert.False(t, adapter.VerifyWebhook(tampered, signBytes(body, "whsec")))
}

func TestVerifyWebhook_NoSecret(t *testing.T) {
	creds := &domain.ProviderConfig{KeyID: "k", KeySecret: "s"}
	adapter := New(creds, &fakeHTTPClient{}, logging.NewZapLogger(zap.NewNop()))

	assert.False(t, adapter.HasWebhookSecret())
	assert.False(t, adapter.VerifyWebhook([]byte("{}"), "anything"))
}
