package cashfree

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cinepos/concession-service/internal/domain"
	"github.com/cinepos/concession-service/internal/domain/ports"
	pkgerrors "github.com/cinepos/concession-service/pkg/errors"
	"github.com/cinepos/concession-service/pkg/observability"
)

const (
	productionBaseURL = "https://api.cashfree.com/pg"
	sandboxBaseURL    = "https://sandbox.cashfree.com/pg"
	apiVersion        = "2023-08-01"

	// Cashfree takes a comma-separated allowlist of payment methods.
	paymentMethods = "cc,dc,upi,netbanking,wallet"
)

// ReturnURLs are the redirect and notification endpoints Cashfree calls back
// on, built from the deployment's frontend and backend base URLs.
type ReturnURLs struct {
	ReturnURL string
	NotifyURL string
}

// Adapter implements ports.PaymentGateway over Cashfree's PG REST API.
// Unlike Razorpay, Cashfree amounts are in major currency units.
type Adapter struct {
	appID         string
	secretKey     string
	webhookSecret string
	baseURL       string
	urls          ReturnURLs
	httpClient    ports.HTTPClient
	logger        ports.Logger
	now           func() time.Time
}

// New creates a Cashfree adapter from a theater's channel credentials.
func New(creds *domain.ProviderConfig, urls ReturnURLs, httpClient ports.HTTPClient, logger ports.Logger) *Adapter {
	baseURL := productionBaseURL
	if creds.Sandbox {
		baseURL = sandboxBaseURL
	}
	return &Adapter{
		appID:         creds.AppID,
		secretKey:     creds.SecretKey,
		webhookSecret: creds.WebhookSecret,
		baseURL:       baseURL,
		urls:          urls,
		httpClient:    httpClient,
		logger:        logger,
		now:           time.Now,
	}
}

// WithBaseURL overrides the API base URL, used by tests.
func (a *Adapter) WithBaseURL(baseURL string) *Adapter {
	a.baseURL = baseURL
	return a
}

// WithClock overrides the clock, used by tests.
func (a *Adapter) WithClock(now func() time.Time) *Adapter {
	a.now = now
	return a
}

func (a *Adapter) Provider() domain.Provider {
	return domain.ProviderCashfree
}

type createOrderResponse struct {
	CFOrderID        json.Number `json:"cf_order_id"`
	OrderID          string      `json:"order_id"`
	PaymentSessionID string      `json:"payment_session_id"`
	OrderStatus      string      `json:"order_status"`
}

type paymentEntry struct {
	CFPaymentID   json.Number     `json:"cf_payment_id"`
	OrderID       string          `json:"order_id"`
	PaymentStatus string          `json:"payment_status"`
	PaymentAmount decimal.Decimal `json:"payment_amount"`
}

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Type    string `json:"type"`
}

// CreateOrder opens a Cashfree order. The gateway order id embeds the
// creation time so retried creates never collide, and the response carries
// the payment_session_id the checkout needs.
func (a *Adapter) CreateOrder(ctx context.Context, req ports.CreateOrderRequest) (*ports.CreateOrderResult, error) {
	gatewayOrderID := fmt.Sprintf("order_%s_%d", req.OrderID, a.now().UnixMilli())

	customerPhone := req.Customer.Phone
	if customerPhone == "" {
		customerPhone = "9999999999"
	}
	customerName := req.Customer.Name
	if customerName == "" {
		customerName = "Guest"
	}

	payload := map[string]interface{}{
		"order_id":       gatewayOrderID,
		"order_amount":   req.Amount.Div(decimal.NewFromInt(100)).Round(2),
		"order_currency": req.Currency,
		"customer_details": map[string]string{
			"customer_id":    "cust_" + req.OrderID,
			"customer_name":  customerName,
			"customer_phone": customerPhone,
			"customer_email": req.Customer.Email,
		},
		"order_meta": map[string]string{
			"return_url":      a.urls.ReturnURL,
			"notify_url":      a.urls.NotifyURL,
			"payment_methods": paymentMethods,
		},
		"order_note": "theater:" + req.TheaterID + " channel:" + string(req.Channel),
	}

	var resp createOrderResponse
	if err := a.call(ctx, http.MethodPost, "/orders", payload, &resp, "create_order"); err != nil {
		return nil, err
	}

	return &ports.CreateOrderResult{
		GatewayOrderID: resp.OrderID,
		SessionID:      resp.PaymentSessionID,
		Extra: map[string]interface{}{
			"orderStatus": resp.OrderStatus,
		},
	}, nil
}

// VerifyCallback has no signature to check; Cashfree checkout redirects carry
// none. Authenticity comes from polling the payments-by-order API over the
// authenticated channel and requiring a successful payment.
func (a *Adapter) VerifyCallback(ctx context.Context, params ports.CallbackParams) (bool, error) {
	if params.GatewayOrderID == "" {
		return false, pkgerrors.NewValidationError("order_id", "gateway order id is required")
	}

	payments, err := a.fetchPayments(ctx, params.GatewayOrderID)
	if err != nil {
		return false, err
	}

	for _, p := range payments {
		if isSuccessStatus(p.PaymentStatus) {
			return true, nil
		}
	}
	return false, nil
}

// FetchStatus reports the order's best payment: a successful one if present,
// otherwise the first entry.
func (a *Adapter) FetchStatus(ctx context.Context, ref ports.StatusRef) (*ports.PaymentView, error) {
	if ref.GatewayOrderID == "" {
		return nil, pkgerrors.NewValidationError("order_id", "gateway order id is required")
	}

	payments, err := a.fetchPayments(ctx, ref.GatewayOrderID)
	if err != nil {
		return nil, err
	}
	if len(payments) == 0 {
		return &ports.PaymentView{
			Status:  ports.StatusPending,
			OrderID: ref.GatewayOrderID,
		}, nil
	}

	best := payments[0]
	for _, p := range payments {
		if isSuccessStatus(p.PaymentStatus) {
			best = p
			break
		}
	}

	// Cashfree reports major units; normalize back to the smallest unit.
	return &ports.PaymentView{
		Status:    normalizeStatus(best.PaymentStatus),
		Amount:    best.PaymentAmount.Mul(decimal.NewFromInt(100)),
		OrderID:   best.OrderID,
		PaymentID: best.CFPaymentID.String(),
	}, nil
}

// VerifyWebhook checks Cashfree's x-webhook-signature: base64 of the
// HMAC-SHA256 over timestamp+body. The caller passes "timestamp" and the
// header value through VerifyWebhookWithTimestamp; this variant covers
// payloads signed without a timestamp.
func (a *Adapter) VerifyWebhook(rawBody []byte, signature string) bool {
	return a.VerifyWebhookWithTimestamp(rawBody, signature, "")
}

// VerifyWebhookWithTimestamp verifies the signature over timestamp+rawBody in
// constant time.
func (a *Adapter) VerifyWebhookWithTimestamp(rawBody []byte, signature, timestamp string) bool {
	if a.webhookSecret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(a.webhookSecret))
	mac.Write([]byte(timestamp))
	mac.Write(rawBody)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// HasWebhookSecret reports whether webhook signatures can be verified at all.
func (a *Adapter) HasWebhookSecret() bool {
	return a.webhookSecret != ""
}

func (a *Adapter) fetchPayments(ctx context.Context, gatewayOrderID string) ([]paymentEntry, error) {
	var payments []paymentEntry
	path := fmt.Sprintf("/orders/%s/payments", gatewayOrderID)
	if err := a.call(ctx, http.MethodGet, path, nil, &payments, "fetch_payments"); err != nil {
		return nil, err
	}
	return payments, nil
}

func (a *Adapter) call(ctx context.Context, method, path string, payload interface{}, out interface{}, operation string) error {
	start := time.Now()
	defer observability.ObserveGatewayCall("cashfree", operation, start)

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("x-client-id", a.appID)
	req.Header.Set("x-client-secret", a.secretKey)
	req.Header.Set("x-api-version", apiVersion)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return pkgerrors.NewGatewayError("cashfree", "NETWORK_ERROR", "cashfree request failed",
			pkgerrors.CategoryNetworkError, true).WithGatewayMessage(err.Error())
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return pkgerrors.NewGatewayError("cashfree", "READ_ERROR", "failed to read cashfree response",
			pkgerrors.CategoryNetworkError, true)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp apiError
		_ = json.Unmarshal(data, &errResp)
		a.logger.Warn("cashfree API error",
			ports.String("operation", operation),
			ports.Int("status", resp.StatusCode),
			ports.String("code", errResp.Code))
		category := pkgerrors.CategorySystemError
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			category = pkgerrors.CategoryInvalidRequest
		}
		return pkgerrors.NewGatewayError("cashfree", errResp.Code, "cashfree API error",
			category, resp.StatusCode >= 500).WithGatewayMessage(errResp.Message)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return pkgerrors.NewGatewayError("cashfree", "DECODE_ERROR", "invalid cashfree response",
				pkgerrors.CategorySystemError, false)
		}
	}
	return nil
}

func isSuccessStatus(status string) bool {
	return status == "SUCCESS" || status == "CAPTURED" || status == "COMPLETED"
}

func normalizeStatus(status string) ports.NormalizedStatus {
	switch status {
	case "SUCCESS", "CAPTURED", "COMPLETED":
		return ports.StatusCaptured
	case "FAILED", "CANCELLED", "USER_DROPPED", "VOID":
		return ports.StatusFailed
	case "REFUNDED":
		return ports.StatusRefunded
	default:
		// PENDING, NOT_ATTEMPTED and anything unrecognized
		return ports.StatusPending
	}
}

// TimestampHeader is the header Cashfree sends the webhook timestamp in.
const TimestampHeader = "x-webhook-timestamp"

// SignatureHeader is the header Cashfree sends webhook signatures in.
const SignatureHeader = "x-webhook-signature"
