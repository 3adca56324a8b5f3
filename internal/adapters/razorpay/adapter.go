package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
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

const defaultBaseURL = "https://api.razorpay.com"

// Adapter implements ports.PaymentGateway over Razorpay's REST API.
// Amounts are in the smallest currency unit (paise).
type Adapter struct {
	keyID         string
	keySecret     string
	webhookSecret string
	baseURL       string
	httpClient    ports.HTTPClient
	logger        ports.Logger
}

// New creates a Razorpay adapter from a theater's channel credentials.
func New(creds *domain.ProviderConfig, httpClient ports.HTTPClient, logger ports.Logger) *Adapter {
	return &Adapter{
		keyID:         creds.KeyID,
		keySecret:     creds.KeySecret,
		webhookSecret: creds.WebhookSecret,
		baseURL:       defaultBaseURL,
		httpClient:    httpClient,
		logger:        logger,
	}
}

// WithBaseURL overrides the API base URL, used by tests.
func (a *Adapter) WithBaseURL(baseURL string) *Adapter {
	a.baseURL = baseURL
	return a
}

func (a *Adapter) Provider() domain.Provider {
	return domain.ProviderRazorpay
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

type paymentResponse struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder opens a gateway order. The receipt is "order_"+orderId and the
// notes bind the gateway order back to the concession order.
func (a *Adapter) CreateOrder(ctx context.Context, req ports.CreateOrderRequest) (*ports.CreateOrderResult, error) {
	payload := map[string]interface{}{
		"amount":   req.Amount.IntPart(),
		"currency": req.Currency,
		"receipt":  "order_" + req.OrderID,
		"notes": map[string]string{
			"orderId":     req.OrderID,
			"orderNumber": req.OrderNumber,
			"theaterId":   req.TheaterID,
			"channel":     string(req.Channel),
		},
	}

	var resp orderResponse
	if err := a.call(ctx, http.MethodPost, "/v1/orders", payload, &resp, "create_order"); err != nil {
		return nil, err
	}

	return &ports.CreateOrderResult{
		GatewayOrderID: resp.ID,
		Extra: map[string]interface{}{
			"status": resp.Status,
		},
	}, nil
}

// VerifyCallback checks the checkout signature: HMAC-SHA256 over
// "orderId|paymentId" keyed with the key secret, compared in constant time.
func (a *Adapter) VerifyCallback(ctx context.Context, params ports.CallbackParams) (bool, error) {
	if params.GatewayOrderID == "" || params.GatewayPaymentID == "" || params.Signature == "" {
		return false, pkgerrors.NewValidationError("signature", "order id, payment id and signature are required")
	}
	expected := signPayload(params.GatewayOrderID+"|"+params.GatewayPaymentID, a.keySecret)
	return hmac.Equal([]byte(expected), []byte(params.Signature)), nil
}

// FetchStatus fetches the payment and normalizes its status.
func (a *Adapter) FetchStatus(ctx context.Context, ref ports.StatusRef) (*ports.PaymentView, error) {
	if ref.GatewayPaymentID == "" {
		return nil, pkgerrors.NewValidationError("payment_id", "payment id is required")
	}

	var resp paymentResponse
	path := fmt.Sprintf("/v1/payments/%s", ref.GatewayPaymentID)
	if err := a.call(ctx, http.MethodGet, path, nil, &resp, "fetch_status"); err != nil {
		return nil, err
	}

	return &ports.PaymentView{
		Status:    normalizeStatus(resp.Status),
		Amount:    decimal.NewFromInt(resp.Amount),
		OrderID:   resp.OrderID,
		PaymentID: resp.ID,
	}, nil
}

// VerifyWebhook checks the HMAC-SHA256 of the exact received body against the
// x-razorpay-signature header value. Returns false when no webhook secret is
// configured; the caller decides whether to skip verification.
func (a *Adapter) VerifyWebhook(rawBody []byte, signature string) bool {
	if a.webhookSecret == "" || signature == "" {
		return false
	}
	expected := signBytes(rawBody, a.webhookSecret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// HasWebhookSecret reports whether webhook signatures can be verified at all.
func (a *Adapter) HasWebhookSecret() bool {
	return a.webhookSecret != ""
}

func (a *Adapter) call(ctx context.Context, method, path string, payload interface{}, out interface{}, operation string) error {
	start := time.Now()
	defer observability.ObserveGatewayCall("razorpay", operation, start)

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
	req.SetBasicAuth(a.keyID, a.keySecret)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return pkgerrors.NewGatewayError("razorpay", "NETWORK_ERROR", "razorpay request failed",
			pkgerrors.CategoryNetworkError, true).WithGatewayMessage(err.Error())
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return pkgerrors.NewGatewayError("razorpay", "READ_ERROR", "failed to read razorpay response",
			pkgerrors.CategoryNetworkError, true)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp errorResponse
		_ = json.Unmarshal(data, &errResp)
		a.logger.Warn("razorpay API error",
			ports.String("operation", operation),
			ports.Int("status", resp.StatusCode),
			ports.String("code", errResp.Error.Code))
		category := pkgerrors.CategorySystemError
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			category = pkgerrors.CategoryInvalidRequest
		}
		return pkgerrors.NewGatewayError("razorpay", errResp.Error.Code, "razorpay API error",
			category, resp.StatusCode >= 500).WithGatewayMessage(errResp.Error.Description)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return pkgerrors.NewGatewayError("razorpay", "DECODE_ERROR", "invalid razorpay response",
				pkgerrors.CategorySystemError, false)
		}
	}
	return nil
}

func normalizeStatus(status string) ports.NormalizedStatus {
	switch status {
	case "authorized":
		return ports.StatusAuthorized
	case "captured":
		return ports.StatusCaptured
	case "refunded":
		return ports.StatusRefunded
	case "failed":
		return ports.StatusFailed
	default:
		// created and anything unrecognized
		return ports.StatusPending
	}
}

func signPayload(payload, secret string) string {
	return signBytes([]byte(payload), secret)
}

func signBytes(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Signature computes the checkout signature for the given order and payment
// ids. Exported for tests and tooling.
func Signature(orderID, paymentID, secret string) string {
	return signPayload(orderID+"|"+paymentID, secret)
}
