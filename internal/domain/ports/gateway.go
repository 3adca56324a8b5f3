package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/cinepos/concession-service/internal/domain"
)

// NormalizedStatus is a gateway payment status mapped onto a common scale.
type NormalizedStatus string

const (
	StatusAuthorized NormalizedStatus = "authorized"
	StatusCaptured   NormalizedStatus = "captured"
	StatusFailed     NormalizedStatus = "failed"
	StatusRefunded   NormalizedStatus = "refunded"
	StatusPending    NormalizedStatus = "pending"
)

// CustomerInfo is the minimal customer detail some gateways require on order
// creation.
type CustomerInfo struct {
	Name  string
	Phone string
	Email string
}

// CreateOrderRequest carries everything an adapter needs to open a gateway
// order. Amount is in the smallest currency unit; adapters convert to their
// gateway's convention.
type CreateOrderRequest struct {
	Amount      decimal.Decimal
	Currency    string
	OrderID     string
	OrderNumber string
	TheaterID   string
	Channel     domain.Channel
	Customer    CustomerInfo
}

// CreateOrderResult is the gateway's reference for a created order.
type CreateOrderResult struct {
	GatewayOrderID string
	// SessionID is Cashfree's payment_session_id; empty for other providers.
	SessionID string
	Extra     map[string]interface{}
}

// CallbackParams are the fields the client submits after completing the
// gateway's checkout flow.
type CallbackParams struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

// PaymentView is a gateway payment's state as reported by its status API.
type PaymentView struct {
	Status    NormalizedStatus
	Amount    decimal.Decimal
	OrderID   string
	PaymentID string
}

// StatusRef identifies the payment to fetch; adapters use whichever field
// their API keys on.
type StatusRef struct {
	GatewayOrderID   string
	GatewayPaymentID string
}

// PaymentGateway is the uniform interface over payment providers. Adapters
// are pure over their inputs; all state mutation belongs to the orchestrator.
type PaymentGateway interface {
	Provider() domain.Provider

	CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error)

	// VerifyCallback authenticates a completed checkout. Razorpay checks the
	// HMAC signature; Cashfree polls its payments-by-order API.
	VerifyCallback(ctx context.Context, params CallbackParams) (bool, error)

	FetchStatus(ctx context.Context, ref StatusRef) (*PaymentView, error)

	// VerifyWebhook authenticates a webhook over the exact bytes received.
	VerifyWebhook(rawBody []byte, signature string) bool
}

// GatewayFactory builds an adapter for a provider from a theater's channel
// credentials.
type GatewayFactory interface {
	Gateway(provider domain.Provider, creds *domain.ProviderConfig) (PaymentGateway, error)
}
