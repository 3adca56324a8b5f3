package gateway

import (
	"context"

	"github.com/cinepos/concession-service/internal/adapters/cashfree"
	"github.com/cinepos/concession-service/internal/adapters/razorpay"
	"github.com/cinepos/concession-service/internal/domain"
	"github.com/cinepos/concession-service/internal/domain/ports"
)

// Factory builds gateway adapters from per-theater credentials. Adapters are
// cheap stateless structs over a shared HTTP client, so a new one per call is
// fine.
type Factory struct {
	httpClient ports.HTTPClient
	urls       cashfree.ReturnURLs
	logger     ports.Logger
}

// NewFactory creates a gateway factory.
func NewFactory(httpClient ports.HTTPClient, urls cashfree.ReturnURLs, logger ports.Logger) *Factory {
	return &Factory{
		httpClient: httpClient,
		urls:       urls,
		logger:     logger,
	}
}

// Gateway returns the adapter for the provider, or ErrProviderUnsupported for
// providers that only exist as stubs.
func (f *Factory) Gateway(provider domain.Provider, creds *domain.ProviderConfig) (ports.PaymentGateway, error) {
	if creds == nil {
		return nil, domain.ErrGatewayNotConfigured
	}
	switch provider {
	case domain.ProviderRazorpay:
		return razorpay.New(creds, f.httpClient, f.logger), nil
	case domain.ProviderCashfree:
		return cashfree.New(creds, f.urls, f.httpClient, f.logger), nil
	case domain.ProviderPhonePe, domain.ProviderPaytm:
		return &stubGateway{provider: provider}, nil
	default:
		return nil, domain.ErrGatewayNotConfigured
	}
}

// stubGateway stands in for providers that are configured but not yet
// integrated. Every operation fails fast with ProviderUnsupported.
type stubGateway struct {
	provider domain.Provider
}

func (s *stubGateway) Provider() domain.Provider {
	return s.provider
}

func (s *stubGateway) CreateOrder(ctx context.Context, req ports.CreateOrderRequest) (*ports.CreateOrderResult, error) {
	return nil, domain.NewDomainError(domain.ErrorCodeProviderUnsupported,
		string(s.provider)+" integration is not available")
}

func (s *stubGateway) VerifyCallback(ctx context.Context, params ports.CallbackParams) (bool, error) {
	return false, domain.NewDomainError(domain.ErrorCodeProviderUnsupported,
		string(s.provider)+" integration is not available")
}

func (s *stubGateway) FetchStatus(ctx context.Context, ref ports.StatusRef) (*ports.PaymentView, error) {
	return nil, domain.NewDomainError(domain.ErrorCodeProviderUnsupported,
		string(s.provider)+" integration is not available")
}

func (s *stubGateway) VerifyWebhook(rawBody []byte, signature string) bool {
	return false
}
