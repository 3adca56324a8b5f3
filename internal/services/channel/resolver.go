package channel

import (
	"context"

	"github.com/cinepos/concession-service/internal/domain"
	"github.com/cinepos/concession-service/internal/domain/ports"
)

// Resolution is the outcome of resolving a theater's gateway for a channel.
type Resolution struct {
	Channel         domain.Channel
	Provider        domain.Provider
	Config          domain.PaymentGatewayConfig
	Credentials     *domain.ProviderConfig
	AcceptedMethods map[string]bool
}

// Resolver classifies orders into channels and picks the active provider for
// a theater's channel config.
type Resolver struct {
	theaters ports.TheaterStore
	logger   ports.Logger
}

// NewResolver creates a channel resolver.
func NewResolver(theaters ports.TheaterStore, logger ports.Logger) *Resolver {
	return &Resolver{theaters: theaters, logger: logger}
}

// ChannelForOrder maps an order's source to a dispatch channel.
func (r *Resolver) ChannelForOrder(order *domain.Order) domain.Channel {
	return order.Channel()
}

// Resolve picks the provider for a theater's channel. The configured provider
// wins when its record is enabled and credentialed; otherwise a fixed scan
// order auto-detects the single usable provider. ProviderNone with no usable
// record resolves to ErrGatewayNotConfigured.
func (r *Resolver) Resolve(ctx context.Context, theaterID string, ch domain.Channel) (*Resolution, error) {
	theater, err := r.theaters.GetByID(ctx, theaterID)
	if err != nil {
		return nil, err
	}
	return r.ResolveForTheater(theater, ch)
}

// ResolveForTheater resolves against an already-loaded theater. The
// channel-level enabled flag is the theater's kill-switch; when it is off no
// provider record can resolve, however well credentialed.
func (r *Resolver) ResolveForTheater(theater *domain.Theater, ch domain.Channel) (*Resolution, error) {
	cfg := theater.GatewayConfig(ch)
	if !cfg.Enabled {
		return nil, domain.ErrGatewayNotConfigured
	}

	provider := cfg.Provider
	if provider != domain.ProviderNone && provider != "" {
		rec := cfg.ProviderFor(provider)
		if rec != nil && rec.Enabled && rec.HasCredentials(provider) {
			return r.resolution(ch, provider, cfg, rec), nil
		}
	}

	for _, p := range domain.ProviderScanOrder {
		rec := cfg.ProviderFor(p)
		if rec != nil && rec.Enabled && rec.HasCredentials(p) {
			r.logger.Info("auto-detected payment provider",
				ports.String("theaterID", theater.ID),
				ports.String("channel", string(ch)),
				ports.String("provider", string(p)))
			return r.resolution(ch, p, cfg, rec), nil
		}
	}

	return nil, domain.ErrGatewayNotConfigured
}

func (r *Resolver) resolution(ch domain.Channel, p domain.Provider, cfg domain.PaymentGatewayConfig, rec *domain.ProviderConfig) *Resolution {
	methods := rec.AcceptedMethods
	if len(methods) == 0 {
		methods = domain.DefaultAcceptedMethods(p, ch)
	}
	return &Resolution{
		Channel:         ch,
		Provider:        p,
		Config:          cfg,
		Credentials:     rec,
		AcceptedMethods: methods,
	}
}

// PublicConfig is the credential-free view of a channel's gateway config,
// safe to hand to browser clients.
type PublicConfig struct {
	Provider        domain.Provider        `json:"provider"`
	IsEnabled       bool                   `json:"isEnabled"`
	Channel         domain.Channel         `json:"channel"`
	AcceptedMethods map[string]bool        `json:"acceptedMethods"`
	Razorpay        map[string]interface{} `json:"razorpay,omitempty"`
	Cashfree        map[string]interface{} `json:"cashfree,omitempty"`
}

// PublicConfigFor returns the public gateway config for a theater's channel.
// An unconfigured channel yields a safe provider-none default rather than an
// error; the storefront renders a cash-only flow from it.
func (r *Resolver) PublicConfigFor(ctx context.Context, theaterID string, ch domain.Channel) (*PublicConfig, error) {
	theater, err := r.theaters.GetByID(ctx, theaterID)
	if err != nil {
		return nil, err
	}

	res, err := r.ResolveForTheater(theater, ch)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrorCodeGatewayNotConfigured) {
			return &PublicConfig{
				Provider:        domain.ProviderNone,
				IsEnabled:       false,
				Channel:         ch,
				AcceptedMethods: map[string]bool{},
			}, nil
		}
		return nil, err
	}

	pub := &PublicConfig{
		Provider:        res.Provider,
		IsEnabled:       true,
		Channel:         ch,
		AcceptedMethods: res.AcceptedMethods,
	}
	switch res.Provider {
	case domain.ProviderRazorpay:
		pub.Razorpay = map[string]interface{}{
			"keyId":   res.Credentials.KeyID,
			"sandbox": res.Credentials.Sandbox,
		}
	case domain.ProviderCashfree:
		pub.Cashfree = map[string]interface{}{
			"appId":   res.Credentials.AppID,
			"sandbox": res.Credentials.Sandbox,
		}
	}
	return pub, nil
}
