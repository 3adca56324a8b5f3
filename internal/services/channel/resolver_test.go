package channel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cinepos/concession-service/internal/adapters/logging"
	"github.com/cinepos/concession-service/internal/domain"
)

type stubTheaterStore struct {
	theaters map[string]*domain.Theater
}

func (s *stubTheaterStore) GetByID(ctx context.Context, theaterID string) (*domain.Theater, error) {
	if t, ok := s.theaters[theaterID]; ok {
		return t, nil
	}
	return nil, domain.ErrTheaterNotFound
}

func (s *stubTheaterStore) ListConfigured(ctx context.Context) ([]*domain.Theater, error) {
	out := make([]*domain.Theater, 0, len(s.theaters))
	for _, t := range s.theaters {
		out = append(out, t)
	}
	return out, nil
}

func newTestResolver(theaters ...*domain.Theater) *Resolver {
	store := &stubTheaterStore{theaters: map[string]*domain.Theater{}}
	for _, t := range theaters {
		store.theaters[t.ID] = t
	}
	return NewResolver(store, logging.NewZapLogger(zap.NewNop()))
}

func razorpayTheater(id string) *domain.Theater {
	return &domain.Theater{
		ID: id,
		Gateways: map[domain.Channel]domain.PaymentGatewayConfig{
			domain.ChannelKiosk: {
				Provider: domain.ProviderRazorpay,
				Enabled:  true,
				Razorpay: &domain.ProviderConfig{Enabled: true, KeyID: "rzp_k", KeySecret: "s", Sandbox: true},
			},
		},
	}
}

func TestResolve_ConfiguredProvider(t *testing.T) {
	resolver := newTestResolver(razorpayTheater("th-1"))

	res, err := resolver.Resolve(context.Background(), "th-1", domain.ChannelKiosk)
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderRazorpay, res.Provider)
	assert.Equal(t, "rzp_k", res.Credentials.KeyID)
	// No explicit methods configured, so defaults apply; kiosk gets cash.
	assert.True(t, res.AcceptedMethods["cash"])
}

func TestResolve_AutoDetect(t *testing.T) {
	// Channel says none but a single usable cashfree record exists.
	theater := &domain.Theater{
		ID: "th-2",
		Gateways: map[domain.Channel]domain.PaymentGatewayConfig{
			domain.ChannelOnline: {
				Provider: domain.ProviderNone,
				Enabled:  true,
				Cashfree: &domain.ProviderConfig{Enabled: true, AppID: "app", SecretKey: "s"},
			},
		},
	}
	resolver := newTestResolver(theater)

	res, err := resolver.Resolve(context.Background(), "th-2", domain.ChannelOnline)
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderCashfree, res.Provider)
}

func TestResolve_AutoDetectScanOrder(t *testing.T) {
	// When multiple records are usable the fixed scan order picks razorpay
	// ahead of cashfree.
	theater := &domain.Theater{
		ID: "th-3",
		Gateways: map[domain.Channel]domain.PaymentGatewayConfig{
			domain.ChannelOnline: {
				Provider: domain.ProviderNone,
				Enabled:  true,
				Razorpay: &domain.ProviderConfig{Enabled: true, KeyID: "k", KeySecret: "s"},
				Cashfree: &domain.ProviderConfig{Enabled: true, AppID: "app", SecretKey: "s"},
			},
		},
	}
	resolver := newTestResolver(theater)

	res, err := resolver.Resolve(context.Background(), "th-3", domain.ChannelOnline)
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderRazorpay, res.Provider)
}

func TestResolve_ConfiguredWinsOverScanOrder(t *testing.T) {
	theater := &domain.Theater{
		ID: "th-4",
		Gateways: map[domain.Channel]domain.PaymentGatewayConfig{
			domain.ChannelOnline: {
				Provider: domain.ProviderCashfree,
				Enabled:  true,
				Razorpay: &domain.ProviderConfig{Enabled: true, KeyID: "k", KeySecret: "s"},
				Cashfree: &domain.ProviderConfig{Enabled: true, AppID: "app", SecretKey: "s"},
			},
		},
	}
	resolver := newTestResolver(theater)

	res, err := resolver.Resolve(context.Background(), "th-4", domain.ChannelOnline)
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderCashfree, res.Provider)
}

func TestResolve_FallsBackWhenConfiguredUnusable(t *testing.T) {
	// Selected provider has no credentials; scan finds the usable record.
	theater := &domain.Theater{
		ID: "th-5",
		Gateways: map[domain.Channel]domain.PaymentGatewayConfig{
			domain.ChannelKiosk: {
				Provider: domain.ProviderRazorpay,
				Enabled:  true,
				Razorpay: &domain.ProviderConfig{Enabled: true, KeyID: "k"},
				Cashfree: &domain.ProviderConfig{Enabled: true, AppID: "app", SecretKey: "s"},
			},
		},
	}
	resolver := newTestResolver(theater)

	res, err := resolver.Resolve(context.Background(), "th-5", domain.ChannelKiosk)
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderCashfree, res.Provider)
}

func TestResolve_NotConfigured(t *testing.T) {
	resolver := newTestResolver(&domain.Theater{ID: "th-6"})

	_, err := resolver.Resolve(context.Background(), "th-6", domain.ChannelKiosk)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeGatewayNotConfigured))
}

func TestResolve_DisabledChannelNeverResolves(t *testing.T) {
	// The channel kill-switch overrides a fully credentialed provider record,
	// for both the configured-provider path and the scan path.
	theater := razorpayTheater("th-9")
	cfg := theater.Gateways[domain.ChannelKiosk]
	cfg.Enabled = false
	theater.Gateways[domain.ChannelKiosk] = cfg
	resolver := newTestResolver(theater)

	_, err := resolver.Resolve(context.Background(), "th-9", domain.ChannelKiosk)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeGatewayNotConfigured))

	cfg.Provider = domain.ProviderNone
	theater.Gateways[domain.ChannelKiosk] = cfg
	_, err = resolver.Resolve(context.Background(), "th-9", domain.ChannelKiosk)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeGatewayNotConfigured))
}

func TestResolve_TheaterNotFound(t *testing.T) {
	resolver := newTestResolver()

	_, err := resolver.Resolve(context.Background(), "missing", domain.ChannelKiosk)
	assert.True(t, domain.IsNotFoundError(err))
}

func TestResolve_ExplicitAcceptedMethods(t *testing.T) {
	theater := razorpayTheater("th-7")
	cfg := theater.Gateways[domain.ChannelKiosk]
	cfg.Razorpay.AcceptedMethods = map[string]bool{"upi": true}
	theater.Gateways[domain.ChannelKiosk] = cfg
	resolver := newTestResolver(theater)

	res, err := resolver.Resolve(context.Background(), "th-7", domain.ChannelKiosk)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"upi": true}, res.AcceptedMethods)
}

func TestPublicConfigFor(t *testing.T) {
	resolver := newTestResolver(razorpayTheater("th-1"))

	pub, err := resolver.PublicConfigFor(context.Background(), "th-1", domain.ChannelKiosk)
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderRazorpay, pub.Provider)
	assert.True(t, pub.IsEnabled)
	assert.Equal(t, "rzp_k", pub.Razorpay["keyId"])
	assert.Equal(t, true, pub.Razorpay["sandbox"])
	assert.Nil(t, pub.Cashfree)
}

func TestPublicConfigFor_Unconfigured(t *testing.T) {
	resolver := newTestResolver(&domain.Theater{ID: "th-bare"})

	pub, err := resolver.PublicConfigFor(context.Background(), "th-bare", domain.ChannelOnline)
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderNone, pub.Provider)
	assert.False(t, pub.IsEnabled)
	assert.Empty(t, pub.AcceptedMethods)
}
