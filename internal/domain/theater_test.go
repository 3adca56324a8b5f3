package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProviderConfig_HasCredentials(t *testing.T) {
	tests := []struct {
		name     string
		provider Provider
		cfg      ProviderConfig
		want     bool
	}{
		{"razorpay complete", ProviderRazorpay, ProviderConfig{KeyID: "rzp_test_k", KeySecret: "s"}, true},
		{"razorpay missing secret", ProviderRazorpay, ProviderConfig{KeyID: "rzp_test_k"}, false},
		{"cashfree complete", ProviderCashfree, ProviderConfig{AppID: "app", SecretKey: "s"}, true},
		{"cashfree missing app id", ProviderCashfree, ProviderConfig{SecretKey: "s"}, false},
		{"phonepe complete", ProviderPhonePe, ProviderConfig{MerchantID: "m", Salt: "salt"}, true},
		{"phonepe missing salt", ProviderPhonePe, ProviderConfig{MerchantID: "m"}, false},
		{"paytm complete", ProviderPaytm, ProviderConfig{MerchantID: "m", MerchantKey: "k"}, true},
		{"unknown provider", Provider("upi-direct"), ProviderConfig{KeyID: "k", KeySecret: "s"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.HasCredentials(tt.provider))
		})
	}
}

func TestPaymentGatewayConfig_IsActive(t *testing.T) {
	active := PaymentGatewayConfig{
		Provider: ProviderRazorpay,
		Enabled:  true,
		Razorpay: &ProviderConfig{Enabled: true, KeyID: "k", KeySecret: "s"},
	}
	assert.True(t, active.IsActive(ProviderRazorpay))
	assert.False(t, active.IsActive(ProviderCashfree))

	channelDisabled := active
	channelDisabled.Enabled = false
	assert.False(t, channelDisabled.IsActive(ProviderRazorpay))

	recordDisabled := active
	recordDisabled.Razorpay = &ProviderConfig{Enabled: false, KeyID: "k", KeySecret: "s"}
	assert.False(t, recordDisabled.IsActive(ProviderRazorpay))

	noCredentials := active
	noCredentials.Razorpay = &ProviderConfig{Enabled: true, KeyID: "k"}
	assert.False(t, noCredentials.IsActive(ProviderRazorpay))

	noRecord := PaymentGatewayConfig{Provider: ProviderRazorpay, Enabled: true}
	assert.False(t, noRecord.IsActive(ProviderRazorpay))
}

func TestTheater_GatewayConfig(t *testing.T) {
	theater := &Theater{
		ID: "th-1",
		Gateways: map[Channel]PaymentGatewayConfig{
			ChannelKiosk: {Provider: ProviderRazorpay, Enabled: true},
		},
	}

	assert.Equal(t, ProviderRazorpay, theater.GatewayConfig(ChannelKiosk).Provider)

	// Missing channel yields a disabled provider-none default.
	online := theater.GatewayConfig(ChannelOnline)
	assert.Equal(t, ProviderNone, online.Provider)
	assert.False(t, online.Enabled)

	empty := &Theater{ID: "th-2"}
	assert.Equal(t, ProviderNone, empty.GatewayConfig(ChannelKiosk).Provider)
}

func TestDefaultAcceptedMethods(t *testing.T) {
	kiosk := DefaultAcceptedMethods(ProviderRazorpay, ChannelKiosk)
	assert.True(t, kiosk["card"])
	assert.True(t, kiosk["upi"])
	assert.True(t, kiosk["cash"])

	online := DefaultAcceptedMethods(ProviderRazorpay, ChannelOnline)
	assert.False(t, online["cash"])

	cashfree := DefaultAcceptedMethods(ProviderCashfree, ChannelOnline)
	assert.True(t, cashfree["netbanking"])
	assert.True(t, cashfree["wallet"])

	phonepe := DefaultAcceptedMethods(ProviderPhonePe, ChannelOnline)
	assert.True(t, phonepe["upi"])
	assert.False(t, phonepe["card"])
}
