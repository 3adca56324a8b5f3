package domain

import "strings"

// Channel is the dispatch surface of an order: on-prem POS/counter or
// customer-facing QR/web.
type Channel string

const (
	ChannelKiosk  Channel = "kiosk"
	ChannelOnline Channel = "online"
)

// Provider identifies a payment gateway integration.
type Provider string

const (
	ProviderRazorpay Provider = "razorpay"
	ProviderCashfree Provider = "cashfree"
	ProviderPhonePe  Provider = "phonepe"
	ProviderPaytm    Provider = "paytm"
	ProviderNone     Provider = "none"
)

// ProviderScanOrder fixes the auto-detection order when a channel's provider
// is none but exactly one provider record is usable.
var ProviderScanOrder = []Provider{
	ProviderRazorpay,
	ProviderPhonePe,
	ProviderPaytm,
	ProviderCashfree,
}

var kioskSources = map[string]struct{}{
	"kiosk":       {},
	"pos":         {},
	"counter":     {},
	"offline-pos": {},
	"offline_pos": {},
	"staff":       {},
}

var onlineSources = map[string]struct{}{
	"online":   {},
	"web":      {},
	"qr":       {},
	"qr_order": {},
	"qr_code":  {},
	"customer": {},
	"app":      {},
}

// ChannelForSource maps an order's free-form source string to a channel.
// Matching is case-insensitive and unknown sources default to kiosk, which is
// the safer surface: a staff terminal is attended, a wrongly-onlined kiosk
// order would push payment to an absent customer.
func ChannelForSource(source string) Channel {
	s := strings.ToLower(strings.TrimSpace(source))
	if _, ok := onlineSources[s]; ok {
		return ChannelOnline
	}
	return ChannelKiosk
}

// IsOnlineSource reports whether the source maps to the online channel.
func IsOnlineSource(source string) bool {
	return ChannelForSource(source) == ChannelOnline
}

// ValidChannel reports whether s names a known channel.
func ValidChannel(s string) bool {
	c := Channel(strings.ToLower(strings.TrimSpace(s)))
	return c == ChannelKiosk || c == ChannelOnline
}
