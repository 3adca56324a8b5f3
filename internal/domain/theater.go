package domain

// Theater carries the per-theater gateway configuration the payment core
// reads. The admin surfaces own writes; from here the record is read-only.
type Theater struct {
	ID       string                           `bson:"_id" json:"id"`
	Name     string                           `bson:"name" json:"name"`
	Gateways map[Channel]PaymentGatewayConfig `bson:"paymentGateways" json:"paymentGateways"`
}

// GatewayConfig returns the channel's gateway configuration, or a disabled
// provider-none default when the channel has none.
func (t *Theater) GatewayConfig(ch Channel) PaymentGatewayConfig {
	if t.Gateways != nil {
		if cfg, ok := t.Gateways[ch]; ok {
			return cfg
		}
	}
	return PaymentGatewayConfig{Provider: ProviderNone}
}

// PaymentGatewayConfig is one channel's gateway selection plus the credential
// records for every provider the theater has ever configured.
type PaymentGatewayConfig struct {
	Provider Provider `bson:"provider" json:"provider"`
	Enabled  bool     `bson:"enabled" json:"enabled"`

	Razorpay *ProviderConfig `bson:"razorpay,omitempty" json:"razorpay,omitempty"`
	Cashfree *ProviderConfig `bson:"cashfree,omitempty" json:"cashfree,omitempty"`
	PhonePe  *ProviderConfig `bson:"phonepe,omitempty" json:"phonepe,omitempty"`
	Paytm    *ProviderConfig `bson:"paytm,omitempty" json:"paytm,omitempty"`
}

// ProviderFor returns the credential record for the provider, nil when the
// theater never configured it.
func (c PaymentGatewayConfig) ProviderFor(p Provider) *ProviderConfig {
	switch p {
	case ProviderRazorpay:
		return c.Razorpay
	case ProviderCashfree:
		return c.Cashfree
	case ProviderPhonePe:
		return c.PhonePe
	case ProviderPaytm:
		return c.Paytm
	}
	return nil
}

// IsActive reports whether provider p is fully usable on this channel: it is
// the selected provider, the channel is enabled, the provider record is
// enabled, and the record carries every required credential.
func (c PaymentGatewayConfig) IsActive(p Provider) bool {
	if c.Provider != p || !c.Enabled {
		return false
	}
	rec := c.ProviderFor(p)
	return rec != nil && rec.Enabled && rec.HasCredentials(p)
}

// ProviderConfig holds one provider's credentials and options. Secret fields
// never serialize to JSON.
type ProviderConfig struct {
	Enabled bool `bson:"enabled" json:"enabled"`

	// Razorpay
	KeyID     string `bson:"keyId,omitempty" json:"keyId,omitempty"`
	KeySecret string `bson:"keySecret,omitempty" json:"-"`

	// Cashfree
	AppID     string `bson:"appId,omitempty" json:"appId,omitempty"`
	SecretKey string `bson:"secretKey,omitempty" json:"-"`

	// PhonePe / Paytm
	MerchantID  string `bson:"merchantId,omitempty" json:"merchantId,omitempty"`
	MerchantKey string `bson:"merchantKey,omitempty" json:"-"`
	Salt        string `bson:"salt,omitempty" json:"-"`

	Sandbox       bool   `bson:"sandbox" json:"sandbox"`
	WebhookSecret string `bson:"webhookSecret,omitempty" json:"-"`

	// AcceptedMethods maps payment-instrument names to availability. Empty
	// means "use the provider's defaults".
	AcceptedMethods map[string]bool `bson:"acceptedMethods,omitempty" json:"acceptedMethods,omitempty"`
}

// HasCredentials reports whether the record carries every credential field
// the provider requires.
func (r *ProviderConfig) HasCredentials(p Provider) bool {
	switch p {
	case ProviderRazorpay:
		return r.KeyID != "" && r.KeySecret != ""
	case ProviderCashfree:
		return r.AppID != "" && r.SecretKey != ""
	case ProviderPhonePe:
		return r.MerchantID != "" && r.Salt != ""
	case ProviderPaytm:
		return r.MerchantID != "" && r.MerchantKey != ""
	}
	return false
}

// DefaultAcceptedMethods returns the provider's capability defaults for a
// channel. Cash is only offered at an attended kiosk.
func DefaultAcceptedMethods(p Provider, ch Channel) map[string]bool {
	methods := map[string]bool{}
	switch p {
	case ProviderRazorpay:
		methods["card"] = true
		methods["upi"] = true
	case ProviderCashfree:
		methods["card"] = true
		methods["upi"] = true
		methods["netbanking"] = true
		methods["wallet"] = true
	case ProviderPhonePe, ProviderPaytm:
		methods["upi"] = true
	}
	if ch == ChannelKiosk {
		methods["cash"] = true
	}
	return methods
}
