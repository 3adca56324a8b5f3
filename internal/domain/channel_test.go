package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChannelForSource(t *testing.T) {
	tests := []struct {
		source string
		want   Channel
	}{
		{"kiosk", ChannelKiosk},
		{"pos", ChannelKiosk},
		{"counter", ChannelKiosk},
		{"offline-pos", ChannelKiosk},
		{"staff", ChannelKiosk},
		{"online", ChannelOnline},
		{"web", ChannelOnline},
		{"qr", ChannelOnline},
		{"qr_order", ChannelOnline},
		{"customer", ChannelOnline},
		{"app", ChannelOnline},
		{"QR", ChannelOnline},
		{"  Online  ", ChannelOnline},
		// Unknown sources default to the attended surface.
		{"mystery", ChannelKiosk},
		{"", ChannelKiosk},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, tt.want, ChannelForSource(tt.source))
		})
	}
}

func TestIsOnlineSource(t *testing.T) {
	assert.True(t, IsOnlineSource("web"))
	assert.False(t, IsOnlineSource("pos"))
	assert.False(t, IsOnlineSource("unknown"))
}

func TestValidChannel(t *testing.T) {
	assert.True(t, ValidChannel("kiosk"))
	assert.True(t, ValidChannel("online"))
	assert.True(t, ValidChannel("Online"))
	assert.False(t, ValidChannel("web"))
	assert.False(t, ValidChannel(""))
}
