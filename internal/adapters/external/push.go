package external

import (
	"context"
	"net/http"

	"github.com/cinepos/concession-service/internal/domain/ports"
)

// PushClient relays push notifications through the collaborator backend,
// which owns the device-token registry.
type PushClient struct {
	client *Client
}

// NewPushClient creates a push service adapter.
func NewPushClient(client *Client) *PushClient {
	return &PushClient{client: client}
}

var _ ports.PushService = (*PushClient)(nil)

func (p *PushClient) SendPush(ctx context.Context, deviceToken, title, body string, data map[string]interface{}) error {
	payload := map[string]interface{}{
		"deviceToken": deviceToken,
		"title":       title,
		"body":        body,
		"data":        data,
	}
	return p.client.call(ctx, http.MethodPost, "/internal/notifications/push", payload, nil)
}
