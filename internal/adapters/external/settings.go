package external

import (
	"context"
	"net/http"
	"net/url"

	"github.com/cinepos/concession-service/internal/domain/ports"
)

// SettingsClient reads theater settings from the collaborator backend.
type SettingsClient struct {
	client *Client
}

// NewSettingsClient creates a settings service adapter.
func NewSettingsClient(client *Client) *SettingsClient {
	return &SettingsClient{client: client}
}

var _ ports.SettingsService = (*SettingsClient)(nil)

func (s *SettingsClient) GetPrinterConfig(ctx context.Context, theaterID, orderType string) (*ports.PrinterConfig, error) {
	path := "/internal/settings/" + url.PathEscape(theaterID) + "/printer?orderType=" + url.QueryEscape(orderType)
	var cfg ports.PrinterConfig
	if err := s.client.call(ctx, http.MethodGet, path, nil, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
