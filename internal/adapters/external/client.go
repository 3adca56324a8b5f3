// Package external holds HTTP adapters for the collaborator backend: stock
// accounting, theater settings and push notification egress. The concession
// core split out of that backend; these calls are what remains of the old
// in-process module boundaries.
package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/cinepos/concession-service/internal/domain"
	"github.com/cinepos/concession-service/internal/domain/ports"
)

// Client is the shared plumbing for collaborator calls.
type Client struct {
	baseURL      string
	serviceToken string
	httpClient   ports.HTTPClient
	logger       ports.Logger
}

// NewClient creates a collaborator client. serviceToken may be empty when the
// backend trusts the network boundary.
func NewClient(baseURL, serviceToken string, httpClient ports.HTTPClient, logger ports.Logger) *Client {
	return &Client{
		baseURL:      baseURL,
		serviceToken: serviceToken,
		httpClient:   httpClient,
		logger:       logger,
	}
}

func (c *Client) call(ctx context.Context, method, path string, payload interface{}, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.serviceToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.serviceToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeInternalError, "collaborator request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeInternalError, "collaborator response unreadable", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("collaborator API error",
			ports.String("path", path),
			ports.Int("status", resp.StatusCode))
		return domain.NewDomainError(domain.ErrorCodeInternalError,
			fmt.Sprintf("collaborator returned %d for %s", resp.StatusCode, path))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return domain.WrapError(domain.ErrorCodeInternalError, "invalid collaborator response", err)
		}
	}
	return nil
}
