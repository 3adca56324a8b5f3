package external

import (
	"context"
	"net/http"
	"time"

	"github.com/cinepos/concession-service/internal/domain/ports"
)

// StockClient records product usage against the collaborator's stock ledger.
type StockClient struct {
	client *Client
}

// NewStockClient creates a stock service adapter.
func NewStockClient(client *Client) *StockClient {
	return &StockClient{client: client}
}

var _ ports.StockService = (*StockClient)(nil)

func (s *StockClient) RecordUsage(ctx context.Context, theaterID, productID string, quantity int, orderDate time.Time) error {
	payload := map[string]interface{}{
		"theaterId": theaterID,
		"productId": productID,
		"quantity":  quantity,
		"orderDate": orderDate.Format(time.RFC3339),
	}
	return s.client.call(ctx, http.MethodPost, "/internal/stock/usage", payload, nil)
}
