package ports

import (
	"context"
	"time"
)

// StockService is the external stock/inventory collaborator. RecordUsage must
// be called exactly once per (order, product); the order's stockRecorded flag
// is the durable guard.
type StockService interface {
	RecordUsage(ctx context.Context, theaterID, productID string, quantity int, orderDate time.Time) error
}

// PrinterConfig names the physical printer a theater routes an order type to.
type PrinterConfig struct {
	PrinterName string `json:"printerName"`
}

// SettingsService is the external theater-settings collaborator.
type SettingsService interface {
	GetPrinterConfig(ctx context.Context, theaterID, orderType string) (*PrinterConfig, error)
}

// PushService is the external push-notification egress.
type PushService interface {
	SendPush(ctx context.Context, deviceToken, title, body string, data map[string]interface{}) error
}

// POSEvent is the live event streamed to theater-side POS terminals.
type POSEvent struct {
	Type    string `json:"type"`
	Event   string `json:"event"`
	OrderID string `json:"orderId"`
}

// POSPublisher fans an event out to a theater's live subscribers. Delivery is
// fire-and-forget; the return value is the number of successful writes.
type POSPublisher interface {
	Broadcast(theaterID string, event POSEvent) int
}

// BillItem is one line of a printed receipt.
type BillItem struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
}

// BillData is the receipt payload the print agent renders.
type BillData struct {
	OrderNumber   string     `json:"orderNumber"`
	CreatedAt     time.Time  `json:"createdAt"`
	CustomerName  string     `json:"customerName,omitempty"`
	PaymentMethod string     `json:"paymentMethod,omitempty"`
	Items         []BillItem `json:"items"`
	Subtotal      string     `json:"subtotal"`
	Tax           string     `json:"tax"`
	Discount      string     `json:"discount"`
	Total         string     `json:"total"`
	Currency      string     `json:"currency"`
}

// PrintJob is one receipt print request for a theater's print agent.
type PrintJob struct {
	JobID       string                 `json:"jobId"`
	OrderID     string                 `json:"orderId"`
	OrderNumber string                 `json:"orderNumber"`
	Timestamp   time.Time              `json:"timestamp"`
	OrderData   BillData               `json:"orderData"`
	PrinterName string                 `json:"printerName,omitempty"`
	TheaterInfo map[string]interface{} `json:"theaterInfo,omitempty"`
}

// EnqueueResult reports whether a print job went straight to a live session
// or was buffered for later delivery.
type EnqueueResult struct {
	Sent   bool `json:"sent"`
	Queued bool `json:"queued"`
}

// PrintQueue hands print jobs to the theater's print agent, buffering while
// the agent is offline.
type PrintQueue interface {
	Enqueue(theaterID string, job PrintJob) EnqueueResult
}
