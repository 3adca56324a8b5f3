package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of a concession order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// PaymentStatus is the order-side payment state mirrored from the
// transaction record.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// OrderLayout records which physical shape held the order when it was
// loaded, so writes can be addressed back to the same place.
type OrderLayout string

const (
	LayoutStandalone   OrderLayout = "standalone"
	LayoutTheaterArray OrderLayout = "theaterArray"
)

// OrderItem is one order line.
type OrderItem struct {
	ProductID string          `bson:"productId" json:"productId"`
	Name      string          `bson:"name" json:"name"`
	Quantity  int             `bson:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `bson:"unitPrice" json:"unitPrice"`
}

// Pricing holds the order's monetary breakdown. Total is in the smallest
// currency unit.
type Pricing struct {
	Subtotal decimal.Decimal `bson:"subtotal" json:"subtotal"`
	Tax      decimal.Decimal `bson:"tax" json:"tax"`
	Discount decimal.Decimal `bson:"discount" json:"discount"`
	Total    decimal.Decimal `bson:"total" json:"total"`
	Currency string          `bson:"currency" json:"currency"`
}

// PaymentInfo is the order's payment sub-record. It mirrors the transaction
// outcome for consumers that only read orders.
type PaymentInfo struct {
	Method        string        `bson:"method,omitempty" json:"method,omitempty"`
	Status        PaymentStatus `bson:"status,omitempty" json:"status,omitempty"`
	TransactionID string        `bson:"transactionId,omitempty" json:"transactionId,omitempty"`

	RazorpayOrderID   string `bson:"razorpayOrderId,omitempty" json:"razorpayOrderId,omitempty"`
	RazorpayPaymentID string `bson:"razorpayPaymentId,omitempty" json:"razorpayPaymentId,omitempty"`
	RazorpaySignature string `bson:"razorpaySignature,omitempty" json:"-"`

	PaidAt *time.Time `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
}

// CustomerInfo is the order's customer contact block, used for gateway
// customer details and fulfillment pushes.
type CustomerInfo struct {
	Name        string `bson:"name,omitempty" json:"name,omitempty"`
	Email       string `bson:"email,omitempty" json:"email,omitempty"`
	Phone       string `bson:"phone,omitempty" json:"phone,omitempty"`
	DeviceToken string `bson:"deviceToken,omitempty" json:"-"`
}

// Order is a concession order. Layout is populated on load and never
// persisted.
type Order struct {
	ID          string       `bson:"_id" json:"id"`
	OrderNumber string       `bson:"orderNumber" json:"orderNumber"`
	TheaterID   string       `bson:"theater" json:"theaterId"`
	Source      string       `bson:"source" json:"source"`
	OrderType   string       `bson:"orderType,omitempty" json:"orderType,omitempty"`
	Status      OrderStatus  `bson:"status" json:"status"`
	Items       []OrderItem  `bson:"items" json:"items"`
	Pricing     Pricing      `bson:"pricing" json:"pricing"`
	Payment     PaymentInfo  `bson:"payment" json:"payment"`
	Customer    CustomerInfo `bson:"customer,omitempty" json:"customer,omitempty"`

	// StockRecorded is the durable at-most-once guard for stock egress.
	StockRecorded bool `bson:"stockRecorded" json:"stockRecorded"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`

	Layout OrderLayout `bson:"-" json:"-"`
}

// Channel resolves the order's dispatch channel from its source, falling
// back to orderType when source is empty.
func (o *Order) Channel() Channel {
	if o.Source != "" {
		return ChannelForSource(o.Source)
	}
	return ChannelForSource(o.OrderType)
}

// PaymentMirrored reports whether the order already reflects a successful
// payment.
func (o *Order) PaymentMirrored() bool {
	return o.Payment.Status == PaymentStatusPaid && o.Status == OrderStatusConfirmed
}
