package fulfillment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cinepos/concession-service/internal/domain"
	"github.com/cinepos/concession-service/internal/domain/ports"
)

// Notifier fans out after an order is confirmed: push to the customer for
// online orders, a POS bus broadcast, and a receipt print job. Every step is
// best-effort; payment success never depends on delivery.
type Notifier struct {
	push     ports.PushService
	bus      ports.POSPublisher
	printers ports.PrintQueue
	settings ports.SettingsService
	logger   ports.Logger
}

// NewNotifier creates a fulfillment notifier. Any collaborator may be nil;
// its step is skipped.
func NewNotifier(
	push ports.PushService,
	bus ports.POSPublisher,
	printers ports.PrintQueue,
	settings ports.SettingsService,
	logger ports.Logger,
) *Notifier {
	return &Notifier{
		push:     push,
		bus:      bus,
		printers: printers,
		settings: settings,
		logger:   logger,
	}
}

// NotifyPaymentSuccess runs the full fan-out for a freshly confirmed order.
func (n *Notifier) NotifyPaymentSuccess(ctx context.Context, order *domain.Order, txn *domain.PaymentTransaction) {
	n.sendPush(ctx, order)
	n.broadcast(order)
	n.enqueuePrint(ctx, order)
}

func (n *Notifier) sendPush(ctx context.Context, order *domain.Order) {
	if n.push == nil || order.Channel() != domain.ChannelOnline {
		return
	}
	if order.Customer.DeviceToken == "" {
		return
	}

	err := n.push.SendPush(ctx, order.Customer.DeviceToken,
		"Payment received",
		"Your order "+order.OrderNumber+" is confirmed.",
		map[string]interface{}{
			"orderId":     order.ID,
			"orderNumber": order.OrderNumber,
			"status":      string(order.Status),
		})
	if err != nil {
		n.logger.Warn("push notification failed",
			ports.String("orderID", order.ID), ports.Err(err))
	}
}

func (n *Notifier) broadcast(order *domain.Order) {
	if n.bus == nil {
		return
	}
	delivered := n.bus.Broadcast(order.TheaterID, ports.POSEvent{
		Type:    "pos_order",
		Event:   "paid",
		OrderID: order.ID,
	})
	n.logger.Debug("POS broadcast",
		ports.String("orderID", order.ID),
		ports.String("theaterID", order.TheaterID),
		ports.Int("delivered", delivered))
}

func (n *Notifier) enqueuePrint(ctx context.Context, order *domain.Order) {
	if n.printers == nil {
		return
	}

	printerName := ""
	if n.settings != nil {
		orderType := order.OrderType
		if orderType == "" {
			orderType = order.Source
		}
		cfg, err := n.settings.GetPrinterConfig(ctx, order.TheaterID, orderType)
		if err != nil {
			n.logger.Warn("printer config lookup failed",
				ports.String("theaterID", order.TheaterID), ports.Err(err))
		} else if cfg != nil {
			printerName = cfg.PrinterName
		}
	}

	job := ports.PrintJob{
		JobID:       uuid.NewString(),
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Timestamp:   time.Now(),
		OrderData:   buildBillData(order),
		PrinterName: printerName,
	}
	result := n.printers.Enqueue(order.TheaterID, job)
	n.logger.Debug("print job enqueued",
		ports.String("orderID", order.ID),
		ports.Bool("sent", result.Sent),
		ports.Bool("queued", result.Queued))
}

// buildBillData renders the order into the receipt payload the print agent
// understands. Amounts are formatted in major units.
func buildBillData(order *domain.Order) ports.BillData {
	items := make([]ports.BillItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, ports.BillItem{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: majorUnits(item.UnitPrice),
		})
	}
	return ports.BillData{
		OrderNumber:   order.OrderNumber,
		CreatedAt:     order.CreatedAt,
		CustomerName:  order.Customer.Name,
		PaymentMethod: order.Payment.Method,
		Items:         items,
		Subtotal:      majorUnits(order.Pricing.Subtotal),
		Tax:           majorUnits(order.Pricing.Tax),
		Discount:      majorUnits(order.Pricing.Discount),
		Total:         majorUnits(order.Pricing.Total),
		Currency:      order.Pricing.Currency,
	}
}

func majorUnits(smallest decimal.Decimal) string {
	return smallest.Div(decimal.NewFromInt(100)).StringFixed(2)
}
