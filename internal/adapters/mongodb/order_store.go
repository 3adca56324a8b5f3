package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/cinepos/concession-service/internal/domain"
	"github.com/cinepos/concession-service/internal/domain/ports"
)

// OrderStore reads and updates orders across both physical layouts: a
// standalone document in the orders collection, or an element of a
// per-theater array document in theater_orders. The layout is detected on
// load and every write is a field-path update addressed to the element.
// Whole-document saves are deliberately absent: they re-run validation on
// unrelated sibling orders and have produced spurious failures in the past.
type OrderStore struct {
	orders        *mongo.Collection
	theaterOrders *mongo.Collection
	logger        *zap.Logger
}

// NewOrderStore creates an order store.
func NewOrderStore(db *mongo.Database, logger *zap.Logger) *OrderStore {
	return &OrderStore{
		orders:        db.Collection(CollectionOrders),
		theaterOrders: db.Collection(CollectionTheaterOrders),
		logger:        logger.Named("OrderStore"),
	}
}

var _ ports.OrderStore = (*OrderStore)(nil)

// theaterOrdersDoc is the array-layout wrapper. Lookups project only the
// matching element.
type theaterOrdersDoc struct {
	TheaterID string         `bson:"theater"`
	OrderList []domain.Order `bson:"orderList"`
}

// GetByID loads an order from whichever layout holds it and stamps the
// layout on the result.
func (s *OrderStore) GetByID(ctx context.Context, orderID string) (*domain.Order, error) {
	var order domain.Order
	opts := options.FindOne().SetMaxTime(queryMaxTime)
	err := s.orders.FindOne(ctx, bson.M{fieldID: orderID}, opts).Decode(&order)
	if err == nil {
		order.Layout = domain.LayoutStandalone
		return &order, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		s.logger.Error("GetByID: FindOne failed", zap.Error(err), zap.String("orderID", orderID))
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "find order", err)
	}

	// Fall through to the per-theater array layout.
	findOpts := options.FindOne().
		SetProjection(bson.M{
			fieldTheater:   1,
			fieldOrderList: bson.M{"$elemMatch": bson.M{fieldID: orderID}},
		}).
		SetMaxTime(queryMaxTime)

	var doc theaterOrdersDoc
	err = s.theaterOrders.FindOne(ctx, bson.M{fieldOrderListID: orderID}, findOpts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrOrderNotFound
		}
		s.logger.Error("GetByID: theater_orders FindOne failed", zap.Error(err), zap.String("orderID", orderID))
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "find order", err)
	}
	if len(doc.OrderList) == 0 {
		return nil, domain.ErrOrderNotFound
	}

	found := doc.OrderList[0]
	found.Layout = domain.LayoutTheaterArray
	if found.TheaterID == "" {
		found.TheaterID = doc.TheaterID
	}
	return &found, nil
}

// SetPaymentMethod updates the declared payment method without touching the
// rest of the document.
func (s *OrderStore) SetPaymentMethod(ctx context.Context, order *domain.Order, method string) error {
	fields := bson.M{
		"payment.method": method,
		fieldUpdatedAt:   time.Now(),
	}
	return s.updateFields(ctx, order, fields)
}

// MarkPaid mirrors a successful transaction onto the order: payment mirror
// fields plus status=confirmed, in one atomic update.
func (s *OrderStore) MarkPaid(ctx context.Context, order *domain.Order, upd ports.OrderPaidUpdate) error {
	method := upd.Method
	if method == "" {
		method = "gateway"
	}

	fields := bson.M{
		"payment.method": method,
		"payment.status": domain.PaymentStatusPaid,
		"payment.paidAt": upd.PaidAt,
		fieldStatus:      domain.OrderStatusConfirmed,
		fieldUpdatedAt:   time.Now(),
	}
	if upd.TransactionID != "" {
		fields["payment.transactionId"] = upd.TransactionID
	}
	if upd.RazorpayOrderID != "" {
		fields["payment.razorpayOrderId"] = upd.RazorpayOrderID
	}
	if upd.RazorpayPaymentID != "" {
		fields["payment.razorpayPaymentId"] = upd.RazorpayPaymentID
	}
	if upd.RazorpaySignature != "" {
		fields["payment.razorpaySignature"] = upd.RazorpaySignature
	}

	return s.updateFields(ctx, order, fields)
}

// SetStockRecorded durably flips the stock idempotency guard.
func (s *OrderStore) SetStockRecorded(ctx context.Context, order *domain.Order) error {
	return s.updateFields(ctx, order, bson.M{
		"stockRecorded": true,
		fieldUpdatedAt:  time.Now(),
	})
}

// updateFields applies a $set addressed to the order's physical location. For
// array-layout orders the filter pins both the theater and the element id, and
// the positional operator routes each field path to the matched element.
func (s *OrderStore) updateFields(ctx context.Context, order *domain.Order, fields bson.M) error {
	switch order.Layout {
	case domain.LayoutTheaterArray:
		filter := bson.M{
			fieldTheater:     order.TheaterID,
			fieldOrderListID: order.ID,
		}
		set := bson.M{}
		for path, value := range fields {
			set[fieldOrderList+".$."+path] = value
		}
		result, err := s.theaterOrders.UpdateOne(ctx, filter, bson.M{"$set": set})
		if err != nil {
			s.logger.Error("updateFields: theater_orders UpdateOne failed",
				zap.Error(err), zap.String("orderID", order.ID), zap.String("theaterID", order.TheaterID))
			return domain.WrapError(domain.ErrorCodeDatabaseError, "update order", err)
		}
		if result.MatchedCount == 0 {
			return domain.ErrOrderNotFound
		}
		return nil

	default:
		result, err := s.orders.UpdateOne(ctx, bson.M{fieldID: order.ID}, bson.M{"$set": fields})
		if err != nil {
			s.logger.Error("updateFields: UpdateOne failed", zap.Error(err), zap.String("orderID", order.ID))
			return domain.WrapError(domain.ErrorCodeDatabaseError, "update order", err)
		}
		if result.MatchedCount == 0 {
			return domain.ErrOrderNotFound
		}
		return nil
	}
}
