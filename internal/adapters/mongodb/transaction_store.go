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

// TransactionStore persists payment transactions in MongoDB. All state
// transitions are single-document updates whose filters bind to the expected
// prior state, so concurrent verify/webhook/reconcile calls converge.
type TransactionStore struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

// NewTransactionStore creates a transaction store.
func NewTransactionStore(db *mongo.Database, logger *zap.Logger) *TransactionStore {
	return &TransactionStore{
		collection: db.Collection(CollectionTransactions),
		logger:     logger.Named("TransactionStore"),
	}
}

var _ ports.TransactionStore = (*TransactionStore)(nil)

func (s *TransactionStore) Create(ctx context.Context, txn *domain.PaymentTransaction) error {
	_, err := s.collection.InsertOne(ctx, txn)
	if err != nil {
		s.logger.Error("Create: InsertOne failed", zap.Error(err), zap.String("txnID", txn.ID))
		return domain.WrapError(domain.ErrorCodeDatabaseError, "insert transaction", err)
	}
	return nil
}

func (s *TransactionStore) GetByID(ctx context.Context, id string) (*domain.PaymentTransaction, error) {
	return s.findOne(ctx, bson.M{fieldID: id})
}

func (s *TransactionStore) GetByOrderID(ctx context.Context, orderID string) (*domain.PaymentTransaction, error) {
	opts := options.FindOne().
		SetSort(bson.D{{Key: fieldCreatedAt, Value: -1}}).
		SetMaxTime(queryMaxTime)

	var txn domain.PaymentTransaction
	err := s.collection.FindOne(ctx, bson.M{"order": orderID}, opts).Decode(&txn)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTxnNotFound
		}
		s.logger.Error("GetByOrderID: FindOne failed", zap.Error(err), zap.String("orderID", orderID))
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "find transaction", err)
	}
	return &txn, nil
}

func (s *TransactionStore) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.PaymentTransaction, error) {
	return s.findOne(ctx, bson.M{fieldGatewayOrderID: gatewayOrderID})
}

func (s *TransactionStore) GetByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*domain.PaymentTransaction, error) {
	return s.findOne(ctx, bson.M{fieldGatewayPaymentID: gatewayPaymentID})
}

func (s *TransactionStore) findOne(ctx context.Context, filter bson.M) (*domain.PaymentTransaction, error) {
	var txn domain.PaymentTransaction
	opts := options.FindOne().SetMaxTime(queryMaxTime)
	err := s.collection.FindOne(ctx, filter, opts).Decode(&txn)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTxnNotFound
		}
		s.logger.Error("findOne: FindOne failed", zap.Error(err), zap.Any("filter", filter))
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "find transaction", err)
	}
	return &txn, nil
}

// MarkSuccess moves a non-successful transaction to success. The filter
// excludes terminal success/refunded states, so replaying the success path is
// a no-op that reports modified=false.
func (s *TransactionStore) MarkSuccess(ctx context.Context, id string, upd ports.TxnSuccessUpdate) (bool, error) {
	set := bson.M{
		fieldStatus:      domain.TransactionStatusSuccess,
		fieldUpdatedAt:   time.Now(),
		fieldCompletedAt: upd.CompletedAt,
		fieldVerifiedAt:  upd.VerifiedAt,
	}
	if upd.GatewayPaymentID != "" {
		set[fieldGatewayPaymentID] = upd.GatewayPaymentID
	}
	if upd.Signature != "" {
		set[fieldGatewaySignature] = upd.Signature
	}
	if upd.VerificationIP != "" {
		set[fieldVerificationIP] = upd.VerificationIP
	}

	filter := bson.M{
		fieldID: id,
		fieldStatus: bson.M{"$nin": bson.A{
			domain.TransactionStatusSuccess,
			domain.TransactionStatusRefunded,
		}},
	}
	update := bson.M{
		"$set":   set,
		"$unset": bson.M{fieldError: ""},
	}

	result, err := s.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		s.logger.Error("MarkSuccess: UpdateOne failed", zap.Error(err), zap.String("txnID", id))
		return false, domain.WrapError(domain.ErrorCodeDatabaseError, "mark transaction success", err)
	}
	if result.MatchedCount > 0 {
		return true, nil
	}

	// Either the transaction is already terminal or it does not exist.
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if existing.Status == domain.TransactionStatusSuccess || existing.Status == domain.TransactionStatusRefunded {
		return false, nil
	}
	return false, domain.NewDomainError(domain.ErrorCodeDatabaseError, "transaction update matched no document")
}

// MarkFailed moves a non-terminal transaction to failed. Success is never
// regressed (I1).
func (s *TransactionStore) MarkFailed(ctx context.Context, id string, txnErr domain.TxnError, verificationIP string) (bool, error) {
	set := bson.M{
		fieldStatus:    domain.TransactionStatusFailed,
		fieldError:     txnErr,
		fieldUpdatedAt: time.Now(),
	}
	if verificationIP != "" {
		set[fieldVerificationIP] = verificationIP
	}

	filter := bson.M{
		fieldID: id,
		fieldStatus: bson.M{"$nin": bson.A{
			domain.TransactionStatusSuccess,
			domain.TransactionStatusRefunded,
		}},
	}

	result, err := s.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		s.logger.Error("MarkFailed: UpdateOne failed", zap.Error(err), zap.String("txnID", id))
		return false, domain.WrapError(domain.ErrorCodeDatabaseError, "mark transaction failed", err)
	}
	if result.MatchedCount > 0 {
		return true, nil
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if existing.Status == domain.TransactionStatusSuccess || existing.Status == domain.TransactionStatusRefunded {
		return false, nil
	}
	return false, domain.NewDomainError(domain.ErrorCodeDatabaseError, "transaction update matched no document")
}

func (s *TransactionStore) ListOpen(ctx context.Context, theaterID string, limit int) ([]*domain.PaymentTransaction, error) {
	filter := bson.M{
		fieldStatus: bson.M{"$in": bson.A{
			domain.TransactionStatusInitiated,
			domain.TransactionStatusPending,
			domain.TransactionStatusProcessing,
		}},
		fieldGatewayOrderID: bson.M{"$exists": true, "$ne": ""},
	}
	if theaterID != "" {
		filter[fieldTheater] = theaterID
	}

	opts := options.Find().
		SetSort(bson.D{{Key: fieldCreatedAt, Value: 1}}).
		SetLimit(int64(limit)).
		SetMaxTime(queryMaxTime)

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		s.logger.Error("ListOpen: Find failed", zap.Error(err), zap.String("theaterID", theaterID))
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "list open transactions", err)
	}

	var txns []*domain.PaymentTransaction
	if err = cursor.All(ctx, &txns); err != nil {
		s.logger.Error("ListOpen: cursor.All failed", zap.Error(err))
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "decode open transactions", err)
	}
	return txns, nil
}
