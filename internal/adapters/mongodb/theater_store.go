package mongodb

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/cinepos/concession-service/internal/domain"
	"github.com/cinepos/concession-service/internal/domain/ports"
)

// TheaterStore reads theater gateway configuration. Writes belong to the
// admin surfaces, so this store is read-only.
type TheaterStore struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

// NewTheaterStore creates a theater store.
func NewTheaterStore(db *mongo.Database, logger *zap.Logger) *TheaterStore {
	return &TheaterStore{
		collection: db.Collection(CollectionTheaters),
		logger:     logger.Named("TheaterStore"),
	}
}

var _ ports.TheaterStore = (*TheaterStore)(nil)

func (s *TheaterStore) GetByID(ctx context.Context, theaterID string) (*domain.Theater, error) {
	var theater domain.Theater
	opts := options.FindOne().SetMaxTime(queryMaxTime)
	err := s.collection.FindOne(ctx, bson.M{fieldID: theaterID}, opts).Decode(&theater)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTheaterNotFound
		}
		s.logger.Error("GetByID: FindOne failed", zap.Error(err), zap.String("theaterID", theaterID))
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "find theater", err)
	}
	return &theater, nil
}

// ListConfigured returns theaters carrying at least one enabled channel
// config. Provider activity (credentials present, provider record enabled) is
// re-checked in memory; the query only narrows the scan.
func (s *TheaterStore) ListConfigured(ctx context.Context) ([]*domain.Theater, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"paymentGateways.kiosk.enabled": true},
		bson.M{"paymentGateways.online.enabled": true},
	}}

	opts := options.Find().SetMaxTime(queryMaxTime)
	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		s.logger.Error("ListConfigured: Find failed", zap.Error(err))
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "list theaters", err)
	}

	var all []*domain.Theater
	if err = cursor.All(ctx, &all); err != nil {
		s.logger.Error("ListConfigured: cursor.All failed", zap.Error(err))
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "decode theaters", err)
	}

	configured := make([]*domain.Theater, 0, len(all))
	for _, t := range all {
		if hasActiveChannel(t) {
			configured = append(configured, t)
		}
	}
	return configured, nil
}

func hasActiveChannel(t *domain.Theater) bool {
	for _, ch := range []domain.Channel{domain.ChannelKiosk, domain.ChannelOnline} {
		cfg := t.GatewayConfig(ch)
		if cfg.Provider != domain.ProviderNone && cfg.IsActive(cfg.Provider) {
			return true
		}
	}
	return false
}
