package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names.
const (
	CollectionOrders        = "orders"
	CollectionTheaterOrders = "theater_orders"
	CollectionTransactions  = "payment_transactions"
	CollectionTheaters      = "theaters"
)

// queryMaxTime caps server-side execution of reads so a degraded index never
// wedges a payment path.
const queryMaxTime = 15 * time.Second

// Connect opens a client and verifies connectivity with a primary ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(50).
		SetMinPoolSize(5).
		SetServerSelectionTimeout(10 * time.Second).
		SetTimeout(20 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return client, nil
}
