// Command reconciler runs one reconciliation sweep and exits: 0 on
// completion, 1 on fatal error. With a theater id argument it sweeps that
// theater only; without, every configured theater. Scheduling belongs to
// cron or the platform's job runner.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cinepos/concession-service/internal/adapters/cashfree"
	"github.com/cinepos/concession-service/internal/adapters/external"
	"github.com/cinepos/concession-service/internal/adapters/gateway"
	"github.com/cinepos/concession-service/internal/adapters/logging"
	"github.com/cinepos/concession-service/internal/adapters/mongodb"
	"github.com/cinepos/concession-service/internal/config"
	"github.com/cinepos/concession-service/internal/services/channel"
	"github.com/cinepos/concession-service/internal/services/fulfillment"
	"github.com/cinepos/concession-service/internal/services/payment"
	"github.com/cinepos/concession-service/internal/services/reconcile"
	pkghttp "github.com/cinepos/concession-service/pkg/http"
)

func main() {
	os.Exit(run())
}

func run() int {
	timeout := flag.Duration("timeout", 5*time.Minute, "overall sweep deadline")
	flag.Parse()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 1
	}

	zapLogger, err := logging.NewLogger(cfg.Logger.Level, cfg.Logger.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		return 1
	}
	defer zapLogger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	mongoClient, err := mongodb.Connect(ctx, cfg.Database.URI)
	if err != nil {
		zapLogger.Error("Failed to connect to MongoDB", zap.Error(err))
		return 1
	}
	defer func() {
		disconnectCtx, cancelDisconnect := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelDisconnect()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()
	db := mongoClient.Database(cfg.Database.Database)

	logger := logging.NewZapLogger(zapLogger)
	txnStore := mongodb.NewTransactionStore(db, zapLogger)
	orderStore := mongodb.NewOrderStore(db, zapLogger)
	theaterStore := mongodb.NewTheaterStore(db, zapLogger)

	gatewayClient := pkghttp.NewClient(pkghttp.GatewayClientConfig(),
		time.Duration(cfg.Gateway.Timeout)*time.Second)
	factory := gateway.NewFactory(gatewayClient, cashfree.ReturnURLs{
		ReturnURL: cfg.Gateway.FrontendURL + "/payment/return",
		NotifyURL: cfg.Gateway.BackendURL + "/payments/webhook/cashfree",
	}, logger)

	resolver := channel.NewResolver(theaterStore, logger)

	// The POS bus and print queues are process-local to the server; a batch
	// job cannot reach its subscribers. Push still goes out for orders the
	// sweep converges.
	collaborator := external.NewClient(cfg.Gateway.BackendURL, "", gatewayClient, logger)
	stockService := external.NewStockClient(collaborator)
	notifier := fulfillment.NewNotifier(external.NewPushClient(collaborator), nil, nil, nil, logger)

	orchestrator := payment.NewOrchestrator(txnStore, orderStore, resolver, factory,
		stockService, notifier, payment.StalePolicy(cfg.Gateway.StaleVerifyPolicy), logger)
	reconciler := reconcile.NewReconciler(txnStore, theaterStore, resolver, factory, orchestrator, logger)

	var summary *reconcile.Summary
	if theaterID := flag.Arg(0); theaterID != "" {
		summary, err = reconciler.SyncPending(ctx, theaterID)
	} else {
		summary, err = reconciler.SyncAllTheaters(ctx)
	}
	if err != nil {
		zapLogger.Error("Reconciliation sweep failed", zap.Error(err))
		return 1
	}

	zapLogger.Info("Reconciliation sweep finished",
		zap.Int("synced", summary.Synced),
		zap.Int("failed", summary.Failed),
		zap.Int("alreadyUpToDate", summary.AlreadyUpToDate),
		zap.Int("errors", len(summary.Errors)))
	return 0
}
