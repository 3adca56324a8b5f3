package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cinepos/concession-service/internal/adapters/cashfree"
	"github.com/cinepos/concession-service/internal/adapters/external"
	"github.com/cinepos/concession-service/internal/adapters/gateway"
	"github.com/cinepos/concession-service/internal/adapters/logging"
	"github.com/cinepos/concession-service/internal/adapters/mongodb"
	"github.com/cinepos/concession-service/internal/adapters/secrets"
	httpapi "github.com/cinepos/concession-service/internal/api/http"
	"github.com/cinepos/concession-service/internal/auth"
	"github.com/cinepos/concession-service/internal/config"
	"github.com/cinepos/concession-service/internal/services/channel"
	"github.com/cinepos/concession-service/internal/services/fulfillment"
	"github.com/cinepos/concession-service/internal/services/payment"
	"github.com/cinepos/concession-service/internal/services/reconcile"
	"github.com/cinepos/concession-service/internal/services/webhook"
	"github.com/cinepos/concession-service/internal/stream/posbus"
	"github.com/cinepos/concession-service/internal/stream/printer"
	pkghttp "github.com/cinepos/concession-service/pkg/http"
	"github.com/cinepos/concession-service/pkg/middleware"
	"github.com/cinepos/concession-service/pkg/observability"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	zapLogger, err := logging.NewLogger(cfg.Logger.Level, cfg.Logger.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting concession payment service",
		zap.Int("port", cfg.Server.Port),
		zap.String("secret_backend", cfg.Secrets.Backend))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongoClient, err := mongodb.Connect(ctx, cfg.Database.URI)
	if err != nil {
		zapLogger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()
	db := mongoClient.Database(cfg.Database.Database)
	zapLogger.Info("MongoDB connection established", zap.String("database", cfg.Database.Database))

	secretManager := initSecretManager(ctx, cfg, zapLogger)
	jwtSecret, err := secrets.Resolve(ctx, secretManager, cfg.Auth.JWTSecret)
	if err != nil {
		zapLogger.Fatal("Failed to resolve JWT secret", zap.Error(err))
	}

	logger := logging.NewZapLogger(zapLogger)

	// Stores
	txnStore := mongodb.NewTransactionStore(db, zapLogger)
	orderStore := mongodb.NewOrderStore(db, zapLogger)
	theaterStore := mongodb.NewTheaterStore(db, zapLogger)

	// Gateway plumbing
	gatewayClient := pkghttp.NewClient(pkghttp.GatewayClientConfig(),
		time.Duration(cfg.Gateway.Timeout)*time.Second)
	returnURLs := cashfree.ReturnURLs{
		ReturnURL: cfg.Gateway.FrontendURL + "/payment/return",
		NotifyURL: cfg.Gateway.BackendURL + "/payments/webhook/cashfree",
	}
	factory := gateway.NewFactory(gatewayClient, returnURLs, logger)

	// Collaborator services
	collaborator := external.NewClient(cfg.Gateway.BackendURL, "", gatewayClient, logger)
	stockService := external.NewStockClient(collaborator)
	settingsService := external.NewSettingsClient(collaborator)
	pushService := external.NewPushClient(collaborator)

	// Streams
	bus := posbus.NewBus(logger)
	defer bus.Close()
	dispatcher := printer.NewDispatcher(logger)

	// Services
	resolver := channel.NewResolver(theaterStore, logger)
	notifier := fulfillment.NewNotifier(pushService, bus, dispatcher, settingsService, logger)
	orchestrator := payment.NewOrchestrator(txnStore, orderStore, resolver, factory,
		stockService, notifier, payment.StalePolicy(cfg.Gateway.StaleVerifyPolicy), logger)
	reconciler := reconcile.NewReconciler(txnStore, theaterStore, resolver, factory, orchestrator, logger)
	ingest := webhook.NewIngest(txnStore, resolver, factory, orchestrator, secretManager, logger)

	// HTTP surface
	validator := auth.NewValidator(jwtSecret)
	limiter := middleware.NewRateLimiter(20, 40)
	defer limiter.Shutdown()

	router := httpapi.NewRouter(httpapi.RouterDeps{
		Payments: httpapi.NewPaymentHandler(resolver, orchestrator, reconciler),
		Webhooks: httpapi.NewWebhookHandler(ingest),
		Streams:  httpapi.NewStreamHandler(bus, dispatcher, validator, logger),
		Limiter:  limiter,
	})

	server := &http.Server{
		Addr:        cfg.Server.Host + ":" + strconv.Itoa(cfg.Server.Port),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: SSE subscriptions are long-lived writes.
		IdleTimeout: 120 * time.Second,
	}

	healthChecker := observability.NewHealthChecker(mongoClient)
	metricsServer := observability.StartMetricsServer(strconv.Itoa(cfg.Server.MetricsPort), healthChecker)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zapLogger.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zapLogger.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Warn("HTTP server shutdown error", zap.Error(err))
		}
		if err := observability.ShutdownMetricsServer(metricsServer); err != nil {
			zapLogger.Warn("Metrics server shutdown error", zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		zapLogger.Fatal("Server error", zap.Error(err))
	}
	zapLogger.Info("Shutdown complete")
}
