package webhook

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/cinepos/concession-service/internal/adapters/secrets"
	"github.com/cinepos/concession-service/internal/domain"
	"github.com/cinepos/concession-service/internal/domain/ports"
	"github.com/cinepos/concession-service/internal/services/channel"
	"github.com/cinepos/concession-service/internal/services/payment"
	"github.com/cinepos/concession-service/pkg/observability"
)

// Result is the webhook acknowledgement body. Most failures still answer 200
// with success=false so providers stop retrying; the HTTP layer maps only
// signature and missing-field errors to 400.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// webhookVerifier is implemented by adapters that can authenticate webhook
// bodies.
type webhookVerifier interface {
	VerifyWebhook(rawBody []byte, signature string) bool
	HasWebhookSecret() bool
}

// timestampVerifier is Cashfree's variant; the signature covers
// timestamp+body.
type timestampVerifier interface {
	VerifyWebhookWithTimestamp(rawBody []byte, signature, timestamp string) bool
	HasWebhookSecret() bool
}

// Ingest turns provider webhooks into re-entries of the payment success path.
type Ingest struct {
	txns         ports.TransactionStore
	resolver     *channel.Resolver
	factory      ports.GatewayFactory
	orchestrator *payment.Orchestrator
	secretStore  ports.SecretManager
	logger       ports.Logger
}

// NewIngest creates a webhook ingest service.
func NewIngest(
	txns ports.TransactionStore,
	resolver *channel.Resolver,
	factory ports.GatewayFactory,
	orchestrator *payment.Orchestrator,
	secretStore ports.SecretManager,
	logger ports.Logger,
) *Ingest {
	return &Ingest{
		txns:         txns,
		resolver:     resolver,
		factory:      factory,
		orchestrator: orchestrator,
		secretStore:  secretStore,
		logger:       logger,
	}
}

type razorpayEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
				Amount  int64  `json:"amount"`
				Status  string `json:"status"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// HandleRazorpay processes a Razorpay webhook delivery. rawBody is the exact
// bytes received; the signature is computed over them.
func (s *Ingest) HandleRazorpay(ctx context.Context, rawBody []byte, signature string) (*Result, error) {
	if signature == "" {
		observability.RecordWebhook("razorpay", "missing_signature")
		return nil, domain.NewDomainError(domain.ErrorCodeMissingField, "x-razorpay-signature header is required")
	}

	var event razorpayEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		observability.RecordWebhook("razorpay", "malformed")
		return &Result{Success: false, Message: "malformed payload"}, nil
	}

	if event.Event != "payment.captured" {
		observability.RecordWebhook("razorpay", "ignored")
		return &Result{Success: true, Message: "event ignored"}, nil
	}

	entity := event.Payload.Payment.Entity
	txn, err := s.locate(ctx, entity.OrderID, entity.ID)
	if err != nil {
		observability.RecordWebhook("razorpay", "txn_not_found")
		s.logger.Warn("webhook transaction not found",
			ports.String("provider", "razorpay"),
			ports.String("gatewayOrderID", entity.OrderID),
			ports.String("gatewayPaymentID", entity.ID))
		return &Result{Success: false, Message: "transaction not found"}, nil
	}

	gw, err := s.gatewayFor(ctx, txn)
	if err != nil {
		observability.RecordWebhook("razorpay", "config_error")
		return &Result{Success: false, Message: "gateway not configured"}, nil
	}

	if verifier, ok := gw.(webhookVerifier); ok && verifier.HasWebhookSecret() {
		if !verifier.VerifyWebhook(rawBody, signature) {
			observability.RecordWebhook("razorpay", "bad_signature")
			s.logger.Error("ALERT webhook signature verification failed",
				ports.String("provider", "razorpay"),
				ports.String("txnID", txn.ID))
			return nil, domain.ErrSignatureFailed
		}
	} else {
		s.logger.Warn("no webhook secret configured, skipping signature verification",
			ports.String("provider", "razorpay"),
			ports.String("theaterID", txn.TheaterID))
	}

	if entity.Amount > 0 && !txn.Amount.EqualsWithinOneUnit(decimal.NewFromInt(entity.Amount)) {
		observability.RecordWebhook("razorpay", "amount_mismatch")
		s.logger.Error("ALERT webhook amount mismatch",
			ports.String("txnID", txn.ID),
			ports.String("stored", txn.Amount.Value.String()),
			ports.Int("reported", int(entity.Amount)))
		if _, err := s.orchestrator.MarkExternalFailure(ctx, txn, domain.ErrorCodeAmountMismatch,
			"webhook captured amount does not match transaction"); err != nil {
			s.logger.Error("failed to persist amount mismatch", ports.String("txnID", txn.ID), ports.Err(err))
		}
		return &Result{Success: false, Message: "amount mismatch"}, nil
	}

	if _, err := s.orchestrator.ApplyExternalSuccess(ctx, txn, entity.ID, payment.SignatureWebhook); err != nil {
		observability.RecordWebhook("razorpay", "error")
		s.logger.Error("webhook convergence failed", ports.String("txnID", txn.ID), ports.Err(err))
		return &Result{Success: false, Message: "processing failed"}, nil
	}

	observability.RecordWebhook("razorpay", "processed")
	return &Result{Success: true, Message: "processed"}, nil
}

type cashfreeEvent struct {
	Type string `json:"type"`
	Data struct {
		Order struct {
			OrderID string `json:"order_id"`
		} `json:"order"`
		Payment struct {
			CFPaymentID   json.Number     `json:"cf_payment_id"`
			PaymentStatus string          `json:"payment_status"`
			PaymentAmount decimal.Decimal `json:"payment_amount"`
		} `json:"payment"`
	} `json:"data"`
}

func cashfreeSuccessEvent(eventType string) bool {
	switch eventType {
	case "PAYMENT_SUCCESS_WEBHOOK", "ORDER.PAYMENT.SUCCESS", "PAYMENT_SUCCESS":
		return true
	}
	return false
}

// HandleCashfree processes a Cashfree webhook delivery. The signature covers
// timestamp+body.
func (s *Ingest) HandleCashfree(ctx context.Context, rawBody []byte, signature, timestamp string) (*Result, error) {
	var event cashfreeEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		observability.RecordWebhook("cashfree", "malformed")
		return &Result{Success: false, Message: "malformed payload"}, nil
	}

	if !cashfreeSuccessEvent(event.Type) {
		observability.RecordWebhook("cashfree", "ignored")
		return &Result{Success: true, Message: "event ignored"}, nil
	}

	paymentID := event.Data.Payment.CFPaymentID.String()
	txn, err := s.locate(ctx, event.Data.Order.OrderID, paymentID)
	if err != nil {
		observability.RecordWebhook("cashfree", "txn_not_found")
		s.logger.Warn("webhook transaction not found",
			ports.String("provider", "cashfree"),
			ports.String("gatewayOrderID", event.Data.Order.OrderID))
		return &Result{Success: false, Message: "transaction not found"}, nil
	}

	gw, err := s.gatewayFor(ctx, txn)
	if err != nil {
		observability.RecordWebhook("cashfree", "config_error")
		return &Result{Success: false, Message: "gateway not configured"}, nil
	}

	if verifier, ok := gw.(timestampVerifier); ok && verifier.HasWebhookSecret() {
		if signature == "" {
			observability.RecordWebhook("cashfree", "missing_signature")
			return nil, domain.NewDomainError(domain.ErrorCodeMissingField, "x-webhook-signature header is required")
		}
		if !verifier.VerifyWebhookWithTimestamp(rawBody, signature, timestamp) {
			observability.RecordWebhook("cashfree", "bad_signature")
			s.logger.Error("ALERT webhook signature verification failed",
				ports.String("provider", "cashfree"),
				ports.String("txnID", txn.ID))
			return nil, domain.ErrSignatureFailed
		}
	} else {
		s.logger.Warn("no webhook secret configured, skipping signature verification",
			ports.String("provider", "cashfree"),
			ports.String("theaterID", txn.TheaterID))
	}

	reported := event.Data.Payment.PaymentAmount.Mul(decimal.NewFromInt(100))
	if reported.IsPositive() && !txn.Amount.EqualsWithinOneUnit(reported) {
		observability.RecordWebhook("cashfree", "amount_mismatch")
		s.logger.Error("ALERT webhook amount mismatch",
			ports.String("txnID", txn.ID),
			ports.String("stored", txn.Amount.Value.String()),
			ports.String("reported", reported.String()))
		if _, err := s.orchestrator.MarkExternalFailure(ctx, txn, domain.ErrorCodeAmountMismatch,
			"webhook captured amount does not match transaction"); err != nil {
			s.logger.Error("failed to persist amount mismatch", ports.String("txnID", txn.ID), ports.Err(err))
		}
		return &Result{Success: false, Message: "amount mismatch"}, nil
	}

	if _, err := s.orchestrator.ApplyExternalSuccess(ctx, txn, paymentID, payment.SignatureWebhook); err != nil {
		observability.RecordWebhook("cashfree", "error")
		s.logger.Error("webhook convergence failed", ports.String("txnID", txn.ID), ports.Err(err))
		return &Result{Success: false, Message: "processing failed"}, nil
	}

	observability.RecordWebhook("cashfree", "processed")
	return &Result{Success: true, Message: "processed"}, nil
}

func (s *Ingest) locate(ctx context.Context, gatewayOrderID, gatewayPaymentID string) (*domain.PaymentTransaction, error) {
	if gatewayOrderID != "" {
		if txn, err := s.txns.GetByGatewayOrderID(ctx, gatewayOrderID); err == nil {
			return txn, nil
		} else if !domain.IsNotFoundError(err) {
			return nil, err
		}
	}
	if gatewayPaymentID != "" {
		if txn, err := s.txns.GetByGatewayPaymentID(ctx, gatewayPaymentID); err == nil {
			return txn, nil
		} else if !domain.IsNotFoundError(err) {
			return nil, err
		}
	}
	return nil, domain.ErrTxnNotFound
}

// gatewayFor rebuilds the provider adapter for a transaction's theater and
// channel, with the webhook secret dereferenced if stored as a secret
// reference.
func (s *Ingest) gatewayFor(ctx context.Context, txn *domain.PaymentTransaction) (ports.PaymentGateway, error) {
	res, err := s.resolver.Resolve(ctx, txn.TheaterID, txn.Gateway.Channel)
	if err != nil {
		return nil, err
	}

	creds := *res.Credentials
	if secrets.IsRef(creds.WebhookSecret) && s.secretStore != nil {
		resolved, err := secrets.Resolve(ctx, s.secretStore, creds.WebhookSecret)
		if err != nil {
			s.logger.Error("failed to resolve webhook secret reference",
				ports.String("theaterID", txn.TheaterID), ports.Err(err))
			creds.WebhookSecret = ""
		} else {
			creds.WebhookSecret = resolved
		}
	}

	return s.factory.Gateway(res.Provider, &creds)
}
