package payment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cinepos/concession-service/internal/domain"
	"github.com/cinepos/concession-service/internal/domain/ports"
	"github.com/cinepos/concession-service/internal/services/channel"
	"github.com/cinepos/concession-service/pkg/observability"
)

// Sentinel signatures recorded on non-interactive success paths.
const (
	SignatureWebhook = "webhook"
	SignatureSync    = "sync"
)

// StalePolicy decides what happens when a verification arrives after the
// verification window.
type StalePolicy string

const (
	// StalePolicyWarn logs a warning and continues. Matches long-standing
	// production behavior; a slow customer still gets their order.
	StalePolicyWarn StalePolicy = "warn"
	// StalePolicyReject fails stale verifications with StalePayment.
	StalePolicyReject StalePolicy = "reject"
)

// Notifier fans out after an order is confirmed. Implementations must never
// fail the payment: errors are logged and swallowed inside.
type Notifier interface {
	NotifyPaymentSuccess(ctx context.Context, order *domain.Order, txn *domain.PaymentTransaction)
}

// Orchestrator drives the payment lifecycle: gateway order creation,
// verification, order mirroring and fan-out. Webhooks and the reconciler
// converge through the same success path.
type Orchestrator struct {
	txns     ports.TransactionStore
	orders   ports.OrderStore
	resolver *channel.Resolver
	factory  ports.GatewayFactory
	stock    ports.StockService
	notifier Notifier
	logger   ports.Logger

	stalePolicy StalePolicy
	now         func() time.Time
}

// NewOrchestrator creates a payment orchestrator.
func NewOrchestrator(
	txns ports.TransactionStore,
	orders ports.OrderStore,
	resolver *channel.Resolver,
	factory ports.GatewayFactory,
	stock ports.StockService,
	notifier Notifier,
	stalePolicy StalePolicy,
	logger ports.Logger,
) *Orchestrator {
	if stalePolicy != StalePolicyReject {
		stalePolicy = StalePolicyWarn
	}
	return &Orchestrator{
		txns:        txns,
		orders:      orders,
		resolver:    resolver,
		factory:     factory,
		stock:       stock,
		notifier:    notifier,
		logger:      logger,
		stalePolicy: stalePolicy,
		now:         time.Now,
	}
}

// WithClock overrides the clock, used by tests.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// CreateOrderInput names the order to open a gateway order for. PaymentMethod
// is an optional hint; when empty the order's existing method is preserved.
type CreateOrderInput struct {
	OrderID       string
	PaymentMethod string
}

// CreateOrderOutput is what the checkout client needs to open the gateway's
// payment UI.
type CreateOrderOutput struct {
	GatewayOrderID string          `json:"gatewayOrderId"`
	SessionID      string          `json:"paymentSessionId,omitempty"`
	Amount         string          `json:"amount"`
	Currency       string          `json:"currency"`
	Provider       domain.Provider `json:"provider"`
	Channel        domain.Channel  `json:"channel"`
	KeyID          string          `json:"keyId,omitempty"`
	AppID          string          `json:"appId,omitempty"`
	Receipt        string          `json:"receipt,omitempty"`
	TransactionID  string          `json:"transactionId,omitempty"`
}

// CreatePaymentOrder opens a gateway order for a concession order and
// persists the pending transaction. Transaction persistence failure is
// non-fatal: the gateway reference is still returned and verify or the
// reconciler locate the attempt through gateway ids later.
func (o *Orchestrator) CreatePaymentOrder(ctx context.Context, in CreateOrderInput) (*CreateOrderOutput, error) {
	if in.OrderID == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeMissingField, "orderId is required")
	}

	order, err := o.orders.GetByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}

	ch := order.Channel()
	res, err := o.resolver.Resolve(ctx, order.TheaterID, ch)
	if err != nil {
		observability.RecordOrderCreated("none", string(ch), "not_configured")
		return nil, err
	}

	if in.PaymentMethod != "" {
		if err := o.orders.SetPaymentMethod(ctx, order, in.PaymentMethod); err != nil {
			o.logger.Warn("failed to persist payment method",
				ports.String("orderID", order.ID), ports.Err(err))
		}
	}

	gw, err := o.factory.Gateway(res.Provider, res.Credentials)
	if err != nil {
		return nil, err
	}

	created, err := gw.CreateOrder(ctx, ports.CreateOrderRequest{
		Amount:      order.Pricing.Total,
		Currency:    currencyOrDefault(order.Pricing.Currency),
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		TheaterID:   order.TheaterID,
		Channel:     ch,
		Customer: ports.CustomerInfo{
			Name:  order.Customer.Name,
			Phone: order.Customer.Phone,
			Email: order.Customer.Email,
		},
	})
	if err != nil {
		observability.RecordOrderCreated(string(res.Provider), string(ch), "gateway_error")
		o.logger.Error("gateway order creation failed",
			ports.String("orderID", order.ID),
			ports.String("provider", string(res.Provider)),
			ports.Err(err))
		return nil, domain.WrapError(domain.ErrorCodeGatewayError, "gateway order creation failed", err)
	}

	nowTime := o.now()
	txn := &domain.PaymentTransaction{
		ID:        uuid.NewString(),
		TheaterID: order.TheaterID,
		OrderID:   order.ID,
		Method:    in.PaymentMethod,
		Gateway: domain.GatewayRef{
			Provider:  res.Provider,
			Channel:   ch,
			OrderID:   created.GatewayOrderID,
			SessionID: created.SessionID,
		},
		Amount: domain.Amount{
			Value:    order.Pricing.Total,
			Currency: currencyOrDefault(order.Pricing.Currency),
		},
		Status:    domain.TransactionStatusPending,
		CreatedAt: nowTime,
		UpdatedAt: nowTime,
	}
	if err := o.txns.Create(ctx, txn); err != nil {
		// Deliberately non-fatal. The gateway order exists; webhook and
		// reconciler can still converge through the gateway ids.
		o.logger.Error("failed to persist transaction, continuing",
			ports.String("orderID", order.ID),
			ports.String("gatewayOrderID", created.GatewayOrderID),
			ports.Err(err))
		txn.ID = ""
	}

	observability.RecordOrderCreated(string(res.Provider), string(ch), "success")

	out := &CreateOrderOutput{
		GatewayOrderID: created.GatewayOrderID,
		SessionID:      created.SessionID,
		Amount:         order.Pricing.Total.String(),
		Currency:       currencyOrDefault(order.Pricing.Currency),
		Provider:       res.Provider,
		Channel:        ch,
		TransactionID:  txn.ID,
	}
	switch res.Provider {
	case domain.ProviderRazorpay:
		out.KeyID = res.Credentials.KeyID
		out.Receipt = "order_" + order.ID
	case domain.ProviderCashfree:
		out.AppID = res.Credentials.AppID
	}
	return out, nil
}

// VerifyRequest carries whatever identifiers the client has after checkout.
type VerifyRequest struct {
	OrderID          string
	TransactionID    string
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
	RequestIP        string
}

// VerifyResult is the outcome of a successful verification.
type VerifyResult struct {
	Success     bool                       `json:"success"`
	Order       *domain.Order              `json:"order"`
	Transaction *domain.PaymentTransaction `json:"transaction"`
}

// VerifyPayment authenticates a completed checkout and converges transaction
// and order to their paid state. Replays against an already-successful
// transaction re-run only the mirror step, healing prior partial fan-out.
func (o *Orchestrator) VerifyPayment(ctx context.Context, req VerifyRequest) (*VerifyResult, error) {
	txn, err := o.locateTransaction(ctx, req)
	if err != nil {
		return nil, err
	}

	if req.OrderID != "" && req.OrderID != txn.OrderID {
		o.logger.Warn("verification order mismatch",
			ports.String("requestOrderID", req.OrderID),
			ports.String("txnOrderID", txn.OrderID),
			ports.String("ip", req.RequestIP))
		return nil, domain.ErrOrderMismatch
	}

	if txn.IsStale(o.now()) {
		if o.stalePolicy == StalePolicyReject {
			observability.RecordVerification(string(txn.Gateway.Provider), "stale_rejected")
			return nil, domain.ErrStalePayment
		}
		o.logger.Warn("verifying stale payment",
			ports.String("txnID", txn.ID),
			ports.Duration("age", o.now().Sub(txn.CreatedAt)))
	}

	if txn.Status == domain.TransactionStatusSuccess {
		// Idempotent replay. Skip signature work and heal the mirror.
		order, mirrorErr := o.mirrorOrder(ctx, txn)
		if mirrorErr != nil {
			return nil, mirrorErr
		}
		observability.RecordVerification(string(txn.Gateway.Provider), "replay")
		return &VerifyResult{Success: true, Order: order, Transaction: txn}, nil
	}

	res, err := o.resolver.Resolve(ctx, txn.TheaterID, txn.Gateway.Channel)
	if err != nil {
		return nil, err
	}
	gw, err := o.factory.Gateway(res.Provider, res.Credentials)
	if err != nil {
		return nil, err
	}

	if err := o.dispatchVerification(ctx, gw, txn, req); err != nil {
		o.recordFailure(ctx, txn, req, err)
		observability.RecordVerification(string(res.Provider), "failed")
		return nil, err
	}

	paymentID := req.GatewayPaymentID
	if paymentID == "" {
		paymentID = txn.Gateway.PaymentID
	}
	order, err := o.applySuccess(ctx, txn, successDetails{
		GatewayPaymentID: paymentID,
		Signature:        req.Signature,
		VerificationIP:   req.RequestIP,
	})
	if err != nil {
		return nil, err
	}

	observability.RecordVerification(string(res.Provider), "success")
	return &VerifyResult{Success: true, Order: order, Transaction: txn}, nil
}

// locateTransaction tries the identifiers in decreasing specificity.
func (o *Orchestrator) locateTransaction(ctx context.Context, req VerifyRequest) (*domain.PaymentTransaction, error) {
	if req.TransactionID != "" {
		if txn, err := o.txns.GetByID(ctx, req.TransactionID); err == nil {
			return txn, nil
		} else if !domain.IsNotFoundError(err) {
			return nil, err
		}
	}
	if req.GatewayOrderID != "" {
		if txn, err := o.txns.GetByGatewayOrderID(ctx, req.GatewayOrderID); err == nil {
			return txn, nil
		} else if !domain.IsNotFoundError(err) {
			return nil, err
		}
	}
	if req.GatewayPaymentID != "" {
		if txn, err := o.txns.GetByGatewayPaymentID(ctx, req.GatewayPaymentID); err == nil {
			return txn, nil
		} else if !domain.IsNotFoundError(err) {
			return nil, err
		}
	}
	if req.OrderID != "" {
		if txn, err := o.txns.GetByOrderID(ctx, req.OrderID); err == nil {
			return txn, nil
		} else if !domain.IsNotFoundError(err) {
			return nil, err
		}
	}
	return nil, domain.ErrTxnNotFound
}

func (o *Orchestrator) dispatchVerification(ctx context.Context, gw ports.PaymentGateway, txn *domain.PaymentTransaction, req VerifyRequest) error {
	switch gw.Provider() {
	case domain.ProviderRazorpay:
		return o.verifyRazorpay(ctx, gw, txn, req)
	case domain.ProviderCashfree:
		return o.verifyCashfree(ctx, gw, txn, req)
	default:
		return domain.NewDomainError(domain.ErrorCodeProviderUnsupported,
			string(gw.Provider())+" verification is not available")
	}
}

func (o *Orchestrator) verifyRazorpay(ctx context.Context, gw ports.PaymentGateway, txn *domain.PaymentTransaction, req VerifyRequest) error {
	gatewayOrderID := req.GatewayOrderID
	if gatewayOrderID == "" {
		gatewayOrderID = txn.Gateway.OrderID
	}
	if gatewayOrderID == "" || req.GatewayPaymentID == "" || req.Signature == "" {
		return domain.NewDomainError(domain.ErrorCodeMissingField,
			"razorpay verification requires orderId, paymentId and signature")
	}

	ok, err := gw.VerifyCallback(ctx, ports.CallbackParams{
		GatewayOrderID:   gatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		Signature:        req.Signature,
	})
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrSignatureFailed
	}

	// Secondary guard behind the signature: fetch the payment and enforce
	// order binding, captured state and amount. A fetch failure is logged
	// but not fatal; the signature remains the primary guarantee.
	view, err := gw.FetchStatus(ctx, ports.StatusRef{GatewayPaymentID: req.GatewayPaymentID})
	if err != nil {
		o.logger.Warn("payment fetch after signature verification failed",
			ports.String("txnID", txn.ID),
			ports.String("paymentID", req.GatewayPaymentID),
			ports.Err(err))
		return nil
	}

	if view.OrderID != "" && view.OrderID != gatewayOrderID {
		return domain.ErrOrderMismatch
	}
	if view.Status != ports.StatusCaptured && view.Status != ports.StatusAuthorized {
		return domain.ErrStatusMismatch
	}
	if !txn.Amount.EqualsWithinOneUnit(view.Amount) {
		o.logger.Error("captured amount does not match transaction",
			ports.String("txnID", txn.ID),
			ports.String("stored", txn.Amount.Value.String()),
			ports.String("captured", view.Amount.String()),
			ports.String("ip", req.RequestIP))
		return domain.ErrAmountMismatch
	}
	return nil
}

func (o *Orchestrator) verifyCashfree(ctx context.Context, gw ports.PaymentGateway, txn *domain.PaymentTransaction, req VerifyRequest) error {
	gatewayOrderID := req.GatewayOrderID
	if gatewayOrderID == "" {
		gatewayOrderID = txn.Gateway.OrderID
	}
	ok, err := gw.VerifyCallback(ctx, ports.CallbackParams{GatewayOrderID: gatewayOrderID})
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrSignatureFailed
	}
	return nil
}

// recordFailure persists the failed state for auditing. Verification errors
// are logged at alert semantics with the requester's IP.
func (o *Orchestrator) recordFailure(ctx context.Context, txn *domain.PaymentTransaction, req VerifyRequest, cause error) {
	if !domain.IsVerificationError(cause) && !domain.IsValidationError(cause) {
		return
	}
	code := domain.GetErrorCode(cause)
	if code == "" || domain.IsValidationError(cause) {
		code = domain.ErrorCodeSignatureFailed
	}

	o.logger.Error("ALERT payment verification failed",
		ports.String("txnID", txn.ID),
		ports.String("orderID", txn.OrderID),
		ports.String("gatewayOrderID", txn.Gateway.OrderID),
		ports.String("code", string(code)),
		ports.String("ip", req.RequestIP))

	if _, err := o.txns.MarkFailed(ctx, txn.ID, domain.TxnError{
		Code:    code,
		Message: cause.Error(),
	}, req.RequestIP); err != nil {
		o.logger.Error("failed to persist transaction failure",
			ports.String("txnID", txn.ID), ports.Err(err))
	}
}

type successDetails struct {
	GatewayPaymentID string
	Signature        string
	VerificationIP   string
}

// applySuccess persists transaction success, mirrors the order and fans out.
// Mirror and fan-out failures do not negate the verified payment.
func (o *Orchestrator) applySuccess(ctx context.Context, txn *domain.PaymentTransaction, d successDetails) (*domain.Order, error) {
	nowTime := o.now()
	modified, err := o.txns.MarkSuccess(ctx, txn.ID, ports.TxnSuccessUpdate{
		GatewayPaymentID: d.GatewayPaymentID,
		Signature:        d.Signature,
		VerificationIP:   d.VerificationIP,
		CompletedAt:      nowTime,
		VerifiedAt:       nowTime,
	})
	if err != nil {
		return nil, err
	}
	txn.Status = domain.TransactionStatusSuccess
	if d.GatewayPaymentID != "" {
		txn.Gateway.PaymentID = d.GatewayPaymentID
	}
	if d.Signature != "" {
		txn.Gateway.Signature = d.Signature
	}
	txn.Error = nil
	txn.CompletedAt = &nowTime
	txn.VerifiedAt = &nowTime
	if !modified {
		o.logger.Info("transaction already successful, healing mirror",
			ports.String("txnID", txn.ID))
	}

	order, err := o.mirrorOrder(ctx, txn)
	if err != nil {
		// The transaction is canonical. The reconciler re-mirrors later.
		o.logger.Error("order mirror failed after successful payment",
			ports.String("txnID", txn.ID),
			ports.String("orderID", txn.OrderID),
			ports.Err(err))
		return nil, nil
	}

	if modified && o.notifier != nil {
		o.notifier.NotifyPaymentSuccess(ctx, order, txn)
	}
	return order, nil
}

// ApplyExternalSuccess converges a transaction to success on behalf of the
// webhook and reconciler paths. The signature argument is a sentinel naming
// the path ("webhook" or "sync").
func (o *Orchestrator) ApplyExternalSuccess(ctx context.Context, txn *domain.PaymentTransaction, gatewayPaymentID, signature string) (*domain.Order, error) {
	return o.applySuccess(ctx, txn, successDetails{
		GatewayPaymentID: gatewayPaymentID,
		Signature:        signature,
	})
}

// MarkExternalFailure marks a transaction failed on behalf of the reconciler.
func (o *Orchestrator) MarkExternalFailure(ctx context.Context, txn *domain.PaymentTransaction, code domain.ErrorCode, message string) (bool, error) {
	return o.txns.MarkFailed(ctx, txn.ID, domain.TxnError{Code: code, Message: message}, "")
}

// mirrorOrder applies the order-side consequences of a successful
// transaction: payment mirror fields, confirmation and the at-most-once
// stock egress.
func (o *Orchestrator) mirrorOrder(ctx context.Context, txn *domain.PaymentTransaction) (*domain.Order, error) {
	order, err := o.orders.GetByID(ctx, txn.OrderID)
	if err != nil {
		return nil, err
	}

	if !order.PaymentMirrored() {
		paidAt := txn.CompletedAt
		nowTime := o.now()
		if paidAt == nil {
			paidAt = &nowTime
		}
		err = o.orders.MarkPaid(ctx, order, ports.OrderPaidUpdate{
			Method:            txn.Method,
			TransactionID:     txn.ID,
			RazorpayOrderID:   txn.Gateway.OrderID,
			RazorpayPaymentID: txn.Gateway.PaymentID,
			RazorpaySignature: txn.Gateway.Signature,
			PaidAt:            *paidAt,
		})
		if err != nil {
			return nil, err
		}
		order.Payment.Status = domain.PaymentStatusPaid
		order.Payment.TransactionID = txn.ID
		order.Payment.RazorpayOrderID = txn.Gateway.OrderID
		order.Payment.RazorpayPaymentID = txn.Gateway.PaymentID
		order.Payment.PaidAt = paidAt
		order.Status = domain.OrderStatusConfirmed
	}

	o.recordStock(ctx, order)
	return order, nil
}

// recordStock performs the at-most-once stock egress guarded by the durable
// stockRecorded flag. Stock failure never rolls back payment confirmation.
func (o *Orchestrator) recordStock(ctx context.Context, order *domain.Order) {
	if order.StockRecorded || o.stock == nil {
		return
	}

	allOK := true
	for _, item := range order.Items {
		if err := o.stock.RecordUsage(ctx, order.TheaterID, item.ProductID, item.Quantity, order.CreatedAt); err != nil {
			allOK = false
			o.logger.Warn("stock usage recording failed",
				ports.String("orderID", order.ID),
				ports.String("productID", item.ProductID),
				ports.Err(err))
		}
	}
	if !allOK {
		return
	}

	if err := o.orders.SetStockRecorded(ctx, order); err != nil {
		o.logger.Error("failed to persist stockRecorded flag",
			ports.String("orderID", order.ID), ports.Err(err))
		return
	}
	order.StockRecorded = true
}

func currencyOrDefault(currency string) string {
	if currency == "" {
		return "INR"
	}
	return currency
}
