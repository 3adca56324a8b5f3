package reconcile

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/cinepos/concession-service/internal/domain"
	"github.com/cinepos/concession-service/internal/domain/ports"
	"github.com/cinepos/concession-service/internal/services/channel"
	"github.com/cinepos/concession-service/internal/services/payment"
	"github.com/cinepos/concession-service/pkg/observability"
)

// sweepLimit caps how many open transactions one sweep touches per theater.
const sweepLimit = 100

// theaterConcurrency bounds parallel theater sweeps in SyncAllTheaters.
const theaterConcurrency = 4

// Outcome classifies what SyncOne did with a transaction.
type Outcome string

const (
	OutcomeSynced     Outcome = "synced"
	OutcomeFailed     Outcome = "failed"
	OutcomeUpToDate   Outcome = "already_up_to_date"
	OutcomeStillOpen  Outcome = "still_open"
	OutcomeError      Outcome = "error"
)

// Selector names the transaction to reconcile by any known identifier.
type Selector struct {
	OrderID          string
	GatewayOrderID   string
	GatewayPaymentID string
}

// Summary aggregates a sweep.
type Summary struct {
	Synced          int      `json:"synced"`
	Failed          int      `json:"failed"`
	AlreadyUpToDate int      `json:"alreadyUpToDate"`
	Errors          []string `json:"errors"`

	mu sync.Mutex
}

func (s *Summary) record(id string, outcome Outcome, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch outcome {
	case OutcomeSynced:
		s.Synced++
	case OutcomeFailed:
		s.Failed++
	case OutcomeUpToDate, OutcomeStillOpen:
		s.AlreadyUpToDate++
	case OutcomeError:
		msg := id
		if err != nil {
			msg = id + ": " + err.Error()
		}
		s.Errors = append(s.Errors, msg)
	}
}

// Reconciler heals transactions whose interactive verification never arrived
// by asking the gateway for the authoritative payment state.
type Reconciler struct {
	txns         ports.TransactionStore
	theaters     ports.TheaterStore
	resolver     *channel.Resolver
	factory      ports.GatewayFactory
	orchestrator *payment.Orchestrator
	logger       ports.Logger
}

// NewReconciler creates a reconciler.
func NewReconciler(
	txns ports.TransactionStore,
	theaters ports.TheaterStore,
	resolver *channel.Resolver,
	factory ports.GatewayFactory,
	orchestrator *payment.Orchestrator,
	logger ports.Logger,
) *Reconciler {
	return &Reconciler{
		txns:         txns,
		theaters:     theaters,
		resolver:     resolver,
		factory:      factory,
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// SyncOne reconciles a single transaction against the gateway. A transaction
// already in success is a store-level no-op.
func (r *Reconciler) SyncOne(ctx context.Context, sel Selector) (Outcome, error) {
	txn, err := r.locate(ctx, sel)
	if err != nil {
		return OutcomeError, err
	}
	return r.syncTxn(ctx, txn)
}

func (r *Reconciler) syncTxn(ctx context.Context, txn *domain.PaymentTransaction) (Outcome, error) {
	if txn.Status == domain.TransactionStatusSuccess || txn.Status == domain.TransactionStatusRefunded {
		observability.RecordReconcilerResult(string(OutcomeUpToDate))
		return OutcomeUpToDate, nil
	}

	res, err := r.resolver.Resolve(ctx, txn.TheaterID, txn.Gateway.Channel)
	if err != nil {
		observability.RecordReconcilerResult(string(OutcomeError))
		return OutcomeError, err
	}
	gw, err := r.factory.Gateway(res.Provider, res.Credentials)
	if err != nil {
		observability.RecordReconcilerResult(string(OutcomeError))
		return OutcomeError, err
	}

	view, err := gw.FetchStatus(ctx, ports.StatusRef{
		GatewayOrderID:   txn.Gateway.OrderID,
		GatewayPaymentID: txn.Gateway.PaymentID,
	})
	if err != nil {
		observability.RecordReconcilerResult(string(OutcomeError))
		r.logger.Warn("reconciler status fetch failed",
			ports.String("txnID", txn.ID),
			ports.String("provider", string(res.Provider)),
			ports.Err(err))
		return OutcomeError, err
	}

	switch view.Status {
	case ports.StatusCaptured, ports.StatusAuthorized:
		if view.Amount.IsPositive() && !txn.Amount.EqualsWithinOneUnit(view.Amount) {
			r.logger.Error("ALERT reconciler amount mismatch",
				ports.String("txnID", txn.ID),
				ports.String("stored", txn.Amount.Value.String()),
				ports.String("captured", view.Amount.String()))
			if _, err := r.orchestrator.MarkExternalFailure(ctx, txn, domain.ErrorCodeAmountMismatch,
				"gateway captured amount does not match transaction"); err != nil {
				observability.RecordReconcilerResult(string(OutcomeError))
				return OutcomeError, err
			}
			observability.RecordReconcilerResult(string(OutcomeFailed))
			return OutcomeFailed, nil
		}

		if _, err := r.orchestrator.ApplyExternalSuccess(ctx, txn, view.PaymentID, payment.SignatureSync); err != nil {
			observability.RecordReconcilerResult(string(OutcomeError))
			return OutcomeError, err
		}
		r.logger.Info("reconciler converged transaction to success",
			ports.String("txnID", txn.ID),
			ports.String("orderID", txn.OrderID))
		observability.RecordReconcilerResult(string(OutcomeSynced))
		return OutcomeSynced, nil

	case ports.StatusFailed:
		if txn.Status == domain.TransactionStatusFailed {
			observability.RecordReconcilerResult(string(OutcomeUpToDate))
			return OutcomeUpToDate, nil
		}
		if _, err := r.orchestrator.MarkExternalFailure(ctx, txn, domain.ErrorCodeGatewayError,
			"gateway reports payment failed"); err != nil {
			observability.RecordReconcilerResult(string(OutcomeError))
			return OutcomeError, err
		}
		r.logger.Info("reconciler marked transaction failed",
			ports.String("txnID", txn.ID))
		observability.RecordReconcilerResult(string(OutcomeFailed))
		return OutcomeFailed, nil

	default:
		observability.RecordReconcilerResult(string(OutcomeStillOpen))
		return OutcomeStillOpen, nil
	}
}

// SyncPending sweeps up to 100 open transactions for a theater.
func (r *Reconciler) SyncPending(ctx context.Context, theaterID string) (*Summary, error) {
	summary := &Summary{Errors: []string{}}
	txns, err := r.txns.ListOpen(ctx, theaterID, sweepLimit)
	if err != nil {
		return nil, err
	}

	for _, txn := range txns {
		outcome, err := r.syncTxn(ctx, txn)
		summary.record(txn.ID, outcome, err)
	}

	r.logger.Info("reconciler sweep complete",
		ports.String("theaterID", theaterID),
		ports.Int("scanned", len(txns)),
		ports.Int("synced", summary.Synced),
		ports.Int("failed", summary.Failed),
		ports.Int("alreadyUpToDate", summary.AlreadyUpToDate),
		ports.Int("errors", len(summary.Errors)))
	return summary, nil
}

// SyncAllTheaters sweeps every theater with a configured provider, a few in
// parallel.
func (r *Reconciler) SyncAllTheaters(ctx context.Context) (*Summary, error) {
	theaters, err := r.theaters.ListConfigured(ctx)
	if err != nil {
		return nil, err
	}

	total := &Summary{Errors: []string{}}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(theaterConcurrency)

	for _, theater := range theaters {
		t := theater
		g.Go(func() error {
			s, err := r.SyncPending(gctx, t.ID)
			if err != nil {
				total.record(t.ID, OutcomeError, err)
				return nil
			}
			total.mu.Lock()
			total.Synced += s.Synced
			total.Failed += s.Failed
			total.AlreadyUpToDate += s.AlreadyUpToDate
			total.Errors = append(total.Errors, s.Errors...)
			total.mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return total, err
	}
	return total, nil
}

func (r *Reconciler) locate(ctx context.Context, sel Selector) (*domain.PaymentTransaction, error) {
	if sel.GatewayPaymentID != "" {
		if txn, err := r.txns.GetByGatewayPaymentID(ctx, sel.GatewayPaymentID); err == nil {
			return txn, nil
		} else if !domain.IsNotFoundError(err) {
			return nil, err
		}
	}
	if sel.GatewayOrderID != "" {
		if txn, err := r.txns.GetByGatewayOrderID(ctx, sel.GatewayOrderID); err == nil {
			return txn, nil
		} else if !domain.IsNotFoundError(err) {
			return nil, err
		}
	}
	if sel.OrderID != "" {
		if txn, err := r.txns.GetByOrderID(ctx, sel.OrderID); err == nil {
			return txn, nil
		} else if !domain.IsNotFoundError(err) {
			return nil, err
		}
	}
	return nil, domain.ErrTxnNotFound
}
