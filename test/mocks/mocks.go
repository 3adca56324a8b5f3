// Package mocks provides hand-rolled in-memory doubles for the service-layer
// ports. Store mocks keep the same monotonicity semantics as the Mongo
// implementations so orchestration tests exercise real convergence behavior.
package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/cinepos/concession-service/internal/domain"
	"github.com/cinepos/concession-service/internal/domain/ports"
)

// TransactionStore is an in-memory ports.TransactionStore.
type TransactionStore struct {
	mu           sync.Mutex
	Transactions map[string]*domain.PaymentTransaction

	CreateErr      error
	MarkSuccessErr error
	MarkFailedErr  error

	MarkSuccessCalls int
	MarkFailedCalls  int
}

func NewTransactionStore(txns ...*domain.PaymentTransaction) *TransactionStore {
	s := &TransactionStore{Transactions: make(map[string]*domain.PaymentTransaction)}
	for _, txn := range txns {
		s.Transactions[txn.ID] = txn
	}
	return s
}

func (s *TransactionStore) Create(ctx context.Context, txn *domain.PaymentTransaction) error {
	if s.CreateErr != nil {
		return s.CreateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Transactions[txn.ID] = txn
	return nil
}

func (s *TransactionStore) GetByID(ctx context.Context, id string) (*domain.PaymentTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if txn, ok := s.Transactions[id]; ok {
		return txn, nil
	}
	return nil, domain.ErrTxnNotFound
}

func (s *TransactionStore) GetByOrderID(ctx context.Context, orderID string) (*domain.PaymentTransaction, error) {
	return s.find(func(t *domain.PaymentTransaction) bool { return t.OrderID == orderID })
}

func (s *TransactionStore) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.PaymentTransaction, error) {
	return s.find(func(t *domain.PaymentTransaction) bool { return t.Gateway.OrderID == gatewayOrderID })
}

func (s *TransactionStore) GetByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*domain.PaymentTransaction, error) {
	return s.find(func(t *domain.PaymentTransaction) bool { return t.Gateway.PaymentID == gatewayPaymentID })
}

func (s *TransactionStore) find(match func(*domain.PaymentTransaction) bool) (*domain.PaymentTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, txn := range s.Transactions {
		if match(txn) {
			return txn, nil
		}
	}
	return nil, domain.ErrTxnNotFound
}

func (s *TransactionStore) MarkSuccess(ctx context.Context, id string, upd ports.TxnSuccessUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.MarkSuccessCalls++
	if s.MarkSuccessErr != nil {
		return false, s.MarkSuccessErr
	}
	txn, ok := s.Transactions[id]
	if !ok {
		return false, domain.ErrTxnNotFound
	}
	if txn.Status == domain.TransactionStatusSuccess || txn.Status == domain.TransactionStatusRefunded {
		return false, nil
	}
	txn.Status = domain.TransactionStatusSuccess
	if upd.GatewayPaymentID != "" {
		txn.Gateway.PaymentID = upd.GatewayPaymentID
	}
	if upd.Signature != "" {
		txn.Gateway.Signature = upd.Signature
	}
	if upd.VerificationIP != "" {
		txn.VerificationIP = upd.VerificationIP
	}
	txn.Error = nil
	completed := upd.CompletedAt
	verified := upd.VerifiedAt
	txn.CompletedAt = &completed
	txn.VerifiedAt = &verified
	txn.UpdatedAt = time.Now()
	return true, nil
}

func (s *TransactionStore) MarkFailed(ctx context.Context, id string, txnErr domain.TxnError, verificationIP string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.MarkFailedCalls++
	if s.MarkFailedErr != nil {
		return false, s.MarkFailedErr
	}
	txn, ok := s.Transactions[id]
	if !ok {
		return false, domain.ErrTxnNotFound
	}
	if txn.Status == domain.TransactionStatusSuccess || txn.Status == domain.TransactionStatusRefunded {
		return false, nil
	}
	txn.Status = domain.TransactionStatusFailed
	txn.Error = &txnErr
	if verificationIP != "" {
		txn.VerificationIP = verificationIP
	}
	txn.UpdatedAt = time.Now()
	return true, nil
}

func (s *TransactionStore) ListOpen(ctx context.Context, theaterID string, limit int) ([]*domain.PaymentTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.PaymentTransaction
	for _, txn := range s.Transactions {
		if txn.TheaterID != theaterID || !txn.Status.IsOpen() || txn.Gateway.OrderID == "" {
			continue
		}
		out = append(out, txn)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// OrderStore is an in-memory ports.OrderStore.
type OrderStore struct {
	mu     sync.Mutex
	Orders map[string]*domain.Order

	GetErr              error
	SetPaymentMethodErr error
	MarkPaidErr         error
	SetStockErr         error

	MarkPaidCalls         int
	SetStockRecordedCalls int
	SetPaymentMethodCalls int
}

func NewOrderStore(orders ...*domain.Order) *OrderStore {
	s := &OrderStore{Orders: make(map[string]*domain.Order)}
	for _, order := range orders {
		s.Orders[order.ID] = order
	}
	return s
}

func (s *OrderStore) GetByID(ctx context.Context, orderID string) (*domain.Order, error) {
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if order, ok := s.Orders[orderID]; ok {
		return order, nil
	}
	return nil, domain.ErrOrderNotFound
}

func (s *OrderStore) SetPaymentMethod(ctx context.Context, order *domain.Order, method string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SetPaymentMethodCalls++
	if s.SetPaymentMethodErr != nil {
		return s.SetPaymentMethodErr
	}
	order.Payment.Method = method
	return nil
}

func (s *OrderStore) MarkPaid(ctx context.Context, order *domain.Order, upd ports.OrderPaidUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.MarkPaidCalls++
	if s.MarkPaidErr != nil {
		return s.MarkPaidErr
	}
	if upd.Method != "" {
		order.Payment.Method = upd.Method
	}
	order.Payment.Status = domain.PaymentStatusPaid
	order.Payment.TransactionID = upd.TransactionID
	order.Payment.RazorpayOrderID = upd.RazorpayOrderID
	order.Payment.RazorpayPaymentID = upd.RazorpayPaymentID
	order.Payment.RazorpaySignature = upd.RazorpaySignature
	paidAt := upd.PaidAt
	order.Payment.PaidAt = &paidAt
	order.Status = domain.OrderStatusConfirmed
	return nil
}

func (s *OrderStore) SetStockRecorded(ctx context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SetStockRecordedCalls++
	if s.SetStockErr != nil {
		return s.SetStockErr
	}
	order.StockRecorded = true
	return nil
}

// TheaterStore is an in-memory ports.TheaterStore.
type TheaterStore struct {
	Theaters map[string]*domain.Theater
	ListErr  error
}

func NewTheaterStore(theaters ...*domain.Theater) *TheaterStore {
	s := &TheaterStore{Theaters: make(map[string]*domain.Theater)}
	for _, t := range theaters {
		s.Theaters[t.ID] = t
	}
	return s
}

func (s *TheaterStore) GetByID(ctx context.Context, theaterID string) (*domain.Theater, error) {
	if t, ok := s.Theaters[theaterID]; ok {
		return t, nil
	}
	return nil, domain.ErrTheaterNotFound
}

func (s *TheaterStore) ListConfigured(ctx context.Context) ([]*domain.Theater, error) {
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	out := make([]*domain.Theater, 0, len(s.Theaters))
	for _, t := range s.Theaters {
		out = append(out, t)
	}
	return out, nil
}

// Gateway is a configurable ports.PaymentGateway double. It also satisfies
// the webhook verifier interfaces the ingest service type-asserts.
type Gateway struct {
	ProviderName domain.Provider

	CreateOrderFn    func(ctx context.Context, req ports.CreateOrderRequest) (*ports.CreateOrderResult, error)
	VerifyCallbackFn func(ctx context.Context, params ports.CallbackParams) (bool, error)
	FetchStatusFn    func(ctx context.Context, ref ports.StatusRef) (*ports.PaymentView, error)

	WebhookSecret   bool
	VerifyWebhookFn func(rawBody []byte, signature string) bool

	CreateOrderCalls    int
	VerifyCallbackCalls int
	FetchStatusCalls    int
}

func (g *Gateway) Provider() domain.Provider {
	if g.ProviderName == "" {
		return domain.ProviderRazorpay
	}
	return g.ProviderName
}

func (g *Gateway) CreateOrder(ctx context.Context, req ports.CreateOrderRequest) (*ports.CreateOrderResult, error) {
	g.CreateOrderCalls++
	if g.CreateOrderFn != nil {
		return g.CreateOrderFn(ctx, req)
	}
	return &ports.CreateOrderResult{GatewayOrderID: "gw_order_" + req.OrderID}, nil
}

func (g *Gateway) VerifyCallback(ctx context.Context, params ports.CallbackParams) (bool, error) {
	g.VerifyCallbackCalls++
	if g.VerifyCallbackFn != nil {
		return g.VerifyCallbackFn(ctx, params)
	}
	return true, nil
}

func (g *Gateway) FetchStatus(ctx context.Context, ref ports.StatusRef) (*ports.PaymentView, error) {
	g.FetchStatusCalls++
	if g.FetchStatusFn != nil {
		return g.FetchStatusFn(ctx, ref)
	}
	return &ports.PaymentView{Status: ports.StatusCaptured}, nil
}

func (g *Gateway) VerifyWebhook(rawBody []byte, signature string) bool {
	if g.VerifyWebhookFn != nil {
		return g.VerifyWebhookFn(rawBody, signature)
	}
	return true
}

func (g *Gateway) VerifyWebhookWithTimestamp(rawBody []byte, signature, timestamp string) bool {
	return g.VerifyWebhook(rawBody, signature)
}

func (g *Gateway) HasWebhookSecret() bool {
	return g.WebhookSecret
}

// GatewayFactory hands out a fixed gateway double.
type GatewayFactory struct {
	GatewayMock *Gateway
	Err         error

	LastProvider domain.Provider
	LastCreds    *domain.ProviderConfig
}

func (f *GatewayFactory) Gateway(provider domain.Provider, creds *domain.ProviderConfig) (ports.PaymentGateway, error) {
	f.LastProvider = provider
	f.LastCreds = creds
	if f.Err != nil {
		return nil, f.Err
	}
	return f.GatewayMock, nil
}

// StockCall records one RecordUsage invocation.
type StockCall struct {
	TheaterID string
	ProductID string
	Quantity  int
}

// StockService records stock usage calls and can fail per product.
type StockService struct {
	mu     sync.Mutex
	Calls  []StockCall
	ErrFor map[string]error
}

func (s *StockService) RecordUsage(ctx context.Context, theaterID, productID string, quantity int, orderDate time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, StockCall{TheaterID: theaterID, ProductID: productID, Quantity: quantity})
	if s.ErrFor != nil {
		return s.ErrFor[productID]
	}
	return nil
}

// PushCall records one SendPush invocation.
type PushCall struct {
	DeviceToken string
	Title       string
	Body        string
	Data        map[string]interface{}
}

// PushService records push notifications.
type PushService struct {
	mu    sync.Mutex
	Calls []PushCall
	Err   error
}

func (p *PushService) SendPush(ctx context.Context, deviceToken, title, body string, data map[string]interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, PushCall{DeviceToken: deviceToken, Title: title, Body: body, Data: data})
	return p.Err
}

// SettingsService returns a fixed printer config.
type SettingsService struct {
	Printer *ports.PrinterConfig
	Err     error

	LastTheaterID string
	LastOrderType string
}

func (s *SettingsService) GetPrinterConfig(ctx context.Context, theaterID, orderType string) (*ports.PrinterConfig, error) {
	s.LastTheaterID = theaterID
	s.LastOrderType = orderType
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Printer, nil
}

// POSPublisher records broadcast events.
type POSPublisher struct {
	mu        sync.Mutex
	Events    []ports.POSEvent
	Delivered int
}

func (p *POSPublisher) Broadcast(theaterID string, event ports.POSEvent) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, event)
	return p.Delivered
}

// PrintQueue records enqueued jobs.
type PrintQueue struct {
	mu     sync.Mutex
	Jobs   []ports.PrintJob
	Result ports.EnqueueResult
}

func (q *PrintQueue) Enqueue(theaterID string, job ports.PrintJob) ports.EnqueueResult {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.Jobs = append(q.Jobs, job)
	return q.Result
}

// SecretManager resolves secrets from a fixed map.
type SecretManager struct {
	Secrets map[string]string
}

func (m *SecretManager) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	if v, ok := m.Secrets[path]; ok {
		return &ports.Secret{Value: v}, nil
	}
	return nil, domain.NewDomainError(domain.ErrorCodeInternalError, "secret not found: "+path)
}
