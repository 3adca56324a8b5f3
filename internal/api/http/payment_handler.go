package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cinepos/concession-service/internal/domain"
	"github.com/cinepos/concession-service/internal/services/channel"
	"github.com/cinepos/concession-service/internal/services/payment"
	"github.com/cinepos/concession-service/internal/services/reconcile"
)

// PaymentHandler serves the interactive payment surface.
type PaymentHandler struct {
	resolver     *channel.Resolver
	orchestrator *payment.Orchestrator
	reconciler   *reconcile.Reconciler
}

// NewPaymentHandler creates a payment handler.
func NewPaymentHandler(resolver *channel.Resolver, orchestrator *payment.Orchestrator, reconciler *reconcile.Reconciler) *PaymentHandler {
	return &PaymentHandler{
		resolver:     resolver,
		orchestrator: orchestrator,
		reconciler:   reconciler,
	}
}

// GetConfig returns the public gateway configuration for a theater's channel.
func (h *PaymentHandler) GetConfig(c *gin.Context) {
	theaterID := c.Param("theaterId")
	ch := strings.ToLower(c.Param("channel"))
	if !domain.ValidChannel(ch) {
		writeError(c, domain.ErrInvalidChannel)
		return
	}

	cfg, err := h.resolver.PublicConfigFor(c.Request.Context(), theaterID, domain.Channel(ch))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

type createOrderRequest struct {
	OrderID       string `json:"orderId" binding:"required"`
	PaymentMethod string `json:"paymentMethod"`
}

// CreateOrder opens a gateway order for a concession order.
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, domain.NewDomainError(domain.ErrorCodeMissingField, "orderId is required"))
		return
	}

	out, err := h.orchestrator.CreatePaymentOrder(c.Request.Context(), payment.CreateOrderInput{
		OrderID:       req.OrderID,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type verifyRequest struct {
	OrderID         string `json:"orderId"`
	TransactionID   string `json:"transactionId"`
	RazorpayOrderID string `json:"razorpayOrderId"`
	PaymentID       string `json:"paymentId"`
	Signature       string `json:"signature"`
}

// Verify authenticates a completed checkout.
func (h *PaymentHandler) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, domain.NewDomainError(domain.ErrorCodeValidationFailed, "invalid request body"))
		return
	}

	result, err := h.orchestrator.VerifyPayment(c.Request.Context(), payment.VerifyRequest{
		OrderID:          req.OrderID,
		TransactionID:    req.TransactionID,
		GatewayOrderID:   req.RazorpayOrderID,
		GatewayPaymentID: req.PaymentID,
		Signature:        req.Signature,
		RequestIP:        c.ClientIP(),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type syncStatusRequest struct {
	OrderID           string `json:"orderId"`
	RazorpayOrderID   string `json:"razorpayOrderId"`
	RazorpayPaymentID string `json:"razorpayPaymentId"`
}

// SyncStatus reconciles one transaction against its gateway.
func (h *PaymentHandler) SyncStatus(c *gin.Context) {
	var req syncStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, domain.NewDomainError(domain.ErrorCodeValidationFailed, "invalid request body"))
		return
	}
	if req.OrderID == "" && req.RazorpayOrderID == "" && req.RazorpayPaymentID == "" {
		writeError(c, domain.NewDomainError(domain.ErrorCodeMissingField,
			"one of orderId, razorpayOrderId or razorpayPaymentId is required"))
		return
	}

	outcome, err := h.reconciler.SyncOne(c.Request.Context(), reconcile.Selector{
		OrderID:          req.OrderID,
		GatewayOrderID:   req.RazorpayOrderID,
		GatewayPaymentID: req.RazorpayPaymentID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": string(outcome)})
}

// SyncAllPending sweeps every open transaction for a theater.
func (h *PaymentHandler) SyncAllPending(c *gin.Context) {
	theaterID := c.Param("theaterId")
	if theaterID == "" {
		writeError(c, domain.NewDomainError(domain.ErrorCodeMissingField, "theaterId is required"))
		return
	}

	summary, err := h.reconciler.SyncPending(c.Request.Context(), theaterID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
