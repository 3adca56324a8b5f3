package httpapi

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cinepos/concession-service/internal/adapters/cashfree"
	"github.com/cinepos/concession-service/internal/domain"
	"github.com/cinepos/concession-service/internal/services/webhook"
)

// maxWebhookBody caps webhook payload reads.
const maxWebhookBody = 1 << 20

// WebhookHandler serves the gateway webhook surface. The raw body is read
// once, untouched, and handed to the ingest service alongside the signature
// headers; signatures are computed over the exact bytes received.
type WebhookHandler struct {
	ingest *webhook.Ingest
}

// NewWebhookHandler creates a webhook handler.
func NewWebhookHandler(ingest *webhook.Ingest) *WebhookHandler {
	return &WebhookHandler{ingest: ingest}
}

// Razorpay handles Razorpay webhook deliveries.
func (h *WebhookHandler) Razorpay(c *gin.Context) {
	rawBody, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "unreadable body"})
		return
	}

	result, err := h.ingest.HandleRazorpay(c.Request.Context(), rawBody, c.GetHeader("x-razorpay-signature"))
	if err != nil {
		h.writeWebhookError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Cashfree handles Cashfree webhook deliveries.
func (h *WebhookHandler) Cashfree(c *gin.Context) {
	rawBody, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "unreadable body"})
		return
	}

	result, err := h.ingest.HandleCashfree(c.Request.Context(), rawBody,
		c.GetHeader(cashfree.SignatureHeader),
		c.GetHeader(cashfree.TimestampHeader))
	if err != nil {
		h.writeWebhookError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// writeWebhookError maps the two hard-fail cases to 400. Everything else the
// ingest service already converted to a 200 with success=false.
func (h *WebhookHandler) writeWebhookError(c *gin.Context, err error) {
	code := domain.GetErrorCode(err)
	if code == domain.ErrorCodeSignatureFailed || code == domain.ErrorCodeMissingField {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"code":    string(code),
			"message": err.Error(),
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "internal server error"})
}
