package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cinepos/concession-service/pkg/middleware"
)

// RouterDeps are the handlers the router mounts.
type RouterDeps struct {
	Payments *PaymentHandler
	Webhooks *WebhookHandler
	Streams  *StreamHandler
	Limiter  *middleware.RateLimiter
}

// NewRouter builds the gin engine with all routes mounted. Stream endpoints
// live outside the rate limiter; a long-lived SSE subscription is one
// request, not a burst.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	payments := router.Group("/payments")
	if deps.Limiter != nil {
		payments.Use(deps.Limiter.Middleware())
	}
	payments.GET("/config/:theaterId/:channel", deps.Payments.GetConfig)
	payments.POST("/create-order", deps.Payments.CreateOrder)
	payments.POST("/verify", deps.Payments.Verify)
	payments.POST("/sync-status", deps.Payments.SyncStatus)
	payments.POST("/sync-all-pending/:theaterId", deps.Payments.SyncAllPending)
	payments.POST("/webhook/razorpay", deps.Webhooks.Razorpay)
	payments.POST("/webhook/cashfree", deps.Webhooks.Cashfree)

	router.GET("/pos-stream/:theaterId", deps.Streams.POSStream)
	router.GET("/print-agent/:theaterId", deps.Streams.PrintAgent)
	router.GET("/print-agent/:theaterId/acks", deps.Streams.PrintAcks)

	return router
}
