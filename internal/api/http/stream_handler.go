package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/cinepos/concession-service/internal/auth"
	"github.com/cinepos/concession-service/internal/domain/ports"
	"github.com/cinepos/concession-service/internal/stream/posbus"
	"github.com/cinepos/concession-service/internal/stream/printer"
)

// StreamHandler serves the long-lived POS event stream and the print agent
// websocket.
type StreamHandler struct {
	bus        *posbus.Bus
	dispatcher *printer.Dispatcher
	validator  *auth.Validator
	logger     ports.Logger
	upgrader   websocket.Upgrader
}

// NewStreamHandler creates a stream handler.
func NewStreamHandler(bus *posbus.Bus, dispatcher *printer.Dispatcher, validator *auth.Validator, logger ports.Logger) *StreamHandler {
	return &StreamHandler{
		bus:        bus,
		dispatcher: dispatcher,
		validator:  validator,
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:   4096,
			WriteBufferSize:  4096,
			HandshakeTimeout: 10 * time.Second,
			// Agents run in browser contexts served from other origins.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// authenticate validates the request token for a theater. EventSource
// clients cannot set headers, so the token query parameter is accepted too.
func (h *StreamHandler) authenticate(c *gin.Context, theaterID string) bool {
	token := auth.TokenFromRequest(c.Request)
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "missing token"})
		return false
	}
	claims, err := h.validator.ValidateToken(token)
	if err != nil || !claims.AuthorizedForTheater(theaterID) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid token"})
		return false
	}
	return true
}

// POSStream subscribes the caller to a theater's live order events over SSE.
func (h *StreamHandler) POSStream(c *gin.Context) {
	theaterID := c.Param("theaterId")
	if !h.authenticate(c, theaterID) {
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "streaming unsupported"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)

	sub := h.bus.Subscribe(theaterID)
	defer h.bus.Unsubscribe(sub)

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case frame, open := <-sub.Frames:
			if !open {
				return
			}
			if _, err := c.Writer.Write(frame); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// agentMessage is what the print agent sends upstream.
type agentMessage struct {
	Type    string `json:"type"`
	JobID   string `json:"jobId,omitempty"`
	OrderID string `json:"orderId,omitempty"`
	Status  string `json:"status,omitempty"`
}

// PrintAgent upgrades the theater's print agent connection and pumps its
// acknowledgements.
func (h *StreamHandler) PrintAgent(c *gin.Context) {
	theaterID := c.Param("theaterId")
	if !h.authenticate(c, theaterID) {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("print agent upgrade failed",
			ports.String("theaterID", theaterID), ports.Err(err))
		return
	}

	h.dispatcher.Register(theaterID, conn)
	defer func() {
		h.dispatcher.Unregister(theaterID, conn)
		_ = conn.Close()
	}()

	for {
		var msg agentMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("print agent read error",
					ports.String("theaterID", theaterID), ports.Err(err))
			}
			return
		}
		if msg.Type == "print_ack" {
			h.dispatcher.RecordAck(theaterID, printer.Ack{
				JobID:   msg.JobID,
				OrderID: msg.OrderID,
				Status:  msg.Status,
			})
		}
	}
}

// PrintAcks returns the theater's recent print delivery confirmations.
func (h *StreamHandler) PrintAcks(c *gin.Context) {
	theaterID := c.Param("theaterId")
	if !h.authenticate(c, theaterID) {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"acks":       h.dispatcher.Acks(theaterID),
		"queueDepth": h.dispatcher.QueueDepth(theaterID),
	})
}
