package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bookway/stocktake/internal/domain/models"
	"github.com/bookway/stocktake/internal/server/hub"
)

// SessionHandler exposes the relay wire protocol over HTTP: session create
// and join as request/response exchanges, product updates as fire-and-forget
// writes, and the products-updated broadcast as a server-sent event stream.
type SessionHandler struct {
	hub    *hub.Hub
	logger *zap.Logger
}

// NewSessionHandler constructs the HTTP handler adapter.
func NewSessionHandler(h *hub.Hub, logger *zap.Logger) *SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandler{hub: h, logger: logger}
}

type createSessionRequest struct {
	SessionID string             `json:"sessionId" binding:"required"`
	Data      models.SessionData `json:"data"`
}

type updateProductsRequest struct {
	ClientID string                 `json:"clientId"`
	Products []models.ProductRecord `json:"products"`
}

// Create registers a new session snapshot.
func (h *SessionHandler) Create(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create-session payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid payload"})
		return
	}

	h.hub.Create(req.SessionID, req.Data)
	c.JSON(http.StatusCreated, gin.H{"success": true})
}

// Join returns the current snapshot for a session.
func (h *SessionHandler) Join(c *gin.Context) {
	id := c.Param("id")

	data, ok := h.hub.Join(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Session not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

// UpdateProducts replaces the session's product list and triggers the
// broadcast to every other member.
func (h *SessionHandler) UpdateProducts(c *gin.Context) {
	id := c.Param("id")

	var req updateProductsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid update-products payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid payload"})
		return
	}

	if !h.hub.Update(id, req.ClientID, req.Products) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Session not found"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"success": true})
}

// Events streams products-updated broadcasts for a session as server-sent
// events. The client query parameter identifies the member so its own writes
// are not echoed back.
func (h *SessionHandler) Events(c *gin.Context) {
	id := c.Param("id")
	clientID := c.Query("client")

	ch, cancel, ok := h.hub.Subscribe(id, clientID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Session not found"})
		return
	}
	defer cancel()

	h.logger.Info("member subscribed", zap.String("session", id), zap.String("client", clientID))

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	// Send the headers right away so subscribers are attached before the
	// first broadcast rather than blocking on it.
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case products, open := <-ch:
			if !open {
				return false
			}
			c.SSEvent("products-updated", gin.H{"products": products})
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})

	h.logger.Info("member unsubscribed", zap.String("session", id), zap.String("client", clientID))
}
