package handlers

import (
	"io"

	"foodslink_backend/internal/messaging"

	"github.com/gin-gonic/gin"
)

// StreamHandler exposes the push supplement to polling.
type StreamHandler struct {
	hub *messaging.Hub
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(hub *messaging.Hub) *StreamHandler {
	return &StreamHandler{hub: hub}
}

// StreamOrders serves a tenant's order events over SSE. Events carry the
// order id and revision; clients re-read the order on receipt. Polling stays
// valid as a fallback for terminals that cannot hold the stream open.
func (h *StreamHandler) StreamOrders(c *gin.Context) {
	tenantID, ok := requireTenantQuery(c)
	if !ok {
		return
	}

	events, cancel := h.hub.Subscribe(tenantID)
	defer cancel()

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		select {
		case event, open := <-events:
			if !open {
				return false
			}
			c.SSEvent("order", event)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
