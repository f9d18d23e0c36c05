package messaging

import (
	"context"
	"sync"

	"foodslink_backend/internal/models"
)

// Hub is the in-process observer layered over the revision-checked store. SSE
// handlers subscribe per tenant; the order service publishes after every
// committed mutation. Events are a hint to re-read, so a slow subscriber has
// its event dropped rather than blocking the publisher - polling remains the
// source of truth.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[int64]map[chan models.OrderEvent]struct{}
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[int64]map[chan models.OrderEvent]struct{}),
	}
}

// Subscribe registers a listener for one tenant's order events. The returned
// cancel function unregisters the listener and closes its channel.
func (h *Hub) Subscribe(tenantID int64) (<-chan models.OrderEvent, func()) {
	ch := make(chan models.OrderEvent, 16)

	h.mu.Lock()
	if h.subscribers[tenantID] == nil {
		h.subscribers[tenantID] = make(map[chan models.OrderEvent]struct{})
	}
	h.subscribers[tenantID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers[tenantID], ch)
			if len(h.subscribers[tenantID]) == 0 {
				delete(h.subscribers, tenantID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// NotifyOrderChanged implements services.OrderNotifier.
func (h *Hub) NotifyOrderChanged(_ context.Context, event models.OrderEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subscribers[event.TenantID] {
		select {
		case ch <- event:
		default: // subscriber is behind, drop
		}
	}
}
