package messaging

import (
	"context"

	"foodslink_backend/internal/models"
	"foodslink_backend/internal/services"
)

// CompositeNotifier fans a single order event out to several notifiers, e.g.
// the in-process hub and the broker publisher.
type CompositeNotifier struct {
	notifiers []services.OrderNotifier
}

// NewCompositeNotifier builds a notifier over the given targets.
func NewCompositeNotifier(notifiers ...services.OrderNotifier) *CompositeNotifier {
	return &CompositeNotifier{notifiers: notifiers}
}

// NotifyOrderChanged implements services.OrderNotifier.
func (c *CompositeNotifier) NotifyOrderChanged(ctx context.Context, event models.OrderEvent) {
	for _, n := range c.notifiers {
		n.NotifyOrderChanged(ctx, event)
	}
}
