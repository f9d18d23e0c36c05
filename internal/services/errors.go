package services

import "errors"

// Error kinds surfaced by the order lifecycle engine. Handlers translate these
// into the API error envelope; ErrStaleRevision is the only kind a well-behaved
// caller retries automatically (after re-reading the order).
var (
	ErrValidation        = errors.New("validation failed")
	ErrOrderNotFound     = errors.New("order not found")
	ErrLineNotFound      = errors.New("order line not found")
	ErrChargeNotFound    = errors.New("charge not found")
	ErrTenantNotFound    = errors.New("tenant not found")
	ErrEmptyOrder        = errors.New("order has no lines with positive quantity")
	ErrInvalidTransition = errors.New("illegal order status transition")
	ErrStaleRevision     = errors.New("stale revision, re-read the order and retry")
	ErrOrderClosed       = errors.New("order already paid and closed to mutation")
	ErrTenantMismatch    = errors.New("order belongs to a different tenant")
	ErrAmountMismatch    = errors.New("payment confirmation does not match the order")
)
