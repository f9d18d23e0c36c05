package services

// Order status constants. Statuses only move forward; paid is terminal.
const (
	StatusPending = "pending"
	StatusCooking = "cooking"
	StatusServed  = "served"
	StatusPaid    = "paid"
)

// Payment method constants.
const (
	PaymentMethodCash   = "cash"
	PaymentMethodOnline = "online"
)

// legalTransitions is the forward-only edge set of the order state machine.
// Staff may always fast-forward to paid to support pay-at-creation invoicing.
var legalTransitions = map[string][]string{
	StatusPending: {StatusCooking, StatusServed, StatusPaid},
	StatusCooking: {StatusServed, StatusPaid},
	StatusServed:  {StatusPaid},
	StatusPaid:    {},
}

// IsValidOrderStatus reports whether status is one of the defined states.
func IsValidOrderStatus(status string) bool {
	_, ok := legalTransitions[status]
	return ok
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsValidPaymentMethod reports whether method is a supported settlement method.
func IsValidPaymentMethod(method string) bool {
	return method == PaymentMethodCash || method == PaymentMethodOnline
}
