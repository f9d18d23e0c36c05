package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Charge kinds. Percent charges are resolved against the subtotal at
// computation time; the resolved amount is what contributes to the total.
const (
	ChargeKindFixed   = "fixed"
	ChargeKindPercent = "percent"
)

// TableCodeCounter is the reserved table identifier for walk-up counter sales.
const TableCodeCounter = "counter"

// Order is a single customer transaction tied to a table or counter sale.
// Revision increases on every committed mutation and is the optimistic
// concurrency token for all writes.
type Order struct {
	ID            int64              `json:"id" db:"id"`
	TenantID      int64              `json:"tenant_id" db:"tenant_id"`
	TableCode     string             `json:"table_code" db:"table_code"`
	CustomerName  *string            `json:"customer_name,omitempty" db:"customer_name"`
	Status        string             `json:"status" db:"status"`
	PaymentMethod *string            `json:"payment_method,omitempty" db:"payment_method"`
	Subtotal      decimal.Decimal    `json:"subtotal" db:"subtotal"`
	Total         decimal.Decimal    `json:"total" db:"total"`
	Revision      int64              `json:"revision" db:"revision"`
	Lines         []OrderLine        `json:"lines"`
	Charges       []AdditionalCharge `json:"charges"`
	CreatedAt     time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" db:"updated_at"`
}

// OrderLine is one menu item entry within an order. Name and unit price are
// captured at order time and never re-read from the catalog.
type OrderLine struct {
	ID        int64           `json:"id" db:"id"`
	OrderID   int64           `json:"order_id" db:"order_id"`
	ItemID    int64           `json:"item_id" db:"item_id"`
	ItemName  string          `json:"item_name" db:"item_name"`
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`
	Quantity  int             `json:"quantity" db:"quantity"`
	LineTotal decimal.Decimal `json:"line_total" db:"line_total"`
	Note      *string         `json:"note,omitempty" db:"note"`
}

// AdditionalCharge is a fee layered onto the subtotal. For fixed charges
// Amount is the currency amount; for percent charges Amount is the rate and
// Resolved holds the currency amount it resolved to.
type AdditionalCharge struct {
	ID       int64           `json:"id" db:"id"`
	OrderID  int64           `json:"order_id" db:"order_id"`
	Label    string          `json:"label" db:"label"`
	Kind     string          `json:"kind" db:"kind"`
	Amount   decimal.Decimal `json:"amount" db:"amount"`
	Resolved decimal.Decimal `json:"resolved" db:"resolved"`
}

// PaymentIntent is an ephemeral payment target derived from an order's live
// total. It is never persisted; a new one is generated on demand.
type PaymentIntent struct {
	Payee     string          `json:"payee"`
	PayeeName string          `json:"payee_name"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference"`
	URI       string          `json:"uri"`
}

// OrderEvent is broadcast to polling supplements (SSE stream, message broker)
// after every committed order mutation.
type OrderEvent struct {
	TenantID   int64           `json:"tenant_id"`
	OrderID    int64           `json:"order_id"`
	TableCode  string          `json:"table_code"`
	Status     string          `json:"status"`
	Revision   int64           `json:"revision"`
	Total      decimal.Decimal `json:"total"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// TableSession maps a physical table to the orders currently open on it.
type TableSession struct {
	TenantID  int64   `json:"tenant_id"`
	TableCode string  `json:"table_code"`
	OrderIDs  []int64 `json:"order_ids"`
}

// OrderFilters defines the available filters for querying orders.
// This struct is shared by the service and repository layers.
type OrderFilters struct {
	TenantID  int64   `form:"tenant"`
	TableCode *string `form:"table"`
	Status    *string `form:"status"`
	Page      int     `form:"page"`
	PageSize  int     `form:"page_size"`
}
