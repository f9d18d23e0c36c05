package services

import (
	"time"

	"foodslink_backend/internal/models"

	"github.com/shopspring/decimal"
)

// InvoiceLine is a rendered order line with its stored billed amount.
type InvoiceLine struct {
	ItemName  string          `json:"item_name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
	Note      *string         `json:"note,omitempty"`
}

// InvoiceCharge is a rendered additional charge with its stored resolved
// amount.
type InvoiceCharge struct {
	Label    string          `json:"label"`
	Kind     string          `json:"kind"`
	Amount   decimal.Decimal `json:"amount"`
	Resolved decimal.Decimal `json:"resolved"`
}

// Invoice is the external rendering projection of an order.
type Invoice struct {
	OrderID       int64           `json:"order_id"`
	TenantID      int64           `json:"tenant_id"`
	TableCode     string          `json:"table_code"`
	CustomerName  *string         `json:"customer_name,omitempty"`
	Status        string          `json:"status"`
	PaymentMethod *string         `json:"payment_method,omitempty"`
	Lines         []InvoiceLine   `json:"lines"`
	Charges       []InvoiceCharge `json:"charges"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Total         decimal.Decimal `json:"total"`
	OrderedAt     time.Time       `json:"ordered_at"`
}

// BuildInvoice projects stored order state into an invoice. It only copies
// persisted values and performs no recomputation, so the same stored order
// always yields a byte-identical invoice regardless of when it is built.
func BuildInvoice(order *models.Order) *Invoice {
	invoice := &Invoice{
		OrderID:       order.ID,
		TenantID:      order.TenantID,
		TableCode:     order.TableCode,
		CustomerName:  order.CustomerName,
		Status:        order.Status,
		PaymentMethod: order.PaymentMethod,
		Lines:         make([]InvoiceLine, 0, len(order.Lines)),
		Charges:       make([]InvoiceCharge, 0, len(order.Charges)),
		Subtotal:      order.Subtotal,
		Total:         order.Total,
		OrderedAt:     order.CreatedAt,
	}
	for _, line := range order.Lines {
		if line.Quantity <= 0 {
			continue
		}
		invoice.Lines = append(invoice.Lines, InvoiceLine{
			ItemName:  line.ItemName,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			LineTotal: line.LineTotal,
			Note:      line.Note,
		})
	}
	for _, charge := range order.Charges {
		invoice.Charges = append(invoice.Charges, InvoiceCharge{
			Label:    charge.Label,
			Kind:     charge.Kind,
			Amount:   charge.Amount,
			Resolved: charge.Resolved,
		})
	}
	return invoice
}
