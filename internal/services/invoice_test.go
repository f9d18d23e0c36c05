package services

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"foodslink_backend/internal/models"
)

func sampleStoredOrder() *models.Order {
	method := PaymentMethodOnline
	return &models.Order{
		ID:            42,
		TenantID:      testTenant,
		TableCode:     testTable,
		CustomerName:  models.StringPtr("Asha"),
		Status:        StatusPaid,
		PaymentMethod: &method,
		Subtotal:      mustDecimal("250.00"),
		Total:         mustDecimal("275.00"),
		Revision:      3,
		CreatedAt:     time.Date(2026, 3, 14, 12, 30, 0, 0, time.UTC),
		Lines: []models.OrderLine{
			{ItemName: "Paneer Tikka", UnitPrice: mustDecimal("100.00"), Quantity: 2, LineTotal: mustDecimal("200.00")},
			{ItemName: "Masala Chai", UnitPrice: mustDecimal("50.00"), Quantity: 1, LineTotal: mustDecimal("50.00")},
			{ItemName: "Cancelled Lassi", UnitPrice: mustDecimal("80.00"), Quantity: 0, LineTotal: mustDecimal("0.00")},
		},
		Charges: []models.AdditionalCharge{
			{Label: "Service", Kind: models.ChargeKindPercent, Amount: mustDecimal("10"), Resolved: mustDecimal("25.00")},
		},
	}
}

func TestBuildInvoiceProjectsStoredValues(t *testing.T) {
	order := sampleStoredOrder()
	invoice := BuildInvoice(order)

	if invoice.OrderID != order.ID || invoice.TableCode != order.TableCode {
		t.Errorf("invoice header = %+v, want order %d at table %s", invoice, order.ID, order.TableCode)
	}
	if !invoice.Subtotal.Equal(order.Subtotal) || !invoice.Total.Equal(order.Total) {
		t.Errorf("invoice totals = %s/%s, want stored %s/%s", invoice.Subtotal, invoice.Total, order.Subtotal, order.Total)
	}
	if len(invoice.Lines) != 2 {
		t.Fatalf("invoice has %d lines, want 2 with the zero-quantity line omitted", len(invoice.Lines))
	}
	if len(invoice.Charges) != 1 || !invoice.Charges[0].Resolved.Equal(mustDecimal("25.00")) {
		t.Errorf("invoice charges = %+v, want stored resolved amount 25.00", invoice.Charges)
	}
}

func TestBuildInvoiceNeverRecomputes(t *testing.T) {
	// Stored totals that deliberately disagree with what a recomputation would
	// produce: the invoice must echo the stored values untouched.
	order := sampleStoredOrder()
	order.Subtotal = mustDecimal("999.00")
	order.Total = mustDecimal("1099.00")
	order.Charges[0].Resolved = mustDecimal("100.00")

	invoice := BuildInvoice(order)
	if !invoice.Subtotal.Equal(mustDecimal("999.00")) {
		t.Errorf("subtotal = %s, want stored 999.00", invoice.Subtotal)
	}
	if !invoice.Total.Equal(mustDecimal("1099.00")) {
		t.Errorf("total = %s, want stored 1099.00", invoice.Total)
	}
	if !invoice.Charges[0].Resolved.Equal(mustDecimal("100.00")) {
		t.Errorf("resolved = %s, want stored 100.00", invoice.Charges[0].Resolved)
	}
}

func TestBuildInvoiceRepeatable(t *testing.T) {
	order := sampleStoredOrder()

	first, err := json.Marshal(BuildInvoice(order))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := json.Marshal(BuildInvoice(order))
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("build %d differs:\n%s\n%s", i, first, again)
		}
	}
}

func TestBuildInvoiceEmptyCollections(t *testing.T) {
	order := sampleStoredOrder()
	order.Lines = nil
	order.Charges = nil

	raw, err := json.Marshal(BuildInvoice(order))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(decoded["lines"]) != "[]" {
		t.Errorf("lines = %s, want [] not null", decoded["lines"])
	}
	if string(decoded["charges"]) != "[]" {
		t.Errorf("charges = %s, want [] not null", decoded["charges"])
	}
}
