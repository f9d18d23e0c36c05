package services

import (
	"testing"

	"foodslink_backend/internal/models"

	"github.com/shopspring/decimal"
)

func line(unitPrice string, quantity int) models.OrderLine {
	return models.OrderLine{
		ItemName:  "item",
		UnitPrice: mustDecimal(unitPrice),
		Quantity:  quantity,
	}
}

func TestComputeBilling(t *testing.T) {
	tests := []struct {
		name         string
		lines        []models.OrderLine
		charges      []models.AdditionalCharge
		wantSubtotal string
		wantTotal    string
		wantResolved []string
	}{
		{
			name:         "lines only",
			lines:        []models.OrderLine{line("100.00", 2), line("50.00", 1)},
			wantSubtotal: "250.00",
			wantTotal:    "250.00",
		},
		{
			name:         "zero quantity line excluded",
			lines:        []models.OrderLine{line("100.00", 2), line("999.99", 0)},
			wantSubtotal: "200.00",
			wantTotal:    "200.00",
		},
		{
			name:  "percent charge on subtotal",
			lines: []models.OrderLine{line("100.00", 2), line("50.00", 1)},
			charges: []models.AdditionalCharge{
				{Label: "Service", Kind: models.ChargeKindPercent, Amount: mustDecimal("10")},
			},
			wantSubtotal: "250.00",
			wantTotal:    "275.00",
			wantResolved: []string{"25.00"},
		},
		{
			name:  "fixed charge passes through",
			lines: []models.OrderLine{line("120.00", 1)},
			charges: []models.AdditionalCharge{
				{Label: "Packing", Kind: models.ChargeKindFixed, Amount: mustDecimal("20")},
			},
			wantSubtotal: "120.00",
			wantTotal:    "140.00",
			wantResolved: []string{"20.00"},
		},
		{
			name:  "percent resolution rounds half up",
			lines: []models.OrderLine{line("33.33", 1)},
			charges: []models.AdditionalCharge{
				{Label: "GST", Kind: models.ChargeKindPercent, Amount: mustDecimal("15")},
			},
			wantSubtotal: "33.33",
			wantTotal:    "38.33",
			wantResolved: []string{"5.00"}, // 4.9995 rounds up
		},
		{
			name:  "multiple charges each rounded independently",
			lines: []models.OrderLine{line("33.33", 1)},
			charges: []models.AdditionalCharge{
				{Label: "GST", Kind: models.ChargeKindPercent, Amount: mustDecimal("5")},
				{Label: "Service", Kind: models.ChargeKindPercent, Amount: mustDecimal("5")},
			},
			wantSubtotal: "33.33",
			wantTotal:    "36.67",
			wantResolved: []string{"1.67", "1.67"},
		},
		{
			name:  "charge on empty subtotal",
			lines: []models.OrderLine{line("100.00", 0)},
			charges: []models.AdditionalCharge{
				{Label: "Service", Kind: models.ChargeKindPercent, Amount: mustDecimal("10")},
			},
			wantSubtotal: "0",
			wantTotal:    "0.00",
			wantResolved: []string{"0.00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subtotal, total, resolved := ComputeBilling(tt.lines, tt.charges)
			if !subtotal.Equal(mustDecimal(tt.wantSubtotal)) {
				t.Errorf("subtotal = %s, want %s", subtotal, tt.wantSubtotal)
			}
			if !total.Equal(mustDecimal(tt.wantTotal)) {
				t.Errorf("total = %s, want %s", total, tt.wantTotal)
			}
			if len(resolved) != len(tt.charges) {
				t.Fatalf("resolved %d charges, want %d", len(resolved), len(tt.charges))
			}
			for i, want := range tt.wantResolved {
				if !resolved[i].Resolved.Equal(mustDecimal(want)) {
					t.Errorf("charge %d resolved = %s, want %s", i, resolved[i].Resolved, want)
				}
			}
		})
	}
}

func TestComputeBillingDeterministic(t *testing.T) {
	lines := []models.OrderLine{line("33.33", 3), line("7.77", 7)}
	charges := []models.AdditionalCharge{
		{Label: "GST", Kind: models.ChargeKindPercent, Amount: mustDecimal("18")},
		{Label: "Packing", Kind: models.ChargeKindFixed, Amount: mustDecimal("15")},
	}
	for i := range lines {
		lines[i].LineTotal = LineTotal(lines[i])
	}

	sub1, tot1, _ := ComputeBilling(lines, charges)
	for i := 0; i < 50; i++ {
		sub, tot, _ := ComputeBilling(lines, charges)
		if !sub.Equal(sub1) || !tot.Equal(tot1) {
			t.Fatalf("iteration %d: got %s/%s, first run gave %s/%s", i, sub, tot, sub1, tot1)
		}
	}
}

func TestLineTotal(t *testing.T) {
	got := LineTotal(line("12.50", 4))
	if !got.Equal(mustDecimal("50.00")) {
		t.Errorf("LineTotal = %s, want 50.00", got)
	}
}

func TestResolveChargeFixedRounds(t *testing.T) {
	got := ResolveCharge(models.AdditionalCharge{Kind: models.ChargeKindFixed, Amount: mustDecimal("19.999")}, decimal.Zero)
	if !got.Equal(mustDecimal("20.00")) {
		t.Errorf("ResolveCharge = %s, want 20.00", got)
	}
}
