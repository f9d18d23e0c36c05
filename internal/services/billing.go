package services

import (
	"foodslink_backend/internal/models"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// ComputeBilling derives an order's subtotal and total from its lines and
// additional charges. It is pure: callers re-invoke it wholesale whenever any
// line or charge changes before settlement, never patch its output.
//
// Lines with quantity 0 are excluded, identical to removal. Each charge is
// resolved to a fixed currency amount: fixed charges pass through, percent
// charges resolve to round2(subtotal * rate / 100) with half-up rounding.
// Rounding is applied once per charge resolution; the total is a plain sum of
// already-rounded parts, so repeated recomputation cannot drift.
func ComputeBilling(lines []models.OrderLine, charges []models.AdditionalCharge) (subtotal, total decimal.Decimal, resolved []models.AdditionalCharge) {
	subtotal = decimal.Zero
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		subtotal = subtotal.Add(LineTotal(line))
	}

	total = subtotal
	resolved = make([]models.AdditionalCharge, 0, len(charges))
	for _, charge := range charges {
		charge.Resolved = ResolveCharge(charge, subtotal)
		total = total.Add(charge.Resolved)
		resolved = append(resolved, charge)
	}
	return subtotal, total, resolved
}

// LineTotal is the billed amount of a single line: unit price times quantity.
func LineTotal(line models.OrderLine) decimal.Decimal {
	return line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
}

// ResolveCharge converts a charge into its fixed currency contribution against
// the given subtotal. shopspring's Round and DivRound round half away from
// zero, which is half-up for the non-negative amounts handled here.
func ResolveCharge(charge models.AdditionalCharge, subtotal decimal.Decimal) decimal.Decimal {
	if charge.Kind == models.ChargeKindPercent {
		return subtotal.Mul(charge.Amount).DivRound(oneHundred, 2)
	}
	return charge.Amount.Round(2)
}
