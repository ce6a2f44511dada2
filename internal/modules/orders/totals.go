package orders

import "tableside/internal/domain"

// Totals are minor currency units throughout; tax is computed with
// integer arithmetic so repeated recomputation never drifts.
type Totals struct {
	Subtotal    int64 `json:"subtotal"`
	TaxAmount   int64 `json:"tax_amount"`
	FinalAmount int64 `json:"final_amount"`
}

// CalculateTotals derives order totals from the current item set.
// Cancelled items do not count. taxRateBps is basis points (1000 = 10%).
func CalculateTotals(items []domain.OrderItem, taxRateBps int64) Totals {
	var subtotal int64
	for _, it := range items {
		if it.Status == domain.OrderItemCancelled {
			continue
		}
		subtotal += it.UnitPrice * int64(it.Quantity)
	}

	tax := subtotal * taxRateBps / 10000

	return Totals{
		Subtotal:    subtotal,
		TaxAmount:   tax,
		FinalAmount: subtotal + tax,
	}
}
