package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tableside/internal/domain"
)

func TestCalculateTotals(t *testing.T) {
	items := []domain.OrderItem{
		{Quantity: 2, UnitPrice: 35000, LineTotal: 70000, Status: domain.OrderItemPending},
		{Quantity: 1, UnitPrice: 60000, LineTotal: 60000, Status: domain.OrderItemPending},
	}

	got := CalculateTotals(items, 1000)

	assert.Equal(t, int64(130000), got.Subtotal)
	assert.Equal(t, int64(13000), got.TaxAmount)
	assert.Equal(t, int64(143000), got.FinalAmount)
}

func TestCalculateTotalsSkipsCancelledItems(t *testing.T) {
	items := []domain.OrderItem{
		{Quantity: 2, UnitPrice: 35000, LineTotal: 70000, Status: domain.OrderItemPending},
		{Quantity: 1, UnitPrice: 60000, LineTotal: 60000, Status: domain.OrderItemCancelled},
		{Quantity: 1, UnitPrice: 40000, LineTotal: 40000, Status: domain.OrderItemServed},
	}

	got := CalculateTotals(items, 1000)

	assert.Equal(t, int64(110000), got.Subtotal)
	assert.Equal(t, int64(11000), got.TaxAmount)
	assert.Equal(t, int64(121000), got.FinalAmount)
}

func TestCalculateTotalsEmptyOrder(t *testing.T) {
	got := CalculateTotals(nil, 1000)

	assert.Equal(t, int64(0), got.Subtotal)
	assert.Equal(t, int64(0), got.TaxAmount)
	assert.Equal(t, int64(0), got.FinalAmount)
}

func TestCalculateTotalsTruncatesTax(t *testing.T) {
	// 999 * 10% = 99.9, integer math keeps 99.
	items := []domain.OrderItem{
		{Quantity: 1, UnitPrice: 999, LineTotal: 999, Status: domain.OrderItemPending},
	}

	got := CalculateTotals(items, 1000)

	assert.Equal(t, int64(999), got.Subtotal)
	assert.Equal(t, int64(99), got.TaxAmount)
	assert.Equal(t, int64(1098), got.FinalAmount)
}
