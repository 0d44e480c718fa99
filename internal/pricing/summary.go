package pricing

import (
	"github.com/shopspring/decimal"

	"smpos/backend/internal/domain"
)

// Summarize folds the cart into its totals. Weight lines count as one item
// toward TotalQuantity regardless of their weight.
func Summarize(lines []domain.CartLine) domain.CartSummary {
	summary := domain.CartSummary{
		TotalLines:    len(lines),
		TotalQuantity: decimal.Zero,
		TotalPrice:    decimal.Zero,
	}
	one := decimal.NewFromInt(1)
	for _, line := range lines {
		if line.Kind == domain.MeasurementWeight {
			summary.TotalQuantity = summary.TotalQuantity.Add(one)
		} else {
			summary.TotalQuantity = summary.TotalQuantity.Add(line.Quantity)
		}
		summary.TotalPrice = summary.TotalPrice.Add(line.LineTotal)
	}
	return summary
}

// RoundCurrency rounds half up to a whole currency unit. Amounts are never
// negative here, so decimal's half-away-from-zero rounding is half up.
func RoundCurrency(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(0)
}
