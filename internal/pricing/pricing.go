// Package pricing computes cart line totals and folds a cart into its
// summary. All arithmetic is decimal; nothing is rounded here.
package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"smpos/backend/internal/domain"
)

var (
	ErrInvalidArgument = errors.New("invalid pricing argument")
	ErrDivisionByZero  = errors.New("division by zero")
)

var (
	gramsPerKilogram = decimal.NewFromInt(1000)
	hundredPercent   = decimal.NewFromInt(100)
)

// LineTotal returns price * quantity less the percentage discount. Weight
// quantities are grams against a per-kilogram price.
func LineTotal(unitPrice, quantity, discountPercent decimal.Decimal, kind domain.MeasurementKind) (decimal.Decimal, error) {
	if unitPrice.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: negative price %s", ErrInvalidArgument, unitPrice)
	}
	if quantity.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: negative quantity %s", ErrInvalidArgument, quantity)
	}
	if discountPercent.IsNegative() || discountPercent.GreaterThan(hundredPercent) {
		return decimal.Zero, fmt.Errorf("%w: discount %s outside [0,100]", ErrInvalidArgument, discountPercent)
	}

	effective, err := EffectiveQuantity(quantity, kind)
	if err != nil {
		return decimal.Zero, err
	}

	gross := unitPrice.Mul(effective)
	discount := discountPercent.Div(hundredPercent).Mul(gross)
	return gross.Sub(discount), nil
}

// EffectiveQuantity converts a line quantity into the unit the price is
// quoted in.
func EffectiveQuantity(quantity decimal.Decimal, kind domain.MeasurementKind) (decimal.Decimal, error) {
	switch kind {
	case domain.MeasurementUnit:
		return quantity, nil
	case domain.MeasurementWeight:
		return quantity.Div(gramsPerKilogram), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: unknown measurement kind %q", ErrInvalidArgument, kind)
	}
}

// UnitDiscountedPrice is the effective price per quantity step after the
// discount. Zero-quantity lines have none and report ErrDivisionByZero.
func UnitDiscountedPrice(line domain.CartLine) (decimal.Decimal, error) {
	total, err := LineTotal(line.UnitPrice, line.Quantity, line.DiscountPercent, line.Kind)
	if err != nil {
		return decimal.Zero, err
	}
	if line.Quantity.IsZero() {
		return decimal.Zero, fmt.Errorf("%w: line %s has zero quantity", ErrDivisionByZero, line.ProductID)
	}
	return total.Div(line.Quantity), nil
}

// Reprice recomputes the derived total of a line.
func Reprice(line domain.CartLine) (domain.CartLine, error) {
	total, err := LineTotal(line.UnitPrice, line.Quantity, line.DiscountPercent, line.Kind)
	if err != nil {
		return line, err
	}
	line.LineTotal = total
	return line, nil
}

// ClampDiscount pins a discount percentage into [0,100].
func ClampDiscount(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(hundredPercent) {
		return hundredPercent
	}
	return d
}

// ClampNonNegative maps negative values to zero.
func ClampNonNegative(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}
