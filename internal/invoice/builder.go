package invoice

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"smpos/backend/internal/domain"
	"smpos/backend/internal/pricing"
	"smpos/backend/internal/words"
)

// CustomerPlaceholder stands in for a blank customer name.
const CustomerPlaceholder = "_________"

var ErrMissingNumber = errors.New("invoice number is required")

var gramsPerKilogram = decimal.NewFromInt(1000)

type Builder struct{}

func NewBuilder() *Builder {
	return &Builder{}
}

// Build assembles the document for an already-allocated invoice number.
// Line totals are recomputed from their inputs; a line that cannot be priced
// aborts the build. Only the grand total is rounded.
func (b *Builder) Build(lines []domain.CartLine, customerName string, number string, issueDate time.Time) (domain.InvoiceDocument, error) {
	if strings.TrimSpace(number) == "" {
		return domain.InvoiceDocument{}, ErrMissingNumber
	}

	priced := make([]domain.CartLine, 0, len(lines))
	rendered := make([]domain.InvoiceLine, 0, len(lines))
	for i, line := range lines {
		repriced, err := pricing.Reprice(line)
		if err != nil {
			return domain.InvoiceDocument{}, fmt.Errorf("line %d (%s): %w", i+1, line.ProductID, err)
		}
		priced = append(priced, repriced)

		invoiceLine := domain.InvoiceLine{
			SerialNo:        i + 1,
			ProductID:       repriced.ProductID,
			Name:            repriced.Name,
			Kind:            repriced.Kind,
			Quantity:        repriced.Quantity,
			DisplayQuantity: DisplayQuantity(repriced),
			UnitPrice:       repriced.UnitPrice,
			DiscountPercent: repriced.DiscountPercent,
			LineTotal:       repriced.LineTotal,
		}
		if unit, err := pricing.UnitDiscountedPrice(repriced); err == nil {
			invoiceLine.DiscountedUnitPrice = &unit
		} else if !errors.Is(err, pricing.ErrDivisionByZero) {
			return domain.InvoiceDocument{}, fmt.Errorf("line %d (%s): %w", i+1, line.ProductID, err)
		}
		rendered = append(rendered, invoiceLine)
	}

	summary := pricing.Summarize(priced)
	finalPrice := pricing.RoundCurrency(summary.TotalPrice)

	customer := strings.TrimSpace(customerName)
	if customer == "" {
		customer = CustomerPlaceholder
	}

	return domain.InvoiceDocument{
		Number:          number,
		IssueDate:       issueDate,
		CustomerName:    customer,
		Lines:           rendered,
		Summary:         summary,
		FinalPrice:      finalPrice,
		FinalPriceWords: words.Rupees(uint64(finalPrice.IntPart())),
	}, nil
}

// DisplayQuantity renders weight lines in kilograms ("0.5 kg") and unit
// lines as their count.
func DisplayQuantity(line domain.CartLine) string {
	if line.Kind == domain.MeasurementWeight {
		return line.Quantity.Div(gramsPerKilogram).String() + " kg"
	}
	return line.Quantity.String()
}
