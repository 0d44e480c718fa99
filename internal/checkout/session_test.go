package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smpos/backend/internal/domain"
	"smpos/backend/internal/invoice"
	"smpos/backend/internal/store/memory"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

var (
	bulb = domain.Product{ID: "101", Name: "LED Bulb", Price: d("50"), Kind: domain.MeasurementUnit}
	wire = domain.Product{ID: "120", Name: "Copper Wire", Price: d("300"), Kind: domain.MeasurementWeight, DiscountPercent: d("10")}
)

type countingAllocator struct {
	calls  int
	err    error
	number string
}

func (a *countingAllocator) AllocateNext(_ context.Context, _ time.Time) (string, error) {
	a.calls++
	if a.err != nil {
		return "", a.err
	}
	return a.number, nil
}

func TestAddMergesRepeatedProduct(t *testing.T) {
	s := NewSession("t1")
	assert.Equal(t, domain.CheckoutEmpty, s.View().State)

	_, err := s.Add(bulb)
	require.NoError(t, err)
	view, err := s.Add(bulb)
	require.NoError(t, err)

	require.Len(t, view.Lines, 1)
	assert.Equal(t, domain.CheckoutPopulated, view.State)
	assert.True(t, view.Lines[0].Quantity.Equal(d("2")))
	assert.True(t, view.Lines[0].LineTotal.Equal(d("100")))
	assert.True(t, view.Summary.TotalPrice.Equal(d("100")))
}

func TestAddTakesDefaultDiscount(t *testing.T) {
	s := NewSession("t1")
	odd := wire
	odd.DiscountPercent = d("140")

	view, err := s.Add(odd)
	require.NoError(t, err)
	assert.True(t, view.Lines[0].DiscountPercent.Equal(d("100")))
	assert.True(t, view.Lines[0].LineTotal.IsZero())
}

func TestEditRecomputesTotals(t *testing.T) {
	s := NewSession("t1")
	_, _ = s.Add(bulb)
	_, _ = s.Add(wire)

	_, err := s.Edit(1, "quantity", "500")
	require.NoError(t, err)
	view, err := s.Edit(0, "quantity", "2")
	require.NoError(t, err)

	assert.True(t, view.Lines[0].LineTotal.Equal(d("100")))
	assert.True(t, view.Lines[1].LineTotal.Equal(d("135")))
	assert.Equal(t, 2, view.Summary.TotalLines)
	assert.True(t, view.Summary.TotalQuantity.Equal(d("3")))
	assert.True(t, view.Summary.TotalPrice.Equal(d("235")))
}

func TestEditParsesLikeTheTill(t *testing.T) {
	s := NewSession("t1")
	_, _ = s.Add(bulb)

	view, err := s.Edit(0, "discount", "250")
	require.NoError(t, err)
	assert.True(t, view.Lines[0].DiscountPercent.Equal(d("100")))

	view, err = s.Edit(0, "discount", "-5")
	require.NoError(t, err)
	assert.True(t, view.Lines[0].DiscountPercent.IsZero())

	view, err = s.Edit(0, "price", "abc")
	require.NoError(t, err)
	assert.True(t, view.Lines[0].UnitPrice.IsZero())

	view, err = s.Edit(0, "price", "12.5rs")
	require.NoError(t, err)
	assert.True(t, view.Lines[0].UnitPrice.Equal(d("12.5")))

	view, err = s.Edit(0, "name", "  Bulb 12W ")
	require.NoError(t, err)
	assert.Equal(t, "Bulb 12W", view.Lines[0].Name)
}

func TestEditRejections(t *testing.T) {
	s := NewSession("t1")
	_, _ = s.Add(bulb)
	_, _ = s.Add(wire)

	_, err := s.Edit(0, "quantity", "1.5")
	assert.ErrorIs(t, err, ErrInvalidEdit)

	view, err := s.Edit(1, "quantity", "250.5")
	require.NoError(t, err)
	assert.True(t, view.Lines[1].Quantity.Equal(d("250.5")))

	_, err = s.Edit(0, "colour", "red")
	assert.ErrorIs(t, err, ErrInvalidEdit)
	_, err = s.Edit(0, "name", " ")
	assert.ErrorIs(t, err, ErrInvalidEdit)
	_, err = s.Edit(5, "quantity", "1")
	assert.ErrorIs(t, err, ErrLineNotFound)
	_, err = s.Remove(-1)
	assert.ErrorIs(t, err, ErrLineNotFound)
}

func TestRemoveBackToEmpty(t *testing.T) {
	s := NewSession("t1")
	_, _ = s.Add(bulb)

	view, err := s.Remove(0)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.Equal(t, domain.CheckoutEmpty, view.State)
	assert.True(t, view.Summary.TotalPrice.IsZero())
}

func TestInvoiceAllocatesOnce(t *testing.T) {
	ctx := context.Background()
	s := NewSession("t1")
	_, _ = s.Add(bulb)
	alloc := &countingAllocator{number: "020124-001"}

	first, err := s.Invoice(ctx, alloc, invoice.NewBuilder(), time.Now(), "Ravi")
	require.NoError(t, err)
	second, err := s.Invoice(ctx, alloc, invoice.NewBuilder(), time.Now().Add(time.Hour), "")
	require.NoError(t, err)

	assert.Equal(t, 1, alloc.calls)
	assert.Equal(t, first.Number, second.Number)
	assert.Equal(t, first.IssueDate, second.IssueDate)
	assert.Equal(t, domain.CheckoutInvoiced, s.View().State)

	_, err = s.Add(bulb)
	assert.ErrorIs(t, err, ErrSessionInvoiced)
	_, err = s.Edit(0, "quantity", "3")
	assert.ErrorIs(t, err, ErrSessionInvoiced)
	_, err = s.Remove(0)
	assert.ErrorIs(t, err, ErrSessionInvoiced)

	oldID := s.ID()
	view := s.Reset()
	assert.Equal(t, domain.CheckoutEmpty, view.State)
	assert.Empty(t, view.InvoiceNumber)
	assert.NotEqual(t, oldID, view.SessionID)
}

func TestInvoiceFailures(t *testing.T) {
	ctx := context.Background()
	s := NewSession("t1")

	_, err := s.Invoice(ctx, &countingAllocator{number: "x"}, invoice.NewBuilder(), time.Now(), "")
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, _ = s.Add(bulb)
	alloc := &countingAllocator{err: errors.Join(invoice.ErrStorageUnavailable, errors.New("disk"))}
	_, err = s.Invoice(ctx, alloc, invoice.NewBuilder(), time.Now(), "")
	assert.ErrorIs(t, err, invoice.ErrStorageUnavailable)
	assert.Equal(t, domain.CheckoutPopulated, s.View().State)

	_, err = s.Add(bulb)
	assert.NoError(t, err)
}

func TestInvoiceWithRealSequencer(t *testing.T) {
	ctx := context.Background()
	seq := invoice.NewSequencer(memory.New(), time.UTC, nil)
	day := time.Date(2024, time.January, 2, 12, 0, 0, 0, time.UTC)

	s := NewSession("t1")
	_, _ = s.Add(bulb)
	doc, err := s.Invoice(ctx, seq, invoice.NewBuilder(), day, "")
	require.NoError(t, err)
	assert.Equal(t, "020124-001", doc.Number)

	s.Reset()
	_, _ = s.Add(wire)
	doc, err = s.Invoice(ctx, seq, invoice.NewBuilder(), day, "")
	require.NoError(t, err)
	assert.Equal(t, "020124-002", doc.Number)
}

func TestParseNumericValue(t *testing.T) {
	cases := map[string]string{
		"":       "0",
		"abc":    "0",
		"42":     "42",
		" 7.25":  "7.25",
		"5.":     "5",
		".5":     "0.5",
		"+3":     "3",
		"-4":     "0",
		"12kg":   "12",
		"1e3":    "1000",
		"2.5E-1": "0.25",
		"5.e1":   "50",
		".5e1":   "5",
		"3e":     "3",
		"4e+":    "4",
		"-1e2":   "0",
	}
	for raw, want := range cases {
		assert.Truef(t, d(want).Equal(ParseNumericValue(raw)), "%q: got %s", raw, ParseNumericValue(raw))
	}
}

func TestReissueKeepsCustomer(t *testing.T) {
	ctx := context.Background()
	s := NewSession("t1")
	_, _ = s.Add(bulb)

	_, err := s.Reissue(invoice.NewBuilder())
	assert.ErrorIs(t, err, ErrNotInvoiced)

	_, err = s.Invoice(ctx, &countingAllocator{number: "010124-001"}, invoice.NewBuilder(), time.Now(), "Meena")
	require.NoError(t, err)

	doc, err := s.Reissue(invoice.NewBuilder())
	require.NoError(t, err)
	assert.Equal(t, "Meena", doc.CustomerName)
	assert.Equal(t, "010124-001", doc.Number)
}
