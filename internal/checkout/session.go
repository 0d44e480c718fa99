// Package checkout holds the in-memory cart of each till and drives it from
// empty, through editing, to an invoiced sale.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"smpos/backend/internal/domain"
	"smpos/backend/internal/pricing"
	"smpos/backend/internal/xid"
)

var (
	ErrSessionInvoiced = errors.New("checkout already invoiced")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrLineNotFound    = errors.New("cart line not found")
	ErrInvalidEdit     = errors.New("invalid line edit")
	ErrNotInvoiced     = errors.New("checkout has no invoice yet")
)

// Editable line fields.
const (
	FieldQuantity = "quantity"
	FieldPrice    = "price"
	FieldDiscount = "discount"
	FieldName     = "name"
)

type Allocator interface {
	AllocateNext(ctx context.Context, today time.Time) (string, error)
}

type DocumentBuilder interface {
	Build(lines []domain.CartLine, customerName string, number string, issueDate time.Time) (domain.InvoiceDocument, error)
}

type Session struct {
	mu            sync.Mutex
	id            string
	terminalID    string
	lines         []domain.CartLine
	summary       domain.CartSummary
	invoiceNumber string
	issuedAt      time.Time
	customerName  string
}

func NewSession(terminalID string) *Session {
	s := &Session{id: xid.New("ses"), terminalID: terminalID}
	s.summary = pricing.Summarize(nil)
	return s
}

func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// View returns a copy of the cart that callers may keep.
func (s *Session) View() domain.CheckoutView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() domain.CheckoutView {
	lines := make([]domain.CartLine, len(s.lines))
	copy(lines, s.lines)
	return domain.CheckoutView{
		SessionID:     s.id,
		TerminalID:    s.terminalID,
		State:         s.stateLocked(),
		Lines:         lines,
		Summary:       s.summary,
		InvoiceNumber: s.invoiceNumber,
	}
}

func (s *Session) stateLocked() domain.CheckoutState {
	switch {
	case s.invoiceNumber != "":
		return domain.CheckoutInvoiced
	case len(s.lines) > 0:
		return domain.CheckoutPopulated
	default:
		return domain.CheckoutEmpty
	}
}

// Add puts one more of product into the cart. A product already in the cart
// has its quantity raised by one instead of getting a second line.
func (s *Session) Add(product domain.Product) (domain.CheckoutView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.invoiceNumber != "" {
		return domain.CheckoutView{}, ErrSessionInvoiced
	}

	one := decimal.NewFromInt(1)
	for i := range s.lines {
		if s.lines[i].ProductID != product.ID {
			continue
		}
		line := s.lines[i]
		line.Quantity = line.Quantity.Add(one)
		if err := s.replaceLocked(i, line); err != nil {
			return domain.CheckoutView{}, err
		}
		return s.viewLocked(), nil
	}

	line, err := pricing.Reprice(domain.CartLine{
		ProductID:       product.ID,
		Name:            product.Name,
		Kind:            product.Kind,
		Quantity:        one,
		UnitPrice:       pricing.ClampNonNegative(product.Price),
		DiscountPercent: pricing.ClampDiscount(product.DiscountPercent),
	})
	if err != nil {
		return domain.CheckoutView{}, err
	}
	s.lines = append(s.lines, line)
	s.summary = pricing.Summarize(s.lines)
	return s.viewLocked(), nil
}

// Edit changes one field of the line at index. Numeric input is read like
// the till's text boxes: the leading number is used, anything unreadable is
// zero, negatives become zero and discounts are pinned to [0,100].
func (s *Session) Edit(index int, field string, raw string) (domain.CheckoutView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.invoiceNumber != "" {
		return domain.CheckoutView{}, ErrSessionInvoiced
	}
	if index < 0 || index >= len(s.lines) {
		return domain.CheckoutView{}, ErrLineNotFound
	}

	line := s.lines[index]
	switch strings.ToLower(strings.TrimSpace(field)) {
	case FieldQuantity, "qty":
		qty := ParseNumericValue(raw)
		if line.Kind == domain.MeasurementUnit && !qty.Equal(qty.Truncate(0)) {
			return domain.CheckoutView{}, fmt.Errorf("%w: %s is sold by the unit", ErrInvalidEdit, line.Name)
		}
		line.Quantity = qty
	case FieldPrice, "unit_price":
		line.UnitPrice = ParseNumericValue(raw)
	case FieldDiscount, "discount_percent":
		line.DiscountPercent = pricing.ClampDiscount(ParseNumericValue(raw))
	case FieldName:
		name := strings.TrimSpace(raw)
		if name == "" {
			return domain.CheckoutView{}, fmt.Errorf("%w: empty name", ErrInvalidEdit)
		}
		line.Name = name
	default:
		return domain.CheckoutView{}, fmt.Errorf("%w: unknown field %q", ErrInvalidEdit, field)
	}

	if err := s.replaceLocked(index, line); err != nil {
		return domain.CheckoutView{}, err
	}
	return s.viewLocked(), nil
}

func (s *Session) Remove(index int) (domain.CheckoutView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.invoiceNumber != "" {
		return domain.CheckoutView{}, ErrSessionInvoiced
	}
	if index < 0 || index >= len(s.lines) {
		return domain.CheckoutView{}, ErrLineNotFound
	}
	s.lines = append(s.lines[:index], s.lines[index+1:]...)
	s.summary = pricing.Summarize(s.lines)
	return s.viewLocked(), nil
}

// Reset starts a new sale on the same till.
func (s *Session) Reset() domain.CheckoutView {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.id = xid.New("ses")
	s.lines = nil
	s.summary = pricing.Summarize(nil)
	s.invoiceNumber = ""
	s.issuedAt = time.Time{}
	s.customerName = ""
	return s.viewLocked()
}

// Invoice builds the invoice for the cart. The number is allocated on the
// first call only; later calls rebuild the same document with it. A blank
// customerName keeps the one given before. A failed allocation leaves the
// session untouched.
func (s *Session) Invoice(ctx context.Context, allocator Allocator, builder DocumentBuilder, now time.Time, customerName string) (domain.InvoiceDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.lines) == 0 {
		return domain.InvoiceDocument{}, ErrEmptyCart
	}

	if s.invoiceNumber == "" {
		number, err := allocator.AllocateNext(ctx, now)
		if err != nil {
			return domain.InvoiceDocument{}, err
		}
		// The number is persisted now and must never be reissued, even if
		// the build below fails.
		s.invoiceNumber, s.issuedAt = number, now
	}
	if name := strings.TrimSpace(customerName); name != "" {
		s.customerName = name
	}
	return builder.Build(s.lines, s.customerName, s.invoiceNumber, s.issuedAt)
}

// Reissue rebuilds the document of an invoiced session.
func (s *Session) Reissue(builder DocumentBuilder) (domain.InvoiceDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.invoiceNumber == "" {
		return domain.InvoiceDocument{}, ErrNotInvoiced
	}
	return builder.Build(s.lines, s.customerName, s.invoiceNumber, s.issuedAt)
}

func (s *Session) replaceLocked(index int, line domain.CartLine) error {
	repriced, err := pricing.Reprice(line)
	if err != nil {
		return err
	}
	s.lines[index] = repriced
	s.summary = pricing.Summarize(s.lines)
	return nil
}

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// ParseNumericValue reads the leading decimal number of raw, including an
// optional exponent ("1e3", "2.5E-1"). A dangling exponent marker is ignored.
// Unreadable input is zero and negative values are clamped to zero.
func ParseNumericValue(raw string) decimal.Decimal {
	match := leadingNumber.FindString(strings.TrimSpace(raw))
	if match == "" {
		return decimal.Zero
	}
	match = strings.TrimSuffix(strings.TrimPrefix(match, "+"), ".")
	match = strings.NewReplacer(".e", "e", ".E", "E").Replace(match)
	if strings.HasPrefix(match, "-.") {
		match = "-0" + match[1:]
	} else if strings.HasPrefix(match, ".") {
		match = "0" + match
	}
	value, err := decimal.NewFromString(match)
	if err != nil {
		return decimal.Zero
	}
	return pricing.ClampNonNegative(value)
}
