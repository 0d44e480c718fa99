package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MeasurementKind says how a catalog item is sold: by discrete count or by
// weight. Weight items are priced per kilogram and counted in grams.
type MeasurementKind string

const (
	MeasurementUnit   MeasurementKind = "unit"
	MeasurementWeight MeasurementKind = "weight"
)

// Lookup ids of the measurement_types table.
const (
	MeasurementUnitID   = 1
	MeasurementWeightID = 2
)

func (k MeasurementKind) Valid() bool {
	return k == MeasurementUnit || k == MeasurementWeight
}

// ID returns the measurement_types row id for the kind.
func (k MeasurementKind) ID() int {
	if k == MeasurementWeight {
		return MeasurementWeightID
	}
	return MeasurementUnitID
}

// ParseMeasurementKind normalises the spellings seen in catalog data
// ("unit", "gram", "Kilogram", "1", "2", ...) onto a MeasurementKind.
// A blank value is an error; callers that want a default apply it themselves.
func ParseMeasurementKind(raw string) (MeasurementKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "unit", "units", "n", "1":
		return MeasurementUnit, nil
	case "weight", "gram", "grams", "g", "kg", "kilogram", "kilograms", "2":
		return MeasurementWeight, nil
	default:
		return "", fmt.Errorf("unknown measurement kind %q", raw)
	}
}

// MeasurementKindFromID maps a measurement_types id onto a kind.
func MeasurementKindFromID(id int) (MeasurementKind, error) {
	switch id {
	case MeasurementUnitID:
		return MeasurementUnit, nil
	case MeasurementWeightID:
		return MeasurementWeight, nil
	default:
		return "", fmt.Errorf("unknown measurement type id %d", id)
	}
}

func (k *MeasurementKind) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		var id int
		if errID := json.Unmarshal(data, &id); errID != nil {
			return err
		}
		kind, errKind := MeasurementKindFromID(id)
		if errKind != nil {
			return errKind
		}
		*k = kind
		return nil
	}
	kind, err := ParseMeasurementKind(raw)
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

type MeasurementType struct {
	ID   int             `json:"id"`
	Name string          `json:"name"`
	Kind MeasurementKind `json:"kind"`
}

type Product struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	Category        string          `json:"category"`
	SubCategory     string          `json:"sub_category,omitempty"`
	Kind            MeasurementKind `json:"measurement_kind"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	StockQty        decimal.Decimal `json:"stock_qty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type ProductCreateRequest struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Price           decimal.Decimal  `json:"price"`
	Category        string           `json:"category"`
	SubCategory     string           `json:"sub_category"`
	Kind            MeasurementKind  `json:"measurement_kind"`
	DiscountPercent decimal.Decimal  `json:"discount_percent"`
	StockQty        *decimal.Decimal `json:"stock_qty,omitempty"`
}

type ProductUpdateRequest struct {
	Name            *string          `json:"name,omitempty"`
	Price           *decimal.Decimal `json:"price,omitempty"`
	Category        *string          `json:"category,omitempty"`
	SubCategory     *string          `json:"sub_category,omitempty"`
	Kind            *MeasurementKind `json:"measurement_kind,omitempty"`
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`
	StockQty        *decimal.Decimal `json:"stock_qty,omitempty"`
}

// ProductSearchResult is a ranked catalog lookup. Single is set when exactly
// one product matched, which lets the till auto-select it.
type ProductSearchResult struct {
	Query     string    `json:"query"`
	Products  []Product `json:"products"`
	Single    bool      `json:"single"`
	LatencyMS int64     `json:"latency_ms"`
}

// CartLine is a snapshot of a product inside an active checkout. Quantity is
// a count for unit items and grams for weight items. LineTotal is derived
// from the other fields and recomputed on every change.
type CartLine struct {
	ProductID       string          `json:"product_id"`
	Name            string          `json:"name"`
	Kind            MeasurementKind `json:"measurement_kind"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	LineTotal       decimal.Decimal `json:"line_total"`
}

type CartSummary struct {
	TotalLines    int             `json:"total_lines"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	TotalPrice    decimal.Decimal `json:"total_price"`
}

// InvoiceSequenceState is the persisted record behind invoice numbering.
type InvoiceSequenceState struct {
	LastDate   string `json:"lastDate"`
	LastNumber int    `json:"lastNumber"`
}

type InvoiceLine struct {
	SerialNo            int              `json:"serial_no"`
	ProductID           string           `json:"product_id"`
	Name                string           `json:"name"`
	Kind                MeasurementKind  `json:"measurement_kind"`
	Quantity            decimal.Decimal  `json:"quantity"`
	DisplayQuantity     string           `json:"display_quantity"`
	UnitPrice           decimal.Decimal  `json:"unit_price"`
	DiscountPercent     decimal.Decimal  `json:"discount_percent"`
	DiscountedUnitPrice *decimal.Decimal `json:"discounted_unit_price,omitempty"`
	LineTotal           decimal.Decimal  `json:"line_total"`
}

// InvoiceDocument is the finished, immutable invoice handed to renderers.
type InvoiceDocument struct {
	Number          string          `json:"number"`
	IssueDate       time.Time       `json:"issue_date"`
	CustomerName    string          `json:"customer_name"`
	Lines           []InvoiceLine   `json:"lines"`
	Summary         CartSummary     `json:"summary"`
	FinalPrice      decimal.Decimal `json:"final_price"`
	FinalPriceWords string          `json:"final_price_words"`
}

type ShopDetails struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

type CheckoutState string

const (
	CheckoutEmpty     CheckoutState = "empty"
	CheckoutPopulated CheckoutState = "populated"
	CheckoutInvoiced  CheckoutState = "invoiced"
)

type CheckoutView struct {
	SessionID     string        `json:"session_id"`
	TerminalID    string        `json:"terminal_id"`
	State         CheckoutState `json:"state"`
	Lines         []CartLine    `json:"lines"`
	Summary       CartSummary   `json:"summary"`
	InvoiceNumber string        `json:"invoice_number,omitempty"`
}

type AddLineRequest struct {
	ProductID string `json:"product_id"`
	Query     string `json:"query"`
}

type EditLineRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type GenerateInvoiceRequest struct {
	CustomerName string `json:"customer_name"`
}

type ReceiptResponse struct {
	InvoiceNumber string `json:"invoice_number"`
	EscposBase64  string `json:"escpos_base64"`
	PreviewText   string `json:"preview_text"`
	FileName      string `json:"file_name"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type CashierCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CashierUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type Actor struct {
	Username string
	Role     string
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)
