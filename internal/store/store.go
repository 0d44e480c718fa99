package store

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"smpos/backend/internal/domain"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidProduct = errors.New("invalid product")
	ErrDuplicate      = errors.New("already exists")
	ErrInvalidUser    = errors.New("invalid user")
)

var hundred = decimal.NewFromInt(100)

// KeyValueStore is the small durable string store used for settings such as
// the invoice sequence. Get reports found=false when the key is absent.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
}

type Catalog interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	ListMeasurementTypes(ctx context.Context) ([]domain.MeasurementType, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}

type Repository interface {
	Catalog
	UserStore
	KeyValueStore
}

// ValidateProduct checks the invariants every backend enforces before a
// product row is written.
func ValidateProduct(p domain.Product) error {
	if p.ID == "" || p.Name == "" || p.Category == "" {
		return ErrInvalidProduct
	}
	if p.Price.IsNegative() || p.StockQty.IsNegative() {
		return ErrInvalidProduct
	}
	if p.DiscountPercent.IsNegative() || p.DiscountPercent.GreaterThan(hundred) {
		return ErrInvalidProduct
	}
	if !p.Kind.Valid() {
		return ErrInvalidProduct
	}
	return nil
}
