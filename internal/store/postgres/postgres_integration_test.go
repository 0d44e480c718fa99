package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"smpos/backend/internal/domain"
	"smpos/backend/internal/store"
)

func TestProductAndSettingsRoundTrip(t *testing.T) {
	databaseURL := os.Getenv("SMPOS_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set SMPOS_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	id := fmt.Sprintf("IT-%d", stamp)
	key := fmt.Sprintf("it-setting-%d", stamp)

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = $1`, key)
	})

	product := domain.Product{
		ID:              id,
		Name:            "Copper Wire IT",
		Price:           decimal.RequireFromString("980.50"),
		Category:        "electrical",
		Kind:            domain.MeasurementWeight,
		DiscountPercent: decimal.NewFromInt(5),
		StockQty:        decimal.RequireFromString("25"),
	}
	if _, err := s.CreateProduct(ctx, product); err != nil {
		t.Fatalf("create product: %v", err)
	}
	if _, err := s.CreateProduct(ctx, product); err != store.ErrDuplicate {
		t.Fatalf("expected duplicate error, got %v", err)
	}

	got, err := s.GetProduct(ctx, id)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if !got.Price.Equal(product.Price) || got.Kind != domain.MeasurementWeight {
		t.Fatalf("unexpected product round trip: %+v", got)
	}

	if err := s.Set(ctx, key, "first"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, key, "second"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	value, found, err := s.Get(ctx, key)
	if err != nil || !found || value != "second" {
		t.Fatalf("expected second, got %q found=%v err=%v", value, found, err)
	}

	if err := s.DeleteProduct(ctx, id); err != nil {
		t.Fatalf("delete product: %v", err)
	}
	if _, err := s.GetProduct(ctx, id); err != store.ErrNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}
