package cache

import (
	"context"
	"time"

	"smpos/backend/internal/domain"
)

type SearchCache interface {
	Get(ctx context.Context, key string) (*domain.ProductSearchResult, bool, error)
	Set(ctx context.Context, key string, value *domain.ProductSearchResult, ttl time.Duration) error
	// Invalidate drops every cached search. Called after catalog writes.
	Invalidate(ctx context.Context) error
}

type NoopSearchCache struct{}

func (NoopSearchCache) Get(_ context.Context, _ string) (*domain.ProductSearchResult, bool, error) {
	return nil, false, nil
}

func (NoopSearchCache) Set(_ context.Context, _ string, _ *domain.ProductSearchResult, _ time.Duration) error {
	return nil
}

func (NoopSearchCache) Invalidate(_ context.Context) error {
	return nil
}
