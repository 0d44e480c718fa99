package search

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"smpos/backend/internal/cache"
	"smpos/backend/internal/domain"
)

const defaultLimit = 20

// Match ranks, best first.
const (
	rankExactID = iota
	rankIDPrefix
	rankNamePrefix
	rankNameContains
	rankNone
)

type Engine struct {
	cache    cache.SearchCache
	cacheTTL time.Duration
	logger   *zap.Logger
}

func NewEngine(cacheStore cache.SearchCache, cacheTTL time.Duration, logger *zap.Logger) *Engine {
	if cacheStore == nil {
		cacheStore = cache.NoopSearchCache{}
	}
	if cacheTTL <= 0 {
		cacheTTL = 20 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine{
		cache:    cacheStore,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Search matches query against product ids (prefix) and names (substring),
// case-insensitively. An empty query returns nothing.
func (e *Engine) Search(ctx context.Context, query string, limit int, products []domain.Product) domain.ProductSearchResult {
	startedAt := time.Now()
	normalized := strings.ToLower(strings.TrimSpace(query))
	if limit <= 0 {
		limit = defaultLimit
	}

	if normalized == "" {
		return domain.ProductSearchResult{
			Query:     query,
			Products:  []domain.Product{},
			LatencyMS: time.Since(startedAt).Milliseconds(),
		}
	}

	cacheKey := buildCacheKey(normalized, limit)
	cached, ok, err := e.cache.Get(ctx, cacheKey)
	if err != nil {
		e.logger.Warn("search cache read failed", zap.Error(err))
	} else if ok {
		cached.LatencyMS = time.Since(startedAt).Milliseconds()
		return *cached
	}

	type candidate struct {
		product domain.Product
		rank    int
	}
	candidates := make([]candidate, 0, 8)
	for _, product := range products {
		if rank := matchRank(normalized, product); rank != rankNone {
			candidates = append(candidates, candidate{product: product, rank: rank})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].rank != candidates[j].rank {
			return candidates[i].rank < candidates[j].rank
		}
		return strings.ToLower(candidates[i].product.Name) < strings.ToLower(candidates[j].product.Name)
	})

	resp := domain.ProductSearchResult{
		Query:    query,
		Products: make([]domain.Product, 0, min(limit, len(candidates))),
		Single:   len(candidates) == 1,
	}
	for i, c := range candidates {
		if i == limit {
			break
		}
		resp.Products = append(resp.Products, c.product)
	}

	resp.LatencyMS = time.Since(startedAt).Milliseconds()
	if err := e.cache.Set(ctx, cacheKey, &resp, e.cacheTTL); err != nil {
		e.logger.Warn("search cache write failed", zap.Error(err))
	}
	return resp
}

// Invalidate drops cached results; catalog writes call it so searches never
// return deleted or stale products for longer than one request.
func (e *Engine) Invalidate(ctx context.Context) {
	if err := e.cache.Invalidate(ctx); err != nil {
		e.logger.Warn("search cache invalidate failed", zap.Error(err))
	}
}

func matchRank(query string, product domain.Product) int {
	id := strings.ToLower(product.ID)
	name := strings.ToLower(product.Name)
	switch {
	case id == query:
		return rankExactID
	case strings.HasPrefix(id, query):
		return rankIDPrefix
	case strings.HasPrefix(name, query):
		return rankNamePrefix
	case strings.Contains(name, query):
		return rankNameContains
	}
	return rankNone
}

func buildCacheKey(query string, limit int) string {
	hash := sha1.Sum([]byte(fmt.Sprintf("%s|l:%d", query, limit)))
	return cache.SearchKeyPrefix + hex.EncodeToString(hash[:])
}
