package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"smpos/backend/internal/checkout"
	"smpos/backend/internal/domain"
	"smpos/backend/internal/invoice"
	"smpos/backend/internal/search"
	"smpos/backend/internal/store"
)

var (
	ErrForbidden      = errors.New("admin role required")
	ErrAmbiguousQuery = errors.New("query matches more than one product")
)

// AmbiguousQueryError carries the candidates when a search-driven add
// cannot pick a single product.
type AmbiguousQueryError struct {
	Result domain.ProductSearchResult
}

func (e *AmbiguousQueryError) Error() string {
	return fmt.Sprintf("%s: %q matched %d products", ErrAmbiguousQuery, e.Result.Query, len(e.Result.Products))
}

func (e *AmbiguousQueryError) Unwrap() error {
	return ErrAmbiguousQuery
}

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo      store.Repository
	searcher  *search.Engine
	sequencer *invoice.Sequencer
	builder   *invoice.Builder
	registry  *checkout.Registry
	shop      domain.ShopDetails
	logger    *zap.Logger
	now       func() time.Time
}

func New(repo store.Repository, searcher *search.Engine, sequencer *invoice.Sequencer, shop domain.ShopDetails, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if searcher == nil {
		searcher = search.NewEngine(nil, 0, logger)
	}

	return &Service{
		repo:      repo,
		searcher:  searcher,
		sequencer: sequencer,
		builder:   invoice.NewBuilder(),
		registry:  checkout.NewRegistry(checkout.DefaultMaxTerminals),
		shop:      shop,
		logger:    logger.Named("service"),
		now:       time.Now,
	}
}

func (s *Service) Shop() domain.ShopDetails {
	return s.shop
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	product, err := s.repo.GetProduct(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Product{}, err
	}
	return *product, nil
}

func (s *Service) ListMeasurementTypes(ctx context.Context) ([]domain.MeasurementType, error) {
	return s.repo.ListMeasurementTypes(ctx)
}

func (s *Service) SearchProducts(ctx context.Context, query string, limit int) (domain.ProductSearchResult, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return domain.ProductSearchResult{}, err
	}
	return s.searcher.Search(ctx, query, limit, products), nil
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.Product{}, ErrForbidden
	}

	product := domain.Product{
		ID:              strings.TrimSpace(req.ID),
		Name:            strings.TrimSpace(req.Name),
		Price:           req.Price,
		Category:        strings.TrimSpace(req.Category),
		SubCategory:     strings.TrimSpace(req.SubCategory),
		Kind:            req.Kind,
		DiscountPercent: req.DiscountPercent,
	}
	// Only an omitted kind lands here; an explicit blank fails decoding.
	if product.Kind == "" {
		product.Kind = domain.MeasurementUnit
	}
	if req.StockQty != nil {
		product.StockQty = *req.StockQty
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}
	s.searcher.Invalidate(ctx)
	s.logger.Info("product created",
		zap.String("id", created.ID),
		zap.String("by", actor.Username),
		zap.Stringer("price", created.Price),
	)
	return *created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.Product{}, ErrForbidden
	}

	existing, err := s.repo.GetProduct(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Product{}, err
	}

	updated := *existing
	if req.Name != nil {
		updated.Name = strings.TrimSpace(*req.Name)
	}
	if req.Category != nil {
		updated.Category = strings.TrimSpace(*req.Category)
	}
	if req.SubCategory != nil {
		updated.SubCategory = strings.TrimSpace(*req.SubCategory)
	}
	if req.Price != nil {
		updated.Price = *req.Price
	}
	if req.Kind != nil {
		updated.Kind = *req.Kind
	}
	if req.DiscountPercent != nil {
		updated.DiscountPercent = *req.DiscountPercent
	}
	if req.StockQty != nil {
		updated.StockQty = *req.StockQty
	}

	saved, err := s.repo.UpdateProduct(ctx, updated)
	if err != nil {
		return domain.Product{}, err
	}
	s.searcher.Invalidate(ctx)
	if !existing.Price.Equal(saved.Price) {
		s.logger.Info("product price changed",
			zap.String("id", saved.ID),
			zap.String("by", actor.Username),
			zap.Stringer("old", existing.Price),
			zap.Stringer("new", saved.Price),
		)
	}
	return *saved, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return ErrForbidden
	}
	if err := s.repo.DeleteProduct(ctx, strings.TrimSpace(id)); err != nil {
		return err
	}
	s.searcher.Invalidate(ctx)
	s.logger.Info("product deleted", zap.String("id", id), zap.String("by", actor.Username))
	return nil
}

func (s *Service) Checkout(_ context.Context, terminalID string) (domain.CheckoutView, error) {
	session, err := s.registry.Session(terminalID)
	if err != nil {
		return domain.CheckoutView{}, err
	}
	return session.View(), nil
}

// AddLine adds a product by id, or by a search query that must resolve to
// exactly one product.
func (s *Service) AddLine(ctx context.Context, terminalID string, req domain.AddLineRequest) (domain.CheckoutView, error) {
	var product domain.Product
	switch {
	case strings.TrimSpace(req.ProductID) != "":
		found, err := s.GetProduct(ctx, req.ProductID)
		if err != nil {
			return domain.CheckoutView{}, err
		}
		product = found
	case strings.TrimSpace(req.Query) != "":
		result, err := s.SearchProducts(ctx, req.Query, 0)
		if err != nil {
			return domain.CheckoutView{}, err
		}
		switch {
		case len(result.Products) == 0:
			return domain.CheckoutView{}, store.ErrNotFound
		case !result.Single:
			return domain.CheckoutView{}, &AmbiguousQueryError{Result: result}
		}
		product = result.Products[0]
	default:
		return domain.CheckoutView{}, fmt.Errorf("%w: product_id or query is required", checkout.ErrInvalidEdit)
	}

	session, err := s.registry.Session(terminalID)
	if err != nil {
		return domain.CheckoutView{}, err
	}
	return session.Add(product)
}

func (s *Service) EditLine(_ context.Context, terminalID string, index int, req domain.EditLineRequest) (domain.CheckoutView, error) {
	session, err := s.registry.Session(terminalID)
	if err != nil {
		return domain.CheckoutView{}, err
	}
	return session.Edit(index, req.Field, req.Value)
}

func (s *Service) RemoveLine(_ context.Context, terminalID string, index int) (domain.CheckoutView, error) {
	session, err := s.registry.Session(terminalID)
	if err != nil {
		return domain.CheckoutView{}, err
	}
	return session.Remove(index)
}

func (s *Service) ResetCheckout(_ context.Context, terminalID string) (domain.CheckoutView, error) {
	session, err := s.registry.Session(terminalID)
	if err != nil {
		return domain.CheckoutView{}, err
	}
	return session.Reset(), nil
}

// GenerateInvoice allocates (once) and builds the till's invoice.
func (s *Service) GenerateInvoice(ctx context.Context, terminalID string, req domain.GenerateInvoiceRequest) (domain.InvoiceDocument, error) {
	session, err := s.registry.Session(terminalID)
	if err != nil {
		return domain.InvoiceDocument{}, err
	}
	// The issue date must fall on the same shop-local day as the number.
	now := s.now().In(s.sequencer.Location())
	doc, err := session.Invoice(ctx, s.sequencer, s.builder, now, req.CustomerName)
	if err != nil {
		if errors.Is(err, invoice.ErrStorageUnavailable) {
			s.logger.Error("invoice number allocation failed", zap.String("terminal", terminalID), zap.Error(err))
		}
		return domain.InvoiceDocument{}, err
	}

	s.logger.Info("invoice generated",
		zap.String("number", doc.Number),
		zap.String("terminal", terminalID),
		zap.Int("lines", doc.Summary.TotalLines),
		zap.Stringer("final_price", doc.FinalPrice),
	)
	return doc, nil
}

func (s *Service) InvoiceHTML(_ context.Context, terminalID string) (string, error) {
	session, err := s.registry.Session(terminalID)
	if err != nil {
		return "", err
	}
	doc, err := session.Reissue(s.builder)
	if err != nil {
		return "", err
	}
	return invoice.RenderHTML(s.shop, doc)
}

func (s *Service) InvoiceReceipt(_ context.Context, terminalID string) (domain.ReceiptResponse, error) {
	session, err := s.registry.Session(terminalID)
	if err != nil {
		return domain.ReceiptResponse{}, err
	}
	doc, err := session.Reissue(s.builder)
	if err != nil {
		return domain.ReceiptResponse{}, err
	}
	return invoice.RenderReceipt(s.shop, doc), nil
}
