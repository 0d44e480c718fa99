package memory

import (
	"context"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"smpos/backend/internal/domain"
	"smpos/backend/internal/store"
)

type Store struct {
	mu              sync.RWMutex
	products        map[string]domain.Product
	usersByUsername map[string]domain.UserAccount
	settings        map[string]string
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials are read from SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD;
// unset values fall back to dev defaults with a warning.
func seedUsers(logger *zap.Logger) map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		logger.Warn("memory store using default dev credentials; set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, domain.RoleAdmin},
		{"cashier", cashierPwd, domain.RoleCashier},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.MinCost)
		if err != nil {
			logger.Error("seed user skipped: cannot hash password", zap.String("username", u.username), zap.Error(err))
			continue
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// SeedProducts is the demo catalog of a small electricals and plumbing shop.
func SeedProducts() []domain.Product {
	p := func(id, name, price, category, sub string, kind domain.MeasurementKind, discount string) domain.Product {
		return domain.Product{
			ID:              id,
			Name:            name,
			Price:           decimal.RequireFromString(price),
			Category:        category,
			SubCategory:     sub,
			Kind:            kind,
			DiscountPercent: decimal.RequireFromString(discount),
			StockQty:        decimal.NewFromInt(100),
		}
	}
	return []domain.Product{
		p("101", "LED Bulb 9W", "95", "electrical", "lighting", domain.MeasurementUnit, "0"),
		p("102", "Tube Light 20W", "240", "electrical", "lighting", domain.MeasurementUnit, "5"),
		p("110", "Modular Switch 6A", "48", "electrical", "switches", domain.MeasurementUnit, "0"),
		p("111", "Socket 16A", "120", "electrical", "switches", domain.MeasurementUnit, "0"),
		p("120", "Copper Wire 1.5 sq mm", "980", "electrical", "wiring", domain.MeasurementWeight, "0"),
		p("121", "Insulation Tape", "25", "electrical", "wiring", domain.MeasurementUnit, "0"),
		p("201", "PVC Pipe 1 inch", "160", "plumbing", "pipes", domain.MeasurementUnit, "0"),
		p("202", "PVC Elbow 1 inch", "18", "plumbing", "fittings", domain.MeasurementUnit, "0"),
		p("203", "Brass Tap", "450", "plumbing", "fittings", domain.MeasurementUnit, "10"),
		p("210", "Iron Nails", "120", "hardware", "", domain.MeasurementWeight, "0"),
		p("211", "M-Seal Putty", "60", "hardware", "", domain.MeasurementUnit, "0"),
	}
}

func NewSeeded() *Store {
	return NewSeededWithLogger(zap.NewNop())
}

// NewSeededWithLogger is NewSeeded reporting seeding problems to logger.
func NewSeededWithLogger(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := New()
	now := time.Now().UTC()
	for _, product := range SeedProducts() {
		product.CreatedAt = now
		product.UpdatedAt = now
		s.products[product.ID] = product
	}
	s.usersByUsername = seedUsers(logger.Named("memory"))
	return s
}

func New() *Store {
	return &Store{
		products:        make(map[string]domain.Product),
		usersByUsername: make(map[string]domain.UserAccount),
		settings:        make(map[string]string),
	}
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}

	slices.SortFunc(products, func(a, b domain.Product) int {
		if a.Category == b.Category {
			return strings.Compare(a.Name, b.Name)
		}
		return strings.Compare(a.Category, b.Category)
	})

	return products, nil
}

func (s *Store) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.products[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyProduct := product
	return &copyProduct, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	if err := store.ValidateProduct(product); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.ID]; exists {
		return nil, store.ErrDuplicate
	}

	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now
	s.products[product.ID] = product
	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	if err := store.ValidateProduct(product); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.products[product.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now().UTC()
	s.products[product.ID] = product
	updated := product
	return &updated, nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *Store) ListMeasurementTypes(_ context.Context) ([]domain.MeasurementType, error) {
	return []domain.MeasurementType{
		{ID: domain.MeasurementUnitID, Name: "unit", Kind: domain.MeasurementUnit},
		{ID: domain.MeasurementWeightID, Name: "gram", Kind: domain.MeasurementWeight},
	}, nil
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.settings[key]
	return value, ok, nil
}

func (s *Store) Set(_ context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings[key] = value
	return nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByUsername[user.Username]; exists {
		return store.ErrDuplicate
	}
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return strings.Compare(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}
