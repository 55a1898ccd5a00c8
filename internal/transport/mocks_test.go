package transport

import (
	"context"
	"sync"
	"time"

	"cleat-store/internal/catalog"
	"cleat-store/internal/domain"
	"cleat-store/internal/repository"
	"cleat-store/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type mockUserRepository struct {
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users: make(map[string]*domain.User),
	}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if _, exists := m.users[user.Email]; exists {
		return repository.ErrUserAlreadyExists
	}
	m.users[user.Email] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, exists := m.users[email]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	users := make([]*domain.User, 0, len(m.users))
	for _, user := range m.users {
		users = append(users, user)
	}
	return users, nil
}

func (m *mockUserRepository) UpdateName(ctx context.Context, id uuid.UUID, name string) error {
	user, err := m.FindByID(ctx, id)
	if err != nil {
		return err
	}
	user.Name = name
	return nil
}

func (m *mockUserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role domain.Role) error {
	user, err := m.FindByID(ctx, id)
	if err != nil {
		return err
	}
	user.Role = role
	return nil
}

type mockRefreshTokenRepository struct {
	tokens map[string]*domain.RefreshToken
}

func newMockRefreshTokenRepository() *mockRefreshTokenRepository {
	return &mockRefreshTokenRepository{
		tokens: make(map[string]*domain.RefreshToken),
	}
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *mockRefreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return nil, repository.ErrRefreshTokenNotFound
	}
	if refreshToken.Revoked {
		return nil, repository.ErrRefreshTokenRevoked
	}
	return refreshToken, nil
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return repository.ErrRefreshTokenNotFound
	}
	refreshToken.Revoked = true
	return nil
}

func (m *mockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	for _, token := range m.tokens {
		if token.UserID == userID {
			token.Revoked = true
		}
	}
	return nil
}

func (m *mockRefreshTokenRepository) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	var n int64
	for key, token := range m.tokens {
		if token.Revoked || token.ExpiresAt.Before(before) {
			delete(m.tokens, key)
			n++
		}
	}
	return n, nil
}

// mockProductRepository serves its products as one unordered page
type mockProductRepository struct {
	mu       sync.Mutex
	products []*domain.Product
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = append(m.products, product)
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.products {
		if p.ID == product.ID {
			m.products[i] = product
			return nil
		}
	}
	return repository.ErrProductNotFound
}

func (m *mockProductRepository) SoftDelete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.ID == id {
			p.Status = domain.ProductStatusInactive
			return nil
		}
	}
	return repository.ErrProductNotFound
}

func (m *mockProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (m *mockProductRepository) QueryPage(ctx context.Context, q catalog.Query, cursor string, limit int) (catalog.RawPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Product
	for _, p := range m.products {
		if len(out) == limit {
			break
		}
		out = append(out, *p)
	}
	return catalog.RawPage{Products: out}, nil
}

type mockFacetRepository struct{}

func (mockFacetRepository) Facets(ctx context.Context) (domain.Facets, error) {
	return domain.Facets{Categories: []string{"futsal"}, Brands: []string{"Nike"}}, nil
}

func (mockFacetRepository) Categories(ctx context.Context) ([]string, error) {
	return []string{"futsal"}, nil
}

func (mockFacetRepository) Brands(ctx context.Context) ([]string, error) {
	return []string{"Nike"}, nil
}

type memoryStore[T any] struct {
	mu   sync.Mutex
	data map[string][]T
}

func newMemoryStore[T any]() *memoryStore[T] {
	return &memoryStore[T]{data: make(map[string][]T)}
}

func (s *memoryStore[T]) Load(ctx context.Context, owner string) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]T(nil), s.data[owner]...), nil
}

func (s *memoryStore[T]) Save(ctx context.Context, owner string, items []T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[owner] = append([]T(nil), items...)
	return nil
}

func (s *memoryStore[T]) Delete(ctx context.Context, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, owner)
	return nil
}

func (s *memoryStore[T]) has(owner string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[owner]
	return ok
}

// testBasket bundles a basket service with the stores behind it
type testBasket struct {
	service.BasketService
	carts      *memoryStore[domain.CartItem]
	guestCarts *memoryStore[domain.CartItem]
	products   *mockProductRepository
}

func newTestCatalog() *mockProductRepository {
	return &mockProductRepository{products: []*domain.Product{
		{
			ID:       "boot-1",
			Name:     "Mercurial Vapor",
			Brand:    "Nike",
			Category: "campo",
			Price:    decimal.NewFromInt(300),
			Sizes:    []string{"40", "41"},
			Colors:   []string{"black"},
			Status:   domain.ProductStatusActive,
		},
		{
			ID:       "boot-2",
			Name:     "Predator Club",
			Brand:    "Adidas",
			Category: "futsal",
			Price:    decimal.NewFromInt(200),
			Status:   domain.ProductStatusActive,
		},
	}}
}

func newTestBasket(requireLogin bool) *testBasket {
	b := &testBasket{
		carts:      newMemoryStore[domain.CartItem](),
		guestCarts: newMemoryStore[domain.CartItem](),
		products:   newTestCatalog(),
	}
	b.BasketService = service.NewBasketService(service.BasketStores{
		Carts:          b.carts,
		GuestCarts:     b.guestCarts,
		Favorites:      newMemoryStore[domain.FavoriteItem](),
		GuestFavorites: newMemoryStore[domain.FavoriteItem](),
	}, b.products, requireLogin, zap.NewNop())
	return b
}
