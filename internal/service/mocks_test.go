package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"cleat-store/internal/broker"
	"cleat-store/internal/catalog"
	"cleat-store/internal/domain"
	"cleat-store/internal/repository"

	"github.com/google/uuid"
)

var errStoreDown = errors.New("store unavailable")

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

// mockProductRepository keeps products in insertion order and serves
// QueryPage as a single unfiltered page
type mockProductRepository struct {
	mu       sync.Mutex
	products []*domain.Product
	queries  []catalog.Query
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
	m.queries = append(m.queries, q)

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

// memoryStore is a cart and favorites store keyed by owner
type memoryStore[T any] struct {
	mu      sync.Mutex
	data    map[string][]T
	failing bool
	deleted []string
}

func newMemoryStore[T any]() *memoryStore[T] {
	return &memoryStore[T]{data: make(map[string][]T)}
}

func (s *memoryStore[T]) Load(ctx context.Context, owner string) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return nil, errStoreDown
	}
	return append([]T(nil), s.data[owner]...), nil
}

func (s *memoryStore[T]) Save(ctx context.Context, owner string, items []T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return errStoreDown
	}
	s.data[owner] = append([]T(nil), items...)
	return nil
}

func (s *memoryStore[T]) Delete(ctx context.Context, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, owner)
	s.deleted = append(s.deleted, owner)
	return nil
}

func (s *memoryStore[T]) owners() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	owners := make([]string, 0, len(s.data))
	for owner := range s.data {
		owners = append(owners, owner)
	}
	sort.Strings(owners)
	return owners
}

type mockOrderRepository struct {
	mu      sync.Mutex
	orders  []*domain.Order
	failing bool
}

func (m *mockOrderRepository) Place(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return errStoreDown
	}
	m.orders = append(m.orders, order)
	return nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (m *mockOrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ID == id {
			o.Status = status
			return nil
		}
	}
	return repository.ErrOrderNotFound
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*broker.OrderPlacedEvent
}

func (p *recordingPublisher) PublishOrderPlaced(ctx context.Context, event *broker.OrderPlacedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}
