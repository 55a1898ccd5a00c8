package favorites

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cleat-store/internal/domain"
	"cleat-store/internal/metrics"

	"go.uber.org/zap"
)

var (
	ErrLoginRequired = errors.New("login required")
	ErrNoSession     = errors.New("no session to hold favorites")
)

const (
	LoadErrorMessage = "failed to load favorites"
	SaveErrorMessage = "failed to update favorites"
)

// Store persists one owner's favorites; Save replaces the stored list
type Store interface {
	Load(ctx context.Context, owner string) ([]domain.FavoriteItem, error)
	Save(ctx context.Context, owner string, items []domain.FavoriteItem) error
	Delete(ctx context.Context, owner string) error
}

// Policy holds the session rules of a Manager
type Policy struct {
	RequireLogin bool
}

// View is what a caller sees of the favorites list
type View struct {
	Items []domain.FavoriteItem `json:"items"`
	Error string                `json:"error,omitempty"`
}

// Manager owns the favorites of a single identity
type Manager struct {
	remote Store
	guest  Store
	policy Policy
	logger *zap.Logger

	mu       sync.Mutex
	identity domain.Identity
	state    State
	err      string
}

// NewManager creates a Manager for the anonymous identity
func NewManager(remote, guest Store, policy Policy, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{remote: remote, guest: guest, policy: policy, logger: logger}
}

// SwitchIdentity re-initialises the list for id. Guest favorites are
// discarded on sign-in.
func (m *Manager) SwitchIdentity(ctx context.Context, id domain.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.identity
	m.identity = id
	m.state = State{}
	m.err = ""

	if prev.Anonymous() && prev.SessionID != "" && !id.Anonymous() {
		if err := m.guest.Delete(ctx, prev.Owner()); err != nil {
			m.logger.Warn("Failed to discard guest favorites",
				zap.String("session_id", prev.SessionID),
				zap.Error(err),
			)
		}
	}

	store, ok := m.storeFor(id)
	if !ok {
		return nil
	}

	items, err := store.Load(ctx, id.Owner())
	metrics.FavoritesMutationsTotal.WithLabelValues(Load{}.name(), metrics.Result(err)).Inc()
	if err != nil {
		m.err = LoadErrorMessage
		m.logger.Error("Failed to load favorites", zap.String("owner", id.Owner()), zap.Error(err))
		return fmt.Errorf("failed to load favorites: %w", err)
	}
	m.state = Reduce(m.state, Load{Items: items})
	return nil
}

func (m *Manager) storeFor(id domain.Identity) (Store, bool) {
	if !id.Anonymous() {
		return m.remote, true
	}
	if m.policy.RequireLogin || id.SessionID == "" {
		return nil, false
	}
	return m.guest, true
}

// Add saves item; saving it twice is a no-op
func (m *Manager) Add(ctx context.Context, item domain.FavoriteItem) error {
	return m.dispatch(ctx, Add{Item: item})
}

// Remove drops productID from the list
func (m *Manager) Remove(ctx context.Context, productID string) error {
	return m.dispatch(ctx, Remove{ProductID: productID})
}

// Toggle flips the presence of item and reports whether it is now saved
func (m *Manager) Toggle(ctx context.Context, item domain.FavoriteItem) (bool, error) {
	if err := m.dispatch(ctx, Toggle{Item: item}); err != nil {
		return m.Contains(item.ProductID), err
	}
	return m.Contains(item.ProductID), nil
}

// Clear drops every saved product
func (m *Manager) Clear(ctx context.Context) error {
	return m.dispatch(ctx, Clear{})
}

// Contains reports whether productID is saved
func (m *Manager) Contains(productID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Contains(productID)
}

func (m *Manager) dispatch(ctx context.Context, a Action) (err error) {
	defer func() {
		metrics.FavoritesMutationsTotal.WithLabelValues(a.name(), metrics.Result(err)).Inc()
	}()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.identity.Anonymous() && m.policy.RequireLogin {
		return ErrLoginRequired
	}
	store, ok := m.storeFor(m.identity)
	if !ok {
		return ErrNoSession
	}

	next := Reduce(m.state, a)
	if err := store.Save(ctx, m.identity.Owner(), next.Items); err != nil {
		m.err = SaveErrorMessage
		m.logger.Error("Failed to save favorites",
			zap.String("owner", m.identity.Owner()),
			zap.String("action", a.name()),
			zap.Error(err),
		)
		return fmt.Errorf("failed to save favorites: %w", err)
	}

	m.state = next
	m.err = ""
	return nil
}

// View returns the list as presented to callers
func (m *Manager) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return View{
		Items: append([]domain.FavoriteItem{}, m.state.Items...),
		Error: m.err,
	}
}
