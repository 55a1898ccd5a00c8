package cart

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
	ErrNoSession     = errors.New("no session to hold the cart")
)

// Messages exposed through View when a store call fails
const (
	LoadErrorMessage = "failed to load cart"
	SaveErrorMessage = "failed to update cart"
)

// Store persists the lines of one owner's cart. Save replaces everything
// stored for the owner with items.
type Store interface {
	Load(ctx context.Context, owner string) ([]domain.CartItem, error)
	Save(ctx context.Context, owner string, items []domain.CartItem) error
	Delete(ctx context.Context, owner string) error
}

// Policy holds the session rules of a Manager
type Policy struct {
	// RequireLogin refuses mutations from anonymous identities
	RequireLogin bool
}

// View is what a caller sees of the cart
type View struct {
	Items []domain.CartItem `json:"items"`
	Total string            `json:"total"`
	Count int               `json:"count"`
	Error string            `json:"error,omitempty"`
}

// Manager owns the cart of a single identity. Signed-in users are backed by
// the remote store, guests by the guest store.
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

// NewManager creates a Manager for the anonymous identity with an empty cart.
// Call SwitchIdentity to attach it to a session or user.
func NewManager(remote, guest Store, policy Policy, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		remote: remote,
		guest:  guest,
		policy: policy,
		logger: logger,
		state:  newState(nil),
	}
}

// SwitchIdentity re-initialises the cart for id. Signing in discards the
// guest cart of the previous session instead of merging it, signing out
// leaves an empty cart. A load failure is recorded in the view and
// returned; the cart is then empty.
func (m *Manager) SwitchIdentity(ctx context.Context, id domain.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.identity
	m.identity = id
	m.state = newState(nil)
	m.err = ""

	if prev.Anonymous() && prev.SessionID != "" && !id.Anonymous() {
		if err := m.guest.Delete(ctx, prev.Owner()); err != nil {
			m.logger.Warn("Failed to discard guest cart",
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
	metrics.CartMutationsTotal.WithLabelValues(Load{}.name(), metrics.Result(err)).Inc()
	if err != nil {
		m.err = LoadErrorMessage
		m.logger.Error("Failed to load cart", zap.String("owner", id.Owner()), zap.Error(err))
		return fmt.Errorf("failed to load cart: %w", err)
	}
	m.state = Reduce(m.state, Load{Items: items})
	return nil
}

// storeFor picks the backing store of id. Anonymous identities have none
// when login is required or no session is known.
func (m *Manager) storeFor(id domain.Identity) (Store, bool) {
	if !id.Anonymous() {
		return m.remote, true
	}
	if m.policy.RequireLogin || id.SessionID == "" {
		return nil, false
	}
	return m.guest, true
}

// Identity returns the current owner of the cart
func (m *Manager) Identity() domain.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identity
}

// AddItem adds item to the cart, merging with an existing line of the same
// product, size and color
func (m *Manager) AddItem(ctx context.Context, item domain.CartItem) error {
	return m.dispatch(ctx, AddItem{Item: item})
}

// RemoveItem removes the single line identified by key
func (m *Manager) RemoveItem(ctx context.Context, key domain.LineKey) error {
	return m.dispatch(ctx, RemoveItem{Key: key})
}

// RemoveProduct removes every line of productID
func (m *Manager) RemoveProduct(ctx context.Context, productID string) error {
	return m.dispatch(ctx, RemoveProduct{ProductID: productID})
}

// UpdateQuantity sets the quantity of a line; zero or less removes it
func (m *Manager) UpdateQuantity(ctx context.Context, key domain.LineKey, quantity int) error {
	return m.dispatch(ctx, UpdateQuantity{Key: key, Quantity: quantity})
}

// Clear empties the cart
func (m *Manager) Clear(ctx context.Context) error {
	return m.dispatch(ctx, Clear{})
}

// dispatch computes the next state, writes it through and only then makes
// it current. A failed write leaves the cart as it was.
func (m *Manager) dispatch(ctx context.Context, a Action) (err error) {
	defer func() {
		metrics.CartMutationsTotal.WithLabelValues(a.name(), metrics.Result(err)).Inc()
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
		m.logger.Error("Failed to save cart",
			zap.String("owner", m.identity.Owner()),
			zap.String("action", a.name()),
			zap.Error(err),
		)
		return fmt.Errorf("failed to save cart: %w", err)
	}

	m.state = next
	m.err = ""
	return nil
}

// State returns the current cart state
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return State{Items: append([]domain.CartItem(nil), m.state.Items...), Total: m.state.Total}
}

// View returns the cart as presented to callers
func (m *Manager) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := append([]domain.CartItem{}, m.state.Items...)
	return View{
		Items: items,
		Total: m.state.Total.StringFixed(2),
		Count: m.state.Count(),
		Error: m.err,
	}
}
