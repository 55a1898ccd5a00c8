package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"cleat-store/internal/cart"
	"cleat-store/internal/domain"
	"cleat-store/internal/favorites"
	"cleat-store/internal/repository"

	"go.uber.org/zap"
)

var (
	ErrProductUnavailable = errors.New("product is not available")
	ErrInvalidVariant     = errors.New("size or color not offered for this product")
)

// AddToCartInput selects a product line to put in the cart
type AddToCartInput struct {
	ProductID string `json:"product_id" validate:"required"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity" validate:"gte=0,lte=99"`
}

// BasketStores groups the backing stores of carts and favorites
type BasketStores struct {
	Carts          cart.Store
	GuestCarts     cart.Store
	Favorites      favorites.Store
	GuestFavorites favorites.Store
}

// BasketService opens cart and favorites managers for a request identity
// and resolves product details for new entries
type BasketService interface {
	Cart(ctx context.Context, id domain.Identity) (*cart.Manager, error)
	Favorites(ctx context.Context, id domain.Identity) (*favorites.Manager, error)

	AddToCart(ctx context.Context, id domain.Identity, input AddToCartInput) (cart.View, error)
	ToggleFavorite(ctx context.Context, id domain.Identity, productID string) (bool, favorites.View, error)

	// SignIn moves a session onto userID, discarding its guest cart and favorites
	SignIn(ctx context.Context, sessionID, userID string) error
}

type basketService struct {
	stores     BasketStores
	products   repository.ProductRepository
	cartPolicy cart.Policy
	favPolicy  favorites.Policy
	logger     *zap.Logger
}

// NewBasketService creates a new instance of BasketService
func NewBasketService(
	stores BasketStores,
	products repository.ProductRepository,
	requireLogin bool,
	logger *zap.Logger,
) BasketService {
	return &basketService{
		stores:     stores,
		products:   products,
		cartPolicy: cart.Policy{RequireLogin: requireLogin},
		favPolicy:  favorites.Policy{RequireLogin: requireLogin},
		logger:     logger,
	}
}

// Cart returns a cart manager loaded for id
func (s *basketService) Cart(ctx context.Context, id domain.Identity) (*cart.Manager, error) {
	m := cart.NewManager(s.stores.Carts, s.stores.GuestCarts, s.cartPolicy, s.logger)
	if err := m.SwitchIdentity(ctx, id); err != nil {
		return m, err
	}
	return m, nil
}

// Favorites returns a favorites manager loaded for id
func (s *basketService) Favorites(ctx context.Context, id domain.Identity) (*favorites.Manager, error) {
	m := favorites.NewManager(s.stores.Favorites, s.stores.GuestFavorites, s.favPolicy, s.logger)
	if err := m.SwitchIdentity(ctx, id); err != nil {
		return m, err
	}
	return m, nil
}

// AddToCart adds a line priced from the catalog. The product must be
// visible and offer the requested size and color. Guests are turned away
// before the product is looked up when login is required.
func (s *basketService) AddToCart(ctx context.Context, id domain.Identity, input AddToCartInput) (cart.View, error) {
	if id.Anonymous() && s.cartPolicy.RequireLogin {
		return cart.View{}, cart.ErrLoginRequired
	}

	product, err := s.visibleProduct(ctx, input.ProductID)
	if err != nil {
		return cart.View{}, err
	}
	if !offers(product.Sizes, input.Size) || !offers(product.Colors, input.Color) {
		return cart.View{}, ErrInvalidVariant
	}

	m, err := s.Cart(ctx, id)
	if err != nil {
		return m.View(), err
	}

	err = m.AddItem(ctx, domain.CartItem{
		ProductID: product.ID,
		Name:      product.Name,
		UnitPrice: product.Price,
		Image:     product.Image(),
		Size:      input.Size,
		Color:     input.Color,
		Quantity:  input.Quantity,
	})
	return m.View(), err
}

// ToggleFavorite flips productID in the favorites of id and reports whether
// it is now a favorite
func (s *basketService) ToggleFavorite(ctx context.Context, id domain.Identity, productID string) (bool, favorites.View, error) {
	if id.Anonymous() && s.favPolicy.RequireLogin {
		return false, favorites.View{}, favorites.ErrLoginRequired
	}

	m, err := s.Favorites(ctx, id)
	if err != nil {
		return false, m.View(), err
	}

	item := domain.FavoriteItem{ProductID: productID}
	if !m.Contains(productID) {
		product, err := s.visibleProduct(ctx, productID)
		if err != nil {
			return false, m.View(), err
		}
		item = domain.FavoriteItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Image:     product.Image(),
			Brand:     product.Brand,
			Category:  product.Category,
		}
	}

	added, err := m.Toggle(ctx, item)
	return added, m.View(), err
}

func (s *basketService) SignIn(ctx context.Context, sessionID, userID string) error {
	if sessionID == "" {
		return nil
	}
	guest := domain.Identity{SessionID: sessionID}
	user := domain.Identity{UserID: userID}

	// Managers must first be on the guest identity for the switch to
	// discard it; guest loads are skipped when login is required.
	c := cart.NewManager(s.stores.Carts, s.stores.GuestCarts, s.cartPolicy, s.logger)
	if err := c.SwitchIdentity(ctx, guest); err != nil {
		s.logger.Debug("Guest cart not loaded before sign in", zap.String("session_id", sessionID), zap.Error(err))
	}
	if err := c.SwitchIdentity(ctx, user); err != nil {
		return fmt.Errorf("failed to load cart after sign in: %w", err)
	}

	f := favorites.NewManager(s.stores.Favorites, s.stores.GuestFavorites, s.favPolicy, s.logger)
	if err := f.SwitchIdentity(ctx, guest); err != nil {
		s.logger.Debug("Guest favorites not loaded before sign in", zap.String("session_id", sessionID), zap.Error(err))
	}
	if err := f.SwitchIdentity(ctx, user); err != nil {
		return fmt.Errorf("failed to load favorites after sign in: %w", err)
	}

	s.logger.Debug("Guest session discarded on sign in",
		zap.String("session_id", sessionID),
		zap.String("user_id", userID),
	)
	return nil
}

func (s *basketService) visibleProduct(ctx context.Context, productID string) (*domain.Product, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductUnavailable
		}
		return nil, err
	}
	if !product.Visible() {
		return nil, ErrProductUnavailable
	}
	return product, nil
}

// offers reports whether value is one of options. Products without options
// accept only the empty value.
func offers(options []string, value string) bool {
	if len(options) == 0 {
		return value == ""
	}
	return slices.Contains(options, value)
}
