package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cleat-store/internal/broker"
	"cleat-store/internal/domain"
	"cleat-store/internal/metrics"
	"cleat-store/internal/repository"
	"cleat-store/internal/telemetry"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var (
	ErrEmptyCart = errors.New("cart is empty")
)

// CheckoutService turns a user's cart into an order
type CheckoutService interface {
	Checkout(ctx context.Context, userID uuid.UUID) (*domain.Order, error)
	Orders(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
}

type checkoutService struct {
	basket    BasketService
	users     repository.UserRepository
	orders    repository.OrderRepository
	publisher broker.Publisher
	logger    *zap.Logger
}

// NewCheckoutService creates a new instance of CheckoutService
func NewCheckoutService(
	basket BasketService,
	users repository.UserRepository,
	orders repository.OrderRepository,
	publisher broker.Publisher,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutService{
		basket:    basket,
		users:     users,
		orders:    orders,
		publisher: publisher,
		logger:    logger,
	}
}

// Checkout places an order for every line of the cart at the prices
// captured in the cart, takes the quantities out of stock, clears the cart
// and publishes OrderPlaced. Once the order is written, failures to clear
// the cart or publish are logged and do not fail the checkout.
func (s *checkoutService) Checkout(ctx context.Context, userID uuid.UUID) (order *domain.Order, err error) {
	ctx, span := telemetry.StartSpan(ctx, "service.Checkout")
	defer span.End()
	defer func() {
		telemetry.RecordError(span, err)
		metrics.CheckoutsTotal.WithLabelValues(metrics.Result(err)).Inc()
	}()

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	m, err := s.basket.Cart(ctx, domain.Identity{UserID: userID.String()})
	if err != nil {
		return nil, err
	}

	state := m.State()
	if len(state.Items) == 0 {
		return nil, ErrEmptyCart
	}

	order = &domain.Order{
		ID:        uuid.New(),
		UserID:    userID,
		Total:     state.Total,
		Status:    domain.OrderStatusPlaced,
		Items:     make([]domain.OrderItem, 0, len(state.Items)),
		CreatedAt: time.Now().UTC(),
	}
	for _, item := range state.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Size:      item.Size,
			Color:     item.Color,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	span.SetAttributes(
		attribute.String("order.id", order.ID.String()),
		attribute.Int("order.lines", len(order.Items)),
	)

	if err := s.orders.Place(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	if err := m.Clear(ctx); err != nil {
		s.logger.Error("Failed to clear cart after checkout",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
	}

	if err := s.publisher.PublishOrderPlaced(ctx, broker.NewOrderPlacedEvent(order, user)); err != nil {
		s.logger.Error("Failed to publish order event",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
	}

	s.logger.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("total", order.Total.StringFixed(2)),
	)
	return order, nil
}

// Orders returns the order history of a user
func (s *checkoutService) Orders(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}
