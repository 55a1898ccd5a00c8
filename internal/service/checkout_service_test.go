package service

import (
	"context"
	"testing"

	"cleat-store/internal/broker"
	"cleat-store/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCheckoutFixture(t *testing.T) (*basketFixture, *mockUserRepository, *mockOrderRepository, *recordingPublisher, CheckoutService, *domain.User) {
	t.Helper()
	f := newBasketFixture(true)
	users := newMockUserRepository()
	user := &domain.User{ID: uuid.New(), Email: "ana@example.com", Name: "Ana", Role: domain.RoleCustomer}
	require.NoError(t, users.Create(context.Background(), user))

	orders := &mockOrderRepository{}
	publisher := &recordingPublisher{}
	svc := NewCheckoutService(f.svc, users, orders, publisher, zap.NewNop())
	return f, users, orders, publisher, svc, user
}

func TestCheckoutPlacesOrderAndClearsCart(t *testing.T) {
	ctx := context.Background()
	f, _, orders, publisher, svc, user := newCheckoutFixture(t)
	id := domain.Identity{UserID: user.ID.String()}

	_, err := f.svc.AddToCart(ctx, id, AddToCartInput{ProductID: "boot-1", Size: "40", Color: "black", Quantity: 1})
	require.NoError(t, err)
	_, err = f.svc.AddToCart(ctx, id, AddToCartInput{ProductID: "boot-1", Size: "41", Color: "black", Quantity: 2})
	require.NoError(t, err)

	order, err := svc.Checkout(ctx, user.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusPlaced, order.Status)
	assert.Len(t, order.Items, 2)
	assert.True(t, decimal.NewFromInt(900).Equal(order.Total), "total was %s", order.Total)
	require.Len(t, orders.orders, 1)

	stored, err := f.carts.Load(ctx, user.ID.String())
	require.NoError(t, err)
	assert.Empty(t, stored)

	require.Len(t, publisher.events, 1)
	event := publisher.events[0]
	assert.Equal(t, broker.EventTypeOrderPlaced, event.EventType)
	assert.Equal(t, order.ID, event.OrderID)
	assert.Equal(t, "ana@example.com", event.Email)
}

func TestCheckoutRejectsEmptyCart(t *testing.T) {
	_, _, orders, publisher, svc, user := newCheckoutFixture(t)

	_, err := svc.Checkout(context.Background(), user.ID)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, orders.orders)
	assert.Empty(t, publisher.events)
}

func TestCheckoutKeepsCartWhenOrderFails(t *testing.T) {
	ctx := context.Background()
	f, _, orders, publisher, svc, user := newCheckoutFixture(t)
	id := domain.Identity{UserID: user.ID.String()}

	_, err := f.svc.AddToCart(ctx, id, AddToCartInput{ProductID: "boot-1", Size: "40", Color: "black", Quantity: 1})
	require.NoError(t, err)
	orders.failing = true

	_, err = svc.Checkout(ctx, user.ID)
	require.Error(t, err)

	stored, err := f.carts.Load(ctx, user.ID.String())
	require.NoError(t, err)
	assert.Len(t, stored, 1)
	assert.Empty(t, publisher.events)
}

func TestOrdersListsUserHistory(t *testing.T) {
	ctx := context.Background()
	f, _, _, _, svc, user := newCheckoutFixture(t)
	id := domain.Identity{UserID: user.ID.String()}

	_, err := f.svc.AddToCart(ctx, id, AddToCartInput{ProductID: "boot-1", Size: "40", Color: "black", Quantity: 1})
	require.NoError(t, err)
	order, err := svc.Checkout(ctx, user.ID)
	require.NoError(t, err)

	history, err := svc.Orders(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, order.ID, history[0].ID)
}
