package worker

import (
	"context"
	"errors"
	"testing"

	"cleat-store/internal/broker"
	"cleat-store/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeConfirmer struct {
	confirmed map[uuid.UUID]domain.OrderStatus
	err       error
}

func (f *fakeConfirmer) UpdateStatus(_ context.Context, id uuid.UUID, status domain.OrderStatus) error {
	if f.err != nil {
		return f.err
	}
	f.confirmed[id] = status
	return nil
}

func placedEvent() *broker.OrderPlacedEvent {
	order := &domain.Order{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Total:  decimal.NewFromInt(450),
		Items:  []domain.OrderItem{{ProductID: "p1", Quantity: 1, UnitPrice: decimal.NewFromInt(450)}},
	}
	return broker.NewOrderPlacedEvent(order, &domain.User{Email: "lia@example.com", Name: "Lia"})
}

func TestHandleOrderPlacedConfirmsOrder(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	orders := &fakeConfirmer{confirmed: map[uuid.UUID]domain.OrderStatus{}}
	w := NewNotificationWorker(nil, orders, zap.New(core))
	event := placedEvent()

	require.NoError(t, w.HandleOrderPlaced(context.Background(), event))
	assert.Equal(t, domain.OrderStatusConfirmed, orders.confirmed[event.OrderID])

	entries := logs.FilterMessage("Order confirmation e-mail sent").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "lia@example.com", entries[0].ContextMap()["email"])
	assert.Equal(t, "450.00", entries[0].ContextMap()["total"])

	require.NoError(t, w.HandleOrderPlaced(context.Background(), event), "redelivery confirms again")
}

func TestHandleOrderPlacedWrapsStoreErrors(t *testing.T) {
	boom := errors.New("db gone")
	w := NewNotificationWorker(nil, &fakeConfirmer{err: boom}, zap.NewNop())

	err := w.HandleOrderPlaced(context.Background(), placedEvent())
	assert.ErrorIs(t, err, boom)
}

func TestWorkerWithoutConsumer(t *testing.T) {
	w := NewNotificationWorker(nil, &fakeConfirmer{}, zap.NewNop())

	assert.Error(t, w.Start(context.Background()))
	assert.NoError(t, w.Stop())
}

func TestInlinePublisherDrivesWorker(t *testing.T) {
	orders := &fakeConfirmer{confirmed: map[uuid.UUID]domain.OrderStatus{}}
	w := NewNotificationWorker(nil, orders, zap.NewNop())
	publisher := broker.NewInlinePublisher(w.HandleOrderPlaced)
	event := placedEvent()

	require.NoError(t, publisher.PublishOrderPlaced(context.Background(), event))
	assert.Equal(t, domain.OrderStatusConfirmed, orders.confirmed[event.OrderID])
}
