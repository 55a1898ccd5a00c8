package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cleat-store/internal/domain"
	"cleat-store/internal/metrics"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Event types
const (
	EventTypeOrderPlaced = "ORDER_PLACED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderPlacedEvent is published once an order is written
type OrderPlacedEvent struct {
	BaseEvent
	OrderID  uuid.UUID          `json:"order_id"`
	UserID   uuid.UUID          `json:"user_id"`
	Email    string             `json:"email"`
	Name     string             `json:"name"`
	Total    decimal.Decimal    `json:"total"`
	Items    []domain.OrderItem `json:"items"`
	PlacedAt time.Time          `json:"placed_at"`
}

// NewOrderPlacedEvent builds the event for order placed by user
func NewOrderPlacedEvent(order *domain.Order, user *domain.User) *OrderPlacedEvent {
	return &OrderPlacedEvent{
		BaseEvent: BaseEvent{
			EventID:   uuid.NewString(),
			EventType: EventTypeOrderPlaced,
			Timestamp: time.Now().UTC(),
		},
		OrderID:  order.ID,
		UserID:   order.UserID,
		Email:    user.Email,
		Name:     user.Name,
		Total:    order.Total,
		Items:    order.Items,
		PlacedAt: order.CreatedAt,
	}
}

// OrderHandler reacts to a placed order
type OrderHandler func(ctx context.Context, event *OrderPlacedEvent) error

// Publisher publishes order events
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, event *OrderPlacedEvent) error
}

// EventPublisher publishes order events to Kafka
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishOrderPlaced publishes OrderPlaced event keyed by order
func (ep *EventPublisher) PublishOrderPlaced(ctx context.Context, event *OrderPlacedEvent) error {
	if err := ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event); err != nil {
		return err
	}
	metrics.OrderEventsPublished.Inc()
	return nil
}

// InlinePublisher hands events straight to a handler in-process. It stands
// in for Kafka when no broker is configured.
type InlinePublisher struct {
	handler OrderHandler
}

// NewInlinePublisher creates a publisher that calls handler synchronously
func NewInlinePublisher(handler OrderHandler) *InlinePublisher {
	return &InlinePublisher{handler: handler}
}

func (p *InlinePublisher) PublishOrderPlaced(ctx context.Context, event *OrderPlacedEvent) error {
	if err := p.handler(ctx, event); err != nil {
		return err
	}
	metrics.OrderEventsPublished.Inc()
	return nil
}

func orderKey(id uuid.UUID) string {
	return "order-" + id.String()
}

// EventHandler routes incoming messages by event type
type EventHandler struct {
	onOrderPlaced OrderHandler
	logger        *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler(logger *zap.Logger) *EventHandler {
	return &EventHandler{logger: logger}
}

// OnOrderPlaced registers a handler for OrderPlaced events
func (eh *EventHandler) OnOrderPlaced(handler OrderHandler) {
	eh.onOrderPlaced = handler
}

// HandleMessage routes messages to appropriate handlers. Unknown types are
// acknowledged and skipped.
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	eh.logger.Debug("Handling event",
		zap.String("event_type", baseEvent.EventType),
		zap.String("event_id", baseEvent.EventID),
	)

	switch baseEvent.EventType {
	case EventTypeOrderPlaced:
		if eh.onOrderPlaced != nil {
			var event OrderPlacedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal OrderPlaced event: %w", err)
			}
			return eh.onOrderPlaced(ctx, &event)
		}

	default:
		eh.logger.Warn("Unhandled event type", zap.String("event_type", baseEvent.EventType))
	}

	return nil
}
