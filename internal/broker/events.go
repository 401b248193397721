package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"checkout-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing checkout domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishCheckoutCompleted publishes a CheckoutCompleted event
func (ep *EventPublisher) PublishCheckoutCompleted(ctx context.Context, event *models.CheckoutCompletedEvent) error {
	key := fmt.Sprintf("session-%s", event.SessionID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishCheckoutFailed publishes a CheckoutFailed event
func (ep *EventPublisher) PublishCheckoutFailed(ctx context.Context, event *models.CheckoutFailedEvent) error {
	key := fmt.Sprintf("attempt-%s", event.AttemptID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler routes incoming catalog events to registered handlers
type EventHandler struct {
	onItemUpserted func(context.Context, *models.CatalogItemUpsertedEvent) error
	onItemArchived func(context.Context, *models.CatalogItemArchivedEvent) error
	onItemRestored func(context.Context, *models.CatalogItemRestoredEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnItemUpserted registers a handler for CatalogItemUpserted events
func (eh *EventHandler) OnItemUpserted(handler func(context.Context, *models.CatalogItemUpsertedEvent) error) {
	eh.onItemUpserted = handler
}

// OnItemArchived registers a handler for CatalogItemArchived events
func (eh *EventHandler) OnItemArchived(handler func(context.Context, *models.CatalogItemArchivedEvent) error) {
	eh.onItemArchived = handler
}

// OnItemRestored registers a handler for CatalogItemRestored events
func (eh *EventHandler) OnItemRestored(handler func(context.Context, *models.CatalogItemRestoredEvent) error) {
	eh.onItemRestored = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	switch baseEvent.EventType {
	case models.EventTypeCatalogItemUpserted:
		if eh.onItemUpserted != nil {
			var event models.CatalogItemUpsertedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal CatalogItemUpserted event: %w", err)
			}
			return eh.onItemUpserted(ctx, &event)
		}

	case models.EventTypeCatalogItemArchived:
		if eh.onItemArchived != nil {
			var event models.CatalogItemArchivedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal CatalogItemArchived event: %w", err)
			}
			return eh.onItemArchived(ctx, &event)
		}

	case models.EventTypeCatalogItemRestored:
		if eh.onItemRestored != nil {
			var event models.CatalogItemRestoredEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal CatalogItemRestored event: %w", err)
			}
			return eh.onItemRestored(ctx, &event)
		}

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}
