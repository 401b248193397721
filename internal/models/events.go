package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeCheckoutCompleted   = "CHECKOUT_COMPLETED"
	EventTypeCheckoutFailed      = "CHECKOUT_FAILED"
	EventTypeCatalogItemUpserted = "CATALOG_ITEM_UPSERTED"
	EventTypeCatalogItemArchived = "CATALOG_ITEM_ARCHIVED"
	EventTypeCatalogItemRestored = "CATALOG_ITEM_RESTORED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// CheckoutCompletedEvent published after the order is persisted
type CheckoutCompletedEvent struct {
	BaseEvent
	OrderID       int64           `json:"order_id"`
	UserID        int64           `json:"user_id"`
	SessionID     string          `json:"session_id"`
	TicketID      string          `json:"ticket_id"`
	TotalAmount   int64           `json:"total_amount"`
	ShippingPrice decimal.Decimal `json:"shipping_price"`
	Items         []OrderItemData `json:"items"`
}

// CheckoutFailedEvent published when a checkout attempt aborts
type CheckoutFailedEvent struct {
	BaseEvent
	AttemptID string `json:"attempt_id"`
	UserID    int64  `json:"user_id"`
	Code      string `json:"code"`
	Reason    string `json:"reason"`
}

// CatalogItemUpsertedEvent consumed to mirror a book to the gateway
type CatalogItemUpsertedEvent struct {
	BaseEvent
	BookID   int64  `json:"book_id"`
	Title    string `json:"title"`
	Price    int64  `json:"price"`
	ImageURL string `json:"image_url,omitempty"`
}

// CatalogItemArchivedEvent consumed to deactivate the gateway product
type CatalogItemArchivedEvent struct {
	BaseEvent
	ExternalID string `json:"external_id"`
}

// CatalogItemRestoredEvent consumed to reactivate the gateway product
type CatalogItemRestoredEvent struct {
	BaseEvent
	ExternalID string `json:"external_id"`
}

// OrderItemData represents item data in events
type OrderItemData struct {
	BookID    int64 `json:"book_id"`
	Quantity  int   `json:"quantity"`
	UnitPrice int64 `json:"unit_price"`
}
