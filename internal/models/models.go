package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Book is the catalog mirror record for a sellable title. Prices here are
// informational; the amount actually charged comes from the payment
// gateway's active price for the mirrored product.
type Book struct {
	ID          int64     `db:"id" json:"id"`
	ExternalID  string    `db:"external_id" json:"external_id"`
	Title       string    `db:"title" json:"title"`
	Price       int64     `db:"price" json:"price"`
	ImageURL    string    `db:"image_url" json:"image_url,omitempty"`
	WeightGrams int       `db:"weight_grams" json:"weight_grams"`
	WidthCm     float64   `db:"width_cm" json:"width_cm"`
	HeightCm    float64   `db:"height_cm" json:"height_cm"`
	ThicknessCm float64   `db:"thickness_cm" json:"thickness_cm"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// WeightKg converts the stored gram weight for rate requests.
// Missing weight is treated as zero.
func (b *Book) WeightKg() float64 {
	if b.WeightGrams <= 0 {
		return 0
	}
	return float64(b.WeightGrams) / 1000.0
}

// User holds the shopper profile fields needed for shipment registration.
type User struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Address is the single stored shipping address of a shopper.
type Address struct {
	ID         int64     `db:"id" json:"id"`
	UserID     int64     `db:"user_id" json:"user_id"`
	Street     string    `db:"street" json:"street"`
	Number     string    `db:"number" json:"number"`
	Complement string    `db:"complement" json:"complement,omitempty"`
	District   string    `db:"district" json:"district"`
	City       string    `db:"city" json:"city"`
	State      string    `db:"state" json:"state"`
	CEP        string    `db:"cep" json:"cep"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Order is the terminal artifact of a successful checkout. Immutable once
// written; fulfillment status transitions live elsewhere.
type Order struct {
	ID                  int64           `db:"id" json:"id"`
	UserID              int64           `db:"user_id" json:"user_id"`
	SessionID           string          `db:"session_id" json:"session_id"`
	TicketID            string          `db:"ticket_id" json:"ticket_id"`
	TotalAmount         int64           `db:"total_amount" json:"total_amount"`
	ShippingPrice       decimal.Decimal `db:"shipping_price" json:"shipping_price"`
	ShippingServiceID   string          `db:"shipping_service_id" json:"shipping_service_id"`
	ShippingServiceName string          `db:"shipping_service_name" json:"shipping_service_name"`
	ShippingDaysMin     int             `db:"shipping_days_min" json:"shipping_days_min"`
	ShippingDaysMax     int             `db:"shipping_days_max" json:"shipping_days_max"`
	Status              string          `db:"status" json:"status"`
	CreatedAt           time.Time       `db:"created_at" json:"created_at"`
}

// OrderItem is a priced, quantified book reference within an order.
// UnitPrice is the gateway amount in minor units at checkout time.
type OrderItem struct {
	ID        int64 `db:"id" json:"id"`
	OrderID   int64 `db:"order_id" json:"order_id"`
	BookID    int64 `db:"book_id" json:"book_id"`
	Quantity  int   `db:"quantity" json:"quantity"`
	UnitPrice int64 `db:"unit_price" json:"unit_price"`
}

// Order statuses
const (
	OrderStatusPendingPayment = "PENDING_PAYMENT"
)

// Checkout saga steps, recorded per attempt as each external system is
// reconciled, so a stalled attempt shows where it stopped.
const (
	StepAddressResolved   = "ADDRESS_RESOLVED"
	StepCatalogResolved   = "CATALOG_RESOLVED"
	StepGatewayReconciled = "GATEWAY_RECONCILED"
	StepShippingQuoted    = "SHIPPING_QUOTED"
	StepSessionCreated    = "SESSION_CREATED"
	StepTicketRegistered  = "TICKET_REGISTERED"
	StepOrderPersisted    = "ORDER_PERSISTED"
)

// CheckoutStep is one recorded saga step of a checkout attempt.
type CheckoutStep struct {
	AttemptID string    `db:"attempt_id"`
	Step      string    `db:"step"`
	CreatedAt time.Time `db:"created_at"`
}
