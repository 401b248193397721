package gateway

// Product mirrors the gateway-side record for a sellable title. The
// gateway's active price reference, not the local catalog price, is what
// a checkout session charges.
type Product struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Active     bool   `json:"active"`
	PriceID    string `json:"price_id"`
	UnitAmount int64  `json:"unit_amount"`
}

// LineItem references a gateway price with a quantity
type LineItem struct {
	PriceID  string `json:"price_id"`
	Quantity int64  `json:"quantity"`
}

// ShippingOption is a fixed-amount shipping charge offered on a session.
// Amount is in minor currency units.
type ShippingOption struct {
	DisplayName     string `json:"display_name"`
	Amount          int64  `json:"amount"`
	DeliveryDaysMin int64  `json:"delivery_days_min"`
	DeliveryDaysMax int64  `json:"delivery_days_max"`
}

// SessionRequest carries everything needed to open a hosted checkout
type SessionRequest struct {
	LineItems  []LineItem
	Shipping   ShippingOption
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

// Session is the gateway-issued payment intent handle
type Session struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	AmountTotal int64  `json:"amount_total"`
}
