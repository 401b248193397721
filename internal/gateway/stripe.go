package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"checkout-service/internal/util"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"go.uber.org/zap"
)

// ErrGatewayUnavailable marks transport-level or gateway-side outages, as
// opposed to a request the gateway understood and rejected.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// StripeClient implements the payment gateway operations against Stripe.
type StripeClient struct {
	api      *client.API
	currency string
	logger   *zap.Logger
}

// NewStripeClient creates a gateway client with the given secret key.
// Currency is fixed per deployment.
func NewStripeClient(secretKey, currency string) *StripeClient {
	sc := &client.API{}
	sc.Init(secretKey, nil)

	return &StripeClient{
		api:      sc,
		currency: currency,
		logger:   util.GetLogger(),
	}
}

// CreateProduct creates a sellable product with one active price.
// unitAmount is in minor currency units.
func (c *StripeClient) CreateProduct(ctx context.Context, name string, unitAmount int64, imageURL string) (string, error) {
	params := &stripe.ProductParams{
		Name: stripe.String(name),
		DefaultPriceData: &stripe.ProductDefaultPriceDataParams{
			Currency:   stripe.String(c.currency),
			UnitAmount: stripe.Int64(unitAmount),
		},
	}
	if imageURL != "" {
		params.Images = stripe.StringSlice([]string{imageURL})
	}
	params.Context = ctx

	product, err := c.api.Products.New(params)
	if err != nil {
		util.GatewayCallsTotal.WithLabelValues("create_product", "error").Inc()
		return "", c.mapError(err)
	}

	util.GatewayCallsTotal.WithLabelValues("create_product", "ok").Inc()
	c.logger.Info("Gateway product created",
		zap.String("product_id", product.ID),
		zap.Int64("unit_amount", unitAmount))
	return product.ID, nil
}

// ArchiveProduct flips the product's active flag off. Nothing is deleted.
func (c *StripeClient) ArchiveProduct(ctx context.Context, id string) error {
	return c.setActive(ctx, id, false)
}

// RestoreProduct flips the product's active flag back on.
func (c *StripeClient) RestoreProduct(ctx context.Context, id string) error {
	return c.setActive(ctx, id, true)
}

func (c *StripeClient) setActive(ctx context.Context, id string, active bool) error {
	params := &stripe.ProductParams{
		Active: stripe.Bool(active),
	}
	params.Context = ctx

	if _, err := c.api.Products.Update(id, params); err != nil {
		util.GatewayCallsTotal.WithLabelValues("update_product", "error").Inc()
		return c.mapError(err)
	}

	util.GatewayCallsTotal.WithLabelValues("update_product", "ok").Inc()
	return nil
}

// ListProducts is a batched lookup by product id, with the page limit set
// to the request size so no entry is silently truncated. The default price
// is expanded so callers get the charged amount, not just a reference.
func (c *StripeClient) ListProducts(ctx context.Context, ids []string) ([]Product, error) {
	if len(ids) == 0 {
		return []Product{}, nil
	}

	params := &stripe.ProductListParams{
		IDs: stripe.StringSlice(ids),
	}
	params.Limit = stripe.Int64(int64(len(ids)))
	params.AddExpand("data.default_price")
	params.Context = ctx

	iter := c.api.Products.List(params)

	products := make([]Product, 0, len(ids))
	for iter.Next() {
		p := iter.Product()
		gp := Product{
			ID:     p.ID,
			Name:   p.Name,
			Active: p.Active,
		}
		if p.DefaultPrice != nil {
			gp.PriceID = p.DefaultPrice.ID
			gp.UnitAmount = p.DefaultPrice.UnitAmount
		}
		products = append(products, gp)
	}
	if err := iter.Err(); err != nil {
		util.GatewayCallsTotal.WithLabelValues("list_products", "error").Inc()
		return nil, c.mapError(err)
	}

	util.GatewayCallsTotal.WithLabelValues("list_products", "ok").Inc()
	return products, nil
}

// CreateSession opens a hosted checkout session with the reconciled line
// items and a single fixed-amount shipping option.
func (c *StripeClient) CreateSession(ctx context.Context, req *SessionRequest) (*Session, error) {
	start := time.Now()
	defer func() {
		util.GatewaySessionLatency.Observe(time.Since(start).Seconds())
	}()

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.LineItems))
	for _, li := range req.LineItems {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Price:    stripe.String(li.PriceID),
			Quantity: stripe.Int64(li.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  lineItems,
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		ShippingOptions: []*stripe.CheckoutSessionShippingOptionParams{
			{
				ShippingRateData: &stripe.CheckoutSessionShippingOptionShippingRateDataParams{
					Type:        stripe.String("fixed_amount"),
					DisplayName: stripe.String(req.Shipping.DisplayName),
					FixedAmount: &stripe.CheckoutSessionShippingOptionShippingRateDataFixedAmountParams{
						Amount:   stripe.Int64(req.Shipping.Amount),
						Currency: stripe.String(c.currency),
					},
					DeliveryEstimate: &stripe.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateParams{
						Minimum: &stripe.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateMinimumParams{
							Unit:  stripe.String("business_day"),
							Value: stripe.Int64(req.Shipping.DeliveryDaysMin),
						},
						Maximum: &stripe.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateMaximumParams{
							Unit:  stripe.String("business_day"),
							Value: stripe.Int64(req.Shipping.DeliveryDaysMax),
						},
					},
				},
			},
		},
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		util.GatewayCallsTotal.WithLabelValues("create_session", "error").Inc()
		return nil, c.mapError(err)
	}

	util.GatewayCallsTotal.WithLabelValues("create_session", "ok").Inc()
	c.logger.Info("Checkout session created",
		zap.String("session_id", sess.ID),
		zap.Int64("amount_total", sess.AmountTotal))

	return &Session{
		ID:          sess.ID,
		URL:         sess.URL,
		AmountTotal: sess.AmountTotal,
	}, nil
}

// ExpireSession cancels an open session so the shopper can no longer pay
// it. Used as compensation when a later checkout step fails.
func (c *StripeClient) ExpireSession(ctx context.Context, sessionID string) error {
	params := &stripe.CheckoutSessionExpireParams{}
	params.Context = ctx

	if _, err := c.api.CheckoutSessions.Expire(sessionID, params); err != nil {
		util.GatewayCallsTotal.WithLabelValues("expire_session", "error").Inc()
		return c.mapError(err)
	}

	util.GatewayCallsTotal.WithLabelValues("expire_session", "ok").Inc()
	return nil
}

// mapError translates stripe-go errors into domain errors so the library
// type does not leak into the service layer.
func (c *StripeClient) mapError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.HTTPStatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("%w: %s", ErrGatewayUnavailable, stripeErr.Msg)
		}
		return fmt.Errorf("gateway rejected request: %s (%s)", stripeErr.Msg, stripeErr.Code)
	}
	return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
}
