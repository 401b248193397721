package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"checkout-service/internal/gateway"
	"checkout-service/internal/models"
	"checkout-service/internal/shipping"
	"checkout-service/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Datastore is the subset of store.Store the checkout flow needs
type Datastore interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetAddressByUserID(ctx context.Context, userID int64) (*models.Address, error)
	RecordCheckoutStep(ctx context.Context, attemptID, step string) error
	CreateOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error)
}

// PaymentGateway is the narrow gateway surface the orchestrator calls
type PaymentGateway interface {
	ListProducts(ctx context.Context, ids []string) ([]gateway.Product, error)
	CreateSession(ctx context.Context, req *gateway.SessionRequest) (*gateway.Session, error)
	ExpireSession(ctx context.Context, sessionID string) error
}

// RateEngine produces carrier quotes for a package manifest
type RateEngine interface {
	Quote(ctx context.Context, originCEP, destCEP string, items []shipping.RateItem) ([]shipping.Quote, error)
}

// TicketRegistrar books physical shipments
type TicketRegistrar interface {
	Book(ctx context.Context, recipient shipping.Recipient, serviceID string, manifest []shipping.ManifestItem, volumes []shipping.Package, tag string) (*shipping.Ticket, error)
}

// CatalogResolver resolves catalog mirror entries by gateway product id
type CatalogResolver interface {
	ResolveByExternalIDs(ctx context.Context, externalIDs []string) ([]models.Book, error)
}

// EventPublisher publishes checkout lifecycle events
type EventPublisher interface {
	PublishCheckoutCompleted(ctx context.Context, event *models.CheckoutCompletedEvent) error
	PublishCheckoutFailed(ctx context.Context, event *models.CheckoutFailedEvent) error
}

// CheckoutConfig carries the deployment-fixed checkout parameters
type CheckoutConfig struct {
	OriginCEP  string
	SuccessURL string
	CancelURL  string
}

// CheckoutService orchestrates the end-to-end checkout flow across the
// catalog mirror, the payment gateway, the shipping rate service, the
// ticket registrar and the order store.
type CheckoutService struct {
	store     Datastore
	catalog   CatalogResolver
	gateway   PaymentGateway
	rates     RateEngine
	tickets   TicketRegistrar
	publisher EventPublisher
	cfg       CheckoutConfig
	logger    *zap.Logger
}

// NewCheckoutService creates a checkout orchestrator
func NewCheckoutService(
	store Datastore,
	catalog CatalogResolver,
	gw PaymentGateway,
	rates RateEngine,
	tickets TicketRegistrar,
	publisher EventPublisher,
	cfg CheckoutConfig,
) *CheckoutService {
	return &CheckoutService{
		store:     store,
		catalog:   catalog,
		gateway:   gw,
		rates:     rates,
		tickets:   tickets,
		publisher: publisher,
		cfg:       cfg,
		logger:    util.GetLogger(),
	}
}

// CartLineRequest is shopper intent, unvalidated against the catalog
type CartLineRequest struct {
	ExternalProductID string `json:"external_product_id" binding:"required"`
	Quantity          int    `json:"quantity" binding:"required,min=1"`
}

// CheckoutResult is returned on a successful checkout
type CheckoutResult struct {
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"url"`
}

// checkoutLine is the typed join of one surviving cart line: the request
// quantity, the catalog mirror record and the gateway product it maps to.
type checkoutLine struct {
	book     models.Book
	product  gateway.Product
	quantity int
}

// CreateCheckoutSession runs one checkout attempt. Every failure is
// returned as a *CheckoutError; there is no partial success result.
//
// Two concurrent attempts by the same user are not mutually excluded and
// can both produce a session and an order.
func (s *CheckoutService) CreateCheckoutSession(ctx context.Context, userID int64, lines []CartLineRequest) (*CheckoutResult, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.CreateCheckoutSession")
	defer span.End()

	util.CheckoutAttemptsTotal.Inc()
	attemptID := uuid.New().String()

	// Step 1: authorize
	if userID <= 0 {
		return nil, s.fail(ctx, attemptID, userID, CodeUnauthorized, "authentication required", nil)
	}
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, s.fail(ctx, attemptID, userID, CodeUnauthorized, "unknown user", err)
	}

	// Step 2: resolve the stored shipping address
	addr, err := s.store.GetAddressByUserID(ctx, userID)
	if err != nil {
		return nil, s.fail(ctx, attemptID, userID, CodePersistenceFailed, "address lookup failed", err)
	}
	if addr == nil {
		return nil, s.fail(ctx, attemptID, userID, CodeMissingAddress, "no shipping address on file", nil)
	}
	s.recordStep(ctx, attemptID, models.StepAddressResolved)

	// Step 3: resolve the catalog and drop unknown products. Duplicate ids
	// in the request merge by summing quantities.
	quantities := make(map[string]int, len(lines))
	requested := make([]string, 0, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		if _, seen := quantities[line.ExternalProductID]; !seen {
			requested = append(requested, line.ExternalProductID)
		}
		quantities[line.ExternalProductID] += line.Quantity
	}

	books, err := s.catalog.ResolveByExternalIDs(ctx, requested)
	if err != nil {
		return nil, s.fail(ctx, attemptID, userID, CodePersistenceFailed, "catalog lookup failed", err)
	}

	bookByExternalID := make(map[string]models.Book, len(books))
	for _, b := range books {
		bookByExternalID[b.ExternalID] = b
	}
	surviving := make([]string, 0, len(requested))
	for _, id := range requested {
		if _, ok := bookByExternalID[id]; ok {
			surviving = append(surviving, id)
		} else {
			util.DroppedCartLinesTotal.Inc()
			s.logger.Info("Dropping unknown cart line",
				zap.String("external_id", id),
				zap.Int64("user_id", userID))
		}
	}
	if len(surviving) == 0 {
		return nil, s.fail(ctx, attemptID, userID, CodeCatalogMismatch, "no requested items exist in the catalog", nil)
	}
	s.recordStep(ctx, attemptID, models.StepCatalogResolved)

	// Step 4: reconcile against the gateway. The gateway's active price,
	// not the request or the local catalog, decides what is charged.
	products, err := s.gateway.ListProducts(ctx, surviving)
	if err != nil {
		return nil, s.fail(ctx, attemptID, userID, CodeGatewayUnavailable, "gateway product lookup failed", err)
	}
	productByID := make(map[string]gateway.Product, len(products))
	for _, p := range products {
		productByID[p.ID] = p
	}

	checkoutLines := make([]checkoutLine, 0, len(surviving))
	for _, id := range surviving {
		product, ok := productByID[id]
		if !ok || product.PriceID == "" {
			util.DroppedCartLinesTotal.Inc()
			s.logger.Warn("Catalog entry has no priced gateway product, dropping",
				zap.String("external_id", id))
			continue
		}
		checkoutLines = append(checkoutLines, checkoutLine{
			book:     bookByExternalID[id],
			product:  product,
			quantity: quantities[id],
		})
	}
	if len(checkoutLines) == 0 {
		return nil, s.fail(ctx, attemptID, userID, CodeCatalogMismatch, "no cart items could be reconciled with the gateway", nil)
	}
	s.recordStep(ctx, attemptID, models.StepGatewayReconciled)

	// Step 5: compute shipping and pick a quote
	rateItems := make([]shipping.RateItem, 0, len(checkoutLines))
	for _, cl := range checkoutLines {
		rateItems = append(rateItems, shipping.RateItem{
			Quantity: cl.quantity,
			WidthCm:  cl.book.WidthCm,
			HeightCm: cl.book.HeightCm,
			LengthCm: cl.book.ThicknessCm,
			WeightKg: cl.book.WeightKg(),
		})
	}

	quotes, err := s.rates.Quote(ctx, s.cfg.OriginCEP, addr.CEP, rateItems)
	if err != nil {
		return nil, s.fail(ctx, attemptID, userID, CodeNoShippingAvailable, "shipping rate request failed", err)
	}
	if len(quotes) == 0 {
		return nil, s.fail(ctx, attemptID, userID, CodeNoShippingAvailable, "no carrier serves the destination", nil)
	}
	chosen := selectQuote(quotes)
	s.recordStep(ctx, attemptID, models.StepShippingQuoted)

	// Step 6: open the hosted payment session. The shipping amount is
	// rounded up to the next minor unit so shipping is never undercharged.
	sessionLines := make([]gateway.LineItem, 0, len(checkoutLines))
	for _, cl := range checkoutLines {
		sessionLines = append(sessionLines, gateway.LineItem{
			PriceID:  cl.product.PriceID,
			Quantity: int64(cl.quantity),
		})
	}

	sess, err := s.gateway.CreateSession(ctx, &gateway.SessionRequest{
		LineItems: sessionLines,
		Shipping: gateway.ShippingOption{
			DisplayName:     chosen.Name,
			Amount:          shippingMinorUnits(chosen.Price),
			DeliveryDaysMin: int64(chosen.DeliveryDaysMin),
			DeliveryDaysMax: int64(chosen.DeliveryDaysMax),
		},
		SuccessURL: s.cfg.SuccessURL,
		CancelURL:  s.cfg.CancelURL,
		Metadata: map[string]string{
			"user_id":    fmt.Sprintf("%d", userID),
			"attempt_id": attemptID,
		},
	})
	if err != nil {
		return nil, s.fail(ctx, attemptID, userID, CodeSessionCreationFailed, "checkout session creation failed", err)
	}
	s.recordStep(ctx, attemptID, models.StepSessionCreated)

	// Step 7: register the shipping ticket, tagged with the session for
	// later reconciliation. On failure the open session is expired so the
	// shopper cannot pay for a checkout that has no shipment.
	manifest := make([]shipping.ManifestItem, 0, len(checkoutLines))
	for _, cl := range checkoutLines {
		manifest = append(manifest, shipping.ManifestItem{
			Name:      cl.book.Title,
			Quantity:  cl.quantity,
			UnitPrice: decimal.NewFromInt(cl.product.UnitAmount).Div(decimal.NewFromInt(100)),
		})
	}

	ticket, err := s.tickets.Book(ctx,
		shipping.Recipient{
			Name:       user.Name,
			Email:      user.Email,
			Street:     addr.Street,
			Number:     addr.Number,
			Complement: addr.Complement,
			District:   addr.District,
			City:       addr.City,
			State:      addr.State,
			CEP:        addr.CEP,
		},
		chosen.ServiceID,
		manifest,
		chosen.Packages,
		fmt.Sprintf(`{"session_id":%q,"user_id":%d}`, sess.ID, userID),
	)
	if err != nil {
		s.expireSession(ctx, sess.ID)
		return nil, s.fail(ctx, attemptID, userID, CodeTicketRegistrationFailed, "shipping ticket registration failed", err)
	}
	s.recordStep(ctx, attemptID, models.StepTicketRegistered)

	// Step 8: persist the order aggregate in one transaction
	order := &models.Order{
		UserID:              userID,
		SessionID:           sess.ID,
		TicketID:            ticket.ID,
		TotalAmount:         sess.AmountTotal,
		ShippingPrice:       chosen.Price,
		ShippingServiceID:   chosen.ServiceID,
		ShippingServiceName: chosen.Name,
		ShippingDaysMin:     chosen.DeliveryDaysMin,
		ShippingDaysMax:     chosen.DeliveryDaysMax,
		Status:              models.OrderStatusPendingPayment,
	}
	orderItems := make([]models.OrderItem, 0, len(checkoutLines))
	for _, cl := range checkoutLines {
		orderItems = append(orderItems, models.OrderItem{
			BookID:    cl.book.ID,
			Quantity:  cl.quantity,
			UnitPrice: cl.product.UnitAmount,
		})
	}

	if err := s.store.CreateOrder(ctx, order, orderItems); err != nil {
		s.expireSession(ctx, sess.ID)
		return nil, s.fail(ctx, attemptID, userID, CodePersistenceFailed, "order persistence failed", err)
	}
	s.recordStep(ctx, attemptID, models.StepOrderPersisted)

	util.CheckoutCompletedTotal.Inc()
	s.logger.Info("Checkout completed",
		zap.Int64("order_id", order.ID),
		zap.String("session_id", sess.ID),
		zap.String("ticket_id", ticket.ID),
		zap.Int64("total_amount", sess.AmountTotal))

	s.publishCompleted(ctx, order, orderItems)

	return &CheckoutResult{SessionID: sess.ID, RedirectURL: sess.URL}, nil
}

// GetOrder retrieves an order and its line items
func (s *CheckoutService) GetOrder(ctx context.Context, orderID int64) (*models.Order, []models.OrderItem, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	items, err := s.store.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	return order, items, nil
}

// selectQuote picks the quote with the smallest maximum delivery-day
// bound. Ties break to the first offer after a stable sort, so the rate
// service's own ordering decides between equally fast carriers.
func selectQuote(quotes []shipping.Quote) shipping.Quote {
	sorted := make([]shipping.Quote, len(quotes))
	copy(sorted, quotes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DeliveryDaysMax < sorted[j].DeliveryDaysMax
	})
	return sorted[0]
}

// shippingMinorUnits converts a quote price to minor currency units,
// rounding up so fractional sub-unit amounts are never undercharged.
func shippingMinorUnits(price decimal.Decimal) int64 {
	return price.Mul(decimal.NewFromInt(100)).Ceil().IntPart()
}

// recordStep persists saga progress; failure to record never aborts the
// checkout itself.
func (s *CheckoutService) recordStep(ctx context.Context, attemptID, step string) {
	if err := s.store.RecordCheckoutStep(ctx, attemptID, step); err != nil {
		s.logger.Error("Failed to record checkout step",
			zap.String("attempt_id", attemptID),
			zap.String("step", step),
			zap.Error(err))
	}
}

// expireSession compensates an open payment session after a later step
// failed. Best-effort: an expiry failure leaves a dangling session, which
// is the documented partial-failure window of this flow.
func (s *CheckoutService) expireSession(ctx context.Context, sessionID string) {
	if err := s.gateway.ExpireSession(ctx, sessionID); err != nil {
		s.logger.Error("Failed to expire checkout session during compensation",
			zap.String("session_id", sessionID),
			zap.Error(err))
	}
}

func (s *CheckoutService) fail(ctx context.Context, attemptID string, userID int64, code CheckoutErrorCode, message string, cause error) error {
	util.CheckoutFailedTotal.WithLabelValues(string(code)).Inc()

	cerr := newCheckoutError(code, message, cause)
	s.logger.Warn("Checkout attempt failed",
		zap.String("attempt_id", attemptID),
		zap.Int64("user_id", userID),
		zap.String("code", string(code)),
		zap.Error(cerr))

	event := &models.CheckoutFailedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeCheckoutFailed,
			Timestamp: time.Now(),
		},
		AttemptID: attemptID,
		UserID:    userID,
		Code:      string(code),
		Reason:    message,
	}
	if err := s.publisher.PublishCheckoutFailed(ctx, event); err != nil {
		s.logger.Error("Failed to publish CheckoutFailed event", zap.Error(err))
	}

	return cerr
}

func (s *CheckoutService) publishCompleted(ctx context.Context, order *models.Order, items []models.OrderItem) {
	eventItems := make([]models.OrderItemData, 0, len(items))
	for _, it := range items {
		eventItems = append(eventItems, models.OrderItemData{
			BookID:    it.BookID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}

	event := &models.CheckoutCompletedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeCheckoutCompleted,
			Timestamp: time.Now(),
		},
		OrderID:       order.ID,
		UserID:        order.UserID,
		SessionID:     order.SessionID,
		TicketID:      order.TicketID,
		TotalAmount:   order.TotalAmount,
		ShippingPrice: order.ShippingPrice,
		Items:         eventItems,
	}
	if err := s.publisher.PublishCheckoutCompleted(ctx, event); err != nil {
		s.logger.Error("Failed to publish CheckoutCompleted event", zap.Error(err))
	}
}
