package service

import (
	"context"

	"checkout-service/internal/gateway"
	"checkout-service/internal/models"
	"checkout-service/internal/shipping"
)

// mockStore implements Datastore with scripted outcomes
type mockStore struct {
	User    *models.User
	UserErr error

	Address    *models.Address
	AddressErr error

	CreateOrderErr error
	SavedOrder     *models.Order
	SavedItems     []models.OrderItem

	Steps []string

	Order    *models.Order
	Items    []models.OrderItem
	OrderErr error
}

func (m *mockStore) GetUserByID(_ context.Context, _ int64) (*models.User, error) {
	return m.User, m.UserErr
}

func (m *mockStore) GetAddressByUserID(_ context.Context, _ int64) (*models.Address, error) {
	return m.Address, m.AddressErr
}

func (m *mockStore) RecordCheckoutStep(_ context.Context, _, step string) error {
	m.Steps = append(m.Steps, step)
	return nil
}

func (m *mockStore) CreateOrder(_ context.Context, order *models.Order, items []models.OrderItem) error {
	if m.CreateOrderErr != nil {
		return m.CreateOrderErr
	}
	order.ID = 1
	m.SavedOrder = order
	m.SavedItems = items
	return nil
}

func (m *mockStore) GetOrderByID(_ context.Context, _ int64) (*models.Order, error) {
	return m.Order, m.OrderErr
}

func (m *mockStore) GetOrderItemsByOrderID(_ context.Context, _ int64) ([]models.OrderItem, error) {
	return m.Items, m.OrderErr
}

// mockCatalog implements CatalogResolver
type mockCatalog struct {
	Books []models.Book
	Err   error
}

func (m *mockCatalog) ResolveByExternalIDs(_ context.Context, externalIDs []string) ([]models.Book, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	known := make(map[string]models.Book, len(m.Books))
	for _, b := range m.Books {
		known[b.ExternalID] = b
	}
	var found []models.Book
	for _, id := range externalIDs {
		if b, ok := known[id]; ok {
			found = append(found, b)
		}
	}
	return found, nil
}

// mockGateway implements PaymentGateway with scripted outcomes and captures
// the session request it received.
type mockGateway struct {
	Products  []gateway.Product
	ListErr   error
	ListedIDs []string

	Session    *gateway.Session
	SessionErr error
	SessionReq *gateway.SessionRequest

	ExpiredSessions []string
	ExpireErr       error
}

func (m *mockGateway) ListProducts(_ context.Context, ids []string) ([]gateway.Product, error) {
	m.ListedIDs = ids
	return m.Products, m.ListErr
}

func (m *mockGateway) CreateSession(_ context.Context, req *gateway.SessionRequest) (*gateway.Session, error) {
	m.SessionReq = req
	return m.Session, m.SessionErr
}

func (m *mockGateway) ExpireSession(_ context.Context, sessionID string) error {
	m.ExpiredSessions = append(m.ExpiredSessions, sessionID)
	return m.ExpireErr
}

// mockRates implements RateEngine and captures the request it received
type mockRates struct {
	Quotes []shipping.Quote
	Err    error

	Origin string
	Dest   string
	Items  []shipping.RateItem
	Calls  int
}

func (m *mockRates) Quote(_ context.Context, originCEP, destCEP string, items []shipping.RateItem) ([]shipping.Quote, error) {
	m.Calls++
	m.Origin = originCEP
	m.Dest = destCEP
	m.Items = items
	return m.Quotes, m.Err
}

// mockTickets implements TicketRegistrar and captures the booking
type mockTickets struct {
	Ticket *shipping.Ticket
	Err    error

	ServiceID string
	Manifest  []shipping.ManifestItem
	Volumes   []shipping.Package
	Tag       string
	Recipient shipping.Recipient
	Calls     int
}

func (m *mockTickets) Book(_ context.Context, recipient shipping.Recipient, serviceID string, manifest []shipping.ManifestItem, volumes []shipping.Package, tag string) (*shipping.Ticket, error) {
	m.Calls++
	m.Recipient = recipient
	m.ServiceID = serviceID
	m.Manifest = manifest
	m.Volumes = volumes
	m.Tag = tag
	return m.Ticket, m.Err
}

// mockPublisher implements EventPublisher
type mockPublisher struct {
	Completed []*models.CheckoutCompletedEvent
	Failed    []*models.CheckoutFailedEvent
	Err       error
}

func (m *mockPublisher) PublishCheckoutCompleted(_ context.Context, event *models.CheckoutCompletedEvent) error {
	m.Completed = append(m.Completed, event)
	return m.Err
}

func (m *mockPublisher) PublishCheckoutFailed(_ context.Context, event *models.CheckoutFailedEvent) error {
	m.Failed = append(m.Failed, event)
	return m.Err
}

// mockCatalogStore implements catalogStore for the mirror tests
type mockCatalogStore struct {
	Books map[string]models.Book
	Err   error

	Queried [][]string
}

func (m *mockCatalogStore) GetBooksByExternalIDs(_ context.Context, externalIDs []string) ([]models.Book, error) {
	m.Queried = append(m.Queried, externalIDs)
	if m.Err != nil {
		return nil, m.Err
	}
	var books []models.Book
	for _, id := range externalIDs {
		if b, ok := m.Books[id]; ok {
			books = append(books, b)
		}
	}
	return books, nil
}

// mockCache implements CatalogCache for the mirror and sync tests
type mockCache struct {
	Books map[string]models.Book
	Err   error

	SetCalls    []models.Book
	Invalidated []string
}

func (m *mockCache) GetBooks(_ context.Context, externalIDs []string) ([]models.Book, []string, error) {
	if m.Err != nil {
		return nil, externalIDs, m.Err
	}
	var hits []models.Book
	var missing []string
	for _, id := range externalIDs {
		if b, ok := m.Books[id]; ok {
			hits = append(hits, b)
		} else {
			missing = append(missing, id)
		}
	}
	return hits, missing, nil
}

func (m *mockCache) SetBook(_ context.Context, book *models.Book) error {
	m.SetCalls = append(m.SetCalls, *book)
	return nil
}

func (m *mockCache) InvalidateBook(_ context.Context, externalID string) error {
	m.Invalidated = append(m.Invalidated, externalID)
	return nil
}

// mockProductMirror implements ProductMirror for the sync tests
type mockProductMirror struct {
	CreatedID string
	CreateErr error

	CreatedNames []string
	Archived     []string
	Restored     []string
	UpdateErr    error
}

func (m *mockProductMirror) CreateProduct(_ context.Context, name string, _ int64, _ string) (string, error) {
	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	m.CreatedNames = append(m.CreatedNames, name)
	return m.CreatedID, nil
}

func (m *mockProductMirror) ArchiveProduct(_ context.Context, id string) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.Archived = append(m.Archived, id)
	return nil
}

func (m *mockProductMirror) RestoreProduct(_ context.Context, id string) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.Restored = append(m.Restored, id)
	return nil
}

// mockSyncStore implements syncStore for the sync tests
type mockSyncStore struct {
	ExternalIDs map[int64]string
	ActiveFlags map[string]bool
	Err         error
}

func (m *mockSyncStore) SetBookExternalID(_ context.Context, bookID int64, externalID string) error {
	if m.Err != nil {
		return m.Err
	}
	if m.ExternalIDs == nil {
		m.ExternalIDs = make(map[int64]string)
	}
	m.ExternalIDs[bookID] = externalID
	return nil
}

func (m *mockSyncStore) SetBookActiveByExternalID(_ context.Context, externalID string, active bool) error {
	if m.Err != nil {
		return m.Err
	}
	if m.ActiveFlags == nil {
		m.ActiveFlags = make(map[string]bool)
	}
	m.ActiveFlags[externalID] = active
	return nil
}
