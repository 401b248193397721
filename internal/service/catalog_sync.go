package service

import (
	"context"

	"checkout-service/internal/models"
	"checkout-service/internal/util"

	"go.uber.org/zap"
)

// syncStore is the slice of the database the catalog sync writes to
type syncStore interface {
	SetBookExternalID(ctx context.Context, bookID int64, externalID string) error
	SetBookActiveByExternalID(ctx context.Context, externalID string, active bool) error
}

// ProductMirror is the gateway surface for keeping products in sync
type ProductMirror interface {
	CreateProduct(ctx context.Context, name string, unitAmount int64, imageURL string) (string, error)
	ArchiveProduct(ctx context.Context, id string) error
	RestoreProduct(ctx context.Context, id string) error
}

// CatalogSyncService mirrors catalog changes to the payment gateway so
// every sellable book has a gateway product with an active price. Price
// changes arrive as a fresh upsert and create a new gateway product with
// a new price; existing products are never mutated.
type CatalogSyncService struct {
	store   syncStore
	gateway ProductMirror
	cache   CatalogCache
	logger  *zap.Logger
}

// NewCatalogSyncService creates a catalog sync service
func NewCatalogSyncService(store syncStore, gw ProductMirror, cache CatalogCache) *CatalogSyncService {
	return &CatalogSyncService{
		store:   store,
		gateway: gw,
		cache:   cache,
		logger:  util.GetLogger(),
	}
}

// HandleItemUpserted mirrors a new or repriced book to the gateway and
// records the product id it was assigned.
func (cs *CatalogSyncService) HandleItemUpserted(ctx context.Context, event *models.CatalogItemUpsertedEvent) error {
	ctx, span := util.StartSpan(ctx, "CatalogSyncService.HandleItemUpserted")
	defer span.End()

	externalID, err := cs.gateway.CreateProduct(ctx, event.Title, event.Price, event.ImageURL)
	if err != nil {
		util.CatalogSyncTotal.WithLabelValues("upsert", "error").Inc()
		return err
	}

	if err := cs.store.SetBookExternalID(ctx, event.BookID, externalID); err != nil {
		util.CatalogSyncTotal.WithLabelValues("upsert", "error").Inc()
		return err
	}

	util.CatalogSyncTotal.WithLabelValues("upsert", "ok").Inc()
	cs.logger.Info("Book mirrored to gateway",
		zap.Int64("book_id", event.BookID),
		zap.String("external_id", externalID))
	return nil
}

// HandleItemArchived deactivates the gateway product and the local row
func (cs *CatalogSyncService) HandleItemArchived(ctx context.Context, event *models.CatalogItemArchivedEvent) error {
	ctx, span := util.StartSpan(ctx, "CatalogSyncService.HandleItemArchived")
	defer span.End()

	if err := cs.gateway.ArchiveProduct(ctx, event.ExternalID); err != nil {
		util.CatalogSyncTotal.WithLabelValues("archive", "error").Inc()
		return err
	}
	if err := cs.store.SetBookActiveByExternalID(ctx, event.ExternalID, false); err != nil {
		util.CatalogSyncTotal.WithLabelValues("archive", "error").Inc()
		return err
	}
	cs.invalidate(ctx, event.ExternalID)

	util.CatalogSyncTotal.WithLabelValues("archive", "ok").Inc()
	return nil
}

// HandleItemRestored reactivates the gateway product and the local row
func (cs *CatalogSyncService) HandleItemRestored(ctx context.Context, event *models.CatalogItemRestoredEvent) error {
	ctx, span := util.StartSpan(ctx, "CatalogSyncService.HandleItemRestored")
	defer span.End()

	if err := cs.gateway.RestoreProduct(ctx, event.ExternalID); err != nil {
		util.CatalogSyncTotal.WithLabelValues("restore", "error").Inc()
		return err
	}
	if err := cs.store.SetBookActiveByExternalID(ctx, event.ExternalID, true); err != nil {
		util.CatalogSyncTotal.WithLabelValues("restore", "error").Inc()
		return err
	}
	cs.invalidate(ctx, event.ExternalID)

	util.CatalogSyncTotal.WithLabelValues("restore", "ok").Inc()
	return nil
}

// invalidate drops the cached entry so the next resolve sees fresh state
func (cs *CatalogSyncService) invalidate(ctx context.Context, externalID string) {
	if err := cs.cache.InvalidateBook(ctx, externalID); err != nil {
		cs.logger.Warn("Failed to invalidate catalog cache entry",
			zap.String("external_id", externalID),
			zap.Error(err))
	}
}
