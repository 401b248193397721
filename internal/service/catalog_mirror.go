package service

import (
	"context"
	"time"

	"checkout-service/internal/models"
	"checkout-service/internal/util"

	"go.uber.org/zap"
)

// catalogStore is the slice of the database the mirror reads from
type catalogStore interface {
	GetBooksByExternalIDs(ctx context.Context, externalIDs []string) ([]models.Book, error)
}

// CatalogCache is the Redis-backed read-through cache of catalog entries
type CatalogCache interface {
	GetBooks(ctx context.Context, externalIDs []string) ([]models.Book, []string, error)
	SetBook(ctx context.Context, book *models.Book) error
	InvalidateBook(ctx context.Context, externalID string) error
}

// CatalogMirror resolves catalog records by gateway product id, serving
// from Redis when possible and falling back to the database. Unknown ids
// are simply absent from the result.
type CatalogMirror struct {
	store  catalogStore
	cache  CatalogCache
	logger *zap.Logger
}

// NewCatalogMirror creates a catalog mirror
func NewCatalogMirror(store catalogStore, cache CatalogCache) *CatalogMirror {
	return &CatalogMirror{
		store:  store,
		cache:  cache,
		logger: util.GetLogger(),
	}
}

// ResolveByExternalIDs fetches catalog entries for the given external ids.
// A Redis failure degrades to a plain database read.
func (cm *CatalogMirror) ResolveByExternalIDs(ctx context.Context, externalIDs []string) ([]models.Book, error) {
	ctx, span := util.StartSpan(ctx, "CatalogMirror.ResolveByExternalIDs")
	defer span.End()

	if len(externalIDs) == 0 {
		return []models.Book{}, nil
	}

	cached, missing, err := cm.cache.GetBooks(ctx, externalIDs)
	if err != nil {
		cm.logger.Warn("Catalog cache read failed, falling back to DB", zap.Error(err))
		return cm.store.GetBooksByExternalIDs(ctx, externalIDs)
	}

	util.CatalogCacheHitsTotal.Add(float64(len(cached)))
	if len(missing) == 0 {
		return cached, nil
	}
	util.CatalogCacheMissesTotal.Add(float64(len(missing)))

	fromDB, err := cm.store.GetBooksByExternalIDs(ctx, missing)
	if err != nil {
		return nil, err
	}

	go cm.backfill(fromDB)

	return append(cached, fromDB...), nil
}

// backfill writes DB results into the cache off the request path
func (cm *CatalogMirror) backfill(books []models.Book) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for i := range books {
		if err := cm.cache.SetBook(ctx, &books[i]); err != nil {
			cm.logger.Warn("Failed to backfill catalog cache",
				zap.String("external_id", books[i].ExternalID),
				zap.Error(err))
		}
	}
}
