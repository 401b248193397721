package worker

import (
	"context"
	"log"

	"checkout-service/internal/broker"
	"checkout-service/internal/service"
)

// CatalogSyncWorker consumes catalog events and mirrors them to the
// payment gateway in the background.
type CatalogSyncWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
}

// NewCatalogSyncWorker creates a catalog sync worker
func NewCatalogSyncWorker(consumer *broker.Consumer, sync *service.CatalogSyncService) *CatalogSyncWorker {
	eventHandler := broker.NewEventHandler()

	eventHandler.OnItemUpserted(sync.HandleItemUpserted)
	eventHandler.OnItemArchived(sync.HandleItemArchived)
	eventHandler.OnItemRestored(sync.HandleItemRestored)

	return &CatalogSyncWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
	}
}

// Start starts the worker
func (w *CatalogSyncWorker) Start(ctx context.Context) error {
	log.Println("Starting catalog sync worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *CatalogSyncWorker) Stop() error {
	log.Println("Stopping catalog sync worker...")
	return w.consumer.Close()
}
