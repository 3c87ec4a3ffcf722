package supplier

import (
	"context"

	"github.com/channelsync/sync-service/internal/database"
	"github.com/channelsync/sync-service/internal/pricing"
)

// Store is the persistence surface the feed applier needs. The production
// implementation delegates to the database package; tests swap in a fake.
type Store interface {
	RulesForPair(ctx context.Context, supplierRef, destinationRef string) ([]pricing.Rule, error)
	GetItemBySKU(ctx context.Context, connectionRef, sku string) (*database.SyncItem, error)
	UpsertSupplierItem(ctx context.Context, item *database.SyncItem) (int64, error)
	SelectVanished(ctx context.Context, supplierRef, connectionRef string, seenRefs []string, limit int) ([]database.SyncItem, error)
	SoftDelete(ctx context.Context, item *database.SyncItem) error
}

// DBStore is the pgx-backed Store used in production.
type DBStore struct{}

func (DBStore) RulesForPair(ctx context.Context, supplierRef, destinationRef string) ([]pricing.Rule, error) {
	return database.RulesForPair(ctx, supplierRef, destinationRef)
}

func (DBStore) GetItemBySKU(ctx context.Context, connectionRef, sku string) (*database.SyncItem, error) {
	return database.GetItemBySKU(ctx, connectionRef, sku)
}

func (DBStore) UpsertSupplierItem(ctx context.Context, item *database.SyncItem) (int64, error) {
	return database.UpsertSupplierItem(ctx, item)
}

func (DBStore) SelectVanished(ctx context.Context, supplierRef, connectionRef string, seenRefs []string, limit int) ([]database.SyncItem, error) {
	return database.SelectVanished(ctx, supplierRef, connectionRef, seenRefs, limit)
}

func (DBStore) SoftDelete(ctx context.Context, item *database.SyncItem) error {
	return database.SoftDelete(ctx, item)
}
