package syncer

import (
	"context"
	"time"

	"github.com/channelsync/sync-service/internal/database"
	"github.com/channelsync/sync-service/internal/lifecycle"
	"github.com/channelsync/sync-service/internal/pricing"
)

// Store is the persistence surface the orchestrator needs. The production
// implementation delegates to the database package; tests swap in a fake.
type Store interface {
	SelectChunk(ctx context.Context, connectionRef string, status lifecycle.CatalogStatus, afterID int64, limit int) ([]database.SyncItem, error)
	SelectRetryable(ctx context.Context, connectionRef string, olderThan time.Duration, limit int) ([]database.SyncItem, error)
	Transition(ctx context.Context, item *database.SyncItem, ev lifecycle.Event, detail string) (bool, error)
	MarkSynced(ctx context.Context, itemID int64) error
	MarkSyncFailed(ctx context.Context, itemID int64, message string) error
	MarkSyncPending(ctx context.Context, itemID int64) error
	UpdateFinalPrice(ctx context.Context, itemID int64, price float64) error
	SetExternalID(ctx context.Context, itemID int64, externalID string) error
	RulesForPair(ctx context.Context, supplierRef, destinationRef string) ([]pricing.Rule, error)
	CreateFeedJob(ctx context.Context, connectionRef, externalFeedID, feedKind string, submitDocRef *string) (*database.FeedJob, error)
	ActiveConnections(ctx context.Context) ([]database.Connection, error)
}

// DBStore is the pgx-backed Store used in production.
type DBStore struct{}

func (DBStore) SelectChunk(ctx context.Context, connectionRef string, status lifecycle.CatalogStatus, afterID int64, limit int) ([]database.SyncItem, error) {
	return database.SelectChunk(ctx, connectionRef, status, afterID, limit)
}

func (DBStore) SelectRetryable(ctx context.Context, connectionRef string, olderThan time.Duration, limit int) ([]database.SyncItem, error) {
	return database.SelectRetryable(ctx, connectionRef, olderThan, limit)
}

func (DBStore) Transition(ctx context.Context, item *database.SyncItem, ev lifecycle.Event, detail string) (bool, error) {
	return database.Transition(ctx, item, ev, detail)
}

func (DBStore) MarkSynced(ctx context.Context, itemID int64) error {
	return database.MarkSynced(ctx, itemID)
}

func (DBStore) MarkSyncFailed(ctx context.Context, itemID int64, message string) error {
	return database.MarkSyncFailed(ctx, itemID, message)
}

func (DBStore) MarkSyncPending(ctx context.Context, itemID int64) error {
	return database.MarkSyncPending(ctx, itemID)
}

func (DBStore) UpdateFinalPrice(ctx context.Context, itemID int64, price float64) error {
	return database.UpdateFinalPrice(ctx, itemID, price)
}

func (DBStore) SetExternalID(ctx context.Context, itemID int64, externalID string) error {
	return database.SetExternalID(ctx, itemID, externalID)
}

func (DBStore) RulesForPair(ctx context.Context, supplierRef, destinationRef string) ([]pricing.Rule, error) {
	return database.RulesForPair(ctx, supplierRef, destinationRef)
}

func (DBStore) CreateFeedJob(ctx context.Context, connectionRef, externalFeedID, feedKind string, submitDocRef *string) (*database.FeedJob, error) {
	return database.CreateFeedJob(ctx, connectionRef, externalFeedID, feedKind, submitDocRef)
}

func (DBStore) ActiveConnections(ctx context.Context) ([]database.Connection, error) {
	return database.ActiveConnections(ctx)
}
