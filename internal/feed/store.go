package feed

import (
	"context"

	"github.com/channelsync/sync-service/internal/database"
	"github.com/channelsync/sync-service/internal/lifecycle"
)

// Store is the persistence surface the reconciler needs.
type Store interface {
	GetFeedJob(ctx context.Context, id string) (*database.FeedJob, error)
	PendingFeedJobs(ctx context.Context, connectionRef string, limit int) ([]database.FeedJob, error)
	MarkFeedJobInProgress(ctx context.Context, id string) error
	SetFeedJobResultDoc(ctx context.Context, id, resultDocRef string) error
	FinishFeedJob(ctx context.Context, id, status string, counts database.FeedJobCounts, errorsPayload any) (bool, error)
	GetConnection(ctx context.Context, ref string) (*database.Connection, error)
	GetItemBySKU(ctx context.Context, connectionRef, sku string) (*database.SyncItem, error)
	MarkSynced(ctx context.Context, itemID int64) error
	MarkSyncFailed(ctx context.Context, itemID int64, message string) error
	Transition(ctx context.Context, item *database.SyncItem, ev lifecycle.Event, detail string) (bool, error)
}

// DBStore is the pgx-backed Store used in production.
type DBStore struct{}

func (DBStore) GetFeedJob(ctx context.Context, id string) (*database.FeedJob, error) {
	return database.GetFeedJob(ctx, id)
}

func (DBStore) PendingFeedJobs(ctx context.Context, connectionRef string, limit int) ([]database.FeedJob, error) {
	return database.PendingFeedJobs(ctx, connectionRef, limit)
}

func (DBStore) MarkFeedJobInProgress(ctx context.Context, id string) error {
	return database.MarkFeedJobInProgress(ctx, id)
}

func (DBStore) SetFeedJobResultDoc(ctx context.Context, id, resultDocRef string) error {
	return database.SetFeedJobResultDoc(ctx, id, resultDocRef)
}

func (DBStore) FinishFeedJob(ctx context.Context, id, status string, counts database.FeedJobCounts, errorsPayload any) (bool, error) {
	return database.FinishFeedJob(ctx, id, status, counts, errorsPayload)
}

func (DBStore) GetConnection(ctx context.Context, ref string) (*database.Connection, error) {
	return database.GetConnection(ctx, ref)
}

func (DBStore) GetItemBySKU(ctx context.Context, connectionRef, sku string) (*database.SyncItem, error) {
	return database.GetItemBySKU(ctx, connectionRef, sku)
}

func (DBStore) MarkSynced(ctx context.Context, itemID int64) error {
	return database.MarkSynced(ctx, itemID)
}

func (DBStore) MarkSyncFailed(ctx context.Context, itemID int64, message string) error {
	return database.MarkSyncFailed(ctx, itemID, message)
}

func (DBStore) Transition(ctx context.Context, item *database.SyncItem, ev lifecycle.Event, detail string) (bool, error) {
	return database.Transition(ctx, item, ev, detail)
}
