package syncer

import (
	"context"
	"time"

	"github.com/channelsync/sync-service/internal/database"
	"github.com/channelsync/sync-service/internal/lifecycle"
	"github.com/channelsync/sync-service/internal/marketplace"
)

// DeletionSweep removes listings for items whose source product vanished:
// re-queue deletion_failed items, then delete everything pending_deletion,
// as one catalog_item_delete feed above the batch threshold.
func (o *Orchestrator) DeletionSweep(ctx context.Context, conn *database.Connection) (*Summary, error) {
	client, err := o.clientFor(conn)
	if err != nil {
		return nil, err
	}
	logger := o.logger.With().Str("connection", conn.Ref).Str("sweep", "deletion").Logger()

	start := time.Now()
	summary := &Summary{}
	defer func() { recordSweep("deletion", conn.Ref, start, summary) }()

	// Failed deletions re-enter the queue for another attempt.
	err = o.chunks(ctx, conn.Ref, lifecycle.StatusDeletionFailed, func(items []database.SyncItem) error {
		for i := range items {
			if _, err := o.store.Transition(ctx, &items[i], lifecycle.EventRetryDeletion, "re-queued for deletion"); err != nil {
				summary.addError("item %d: %v", items[i].ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return summary, err
	}

	var eligible []database.SyncItem
	err = o.chunks(ctx, conn.Ref, lifecycle.StatusPendingDeletion, func(items []database.SyncItem) error {
		eligible = append(eligible, items...)
		return nil
	})
	if err != nil {
		return summary, err
	}
	if len(eligible) == 0 {
		return summary, nil
	}

	if len(eligible) > o.cfg.BatchThreshold {
		if err := o.submitFeed(ctx, conn, client, marketplace.FeedCatalogDelete, eligible, summary, logger); err != nil {
			return summary, err
		}
		// A submitted bulk delete moves the items to deletion_in_progress;
		// the reconciler settles them from the feed result.
		for i := range eligible {
			if _, err := o.store.Transition(ctx, &eligible[i], lifecycle.EventDeleteSubmitted, "bulk delete submitted"); err != nil {
				summary.addError("item %d: %v", eligible[i].ID, err)
			}
		}
	} else {
		for i := range eligible {
			item := &eligible[i]
			summary.Processed++

			err := o.remote(ctx, item.ConnectionRef, "delete", func() error {
				return client.DeleteListing(ctx, listingFor(item))
			})
			if err != nil {
				if _, terr := o.store.Transition(ctx, item, lifecycle.EventDeleteFails, err.Error()); terr != nil {
					summary.addError("item %d: %v", item.ID, terr)
				}
				o.failItem(ctx, item.ID, err, summary)
				continue
			}
			if _, err := o.store.Transition(ctx, item, lifecycle.EventDeleteSucceeds, "listing deleted"); err != nil {
				summary.addError("item %d: %v", item.ID, err)
				summary.Failed++
				continue
			}
			summary.Updated++
		}
	}

	logger.Info().
		Int("processed", summary.Processed).
		Int("deleted", summary.Updated).
		Int("failed", summary.Failed).
		Msg("deletion sweep finished")
	return summary, nil
}
