package syncer

import (
	"context"
	"time"

	"github.com/channelsync/sync-service/internal/database"
	"github.com/channelsync/sync-service/internal/lifecycle"
	"github.com/channelsync/sync-service/internal/marketplace"
)

// PushSweep pushes price and quantity updates for in_catalog items whose
// sync_status is pending. Above the batch threshold it submits one
// price_quantity_update feed instead of per-item calls.
func (o *Orchestrator) PushSweep(ctx context.Context, conn *database.Connection) (*Summary, error) {
	client, err := o.clientFor(conn)
	if err != nil {
		return nil, err
	}
	logger := o.logger.With().Str("connection", conn.Ref).Str("sweep", "push").Logger()

	start := time.Now()
	summary := &Summary{}
	defer func() { recordSweep("push", conn.Ref, start, summary) }()

	var eligible []database.SyncItem
	err = o.chunks(ctx, conn.Ref, lifecycle.StatusInCatalog, func(items []database.SyncItem) error {
		for i := range items {
			if items[i].SyncStatus == lifecycle.SyncPending {
				eligible = append(eligible, items[i])
			}
		}
		return nil
	})
	if err != nil {
		return summary, err
	}
	if len(eligible) == 0 {
		return summary, nil
	}

	if len(eligible) > o.cfg.BatchThreshold {
		if err := o.submitFeed(ctx, conn, client, marketplace.FeedPriceQuantity, eligible, summary, logger); err != nil {
			return summary, err
		}
	} else {
		for i := range eligible {
			item := &eligible[i]
			summary.Processed++

			err := o.remote(ctx, item.ConnectionRef, "push", func() error {
				return client.AddOrUpdateListing(ctx, listingFor(item))
			})
			if err != nil {
				o.failItem(ctx, item.ID, err, summary)
				continue
			}
			if err := o.store.MarkSynced(ctx, item.ID); err != nil {
				summary.addError("item %d: %v", item.ID, err)
				continue
			}
			summary.Updated++
		}
	}

	logger.Info().
		Int("processed", summary.Processed).
		Int("updated", summary.Updated).
		Int("failed", summary.Failed).
		Msg("push sweep finished")
	return summary, nil
}
