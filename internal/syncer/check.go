package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/channelsync/sync-service/internal/database"
	"github.com/channelsync/sync-service/internal/lifecycle"
	"github.com/channelsync/sync-service/internal/marketplace"
	"github.com/channelsync/sync-service/internal/storage"
)

// CheckSweep runs the catalog existence check for one connection: promote
// queued items, resolve each pending_check item against the remote catalog,
// then create listings for everything left pending_creation.
//
// Item-level failures are aggregated into the summary. The sweep only
// returns an error on infrastructure failures (client construction, chunk
// selection), leaving item state consistent for the next run.
func (o *Orchestrator) CheckSweep(ctx context.Context, conn *database.Connection) (*Summary, error) {
	client, err := o.clientFor(conn)
	if err != nil {
		return nil, err
	}
	logger := o.logger.With().Str("connection", conn.Ref).Str("sweep", "check").Logger()

	start := time.Now()
	summary := &Summary{}
	defer func() { recordSweep("check", conn.Ref, start, summary) }()

	// Promote default -> queued -> pending_check so freshly upserted items
	// enter the check on this run.
	for _, step := range []struct {
		from lifecycle.CatalogStatus
		ev   lifecycle.Event
	}{
		{lifecycle.StatusDefault, lifecycle.EventQueue},
		{lifecycle.StatusQueued, lifecycle.EventPromote},
	} {
		err := o.chunks(ctx, conn.Ref, step.from, func(items []database.SyncItem) error {
			for i := range items {
				if _, err := o.store.Transition(ctx, &items[i], step.ev, ""); err != nil {
					summary.addError("promote item %d: %v", items[i].ID, err)
				}
			}
			return nil
		})
		if err != nil {
			return summary, err
		}
	}

	err = o.chunks(ctx, conn.Ref, lifecycle.StatusPendingCheck, func(items []database.SyncItem) error {
		for i := range items {
			o.checkItem(ctx, client, &items[i], summary, logger)
		}
		return nil
	})
	if err != nil {
		return summary, err
	}

	if err := o.createPending(ctx, conn, client, summary, logger); err != nil {
		return summary, err
	}

	logger.Info().
		Int("processed", summary.Processed).
		Int("created", summary.Created).
		Int("updated", summary.Updated).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Msg("check sweep finished")
	return summary, nil
}

// checkItem resolves one pending_check item. Invalid identifiers go straight
// to not_in_catalog without a remote call.
func (o *Orchestrator) checkItem(ctx context.Context, client marketplace.Client, item *database.SyncItem, summary *Summary, logger zerolog.Logger) {
	summary.Processed++

	if !ValidIdentifier(item.UPC) {
		msg := fmt.Sprintf("invalid identifier %q", item.UPC)
		if _, err := o.store.Transition(ctx, item, lifecycle.EventInvalidIdentifier, msg); err != nil {
			summary.addError("item %d: %v", item.ID, err)
			summary.Failed++
			return
		}
		if err := o.store.MarkSyncFailed(ctx, item.ID, msg); err != nil {
			summary.addError("item %d: %v", item.ID, err)
		}
		logger.Warn().Int64("item", item.ID).Str("upc", item.UPC).Msg("identifier rejected, skipping remote check")
		summary.Skipped++
		return
	}

	// A previously discovered external id means the listing exists; skip
	// the search and push the listing directly.
	if item.ExternalID == nil {
		var found *marketplace.ExternalItem
		err := o.remote(ctx, item.ConnectionRef, "search", func() error {
			var callErr error
			found, callErr = client.SearchByIdentifier(ctx, item.UPC)
			return callErr
		})
		if err != nil {
			o.failItem(ctx, item.ID, err, summary)
			return
		}
		if found == nil {
			if _, err := o.store.Transition(ctx, item, lifecycle.EventNotFound, "no remote match"); err != nil {
				summary.addError("item %d: %v", item.ID, err)
				summary.Failed++
			}
			return
		}
		if err := o.store.SetExternalID(ctx, item.ID, found.ExternalID); err != nil {
			summary.addError("item %d: %v", item.ID, err)
			summary.Failed++
			return
		}
		item.ExternalID = &found.ExternalID
	}

	err := o.remote(ctx, item.ConnectionRef, "listing", func() error {
		return client.AddOrUpdateListing(ctx, listingFor(item))
	})
	if err != nil {
		o.failItem(ctx, item.ID, err, summary)
		return
	}

	if _, err := o.store.Transition(ctx, item, lifecycle.EventFoundInRemote, "listing confirmed"); err != nil {
		summary.addError("item %d: %v", item.ID, err)
		summary.Failed++
		return
	}
	if err := o.store.MarkSynced(ctx, item.ID); err != nil {
		summary.addError("item %d: %v", item.ID, err)
	}
	summary.Updated++
}

// createPending lists every pending_creation item, per-item below the batch
// threshold, as one bulk feed above it.
func (o *Orchestrator) createPending(ctx context.Context, conn *database.Connection, client marketplace.Client, summary *Summary, logger zerolog.Logger) error {
	var eligible []database.SyncItem
	err := o.chunks(ctx, conn.Ref, lifecycle.StatusPendingCreation, func(items []database.SyncItem) error {
		eligible = append(eligible, items...)
		return nil
	})
	if err != nil {
		return err
	}
	if len(eligible) == 0 {
		return nil
	}

	if len(eligible) > o.cfg.BatchThreshold {
		return o.submitFeed(ctx, conn, client, marketplace.FeedListingCreate, eligible, summary, logger)
	}

	for i := range eligible {
		item := &eligible[i]
		summary.Processed++

		err := o.remote(ctx, item.ConnectionRef, "create", func() error {
			return client.AddOrUpdateListing(ctx, listingFor(item))
		})
		if err != nil {
			o.failItem(ctx, item.ID, err, summary)
			continue
		}
		if _, err := o.store.Transition(ctx, item, lifecycle.EventCreateSucceeds, "listing created"); err != nil {
			summary.addError("item %d: %v", item.ID, err)
			summary.Failed++
			continue
		}
		if err := o.store.MarkSynced(ctx, item.ID); err != nil {
			summary.addError("item %d: %v", item.ID, err)
		}
		summary.Created++
	}
	return nil
}

// submitFeed submits one bulk feed for the given items and records the
// FeedJob. Items stay in their current catalog status with sync_status
// pending until the reconciler fans the result back in.
func (o *Orchestrator) submitFeed(ctx context.Context, conn *database.Connection, client marketplace.Client, kind marketplace.FeedKind, items []database.SyncItem, summary *Summary, logger zerolog.Logger) error {
	lines := make([]marketplace.FeedLine, 0, len(items))
	for i := range items {
		lines = append(lines, marketplace.FeedLine{
			SKU:      items[i].SKU,
			Price:    items[i].FinalPrice,
			Quantity: items[i].Stock,
		})
	}

	var handle marketplace.FeedHandle
	err := o.remote(ctx, conn.Ref, "submit_feed", func() error {
		var callErr error
		if kind == marketplace.FeedCatalogDelete {
			handle, callErr = client.SubmitBulkDelete(ctx, lines)
		} else {
			handle, callErr = client.SubmitBulkFeed(ctx, kind, lines)
		}
		return callErr
	})
	if err != nil {
		// The whole batch failed to submit; items are untouched and the
		// next sweep re-attempts.
		summary.addError("submit %s feed: %v", kind, err)
		summary.Processed += len(items)
		summary.Failed += len(items)
		return nil
	}
	feedSubmissions.WithLabelValues(conn.Ref, string(kind)).Inc()

	var submitDocRef *string
	if o.docs != nil {
		payload, merr := json.Marshal(lines)
		if merr == nil {
			key := storage.BuildSubmitKey(conn.Ref, handle.FeedID, time.Now().UTC())
			if perr := o.docs.Put(ctx, key, payload, &storage.Metadata{
				ContentType:   "application/json",
				ConnectionRef: conn.Ref,
				FetchedAt:     time.Now().UTC(),
			}); perr == nil {
				submitDocRef = &key
			} else {
				logger.Warn().Err(perr).Msg("failed to archive submitted feed payload")
			}
		}
	}

	job, err := o.store.CreateFeedJob(ctx, conn.Ref, handle.FeedID, string(kind), submitDocRef)
	if err != nil {
		return fmt.Errorf("failed to record feed job for feed %s: %w", handle.FeedID, err)
	}

	for i := range items {
		summary.Processed++
		if err := o.store.MarkSyncPending(ctx, items[i].ID); err != nil {
			summary.addError("item %d: %v", items[i].ID, err)
		}
	}
	summary.FeedJobIDs = append(summary.FeedJobIDs, job.ID)
	logger.Info().
		Str("feed_job", job.ID).
		Str("external_feed", handle.FeedID).
		Str("kind", string(kind)).
		Int("lines", len(lines)).
		Msg("bulk feed submitted")
	return nil
}

// failItem records an item-level remote failure per its error kind.
func (o *Orchestrator) failItem(ctx context.Context, itemID int64, err error, summary *Summary) {
	summary.Failed++
	summary.addError("item %d: %v", itemID, err)
	if markErr := o.store.MarkSyncFailed(ctx, itemID, err.Error()); markErr != nil {
		summary.addError("item %d: %v", itemID, markErr)
	}
}

func listingFor(item *database.SyncItem) marketplace.ListingInput {
	in := marketplace.ListingInput{
		SKU:        item.SKU,
		Identifier: item.UPC,
		Price:      item.FinalPrice,
		Quantity:   item.Stock,
	}
	if item.ExternalID != nil {
		in.ExternalID = *item.ExternalID
	}
	return in
}

// chunks walks a status selection in id order, one bounded chunk at a time.
func (o *Orchestrator) chunks(ctx context.Context, connectionRef string, status lifecycle.CatalogStatus, fn func(items []database.SyncItem) error) error {
	afterID := int64(0)
	for {
		items, err := o.store.SelectChunk(ctx, connectionRef, status, afterID, o.cfg.ChunkSize)
		if err != nil {
			return fmt.Errorf("failed to select %s chunk: %w", status, err)
		}
		if len(items) == 0 {
			return nil
		}
		if err := fn(items); err != nil {
			return err
		}
		afterID = items[len(items)-1].ID
	}
}
