package syncer

import (
	"context"
	"time"

	"github.com/channelsync/sync-service/internal/database"
	"github.com/channelsync/sync-service/internal/lifecycle"
)

// RetrySweep re-arms failed items whose backoff window has elapsed by
// flipping sync_status back to pending. The next check or push sweep picks
// them up; this sweep itself makes no remote calls.
func (o *Orchestrator) RetrySweep(ctx context.Context, conn *database.Connection) (*Summary, error) {
	logger := o.logger.With().Str("connection", conn.Ref).Str("sweep", "retry").Logger()

	start := time.Now()
	summary := &Summary{}
	defer func() { recordSweep("retry", conn.Ref, start, summary) }()
	now := time.Now().UTC()

	items, err := o.store.SelectRetryable(ctx, conn.Ref, o.cfg.RetryOlderThan, o.cfg.ChunkSize)
	if err != nil {
		return summary, err
	}

	for i := range items {
		item := &items[i]
		summary.Processed++

		if !lifecycle.ShouldRetry(item.SyncStatus, item.SyncAttempts, item.LastSyncAttempt, now) {
			summary.Skipped++
			continue
		}
		if err := o.store.MarkSyncPending(ctx, item.ID); err != nil {
			summary.addError("item %d: %v", item.ID, err)
			summary.Failed++
			continue
		}
		summary.Updated++
	}

	logger.Info().
		Int("processed", summary.Processed).
		Int("rearmed", summary.Updated).
		Int("skipped", summary.Skipped).
		Msg("retry sweep finished")
	return summary, nil
}

// RepriceSweep recomputes final prices for every live item of a connection
// with the currently active rule chain. Items already in the catalog whose
// price changed are flagged pending so the push sweep sends the update.
func (o *Orchestrator) RepriceSweep(ctx context.Context, conn *database.Connection) (*Summary, error) {
	logger := o.logger.With().Str("connection", conn.Ref).Str("sweep", "reprice").Logger()

	start := time.Now()
	summary := &Summary{}
	defer func() { recordSweep("reprice", conn.Ref, start, summary) }()

	rules, err := o.store.RulesForPair(ctx, conn.SupplierRef, conn.Ref)
	if err != nil {
		return summary, err
	}
	now := time.Now().UTC()

	liveStatuses := []lifecycle.CatalogStatus{
		lifecycle.StatusDefault,
		lifecycle.StatusQueued,
		lifecycle.StatusPendingCheck,
		lifecycle.StatusPendingCreation,
		lifecycle.StatusInCatalog,
	}
	for _, status := range liveStatuses {
		err := o.chunks(ctx, conn.Ref, status, func(items []database.SyncItem) error {
			for i := range items {
				o.repriceItem(ctx, &items[i], rules, now, summary, logger)
			}
			return nil
		})
		if err != nil {
			return summary, err
		}
	}

	logger.Info().
		Int("processed", summary.Processed).
		Int("repriced", summary.Updated).
		Int("failed", summary.Failed).
		Msg("reprice sweep finished")
	return summary, nil
}
