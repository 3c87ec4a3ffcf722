package syncer

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/channelsync/sync-service/internal/database"
	"github.com/channelsync/sync-service/internal/lifecycle"
	"github.com/channelsync/sync-service/internal/pricing"
)

// repriceItem recomputes one item's final price against the active rule
// chain. The previous final price stays in place when computation fails.
func (o *Orchestrator) repriceItem(ctx context.Context, item *database.SyncItem, rules []pricing.Rule, now time.Time, summary *Summary, logger zerolog.Logger) {
	summary.Processed++

	kind, value := item.OverrideFor()
	computed := pricing.Compute(pricing.ComputeInput{
		BasePrice:     item.BasePrice,
		Quantity:      1,
		Rules:         pricing.ActiveChain(rules, item.SupplierRef, item.ConnectionRef, item.SupplierProductRef, now),
		OverrideKind:  kind,
		OverrideValue: value,
		FallbackPrice: item.FinalPrice,
	})
	if computed.FellBack {
		logger.Warn().
			Int64("item", item.ID).
			Str("sku", item.SKU).
			Err(computed.Err).
			Msg("price computation fell back to last stable price")
		summary.Failed++
		summary.addError("item %d: %v", item.ID, computed.Err)
		return
	}

	if computed.Price == item.FinalPrice {
		summary.Skipped++
		return
	}

	if err := o.store.UpdateFinalPrice(ctx, item.ID, computed.Price); err != nil {
		summary.addError("item %d: %v", item.ID, err)
		summary.Failed++
		return
	}
	if item.CatalogStatus == lifecycle.StatusInCatalog {
		if err := o.store.MarkSyncPending(ctx, item.ID); err != nil {
			summary.addError("item %d: %v", item.ID, err)
		}
	}
	summary.Updated++
}
