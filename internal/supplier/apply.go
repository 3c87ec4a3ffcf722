package supplier

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/channelsync/sync-service/internal/database"
	"github.com/channelsync/sync-service/internal/pricing"
)

// ApplyInput carries one parsed supplier feed destined for one connection.
type ApplyInput struct {
	SupplierRef   string
	ConnectionRef string
	SKUPrefix     string
	Records       []Record

	// ParseErrors is the number of feed rows that failed parsing. A non-zero
	// count means Records is an incomplete view of the feed, so the vanish
	// pass is skipped: a product must not be deleted because its row was
	// malformed.
	ParseErrors int
}

// ApplyResult aggregates the outcome of applying a feed.
type ApplyResult struct {
	Upserted      int      `json:"upserted"`
	Repriced      int      `json:"repriced"`
	Vanished      int      `json:"vanished"`
	VanishSkipped bool     `json:"vanishSkipped,omitempty"`
	Skipped       int      `json:"skipped"`
	FellBack      int      `json:"fellBack"`
	Errors        []string `json:"errors,omitempty"`
}

// Apply upserts parsed records into the sync item table and soft-deletes
// items that vanished from the feed. The final price is computed before
// persistence, so a crash mid-apply never leaves a row without a stable
// price: existing items fall back to their current final_price, new items
// to the raw base price.
func Apply(ctx context.Context, store Store, in ApplyInput) (*ApplyResult, error) {
	logger := log.With().
		Str("component", "supplier-apply").
		Str("connection", in.ConnectionRef).
		Logger()

	rules, err := store.RulesForPair(ctx, in.SupplierRef, in.ConnectionRef)
	if err != nil {
		return nil, fmt.Errorf("failed to load pricing rules: %w", err)
	}

	result := &ApplyResult{}
	seenRefs := make([]string, 0, len(in.Records))
	now := time.Now().UTC()

	for _, rec := range in.Records {
		if rec.SKU == "" {
			result.Skipped++
			continue
		}
		seenRefs = append(seenRefs, rec.SupplierProductRef)

		sku := in.SKUPrefix + rec.SKU
		existing, err := store.GetItemBySKU(ctx, in.ConnectionRef, sku)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("load %s: %v", sku, err))
			continue
		}

		kind, value := pricing.OverrideNone, 0.0
		fallback := rec.BasePrice
		if existing != nil {
			kind, value = existing.OverrideFor()
			fallback = existing.FinalPrice
		}

		computed := pricing.Compute(pricing.ComputeInput{
			BasePrice:     rec.BasePrice,
			Quantity:      1,
			Rules:         pricing.ActiveChain(rules, in.SupplierRef, in.ConnectionRef, rec.SupplierProductRef, now),
			OverrideKind:  kind,
			OverrideValue: value,
			FallbackPrice: fallback,
		})
		if computed.FellBack {
			result.FellBack++
			logger.Warn().
				Str("sku", sku).
				Err(computed.Err).
				Msg("price computation fell back to last stable price")
		}
		if computed.Price <= 0 {
			// Nothing stable to fall back to; never persist a zero price.
			result.Errors = append(result.Errors, fmt.Sprintf("price %s: %v", sku, computed.Err))
			continue
		}

		item := &database.SyncItem{
			SupplierRef:        in.SupplierRef,
			ConnectionRef:      in.ConnectionRef,
			SupplierProductRef: rec.SupplierProductRef,
			SKU:                sku,
			UPC:                rec.UPC,
			BasePrice:          rec.BasePrice,
			OverrideKind:       kind,
			OverrideValue:      value,
			FinalPrice:         computed.Price,
			Stock:              rec.Stock,
			WeightKg:           rec.WeightKg,
		}
		if _, err := store.UpsertSupplierItem(ctx, item); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("upsert %s: %v", sku, err))
			continue
		}
		result.Upserted++
		if existing != nil && computed.Price != existing.FinalPrice {
			result.Repriced++
		}
	}

	if in.ParseErrors > 0 {
		result.VanishSkipped = true
		logger.Warn().
			Int("parse_errors", in.ParseErrors).
			Msg("feed has unparseable rows, skipping vanish pass")
	} else {
		vanished, err := store.SelectVanished(ctx, in.SupplierRef, in.ConnectionRef, seenRefs, 10000)
		if err != nil {
			return result, fmt.Errorf("failed to select vanished items: %w", err)
		}
		for i := range vanished {
			if err := store.SoftDelete(ctx, &vanished[i]); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("vanish %s: %v", vanished[i].SKU, err))
				continue
			}
			result.Vanished++
		}
	}

	logger.Info().
		Int("upserted", result.Upserted).
		Int("repriced", result.Repriced).
		Int("vanished", result.Vanished).
		Int("errors", len(result.Errors)).
		Msg("supplier feed applied")

	return result, nil
}
