package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/channelsync/sync-service/internal/lifecycle"
	"github.com/channelsync/sync-service/internal/pkg/cuid2"
	"github.com/channelsync/sync-service/internal/pricing"
)

const syncItemColumns = `
	id, supplier_ref, connection_ref, supplier_product_ref, sku, upc,
	base_price, override_kind, override_value, final_price, stock, weight_kg,
	external_id, catalog_status, sync_status, sync_error, sync_attempts,
	last_synced_at, last_sync_attempt, deleted_at, created_at, updated_at`

func scanSyncItem(row pgx.Row) (*SyncItem, error) {
	var it SyncItem
	err := row.Scan(
		&it.ID, &it.SupplierRef, &it.ConnectionRef, &it.SupplierProductRef, &it.SKU, &it.UPC,
		&it.BasePrice, &it.OverrideKind, &it.OverrideValue, &it.FinalPrice, &it.Stock, &it.WeightKg,
		&it.ExternalID, &it.CatalogStatus, &it.SyncStatus, &it.SyncError, &it.SyncAttempts,
		&it.LastSyncedAt, &it.LastSyncAttempt, &it.DeletedAt, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// SelectChunk returns up to limit live items for a connection in a given
// catalog status, in primary-key order starting after afterID. Chunking by
// id keeps resumption stable under concurrent inserts and deletes, unlike
// offset pagination.
func SelectChunk(ctx context.Context, connectionRef string, status lifecycle.CatalogStatus, afterID int64, limit int) ([]SyncItem, error) {
	rows, err := Pool().Query(ctx, `
		SELECT `+syncItemColumns+`
		FROM sync_items
		WHERE connection_ref = $1
		  AND catalog_status = $2
		  AND deleted_at IS NULL
		  AND id > $3
		ORDER BY id
		LIMIT $4
	`, connectionRef, status, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("select %s chunk: %w", status, err)
	}
	defer rows.Close()

	items := make([]SyncItem, 0, limit)
	for rows.Next() {
		it, err := scanSyncItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sync item: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

// SelectRetryable returns failed items whose backoff window has elapsed,
// oldest attempts first, bounded by limit.
func SelectRetryable(ctx context.Context, connectionRef string, olderThan time.Duration, limit int) ([]SyncItem, error) {
	cutoff := time.Now().Add(-olderThan)

	rows, err := Pool().Query(ctx, `
		SELECT `+syncItemColumns+`
		FROM sync_items
		WHERE connection_ref = $1
		  AND sync_status = 'failed'
		  AND deleted_at IS NULL
		  AND (last_sync_attempt IS NULL OR last_sync_attempt < $2)
		ORDER BY last_sync_attempt NULLS FIRST, id
		LIMIT $3
	`, connectionRef, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("select retryable items: %w", err)
	}
	defer rows.Close()

	items := make([]SyncItem, 0, limit)
	for rows.Next() {
		it, err := scanSyncItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sync item: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

// GetItem loads one item by id.
func GetItem(ctx context.Context, id int64) (*SyncItem, error) {
	it, err := scanSyncItem(Pool().QueryRow(ctx, `
		SELECT `+syncItemColumns+`
		FROM sync_items
		WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return it, err
}

// GetItemBySKU loads one item by destination-facing SKU within a connection.
func GetItemBySKU(ctx context.Context, connectionRef, sku string) (*SyncItem, error) {
	it, err := scanSyncItem(Pool().QueryRow(ctx, `
		SELECT `+syncItemColumns+`
		FROM sync_items
		WHERE connection_ref = $1 AND sku = $2
	`, connectionRef, sku))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return it, err
}

// Transition applies a lifecycle event to an item with an optimistic guard:
// the row only moves if its catalog_status is still what the caller saw.
// Returns false when a concurrent sweep got there first. The audit row is
// written in the same transaction as the status change.
func Transition(ctx context.Context, item *SyncItem, ev lifecycle.Event, detail string) (bool, error) {
	next, err := lifecycle.Next(item.CatalogStatus, ev)
	if err != nil {
		return false, err
	}

	tx, err := Pool().Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin transition tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE sync_items
		SET catalog_status = $1, updated_at = NOW()
		WHERE id = $2 AND catalog_status = $3
	`, next, item.ID, item.CatalogStatus)
	if err != nil {
		return false, fmt.Errorf("transition item %d: %w", item.ID, err)
	}
	if tag.RowsAffected() == 0 {
		// Lost the optimistic race; the other writer audits its own move.
		return false, nil
	}

	var detailPtr *string
	if detail != "" {
		detailPtr = &detail
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO sync_audit (id, item_id, connection_ref, from_status, to_status, event, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`, cuid2.GeneratePrefixedId("aud", cuid2.PrefixedIdOptions{}),
		item.ID, item.ConnectionRef, item.CatalogStatus, next, ev, detailPtr)
	if err != nil {
		return false, fmt.Errorf("insert audit for item %d: %w", item.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit transition tx: %w", err)
	}

	item.CatalogStatus = next
	return true, nil
}

// MarkSynced records a successful sync operation on an item.
func MarkSynced(ctx context.Context, itemID int64) error {
	_, err := Pool().Exec(ctx, `
		UPDATE sync_items
		SET sync_status = 'synced', sync_error = NULL, sync_attempts = 0,
		    last_synced_at = NOW(), last_sync_attempt = NOW(), updated_at = NOW()
		WHERE id = $1
	`, itemID)
	if err != nil {
		return fmt.Errorf("mark item %d synced: %w", itemID, err)
	}
	return nil
}

// MarkSyncFailed records a failed attempt: sync_status flips to failed, the
// error message is preserved, the attempt counter feeds the retry backoff.
// The catalog status is deliberately left untouched.
func MarkSyncFailed(ctx context.Context, itemID int64, message string) error {
	_, err := Pool().Exec(ctx, `
		UPDATE sync_items
		SET sync_status = 'failed', sync_error = $2,
		    sync_attempts = sync_attempts + 1,
		    last_sync_attempt = NOW(), updated_at = NOW()
		WHERE id = $1
	`, itemID, message)
	if err != nil {
		return fmt.Errorf("mark item %d failed: %w", itemID, err)
	}
	return nil
}

// MarkSyncPending resets an item's sync flag so the next sweep picks it up.
func MarkSyncPending(ctx context.Context, itemID int64) error {
	_, err := Pool().Exec(ctx, `
		UPDATE sync_items
		SET sync_status = 'pending', sync_error = NULL, updated_at = NOW()
		WHERE id = $1
	`, itemID)
	if err != nil {
		return fmt.Errorf("mark item %d pending: %w", itemID, err)
	}
	return nil
}

// UpdateFinalPrice persists a recomputed final price.
func UpdateFinalPrice(ctx context.Context, itemID int64, price float64) error {
	_, err := Pool().Exec(ctx, `
		UPDATE sync_items
		SET final_price = $2, updated_at = NOW()
		WHERE id = $1
	`, itemID, price)
	if err != nil {
		return fmt.Errorf("update final price for item %d: %w", itemID, err)
	}
	return nil
}

// SetExternalID caches the discovered remote catalog id, so future sweeps
// skip the remote search entirely.
func SetExternalID(ctx context.Context, itemID int64, externalID string) error {
	_, err := Pool().Exec(ctx, `
		UPDATE sync_items
		SET external_id = $2, updated_at = NOW()
		WHERE id = $1
	`, itemID, externalID)
	if err != nil {
		return fmt.Errorf("set external id for item %d: %w", itemID, err)
	}
	return nil
}

// UpsertSupplierItem creates or refreshes an item from a supplier feed
// record. New items start at catalog_status default / sync_status pending.
// final_price must be computed by the caller before persistence; there is no
// hidden recompute hook.
func UpsertSupplierItem(ctx context.Context, item *SyncItem) (int64, error) {
	var id int64
	err := Pool().QueryRow(ctx, `
		INSERT INTO sync_items (
			supplier_ref, connection_ref, supplier_product_ref, sku, upc,
			base_price, override_kind, override_value, final_price, stock, weight_kg,
			catalog_status, sync_status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 'default', 'pending', NOW(), NOW())
		ON CONFLICT (connection_ref, supplier_product_ref) DO UPDATE SET
			base_price = EXCLUDED.base_price,
			final_price = EXCLUDED.final_price,
			stock = EXCLUDED.stock,
			weight_kg = EXCLUDED.weight_kg,
			upc = EXCLUDED.upc,
			deleted_at = NULL,
			updated_at = NOW()
		RETURNING id
	`, item.SupplierRef, item.ConnectionRef, item.SupplierProductRef, item.SKU, item.UPC,
		item.BasePrice, item.OverrideKind, item.OverrideValue, item.FinalPrice, item.Stock, item.WeightKg)
	if err != nil {
		return 0, fmt.Errorf("upsert item %s: %w", item.SKU, err)
	}
	return id, nil
}

// SelectVanished returns live items for a supplier/connection pair whose
// supplier_product_ref is not in the currently seen set. Used after a full
// supplier feed run to push disappeared products toward deletion.
func SelectVanished(ctx context.Context, supplierRef, connectionRef string, seenRefs []string, limit int) ([]SyncItem, error) {
	rows, err := Pool().Query(ctx, `
		SELECT `+syncItemColumns+`
		FROM sync_items
		WHERE supplier_ref = $1
		  AND connection_ref = $2
		  AND deleted_at IS NULL
		  AND catalog_status NOT IN ('deleted', 'not_in_catalog', 'pending_deletion', 'deletion_in_progress')
		  AND NOT (supplier_product_ref = ANY($3))
		ORDER BY id
		LIMIT $4
	`, supplierRef, connectionRef, seenRefs, limit)
	if err != nil {
		return nil, fmt.Errorf("select vanished items: %w", err)
	}
	defer rows.Close()

	var items []SyncItem
	for rows.Next() {
		it, err := scanSyncItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sync item: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

// SoftDelete marks an item's source product as gone. An in_catalog item is
// first forced through pending_deletion; items that never made it into the
// remote catalog are soft-deleted directly.
func SoftDelete(ctx context.Context, item *SyncItem) error {
	if item.CatalogStatus == lifecycle.StatusInCatalog {
		if _, err := Transition(ctx, item, lifecycle.EventSourceRemoved, "source product removed"); err != nil {
			return err
		}
		return nil
	}

	_, err := Pool().Exec(ctx, `
		UPDATE sync_items
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, item.ID)
	if err != nil {
		return fmt.Errorf("soft delete item %d: %w", item.ID, err)
	}
	return nil
}

// OverrideFor is a convenience for building pricing inputs from a row.
func (it *SyncItem) OverrideFor() (pricing.OverrideKind, float64) {
	if it.OverrideKind == "" {
		return pricing.OverrideNone, 0
	}
	return it.OverrideKind, it.OverrideValue
}
