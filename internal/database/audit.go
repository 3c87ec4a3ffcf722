package database

import (
	"context"
	"fmt"
)

// ListAudit returns recent lifecycle audit entries for an item, newest first.
func ListAudit(ctx context.Context, itemID int64, limit int) ([]AuditEntry, error) {
	rows, err := Pool().Query(ctx, `
		SELECT id, item_id, connection_ref, from_status, to_status, event, detail, created_at
		FROM sync_audit
		WHERE item_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, itemID, limit)
	if err != nil {
		return nil, fmt.Errorf("select audit entries: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		err := rows.Scan(&e.ID, &e.ItemID, &e.ConnectionRef, &e.FromStatus, &e.ToStatus, &e.Event, &e.Detail, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
