package database

import (
	"encoding/json"
	"time"

	"github.com/channelsync/sync-service/internal/lifecycle"
	"github.com/channelsync/sync-service/internal/pricing"
)

// SyncItem is the per-product, per-connection join row: one supplier product
// synced to one destination connection, with its lifecycle and price state.
type SyncItem struct {
	ID                 int64                   `db:"id"`
	SupplierRef        string                  `db:"supplier_ref"`
	ConnectionRef      string                  `db:"connection_ref"`
	SupplierProductRef string                  `db:"supplier_product_ref"`
	SKU                string                  `db:"sku"`
	UPC                string                  `db:"upc"`
	BasePrice          float64                 `db:"base_price"`
	OverrideKind       pricing.OverrideKind    `db:"override_kind"`
	OverrideValue      float64                 `db:"override_value"`
	FinalPrice         float64                 `db:"final_price"`
	Stock              int                     `db:"stock"`
	WeightKg           *float64                `db:"weight_kg"`
	ExternalID         *string                 `db:"external_id"`
	CatalogStatus      lifecycle.CatalogStatus `db:"catalog_status"`
	SyncStatus         lifecycle.SyncStatus    `db:"sync_status"`
	SyncError          *string                 `db:"sync_error"`
	SyncAttempts       int                     `db:"sync_attempts"`
	LastSyncedAt       *time.Time              `db:"last_synced_at"`
	LastSyncAttempt    *time.Time              `db:"last_sync_attempt"`
	DeletedAt          *time.Time              `db:"deleted_at"`
	CreatedAt          time.Time               `db:"created_at"`
	UpdatedAt          time.Time               `db:"updated_at"`
}

// FeedJob is one asynchronous bulk operation submitted to a marketplace.
type FeedJob struct {
	ID               string          `db:"id"`
	ConnectionRef    string          `db:"connection_ref"`
	ExternalFeedID   string          `db:"external_feed_id"`
	FeedKind         string          `db:"feed_kind"`
	ProcessingStatus string          `db:"processing_status"`
	SubmitDocRef     *string         `db:"submit_doc_ref"`
	ResultDocRef     *string         `db:"result_doc_ref"`
	StartedAt        *time.Time      `db:"started_at"`
	CompletedAt      *time.Time      `db:"completed_at"`
	Processed        int             `db:"processed_count"`
	Successful       int             `db:"successful_count"`
	Errored          int             `db:"error_count"`
	Warned           int             `db:"warning_count"`
	ErrorsPayload    json.RawMessage `db:"errors_payload"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

// Feed job processing statuses. Exactly one terminal status is reached per
// job; everything else must eventually resolve via polling.
const (
	FeedStatusSubmitted  = "submitted"
	FeedStatusInProgress = "in_progress"
	FeedStatusDone       = "done"
	FeedStatusCancelled  = "cancelled"
	FeedStatusFatal      = "fatal"
	FeedStatusTimeout    = "timeout"
	FeedStatusError      = "error"
)

// TerminalFeedStatus reports whether a local feed job status is terminal.
func TerminalFeedStatus(status string) bool {
	switch status {
	case FeedStatusDone, FeedStatusCancelled, FeedStatusFatal, FeedStatusTimeout, FeedStatusError:
		return true
	}
	return false
}

// AuditEntry records one lifecycle transition for reporting and debugging.
type AuditEntry struct {
	ID            string    `db:"id"`
	ItemID        int64     `db:"item_id"`
	ConnectionRef string    `db:"connection_ref"`
	FromStatus    string    `db:"from_status"`
	ToStatus      string    `db:"to_status"`
	Event         string    `db:"event"`
	Detail        *string   `db:"detail"`
	CreatedAt     time.Time `db:"created_at"`
}
