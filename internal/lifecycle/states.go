// Package lifecycle owns the per-item catalog lifecycle: the catalog_status
// transition graph, the sync_status flags, and the retry backoff policy.
package lifecycle

// CatalogStatus is an item's position in the listing lifecycle.
type CatalogStatus string

const (
	StatusDefault            CatalogStatus = "default"
	StatusQueued             CatalogStatus = "queued"
	StatusPendingCheck       CatalogStatus = "pending_check"
	StatusPendingCreation    CatalogStatus = "pending_creation"
	StatusInCatalog          CatalogStatus = "in_catalog"
	StatusPendingDeletion    CatalogStatus = "pending_deletion"
	StatusDeletionInProgress CatalogStatus = "deletion_in_progress"
	StatusDeleted            CatalogStatus = "deleted"
	StatusDeletionFailed     CatalogStatus = "deletion_failed"
	StatusNotInCatalog       CatalogStatus = "not_in_catalog"
)

// SyncStatus reflects the outcome of the last sync operation, independent of
// where the item sits in the catalog lifecycle.
type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncSynced  SyncStatus = "synced"
	SyncFailed  SyncStatus = "failed"
)

// Event names a transition trigger in the lifecycle graph.
type Event string

const (
	EventQueue              Event = "queue"
	EventPromote            Event = "promote"
	EventFoundInRemote      Event = "found_in_remote_catalog"
	EventNotFound           Event = "not_found"
	EventInvalidIdentifier  Event = "invalid_identifier"
	EventCreateSucceeds     Event = "create_succeeds"
	EventCreateFails        Event = "create_fails"
	EventSourceRemoved      Event = "source_removed"
	EventDeleteSubmitted    Event = "delete_submitted"
	EventDeleteSucceeds     Event = "delete_succeeds"
	EventDeleteFails        Event = "delete_fails"
	EventRetryDeletion      Event = "retry_deletion"
)

// Terminal reports whether a status leaves the lifecycle graph. Terminal
// items need operator intervention to re-enter it.
func Terminal(s CatalogStatus) bool {
	return s == StatusDeleted || s == StatusNotInCatalog
}

// Valid reports whether s is a known catalog status.
func Valid(s CatalogStatus) bool {
	switch s {
	case StatusDefault, StatusQueued, StatusPendingCheck, StatusPendingCreation,
		StatusInCatalog, StatusPendingDeletion, StatusDeletionInProgress,
		StatusDeleted, StatusDeletionFailed, StatusNotInCatalog:
		return true
	}
	return false
}
