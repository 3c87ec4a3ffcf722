package lifecycle

import (
	"fmt"
	"time"
)

// transitions is the legal edge set of the catalog lifecycle. Anything not
// listed here is an invalid transition; the graph has no cycles except the
// explicit retry edges.
var transitions = map[CatalogStatus]map[Event]CatalogStatus{
	StatusDefault: {
		EventQueue: StatusQueued,
	},
	StatusQueued: {
		EventPromote: StatusPendingCheck,
	},
	StatusPendingCheck: {
		EventFoundInRemote:     StatusInCatalog,
		EventNotFound:          StatusPendingCreation,
		EventInvalidIdentifier: StatusNotInCatalog,
	},
	StatusPendingCreation: {
		EventCreateSucceeds: StatusInCatalog,
		// Bounded retry: a failed creation stays pending for a later sweep.
		EventCreateFails: StatusPendingCreation,
	},
	StatusInCatalog: {
		EventSourceRemoved: StatusPendingDeletion,
	},
	StatusPendingDeletion: {
		EventDeleteSubmitted: StatusDeletionInProgress,
		EventDeleteSucceeds:  StatusDeleted,
		EventDeleteFails:     StatusDeletionFailed,
	},
	StatusDeletionInProgress: {
		EventDeleteSucceeds: StatusDeleted,
		EventDeleteFails:    StatusDeletionFailed,
	},
	StatusDeletionFailed: {
		EventRetryDeletion: StatusPendingDeletion,
	},
}

// InvalidTransitionError reports an attempted edge that the graph does not allow.
type InvalidTransitionError struct {
	From  CatalogStatus
	Event Event
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid catalog transition: %s --%s-->", e.From, e.Event)
}

// Next returns the status reached by applying an event to the current status.
func Next(from CatalogStatus, ev Event) (CatalogStatus, error) {
	if edges, ok := transitions[from]; ok {
		if to, ok := edges[ev]; ok {
			return to, nil
		}
	}
	return from, &InvalidTransitionError{From: from, Event: ev}
}

// Allowed reports whether an event is legal from the given status.
func Allowed(from CatalogStatus, ev Event) bool {
	_, err := Next(from, ev)
	return err == nil
}

const (
	// RetryBackoffFloor is the minimum wait before re-attempting a failed sync.
	RetryBackoffFloor = time.Hour

	// RetryBackoffCeiling caps the exponential backoff.
	RetryBackoffCeiling = 24 * time.Hour
)

// RetryBackoff returns the wait between a failed sync attempt and the next
// one: exponential from the floor, capped at the ceiling.
func RetryBackoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	backoff := RetryBackoffFloor
	for i := 1; i < attempts; i++ {
		backoff *= 2
		if backoff >= RetryBackoffCeiling {
			return RetryBackoffCeiling
		}
	}
	return backoff
}

// ShouldRetry reports whether a failed item is due for another attempt:
// sync_status must be failed and the backoff window since the last attempt
// must have elapsed. Items that never attempted are always eligible.
func ShouldRetry(status SyncStatus, attempts int, lastAttempt *time.Time, now time.Time) bool {
	if status != SyncFailed {
		return false
	}
	if lastAttempt == nil {
		return true
	}
	return now.Sub(*lastAttempt) >= RetryBackoff(attempts)
}
