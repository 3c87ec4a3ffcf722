package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextLegalEdges(t *testing.T) {
	tests := []struct {
		from CatalogStatus
		ev   Event
		to   CatalogStatus
	}{
		{StatusDefault, EventQueue, StatusQueued},
		{StatusQueued, EventPromote, StatusPendingCheck},
		{StatusPendingCheck, EventFoundInRemote, StatusInCatalog},
		{StatusPendingCheck, EventNotFound, StatusPendingCreation},
		{StatusPendingCheck, EventInvalidIdentifier, StatusNotInCatalog},
		{StatusPendingCreation, EventCreateSucceeds, StatusInCatalog},
		{StatusPendingCreation, EventCreateFails, StatusPendingCreation},
		{StatusInCatalog, EventSourceRemoved, StatusPendingDeletion},
		{StatusPendingDeletion, EventDeleteSubmitted, StatusDeletionInProgress},
		{StatusPendingDeletion, EventDeleteSucceeds, StatusDeleted},
		{StatusPendingDeletion, EventDeleteFails, StatusDeletionFailed},
		{StatusDeletionInProgress, EventDeleteSucceeds, StatusDeleted},
		{StatusDeletionInProgress, EventDeleteFails, StatusDeletionFailed},
		{StatusDeletionFailed, EventRetryDeletion, StatusPendingDeletion},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.ev), func(t *testing.T) {
			got, err := Next(tt.from, tt.ev)
			require.NoError(t, err)
			assert.Equal(t, tt.to, got)
		})
	}
}

func TestNextRejectsIllegalEdges(t *testing.T) {
	tests := []struct {
		name string
		from CatalogStatus
		ev   Event
	}{
		{"no direct jump from default to in_catalog", StatusDefault, EventFoundInRemote},
		{"deleted is terminal", StatusDeleted, EventQueue},
		{"not_in_catalog is terminal", StatusNotInCatalog, EventPromote},
		{"cannot re-queue an in_catalog item", StatusInCatalog, EventQueue},
		{"cannot delete before source removal", StatusInCatalog, EventDeleteSucceeds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Next(tt.from, tt.ev)
			require.Error(t, err)

			var invalid *InvalidTransitionError
			assert.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.from, got, "status must not move on an illegal edge")
		})
	}
}

func TestTerminal(t *testing.T) {
	assert.True(t, Terminal(StatusDeleted))
	assert.True(t, Terminal(StatusNotInCatalog))
	assert.False(t, Terminal(StatusInCatalog))
	assert.False(t, Terminal(StatusDeletionFailed))
}

func TestRetryBackoff(t *testing.T) {
	assert.Equal(t, time.Hour, RetryBackoff(0))
	assert.Equal(t, time.Hour, RetryBackoff(1))
	assert.Equal(t, 2*time.Hour, RetryBackoff(2))
	assert.Equal(t, 8*time.Hour, RetryBackoff(4))
	assert.Equal(t, 16*time.Hour, RetryBackoff(5))
	assert.Equal(t, 24*time.Hour, RetryBackoff(6), "backoff is capped at the ceiling")
	assert.Equal(t, 24*time.Hour, RetryBackoff(20))
}

func TestShouldRetry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	halfHourAgo := now.Add(-30 * time.Minute)
	twoHoursAgo := now.Add(-2 * time.Hour)

	assert.False(t, ShouldRetry(SyncSynced, 1, &twoHoursAgo, now), "synced items never retry")
	assert.False(t, ShouldRetry(SyncPending, 1, &twoHoursAgo, now), "pending items are picked up by the normal sweep")

	assert.False(t, ShouldRetry(SyncFailed, 1, &halfHourAgo, now), "inside the backoff window")
	assert.True(t, ShouldRetry(SyncFailed, 1, &twoHoursAgo, now))
	assert.False(t, ShouldRetry(SyncFailed, 2, &twoHoursAgo, now), "second failure doubles the window")
	assert.True(t, ShouldRetry(SyncFailed, 1, nil, now), "no recorded attempt means eligible")
}
