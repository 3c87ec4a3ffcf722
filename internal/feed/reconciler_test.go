package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/channelsync/sync-service/internal/database"
	"github.com/channelsync/sync-service/internal/lifecycle"
	"github.com/channelsync/sync-service/internal/marketplace"
	"github.com/channelsync/sync-service/internal/storage"
)

// fakeStore is an in-memory Store for reconciler tests.
type fakeStore struct {
	jobs  map[string]*database.FeedJob
	items map[string]*database.SyncItem
	conns map[string]*database.Connection
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		jobs:  make(map[string]*database.FeedJob),
		items: make(map[string]*database.SyncItem),
		conns: make(map[string]*database.Connection),
	}
}

func (f *fakeStore) GetFeedJob(ctx context.Context, id string) (*database.FeedJob, error) {
	if j, ok := f.jobs[id]; ok {
		copied := *j
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeStore) PendingFeedJobs(ctx context.Context, connectionRef string, limit int) ([]database.FeedJob, error) {
	out := make([]database.FeedJob, 0)
	for _, j := range f.jobs {
		if j.ConnectionRef == connectionRef && !database.TerminalFeedStatus(j.ProcessingStatus) {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (f *fakeStore) MarkFeedJobInProgress(ctx context.Context, id string) error {
	f.jobs[id].ProcessingStatus = database.FeedStatusInProgress
	return nil
}

func (f *fakeStore) SetFeedJobResultDoc(ctx context.Context, id, resultDocRef string) error {
	f.jobs[id].ResultDocRef = &resultDocRef
	return nil
}

func (f *fakeStore) FinishFeedJob(ctx context.Context, id, status string, counts database.FeedJobCounts, errorsPayload any) (bool, error) {
	j := f.jobs[id]
	if database.TerminalFeedStatus(j.ProcessingStatus) {
		return false, nil
	}
	j.ProcessingStatus = status
	j.Processed = counts.Processed
	j.Successful = counts.Successful
	j.Errored = counts.Errored
	j.Warned = counts.Warned
	if errorsPayload != nil {
		payload, err := json.Marshal(errorsPayload)
		if err != nil {
			return false, err
		}
		j.ErrorsPayload = payload
	}
	return true, nil
}

func (f *fakeStore) GetConnection(ctx context.Context, ref string) (*database.Connection, error) {
	return f.conns[ref], nil
}

func (f *fakeStore) GetItemBySKU(ctx context.Context, connectionRef, sku string) (*database.SyncItem, error) {
	if it, ok := f.items[connectionRef+"/"+sku]; ok {
		copied := *it
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeStore) MarkSynced(ctx context.Context, itemID int64) error {
	for _, it := range f.items {
		if it.ID == itemID {
			it.SyncStatus = lifecycle.SyncSynced
			it.SyncError = nil
		}
	}
	return nil
}

func (f *fakeStore) MarkSyncFailed(ctx context.Context, itemID int64, message string) error {
	for _, it := range f.items {
		if it.ID == itemID {
			it.SyncStatus = lifecycle.SyncFailed
			it.SyncError = &message
		}
	}
	return nil
}

func (f *fakeStore) Transition(ctx context.Context, item *database.SyncItem, ev lifecycle.Event, detail string) (bool, error) {
	next, err := lifecycle.Next(item.CatalogStatus, ev)
	if err != nil {
		return false, err
	}
	for _, it := range f.items {
		if it.ID == item.ID {
			it.CatalogStatus = next
		}
	}
	item.CatalogStatus = next
	return true, nil
}

// pollClient scripts a sequence of feed status responses.
type pollClient struct {
	statuses    []marketplace.FeedStatus
	polls       int
	resultDoc   []byte
	resultCalls int
}

func (p *pollClient) GetFeedStatus(ctx context.Context, feedID string) (marketplace.FeedStatus, error) {
	idx := p.polls
	p.polls++
	if idx >= len(p.statuses) {
		return p.statuses[len(p.statuses)-1], nil
	}
	return p.statuses[idx], nil
}

func (p *pollClient) FetchFeedResult(ctx context.Context, resultDocRef string) ([]byte, error) {
	p.resultCalls++
	return p.resultDoc, nil
}

func (p *pollClient) SearchByIdentifier(ctx context.Context, identifier string) (*marketplace.ExternalItem, error) {
	return nil, nil
}
func (p *pollClient) AddOrUpdateListing(ctx context.Context, in marketplace.ListingInput) error {
	return nil
}
func (p *pollClient) DeleteListing(ctx context.Context, in marketplace.ListingInput) error {
	return nil
}
func (p *pollClient) SubmitBulkFeed(ctx context.Context, kind marketplace.FeedKind, lines []marketplace.FeedLine) (marketplace.FeedHandle, error) {
	return marketplace.FeedHandle{}, nil
}
func (p *pollClient) SubmitBulkDelete(ctx context.Context, lines []marketplace.FeedLine) (marketplace.FeedHandle, error) {
	return marketplace.FeedHandle{}, nil
}

func testReconciler(store *fakeStore, client marketplace.Client) *Reconciler {
	resolver := func(conn *database.Connection) (marketplace.Client, error) {
		return client, nil
	}
	cfg := Config{PollInterval: time.Millisecond, MaxAttempts: 30}
	return New(store, resolver, cfg)
}

func seedJob(store *fakeStore, kind marketplace.FeedKind) *database.FeedJob {
	store.conns["conn-amz-1"] = &database.Connection{
		Ref:             "conn-amz-1",
		SupplierRef:     "sup-1",
		MarketplaceKind: string(marketplace.KindAmazon),
		Active:          true,
	}
	job := &database.FeedJob{
		ID:               "feed_0001",
		ConnectionRef:    "conn-amz-1",
		ExternalFeedID:   "EXT-1",
		FeedKind:         string(kind),
		ProcessingStatus: database.FeedStatusSubmitted,
	}
	store.jobs[job.ID] = job
	return job
}

func seedItem(store *fakeStore, id int64, sku string, status lifecycle.CatalogStatus) {
	store.items["conn-amz-1/"+sku] = &database.SyncItem{
		ID:            id,
		ConnectionRef: "conn-amz-1",
		SKU:           sku,
		CatalogStatus: status,
		SyncStatus:    lifecycle.SyncPending,
	}
}

func TestReconcileThreePollsToDone(t *testing.T) {
	store := newFakeStore()
	seedJob(store, marketplace.FeedListingCreate)
	seedItem(store, 1, "SKU-A", lifecycle.StatusPendingCreation)
	seedItem(store, 2, "SKU-B", lifecycle.StatusPendingCreation)

	resultDoc, _ := json.Marshal([]marketplace.ResultLine{
		{SKU: "SKU-A", Code: marketplace.ResultSuccess},
		{SKU: "SKU-B", Code: marketplace.ResultError, Message: "missing attribute: brand"},
	})
	client := &pollClient{
		statuses: []marketplace.FeedStatus{
			{State: marketplace.FeedStateInProgress},
			{State: marketplace.FeedStateInProgress},
			{State: marketplace.FeedStateDone, ResultDocRef: "DOC-1"},
		},
		resultDoc: resultDoc,
	}

	job, err := testReconciler(store, client).Reconcile(context.Background(), "feed_0001")
	require.NoError(t, err)

	assert.Equal(t, 3, client.polls)
	assert.Equal(t, database.FeedStatusDone, job.ProcessingStatus)
	assert.Equal(t, 2, job.Processed)
	assert.Equal(t, 1, job.Successful)
	assert.Equal(t, 1, job.Errored)

	a := store.items["conn-amz-1/SKU-A"]
	assert.Equal(t, lifecycle.StatusInCatalog, a.CatalogStatus)
	assert.Equal(t, lifecycle.SyncSynced, a.SyncStatus)

	b := store.items["conn-amz-1/SKU-B"]
	assert.Equal(t, lifecycle.SyncFailed, b.SyncStatus)
	require.NotNil(t, b.SyncError)
	assert.Equal(t, "missing attribute: brand", *b.SyncError)
}

func TestReconcileTimeoutLeavesItemsPending(t *testing.T) {
	store := newFakeStore()
	seedJob(store, marketplace.FeedPriceQuantity)
	seedItem(store, 1, "SKU-A", lifecycle.StatusInCatalog)

	client := &pollClient{statuses: []marketplace.FeedStatus{{State: marketplace.FeedStateInProgress}}}

	r := testReconciler(store, client)
	r.cfg.MaxAttempts = 30

	job, err := r.Reconcile(context.Background(), "feed_0001")
	require.NoError(t, err)

	assert.Equal(t, 30, client.polls)
	assert.Equal(t, database.FeedStatusTimeout, job.ProcessingStatus)
	assert.Equal(t, lifecycle.SyncPending, store.items["conn-amz-1/SKU-A"].SyncStatus,
		"timed-out feeds must not mark items failed")
}

func TestReconcileMalformedLineSkipped(t *testing.T) {
	store := newFakeStore()
	seedJob(store, marketplace.FeedPriceQuantity)

	lines := make([]marketplace.ResultLine, 0, 100)
	lines = append(lines, marketplace.ResultLine{Code: marketplace.ResultSuccess}) // missing SKU
	for i := 0; i < 99; i++ {
		sku := fmt.Sprintf("SKU-%03d", i)
		seedItem(store, int64(i+1), sku, lifecycle.StatusInCatalog)
		lines = append(lines, marketplace.ResultLine{SKU: sku, Code: marketplace.ResultSuccess})
	}
	resultDoc, _ := json.Marshal(lines)

	client := &pollClient{
		statuses:  []marketplace.FeedStatus{{State: marketplace.FeedStateDone, ResultDocRef: "DOC-1"}},
		resultDoc: resultDoc,
	}

	job, err := testReconciler(store, client).Reconcile(context.Background(), "feed_0001")
	require.NoError(t, err)

	assert.Equal(t, database.FeedStatusDone, job.ProcessingStatus)
	assert.Equal(t, 99, job.Processed, "the SKU-less line is skipped, not fatal")
	assert.Equal(t, 99, job.Successful)
}

func TestReconcileResumesFromResultDoc(t *testing.T) {
	store := newFakeStore()
	job := seedJob(store, marketplace.FeedPriceQuantity)
	job.ProcessingStatus = database.FeedStatusInProgress
	docRef := "DOC-1"
	job.ResultDocRef = &docRef
	seedItem(store, 1, "SKU-A", lifecycle.StatusInCatalog)

	resultDoc, _ := json.Marshal([]marketplace.ResultLine{{SKU: "SKU-A", Code: marketplace.ResultSuccess}})
	client := &pollClient{
		statuses:  []marketplace.FeedStatus{{State: marketplace.FeedStateInProgress}},
		resultDoc: resultDoc,
	}

	got, err := testReconciler(store, client).Reconcile(context.Background(), "feed_0001")
	require.NoError(t, err)

	assert.Zero(t, client.polls, "resume path skips polling entirely")
	assert.Equal(t, 1, client.resultCalls)
	assert.Equal(t, database.FeedStatusDone, got.ProcessingStatus)
	assert.Equal(t, lifecycle.SyncSynced, store.items["conn-amz-1/SKU-A"].SyncStatus)
}

func TestReconcileTerminalJobUnchanged(t *testing.T) {
	store := newFakeStore()
	job := seedJob(store, marketplace.FeedPriceQuantity)
	job.ProcessingStatus = database.FeedStatusDone

	client := &pollClient{statuses: []marketplace.FeedStatus{{State: marketplace.FeedStateInProgress}}}

	got, err := testReconciler(store, client).Reconcile(context.Background(), "feed_0001")
	require.NoError(t, err)
	assert.Equal(t, database.FeedStatusDone, got.ProcessingStatus)
	assert.Zero(t, client.polls)
}

func TestReconcileCancelledFansSharedFailure(t *testing.T) {
	store := newFakeStore()
	docs, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	job := seedJob(store, marketplace.FeedPriceQuantity)
	submitKey := "feeds/conn-amz-1/2025-03-01/EXT-1/submit.json"
	payload, _ := json.Marshal([]marketplace.FeedLine{{SKU: "SKU-A"}, {SKU: "SKU-B"}})
	require.NoError(t, docs.Put(context.Background(), submitKey, payload, nil))
	job.SubmitDocRef = &submitKey

	seedItem(store, 1, "SKU-A", lifecycle.StatusInCatalog)
	seedItem(store, 2, "SKU-B", lifecycle.StatusInCatalog)

	client := &pollClient{statuses: []marketplace.FeedStatus{{State: marketplace.FeedStateCancelled}}}

	r := testReconciler(store, client).WithDocStore(docs)
	got, err := r.Reconcile(context.Background(), "feed_0001")
	require.NoError(t, err)

	assert.Equal(t, database.FeedStatusCancelled, got.ProcessingStatus)
	for _, sku := range []string{"SKU-A", "SKU-B"} {
		it := store.items["conn-amz-1/"+sku]
		assert.Equal(t, lifecycle.SyncFailed, it.SyncStatus)
		require.NotNil(t, it.SyncError)
		assert.NotEmpty(t, *it.SyncError)
	}
}

func TestDecodeResultLines(t *testing.T) {
	t.Run("array", func(t *testing.T) {
		lines, err := DecodeResultLines([]byte(`[{"sku":"A","resultCode":"Success"},{"sku":"B","resultCode":"Error","message":"bad"}]`))
		require.NoError(t, err)
		require.Len(t, lines, 2)
		assert.Equal(t, marketplace.ResultError, lines[1].Code)
	})

	t.Run("single object normalized to array-of-one", func(t *testing.T) {
		lines, err := DecodeResultLines([]byte(`{"sku":"A","resultCode":"Success"}`))
		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.Equal(t, "A", lines[0].SKU)
	})

	t.Run("gzipped document", func(t *testing.T) {
		compressed, err := storage.Gzip([]byte(`[{"sku":"A","resultCode":"Success"}]`))
		require.NoError(t, err)
		lines, err := DecodeResultLines(compressed)
		require.NoError(t, err)
		require.Len(t, lines, 1)
	})

	t.Run("empty document", func(t *testing.T) {
		lines, err := DecodeResultLines(nil)
		require.NoError(t, err)
		assert.Empty(t, lines)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := DecodeResultLines([]byte("<xml>nope</xml>"))
		assert.Error(t, err)
	})
}
