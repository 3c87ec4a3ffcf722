package syncer

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/channelsync/sync-service/internal/database"
	"github.com/channelsync/sync-service/internal/lifecycle"
	"github.com/channelsync/sync-service/internal/marketplace"
	"github.com/channelsync/sync-service/internal/pricing"
)

// fakeStore is an in-memory Store for sweep tests.
type fakeStore struct {
	mu      sync.Mutex
	items   map[int64]*database.SyncItem
	rules   []pricing.Rule
	conns   []database.Connection
	feeds   []*database.FeedJob
	nextFee int
}

func newFakeStore() *fakeStore {
	return &fakeStore{items: make(map[int64]*database.SyncItem)}
}

func (f *fakeStore) add(item database.SyncItem) *database.SyncItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	it := item
	f.items[it.ID] = &it
	return &it
}

func (f *fakeStore) get(id int64) database.SyncItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.items[id]
}

func (f *fakeStore) SelectChunk(ctx context.Context, connectionRef string, status lifecycle.CatalogStatus, afterID int64, limit int) ([]database.SyncItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]database.SyncItem, 0)
	for _, it := range f.items {
		if it.ConnectionRef == connectionRef && it.CatalogStatus == status && it.ID > afterID && it.DeletedAt == nil {
			out = append(out, *it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) SelectRetryable(ctx context.Context, connectionRef string, olderThan time.Duration, limit int) ([]database.SyncItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	out := make([]database.SyncItem, 0)
	for _, it := range f.items {
		if it.ConnectionRef != connectionRef || it.SyncStatus != lifecycle.SyncFailed || it.DeletedAt != nil {
			continue
		}
		if it.LastSyncAttempt == nil || it.LastSyncAttempt.Before(cutoff) {
			out = append(out, *it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) Transition(ctx context.Context, item *database.SyncItem, ev lifecycle.Event, detail string) (bool, error) {
	next, err := lifecycle.Next(item.CatalogStatus, ev)
	if err != nil {
		return false, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.items[item.ID]
	if !ok || stored.CatalogStatus != item.CatalogStatus {
		return false, nil
	}
	stored.CatalogStatus = next
	item.CatalogStatus = next
	return true, nil
}

func (f *fakeStore) MarkSynced(ctx context.Context, itemID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	it := f.items[itemID]
	now := time.Now()
	it.SyncStatus = lifecycle.SyncSynced
	it.SyncError = nil
	it.SyncAttempts = 0
	it.LastSyncedAt = &now
	it.LastSyncAttempt = &now
	return nil
}

func (f *fakeStore) MarkSyncFailed(ctx context.Context, itemID int64, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	it := f.items[itemID]
	now := time.Now()
	it.SyncStatus = lifecycle.SyncFailed
	it.SyncError = &message
	it.SyncAttempts++
	it.LastSyncAttempt = &now
	return nil
}

func (f *fakeStore) MarkSyncPending(ctx context.Context, itemID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	it := f.items[itemID]
	it.SyncStatus = lifecycle.SyncPending
	it.SyncError = nil
	return nil
}

func (f *fakeStore) UpdateFinalPrice(ctx context.Context, itemID int64, price float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[itemID].FinalPrice = price
	return nil
}

func (f *fakeStore) SetExternalID(ctx context.Context, itemID int64, externalID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[itemID].ExternalID = &externalID
	return nil
}

func (f *fakeStore) RulesForPair(ctx context.Context, supplierRef, destinationRef string) ([]pricing.Rule, error) {
	return f.rules, nil
}

func (f *fakeStore) CreateFeedJob(ctx context.Context, connectionRef, externalFeedID, feedKind string, submitDocRef *string) (*database.FeedJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextFee++
	job := &database.FeedJob{
		ID:               fmt.Sprintf("feed_%04d", f.nextFee),
		ConnectionRef:    connectionRef,
		ExternalFeedID:   externalFeedID,
		FeedKind:         feedKind,
		ProcessingStatus: database.FeedStatusSubmitted,
		SubmitDocRef:     submitDocRef,
	}
	f.feeds = append(f.feeds, job)
	return job, nil
}

func (f *fakeStore) ActiveConnections(ctx context.Context) ([]database.Connection, error) {
	return f.conns, nil
}

// mockClient is a scriptable marketplace client recording every call.
type mockClient struct {
	mu    sync.Mutex
	calls []string

	searchResults map[string]*marketplace.ExternalItem
	searchErr     error
	listingErr    error
	deleteErr     error
	feedErr       error
	feedID        string
}

func newMockClient() *mockClient {
	return &mockClient{
		searchResults: make(map[string]*marketplace.ExternalItem),
		feedID:        "EXT-FEED-1",
	}
}

func (m *mockClient) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockClient) callCount(prefix string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func (m *mockClient) SearchByIdentifier(ctx context.Context, identifier string) (*marketplace.ExternalItem, error) {
	m.record("search:" + identifier)
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.searchResults[identifier], nil
}

func (m *mockClient) AddOrUpdateListing(ctx context.Context, in marketplace.ListingInput) error {
	m.record("listing:" + in.SKU)
	return m.listingErr
}

func (m *mockClient) DeleteListing(ctx context.Context, in marketplace.ListingInput) error {
	m.record("delete:" + in.SKU)
	return m.deleteErr
}

func (m *mockClient) SubmitBulkFeed(ctx context.Context, kind marketplace.FeedKind, lines []marketplace.FeedLine) (marketplace.FeedHandle, error) {
	m.record(fmt.Sprintf("feed:%s:%d", kind, len(lines)))
	if m.feedErr != nil {
		return marketplace.FeedHandle{}, m.feedErr
	}
	return marketplace.FeedHandle{FeedID: m.feedID}, nil
}

func (m *mockClient) SubmitBulkDelete(ctx context.Context, lines []marketplace.FeedLine) (marketplace.FeedHandle, error) {
	m.record(fmt.Sprintf("bulkdelete:%d", len(lines)))
	if m.feedErr != nil {
		return marketplace.FeedHandle{}, m.feedErr
	}
	return marketplace.FeedHandle{FeedID: m.feedID}, nil
}

func (m *mockClient) GetFeedStatus(ctx context.Context, feedID string) (marketplace.FeedStatus, error) {
	m.record("status:" + feedID)
	return marketplace.FeedStatus{State: marketplace.FeedStateDone}, nil
}

func (m *mockClient) FetchFeedResult(ctx context.Context, resultDocRef string) ([]byte, error) {
	m.record("result:" + resultDocRef)
	return []byte("[]"), nil
}

// testOrchestrator wires a fake store and mock client behind a registry.
func testOrchestrator(store *fakeStore, client *mockClient) (*Orchestrator, *database.Connection) {
	registry := marketplace.NewRegistry()
	registry.Register(marketplace.KindAmazon, func(cfg marketplace.ClientConfig) (marketplace.Client, error) {
		return client, nil
	})

	cfg := DefaultConfig()
	cfg.ChunkSize = 50
	cfg.BatchThreshold = 5
	cfg.RateLimit.RequestsPerSecond = 1000
	cfg.RateLimit.Burst = 1000

	conn := &database.Connection{
		Ref:             "conn-amz-1",
		SupplierRef:     "sup-1",
		MarketplaceKind: string(marketplace.KindAmazon),
		Active:          true,
	}
	return New(store, registry, cfg), conn
}
