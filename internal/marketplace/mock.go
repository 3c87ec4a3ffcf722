package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// KindMock is an in-process marketplace backed by maps. It is registered by
// default so local environments and end-to-end runs can exercise the full
// sweep and reconcile path without marketplace credentials.
const KindMock Kind = "mock"

func init() {
	Register(KindMock, func(cfg ClientConfig) (Client, error) {
		return NewMockClient(), nil
	})
}

// MockClient implements Client against in-memory state. Every submitted feed
// reports IN_PROGRESS on the first status poll and DONE afterwards, with a
// Success result line per submitted feed line.
type MockClient struct {
	mu       sync.Mutex
	catalog  map[string]ExternalItem
	listings map[string]ListingInput
	feeds    map[string]*mockFeed
	nextFeed int
}

type mockFeed struct {
	kind  FeedKind
	lines []FeedLine
	polls int
}

// NewMockClient creates a MockClient with an empty remote catalog.
func NewMockClient() *MockClient {
	return &MockClient{
		catalog:  make(map[string]ExternalItem),
		listings: make(map[string]ListingInput),
		feeds:    make(map[string]*mockFeed),
	}
}

// SeedCatalogItem adds an entry the mock will report on identifier search.
func (m *MockClient) SeedCatalogItem(identifier string, item ExternalItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalog[identifier] = item
}

// Listing returns the current listing stored under the SKU, if any.
func (m *MockClient) Listing(sku string) (ListingInput, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.listings[sku]
	return in, ok
}

func (m *MockClient) SearchByIdentifier(ctx context.Context, identifier string) (*ExternalItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if item, ok := m.catalog[identifier]; ok {
		found := item
		return &found, nil
	}
	return nil, nil
}

func (m *MockClient) AddOrUpdateListing(ctx context.Context, in ListingInput) error {
	if in.SKU == "" {
		return Validation("add_listing", "missing sku")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listings[in.SKU] = in
	return nil
}

func (m *MockClient) DeleteListing(ctx context.Context, in ListingInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.listings[in.SKU]; !ok {
		return Validation("delete_listing", "unknown sku "+in.SKU)
	}
	delete(m.listings, in.SKU)
	return nil
}

func (m *MockClient) SubmitBulkFeed(ctx context.Context, kind FeedKind, lines []FeedLine) (FeedHandle, error) {
	if len(lines) == 0 {
		return FeedHandle{}, Validation("submit_feed", "empty feed")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextFeed++
	id := fmt.Sprintf("MOCK-FEED-%04d", m.nextFeed)
	m.feeds[id] = &mockFeed{kind: kind, lines: lines}
	return FeedHandle{FeedID: id}, nil
}

func (m *MockClient) SubmitBulkDelete(ctx context.Context, lines []FeedLine) (FeedHandle, error) {
	handle, err := m.SubmitBulkFeed(ctx, FeedCatalogDelete, lines)
	if err != nil {
		return FeedHandle{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, line := range lines {
		delete(m.listings, line.SKU)
	}
	return handle, nil
}

func (m *MockClient) GetFeedStatus(ctx context.Context, feedID string) (FeedStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	feed, ok := m.feeds[feedID]
	if !ok {
		return FeedStatus{}, Fatal("feed_status", "unknown feed "+feedID, nil)
	}
	feed.polls++
	if feed.polls == 1 {
		return FeedStatus{State: FeedStateInProgress}, nil
	}
	for _, line := range feed.lines {
		if feed.kind != FeedCatalogDelete {
			m.listings[line.SKU] = ListingInput{SKU: line.SKU, Price: line.Price, Quantity: line.Quantity}
		}
	}
	return FeedStatus{State: FeedStateDone, ResultDocRef: "mock-results/" + feedID}, nil
}

func (m *MockClient) FetchFeedResult(ctx context.Context, resultDocRef string) ([]byte, error) {
	const prefix = "mock-results/"
	if len(resultDocRef) <= len(prefix) || resultDocRef[:len(prefix)] != prefix {
		return nil, Fatal("fetch_result", "unknown result document "+resultDocRef, nil)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	feed, ok := m.feeds[resultDocRef[len(prefix):]]
	if !ok {
		return nil, Fatal("fetch_result", "unknown result document "+resultDocRef, nil)
	}
	results := make([]ResultLine, 0, len(feed.lines))
	for _, line := range feed.lines {
		results = append(results, ResultLine{SKU: line.SKU, Code: ResultSuccess})
	}
	return json.Marshal(results)
}
