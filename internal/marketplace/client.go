// Package marketplace defines the capability interface the sync engine uses
// to talk to downstream sales channels, plus the shared wire types for
// listings, bulk feeds and feed results.
package marketplace

import "context"

// Kind identifies a marketplace implementation in the registry.
type Kind string

const (
	KindAmazon  Kind = "amazon"
	KindWalmart Kind = "walmart"
)

// ExternalItem is a remote catalog entry discovered by identifier search.
type ExternalItem struct {
	ExternalID string `json:"externalId"`
	Title      string `json:"title,omitempty"`
	Identifier string `json:"identifier,omitempty"`
}

// ListingInput carries one item's listing data for a per-item call.
type ListingInput struct {
	SKU        string  `json:"sku"`
	ExternalID string  `json:"externalId,omitempty"`
	Identifier string  `json:"identifier,omitempty"`
	Price      float64 `json:"price"`
	Quantity   int     `json:"quantity"`
}

// FeedKind is the bulk operation a feed performs.
type FeedKind string

const (
	FeedPriceQuantity FeedKind = "price_quantity_update"
	FeedListingCreate FeedKind = "listing_create"
	FeedCatalogDelete FeedKind = "catalog_item_delete"
)

// FeedLine is one item's entry in a bulk feed payload.
type FeedLine struct {
	SKU      string  `json:"sku"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// FeedHandle references a submitted bulk feed on the remote side.
type FeedHandle struct {
	FeedID string `json:"feedId"`
}

// FeedState is the remote processing state of a bulk feed.
type FeedState string

const (
	FeedStateSubmitted  FeedState = "SUBMITTED"
	FeedStateInProgress FeedState = "IN_PROGRESS"
	FeedStateDone       FeedState = "DONE"
	FeedStateCancelled  FeedState = "CANCELLED"
	FeedStateFatal      FeedState = "FATAL"
)

// TerminalFeedState reports whether the remote feed has finished processing.
func TerminalFeedState(s FeedState) bool {
	return s == FeedStateDone || s == FeedStateCancelled || s == FeedStateFatal
}

// FeedStatus is a poll result for a submitted feed.
type FeedStatus struct {
	State        FeedState `json:"state"`
	ResultDocRef string    `json:"resultDocRef,omitempty"`
}

// ResultCode classifies one line of a feed processing report.
type ResultCode string

const (
	ResultSuccess ResultCode = "Success"
	ResultError   ResultCode = "Error"
	ResultWarning ResultCode = "Warning"
)

// ResultLine is a single per-item entry of a feed processing report.
type ResultLine struct {
	SKU     string     `json:"sku"`
	Code    ResultCode `json:"resultCode"`
	Message string     `json:"message,omitempty"`
}

// Client is the marketplace capability consumed by the sync engine.
//
// Implementations own wire-level concerns (signing, token refresh,
// serialization). SearchByIdentifier returns (nil, nil) on a clean no-match;
// errors carry an ErrorKind so the orchestrator can apply differentiated
// retry policy. FetchFeedResult returns the raw result document; the feed
// reconciler decodes it (some marketplaces serve it gzipped and flip between
// an object and an array-of-one for single-line reports).
type Client interface {
	SearchByIdentifier(ctx context.Context, identifier string) (*ExternalItem, error)
	AddOrUpdateListing(ctx context.Context, in ListingInput) error
	DeleteListing(ctx context.Context, in ListingInput) error
	SubmitBulkFeed(ctx context.Context, kind FeedKind, lines []FeedLine) (FeedHandle, error)
	SubmitBulkDelete(ctx context.Context, lines []FeedLine) (FeedHandle, error)
	GetFeedStatus(ctx context.Context, feedID string) (FeedStatus, error)
	FetchFeedResult(ctx context.Context, resultDocRef string) ([]byte, error)
}
