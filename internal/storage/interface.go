package storage

import (
	"context"
	"time"
)

// Metadata describes a stored feed document.
type Metadata struct {
	ContentType   string            `json:"contentType,omitempty"`
	ConnectionRef string            `json:"connectionRef,omitempty"`
	FeedJobID     string            `json:"feedJobId,omitempty"`
	SourceURL     string            `json:"sourceUrl,omitempty"`
	FetchedAt     time.Time         `json:"fetchedAt,omitempty"`
	Compressed    bool              `json:"compressed,omitempty"`
	Custom        map[string]string `json:"custom,omitempty"`
}

// FileInfo contains information about a stored document
type FileInfo struct {
	Key         string    `json:"key"`
	Size        int64     `json:"size"`
	Checksum    string    `json:"checksum"`
	ContentType string    `json:"contentType,omitempty"`
	ModifiedAt  time.Time `json:"modifiedAt"`
	Metadata    *Metadata `json:"metadata,omitempty"`
}

// Storage defines the interface for document storage operations.
// Implementations can be local filesystem, S3, GCS, etc.
type Storage interface {
	// Put stores content at the given key with optional metadata
	Put(ctx context.Context, key string, content []byte, metadata *Metadata) error

	// Get retrieves content from the given key
	Get(ctx context.Context, key string) ([]byte, error)

	// GetInfo retrieves file information without content
	GetInfo(ctx context.Context, key string) (*FileInfo, error)

	// Exists checks if a file exists at the given key
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes a file at the given key
	Delete(ctx context.Context, key string) error

	// List returns all keys matching the given prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// GetChecksum returns the checksum for a file (without reading full content)
	GetChecksum(ctx context.Context, key string) (string, error)
}

// StorageType represents the type of storage backend
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
)
