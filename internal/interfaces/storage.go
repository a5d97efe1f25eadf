package interfaces

import (
	"context"

	"github.com/ternarybob/libris/internal/models"
)

// DocumentStorage is the persistent catalog mapping filenames to chunk ids
type DocumentStorage interface {
	// Register stores a new catalog entry. Fails if the filename is already
	// present; replacement requires Remove first.
	Register(ctx context.Context, doc *models.Document) error

	// Remove deletes a catalog entry. Removing an absent filename is a no-op.
	Remove(ctx context.Context, filename string) error

	// Get returns the catalog entry for a filename
	Get(ctx context.Context, filename string) (*models.Document, error)

	// Exists reports whether a filename is registered
	Exists(ctx context.Context, filename string) (bool, error)

	// List returns all catalog entries ordered by filename
	List(ctx context.Context) ([]models.Document, error)

	// Count returns the number of registered documents
	Count(ctx context.Context) (int, error)
}

// SnapshotStorage persists the serialized vector index as a single record.
// Save replaces the previous snapshot atomically.
type SnapshotStorage interface {
	Save(ctx context.Context, data []byte) error

	// Load returns the stored snapshot, or nil when none exists
	Load(ctx context.Context) ([]byte, error)
}

// StorageManager aggregates the storage backends
type StorageManager interface {
	DocumentStorage() DocumentStorage
	SnapshotStorage() SnapshotStorage
	Close() error
}
