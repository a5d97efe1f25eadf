package badger

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/libris/internal/common"
	"github.com/ternarybob/libris/internal/interfaces"
	"github.com/ternarybob/libris/internal/models"
)

// DocumentStorage is the BadgerDB-backed document catalog
type DocumentStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.DocumentStorage = (*DocumentStorage)(nil)

// NewDocumentStorage creates a new document storage instance
func NewDocumentStorage(db *BadgerDB, logger arbor.ILogger) *DocumentStorage {
	return &DocumentStorage{
		db:     db,
		logger: logger,
	}
}

// Register stores a new catalog entry. A filename that is already present
// is an invariant violation; replacement requires Remove first.
func (s *DocumentStorage) Register(ctx context.Context, doc *models.Document) error {
	err := s.db.Store().Insert(doc.Filename, doc)
	if err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return common.NewConsistencyError(fmt.Sprintf("document %q is already registered", doc.Filename), nil)
		}
		return fmt.Errorf("failed to register document %s: %w", doc.Filename, err)
	}

	s.logger.Debug().
		Str("filename", doc.Filename).
		Int("chunks", doc.ChunkCount).
		Msg("Document registered")
	return nil
}

// Remove deletes a catalog entry. Removing an absent filename is a no-op.
func (s *DocumentStorage) Remove(ctx context.Context, filename string) error {
	err := s.db.Store().Delete(filename, &models.Document{})
	if err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to remove document %s: %w", filename, err)
	}

	s.logger.Debug().Str("filename", filename).Msg("Document removed from catalog")
	return nil
}

// Get returns the catalog entry for a filename
func (s *DocumentStorage) Get(ctx context.Context, filename string) (*models.Document, error) {
	var doc models.Document
	err := s.db.Store().Get(filename, &doc)
	if err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, common.NewNotFoundError("document", filename)
		}
		return nil, fmt.Errorf("failed to get document %s: %w", filename, err)
	}
	return &doc, nil
}

// Exists reports whether a filename is registered
func (s *DocumentStorage) Exists(ctx context.Context, filename string) (bool, error) {
	_, err := s.Get(ctx, filename)
	if err != nil {
		if common.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// List returns all catalog entries ordered by filename
func (s *DocumentStorage) List(ctx context.Context) ([]models.Document, error) {
	var docs []models.Document
	if err := s.db.Store().Find(&docs, nil); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	sort.Slice(docs, func(a, b int) bool {
		return docs[a].Filename < docs[b].Filename
	})
	return docs, nil
}

// Count returns the number of registered documents
func (s *DocumentStorage) Count(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Document{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return int(count), nil
}
