package badger

import (
	"context"
	"errors"
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/libris/internal/interfaces"
)

// snapshotKey is the single record holding the serialized vector index
var snapshotKey = []byte("libris_index_snapshot")

// SnapshotStorage persists the vector index snapshot in a single Badger
// record. Each Save runs in one transaction, so readers never observe a
// partial snapshot and a crash mid-write leaves the previous one intact.
type SnapshotStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.SnapshotStorage = (*SnapshotStorage)(nil)

// NewSnapshotStorage creates a new snapshot storage instance
func NewSnapshotStorage(db *BadgerDB, logger arbor.ILogger) *SnapshotStorage {
	return &SnapshotStorage{
		db:     db,
		logger: logger,
	}
}

// Save atomically replaces the stored snapshot
func (s *SnapshotStorage) Save(ctx context.Context, data []byte) error {
	err := s.db.Store().Badger().Update(func(txn *badgerdb.Txn) error {
		return txn.Set(snapshotKey, data)
	})
	if err != nil {
		return fmt.Errorf("failed to write index snapshot: %w", err)
	}

	s.logger.Debug().Int("bytes", len(data)).Msg("Index snapshot written")
	return nil
}

// Load returns the stored snapshot, or nil when none exists
func (s *SnapshotStorage) Load(ctx context.Context) ([]byte, error) {
	var data []byte
	err := s.db.Store().Badger().View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(snapshotKey)
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read index snapshot: %w", err)
	}
	return data, nil
}
