package badger

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/libris/internal/common"
	"github.com/ternarybob/libris/internal/interfaces"
)

// Manager aggregates the BadgerDB-backed storage services
type Manager struct {
	db        *BadgerDB
	documents *DocumentStorage
	snapshots *SnapshotStorage
	logger    arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.StorageManager = (*Manager)(nil)

// NewManager creates the storage manager and opens the database
func NewManager(logger arbor.ILogger, config *common.Config) (*Manager, error) {
	db, err := NewBadgerDB(logger, &config.Storage.Badger)
	if err != nil {
		return nil, err
	}

	return &Manager{
		db:        db,
		documents: NewDocumentStorage(db, logger),
		snapshots: NewSnapshotStorage(db, logger),
		logger:    logger,
	}, nil
}

// DocumentStorage returns the document catalog
func (m *Manager) DocumentStorage() interfaces.DocumentStorage {
	return m.documents
}

// SnapshotStorage returns the index snapshot storage
func (m *Manager) SnapshotStorage() interfaces.SnapshotStorage {
	return m.snapshots
}

// Close closes the database connection
func (m *Manager) Close() error {
	return m.db.Close()
}
