package vectorindex

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/libris/internal/common"
	"github.com/ternarybob/libris/internal/interfaces"
)

// Entry is a single embedded chunk held by the index
type Entry struct {
	ChunkID  string    `json:"chunk_id"`
	Document string    `json:"document"`
	Position int       `json:"position"`
	Text     string    `json:"text"`
	Vector   []float32 `json:"vector"`
}

// SearchResult is an entry with its similarity score
type SearchResult struct {
	Entry
	Score float32
}

// snapshot is the persisted form of the index. Entries keep insertion order
// so tie-breaking survives a restart.
type snapshot struct {
	Dimension  int     `json:"dimension"`
	EmbedModel string  `json:"embed_model"`
	Entries    []Entry `json:"entries"`
}

type indexEntry struct {
	Entry
	deleted bool
}

// Index is a flat in-memory inner-product index over unit vectors.
// Mutations go through the owning service; the internal lock only protects
// against concurrent readers.
type Index struct {
	mu         sync.RWMutex
	dimension  int
	embedModel string
	entries    []indexEntry
	byID       map[string]int
	storage    interfaces.SnapshotStorage
	logger     arbor.ILogger
}

// New creates an empty index for vectors of the given dimension
func New(dimension int, embedModel string, storage interfaces.SnapshotStorage, logger arbor.ILogger) *Index {
	return &Index{
		dimension:  dimension,
		embedModel: embedModel,
		byID:       make(map[string]int),
		storage:    storage,
		logger:     logger,
	}
}

// Dimension returns the vector dimension the index accepts
func (i *Index) Dimension() int {
	return i.dimension
}

// Count returns the number of live entries
func (i *Index) Count() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.entries)
}

// Insert adds an entry. A duplicate chunk id or a vector of the wrong
// dimension is an invariant violation, never a silent overwrite.
func (i *Index) Insert(entry Entry) error {
	if len(entry.Vector) != i.dimension {
		return common.NewConsistencyError(
			fmt.Sprintf("vector dimension %d does not match index dimension %d", len(entry.Vector), i.dimension), nil)
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if _, exists := i.byID[entry.ChunkID]; exists {
		return common.NewConsistencyError(fmt.Sprintf("chunk id %s already indexed", entry.ChunkID), nil)
	}

	i.entries = append(i.entries, indexEntry{Entry: entry})
	i.byID[entry.ChunkID] = len(i.entries) - 1
	return nil
}

// Search returns the top k entries by inner product, ties broken by
// insertion order. k larger than the index returns everything; an empty
// index returns an empty slice.
func (i *Index) Search(vector []float32, k int) ([]SearchResult, error) {
	if len(vector) != i.dimension {
		return nil, common.NewConsistencyError(
			fmt.Sprintf("query dimension %d does not match index dimension %d", len(vector), i.dimension), nil)
	}
	if k <= 0 {
		return []SearchResult{}, nil
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	type candidate struct {
		order int
		score float32
	}
	candidates := make([]candidate, 0, len(i.entries))
	for order, entry := range i.entries {
		if entry.deleted {
			continue
		}
		candidates = append(candidates, candidate{order: order, score: dot(vector, entry.Vector)})
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		if candidates[a].score != candidates[b].score {
			return candidates[a].score > candidates[b].score
		}
		return candidates[a].order < candidates[b].order
	})

	if k > len(candidates) {
		k = len(candidates)
	}

	results := make([]SearchResult, 0, k)
	for _, c := range candidates[:k] {
		results = append(results, SearchResult{Entry: i.entries[c.order].Entry, Score: c.score})
	}
	return results, nil
}

// DeleteByDocument removes every entry belonging to the document and
// returns the count removed. Entries are tombstoned first, then the flat
// storage is rebuilt without them.
func (i *Index) DeleteByDocument(document string) int {
	i.mu.Lock()
	defer i.mu.Unlock()

	removed := 0
	for idx := range i.entries {
		if i.entries[idx].Document == document {
			i.entries[idx].deleted = true
			removed++
		}
	}
	if removed > 0 {
		i.rebuild()
	}
	return removed
}

// Reset drops every entry, leaving an empty index
func (i *Index) Reset() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.entries = nil
	i.byID = make(map[string]int)
}

// rebuild drops tombstoned entries, preserving insertion order of the rest.
// Caller holds the write lock.
func (i *Index) rebuild() {
	live := make([]indexEntry, 0, len(i.entries))
	byID := make(map[string]int, len(i.entries))
	for _, entry := range i.entries {
		if entry.deleted {
			continue
		}
		live = append(live, entry)
		byID[entry.ChunkID] = len(live) - 1
	}
	i.entries = live
	i.byID = byID
}

// Persist writes the current index state through the snapshot storage.
// The storage replaces the previous snapshot atomically.
func (i *Index) Persist(ctx context.Context) error {
	i.mu.RLock()
	snap := snapshot{
		Dimension:  i.dimension,
		EmbedModel: i.embedModel,
		Entries:    make([]Entry, 0, len(i.entries)),
	}
	for _, entry := range i.entries {
		if !entry.deleted {
			snap.Entries = append(snap.Entries, entry.Entry)
		}
	}
	i.mu.RUnlock()

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode index snapshot: %w", err)
	}

	if err := i.storage.Save(ctx, data); err != nil {
		return fmt.Errorf("failed to save index snapshot: %w", err)
	}

	i.logger.Debug().Int("entries", len(snap.Entries)).Msg("Index snapshot persisted")
	return nil
}

// Load restores the index from its snapshot. A missing snapshot leaves the
// index empty; a corrupt or mismatched snapshot resets to empty with a loud
// log instead of crashing.
func (i *Index) Load(ctx context.Context) error {
	data, err := i.storage.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load index snapshot: %w", err)
	}
	if data == nil {
		i.logger.Debug().Msg("No index snapshot found, starting empty")
		return nil
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		i.logger.Error().Err(err).Msg("Index snapshot is corrupt, resetting to empty index")
		return nil
	}
	if snap.Dimension != i.dimension || snap.EmbedModel != i.embedModel {
		i.logger.Error().
			Int("snapshot_dimension", snap.Dimension).
			Int("configured_dimension", i.dimension).
			Str("snapshot_model", snap.EmbedModel).
			Str("configured_model", i.embedModel).
			Msg("Index snapshot does not match configured embedder, resetting to empty index")
		return nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	i.entries = make([]indexEntry, 0, len(snap.Entries))
	i.byID = make(map[string]int, len(snap.Entries))
	for _, entry := range snap.Entries {
		if len(entry.Vector) != i.dimension {
			i.logger.Error().
				Str("chunk_id", entry.ChunkID).
				Msg("Index snapshot entry has wrong dimension, resetting to empty index")
			i.entries = nil
			i.byID = make(map[string]int)
			return nil
		}
		i.entries = append(i.entries, indexEntry{Entry: entry})
		i.byID[entry.ChunkID] = len(i.entries) - 1
	}

	i.logger.Info().Int("entries", len(i.entries)).Msg("Index snapshot loaded")
	return nil
}

// dot computes the inner product of two equal-length vectors
func dot(a, b []float32) float32 {
	var sum float32
	for idx := range a {
		sum += a[idx] * b[idx]
	}
	return sum
}

// Normalize scales a vector to unit length in place. Zero vectors are left
// untouched.
func Normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for idx := range v {
		v[idx] /= norm
	}
}
