package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/libris/internal/common"
	"github.com/ternarybob/libris/internal/interfaces"
	"github.com/ternarybob/libris/internal/models"
	"github.com/ternarybob/libris/internal/services/chunker"
	"github.com/ternarybob/libris/internal/services/vectorindex"
)

// Service is the indexing pipeline. It owns all mutations of the vector
// index and the document catalog; a single mutex serializes them so the
// two stores never diverge mid-operation.
type Service struct {
	extractor interfaces.PDFExtractor
	embedder  interfaces.Embedder
	chunker   *chunker.Chunker
	index     *vectorindex.Index
	documents interfaces.DocumentStorage
	mu        sync.Mutex
	logger    arbor.ILogger
}

// NewService creates the indexing pipeline
func NewService(
	extractor interfaces.PDFExtractor,
	embedder interfaces.Embedder,
	textChunker *chunker.Chunker,
	index *vectorindex.Index,
	documents interfaces.DocumentStorage,
	logger arbor.ILogger,
) *Service {
	return &Service{
		extractor: extractor,
		embedder:  embedder,
		chunker:   textChunker,
		index:     index,
		documents: documents,
		logger:    logger,
	}
}

// IndexDocument extracts, chunks, embeds and indexes a PDF. Uploading a
// filename that is already indexed replaces it entirely. The mutex is not
// held during extraction or embedding, only while mutating the stores.
func (s *Service) IndexDocument(ctx context.Context, filename string, content []byte) (*models.Document, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return nil, common.NewContentError(fmt.Sprintf("file %s is not a PDF", filename), nil)
	}

	text, err := s.extractor.ExtractText(ctx, content)
	if err != nil {
		return nil, err
	}
	metadata, err := s.extractor.Metadata(ctx, content)
	if err != nil {
		return nil, err
	}

	chunks := s.chunker.Split(text)
	if len(chunks) == 0 {
		return nil, common.NewContentError(fmt.Sprintf("no text content in %s", filename), nil)
	}

	s.logger.Info().
		Str("filename", filename).
		Int("pages", metadata.PageCount).
		Int("chunks", len(chunks)).
		Msg("Embedding document chunks")

	vectors, err := s.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(chunks) {
		return nil, common.NewProviderError(s.embedder.ModelName(), false,
			fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks)))
	}

	entries := make([]vectorindex.Entry, 0, len(chunks))
	chunkIDs := make([]string, 0, len(chunks))
	for position, chunk := range chunks {
		id := common.NewChunkID()
		chunkIDs = append(chunkIDs, id)
		entries = append(entries, vectorindex.Entry{
			ChunkID:  id,
			Document: filename,
			Position: position,
			Text:     chunk,
			Vector:   vectors[position],
		})
	}

	doc := &models.Document{
		Filename:   filename,
		ChunkIDs:   chunkIDs,
		ChunkCount: len(chunks),
		PageCount:  metadata.PageCount,
		TextLength: len(text),
		UploadedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Replace, never merge
	if removed := s.index.DeleteByDocument(filename); removed > 0 {
		s.logger.Info().Str("filename", filename).Int("removed", removed).Msg("Replacing previously indexed document")
	}
	if err := s.documents.Remove(ctx, filename); err != nil {
		return nil, fmt.Errorf("failed to remove previous catalog entry: %w", err)
	}

	for _, entry := range entries {
		if err := s.index.Insert(entry); err != nil {
			s.index.DeleteByDocument(filename)
			return nil, fmt.Errorf("failed to index chunk %d of %s: %w", entry.Position, filename, err)
		}
	}

	if err := s.documents.Register(ctx, doc); err != nil {
		s.index.DeleteByDocument(filename)
		return nil, fmt.Errorf("failed to register document %s: %w", filename, err)
	}

	if err := s.index.Persist(ctx); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("filename", filename).
		Int("chunks", doc.ChunkCount).
		Msg("Document indexed")
	return doc, nil
}

// DeleteDocument removes a document's vectors and catalog entry
func (s *Service) DeleteDocument(ctx context.Context, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.documents.Get(ctx, filename); err != nil {
		return err
	}

	removed := s.index.DeleteByDocument(filename)
	if err := s.documents.Remove(ctx, filename); err != nil {
		return fmt.Errorf("failed to remove catalog entry for %s: %w", filename, err)
	}

	if err := s.index.Persist(ctx); err != nil {
		return err
	}

	s.logger.Info().
		Str("filename", filename).
		Int("vectors_removed", removed).
		Msg("Document deleted")
	return nil
}

// GetDocument returns the catalog entry for a filename
func (s *Service) GetDocument(ctx context.Context, filename string) (*models.Document, error) {
	return s.documents.Get(ctx, filename)
}

// ListDocuments returns all catalog entries ordered by filename
func (s *Service) ListDocuments(ctx context.Context) ([]models.Document, error) {
	return s.documents.List(ctx)
}

// Stats summarizes the collection. Consistent is false when the catalog's
// chunk total and the index's live vector count disagree.
func (s *Service) Stats(ctx context.Context) (*models.CollectionStats, error) {
	docs, err := s.documents.List(ctx)
	if err != nil {
		return nil, err
	}

	totalChunks := 0
	for _, doc := range docs {
		totalChunks += doc.ChunkCount
	}
	indexed := s.index.Count()

	return &models.CollectionStats{
		TotalDocuments: len(docs),
		TotalChunks:    totalChunks,
		IndexedVectors: indexed,
		Consistent:     totalChunks == indexed,
	}, nil
}

// VerifyConsistency compares the loaded index against the catalog at
// startup. A mismatch means a previous run died mid-mutation; both stores
// are reset to empty rather than serving answers from half a collection.
func (s *Service) VerifyConsistency(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.documents.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list catalog for consistency check: %w", err)
	}

	totalChunks := 0
	for _, doc := range docs {
		totalChunks += doc.ChunkCount
	}
	indexed := s.index.Count()

	if totalChunks == indexed {
		s.logger.Info().
			Int("documents", len(docs)).
			Int("vectors", indexed).
			Msg("Index and catalog are consistent")
		return nil
	}

	s.logger.Error().
		Int("catalog_chunks", totalChunks).
		Int("indexed_vectors", indexed).
		Msg("Index and catalog disagree, resetting both to empty")

	s.index.Reset()
	for _, doc := range docs {
		if err := s.documents.Remove(ctx, doc.Filename); err != nil {
			return fmt.Errorf("failed to reset catalog entry %s: %w", doc.Filename, err)
		}
	}
	return s.index.Persist(ctx)
}
