package retriever

import (
	"context"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/libris/internal/interfaces"
	"github.com/ternarybob/libris/internal/models"
	"github.com/ternarybob/libris/internal/services/vectorindex"
)

// Service answers similarity queries against the vector index. It shares
// the embedder instance with the indexing pipeline so question vectors live
// in the same space as the indexed chunks.
type Service struct {
	embedder    interfaces.Embedder
	index       *vectorindex.Index
	defaultTopK int
	logger      arbor.ILogger
}

// NewService creates a retriever over the shared index and embedder
func NewService(embedder interfaces.Embedder, index *vectorindex.Index, defaultTopK int, logger arbor.ILogger) *Service {
	return &Service{
		embedder:    embedder,
		index:       index,
		defaultTopK: defaultTopK,
		logger:      logger,
	}
}

// Retrieve embeds the question and returns the top k chunks in rank order.
// k <= 0 selects the configured default. An empty index short-circuits to an
// empty result without calling the embedder.
func (s *Service) Retrieve(ctx context.Context, question string, k int) ([]models.RetrievedChunk, error) {
	if k <= 0 {
		k = s.defaultTopK
	}

	if s.index.Count() == 0 {
		return []models.RetrievedChunk{}, nil
	}

	vector, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, err
	}

	results, err := s.index.Search(vector, k)
	if err != nil {
		return nil, err
	}

	chunks := make([]models.RetrievedChunk, 0, len(results))
	for _, result := range results {
		chunks = append(chunks, models.RetrievedChunk{
			ChunkID:  result.ChunkID,
			Document: result.Document,
			Position: result.Position,
			Text:     result.Text,
			Score:    result.Score,
		})
	}

	s.logger.Debug().
		Int("requested", k).
		Int("returned", len(chunks)).
		Msg("Chunks retrieved")
	return chunks, nil
}
