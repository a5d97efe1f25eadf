package interfaces

import (
	"context"
)

// Embedder converts text into L2-normalized vectors of a fixed dimension.
// The model and dimension are fixed at construction; retrieval must use the
// same embedder instance as indexing.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	ModelName() string
}
