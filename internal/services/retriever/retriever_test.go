package retriever

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/libris/internal/common"
	"github.com/ternarybob/libris/internal/services/vectorindex"
)

// mappedEmbedder returns a fixed vector per known text and counts calls
type mappedEmbedder struct {
	vectors map[string][]float32
	calls   int
}

func (m *mappedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.calls++
	v, ok := m.vectors[text]
	if !ok {
		return []float32{0, 0, 1}, nil
	}
	out := append([]float32(nil), v...)
	vectorindex.Normalize(out)
	return out, nil
}

func (m *mappedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		v, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, v)
	}
	return vectors, nil
}

func (m *mappedEmbedder) Dimension() int    { return 3 }
func (m *mappedEmbedder) ModelName() string { return "fake-embedder" }

type memSnapshots struct {
	data []byte
}

func (m *memSnapshots) Save(ctx context.Context, data []byte) error {
	m.data = append([]byte(nil), data...)
	return nil
}

func (m *memSnapshots) Load(ctx context.Context) ([]byte, error) {
	return m.data, nil
}

func unit(x, y, z float32) []float32 {
	v := []float32{x, y, z}
	vectorindex.Normalize(v)
	return v
}

// newThreeDocIndex indexes one chunk from each of three documents along
// separate axes so each question has one clearly nearest chunk
func newThreeDocIndex(t *testing.T) *vectorindex.Index {
	t.Helper()

	index := vectorindex.New(3, "fake-embedder", &memSnapshots{}, common.GetLogger())
	entries := []vectorindex.Entry{
		{ChunkID: "chunk_bio", Document: "biology.pdf", Position: 0, Text: "Mitochondria produce energy.", Vector: unit(1, 0, 0)},
		{ChunkID: "chunk_chem", Document: "chemistry.pdf", Position: 0, Text: "Acids donate protons.", Vector: unit(0, 1, 0)},
		{ChunkID: "chunk_hist", Document: "history.pdf", Position: 0, Text: "The treaty was signed in 1648.", Vector: unit(0, 0, 1)},
	}
	for _, entry := range entries {
		require.NoError(t, index.Insert(entry))
	}
	return index
}

func TestRetrieve_RelevantChunkFirst(t *testing.T) {
	embedder := &mappedEmbedder{vectors: map[string][]float32{
		"What do mitochondria do?": {0.9, 0.1, 0},
		"What is an acid?":         {0.1, 0.9, 0},
		"When was the treaty?":     {0, 0.1, 0.9},
	}}
	service := NewService(embedder, newThreeDocIndex(t), 3, common.GetLogger())
	ctx := context.Background()

	tests := []struct {
		question string
		document string
	}{
		{"What do mitochondria do?", "biology.pdf"},
		{"What is an acid?", "chemistry.pdf"},
		{"When was the treaty?", "history.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			chunks, err := service.Retrieve(ctx, tt.question, 3)
			require.NoError(t, err)
			require.Len(t, chunks, 3)
			assert.Equal(t, tt.document, chunks[0].Document)
			assert.GreaterOrEqual(t, chunks[0].Score, chunks[1].Score)
			assert.GreaterOrEqual(t, chunks[1].Score, chunks[2].Score)
		})
	}
}

func TestRetrieve_DefaultTopK(t *testing.T) {
	embedder := &mappedEmbedder{vectors: map[string][]float32{}}
	service := NewService(embedder, newThreeDocIndex(t), 2, common.GetLogger())

	chunks, err := service.Retrieve(context.Background(), "anything", 0)
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
}

func TestRetrieve_KLargerThanIndex(t *testing.T) {
	embedder := &mappedEmbedder{vectors: map[string][]float32{}}
	service := NewService(embedder, newThreeDocIndex(t), 3, common.GetLogger())

	chunks, err := service.Retrieve(context.Background(), "anything", 50)
	require.NoError(t, err)
	assert.Len(t, chunks, 3)
}

func TestRetrieve_EmptyIndex(t *testing.T) {
	embedder := &mappedEmbedder{vectors: map[string][]float32{}}
	index := vectorindex.New(3, "fake-embedder", &memSnapshots{}, common.GetLogger())
	service := NewService(embedder, index, 3, common.GetLogger())

	chunks, err := service.Retrieve(context.Background(), "anything", 3)
	require.NoError(t, err)
	assert.Empty(t, chunks)
	assert.Equal(t, 0, embedder.calls, "empty index must not call the embedder")
}
