package answer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/libris/internal/common"
	"github.com/ternarybob/libris/internal/models"
	"github.com/ternarybob/libris/internal/services/llm"
)

type recordingProvider struct {
	name       string
	model      string
	response   string
	lastPrompt string
	calls      int
}

func (p *recordingProvider) Complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	p.calls++
	p.lastPrompt = prompt
	return p.response, nil
}

func (p *recordingProvider) Name() string  { return p.name }
func (p *recordingProvider) Model() string { return p.model }
func (p *recordingProvider) Close() error  { return nil }

func newTestRegistry(providers ...*recordingProvider) *llm.Registry {
	r := llm.NewRegistry(providers[0].name, common.GetLogger())
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

func sampleChunks() []models.RetrievedChunk {
	return []models.RetrievedChunk{
		{ChunkID: "chunk_a", Document: "biology.pdf", Position: 4, Text: "Mitochondria produce ATP.", Score: 0.92},
		{ChunkID: "chunk_b", Document: "chemistry.pdf", Position: 0, Text: "ATP stores chemical energy.", Score: 0.81},
	}
}

func TestGenerate(t *testing.T) {
	provider := &recordingProvider{name: "gemini", model: "test-model", response: "Mitochondria produce ATP."}
	generator := NewGenerator(newTestRegistry(provider), 0.1, common.GetLogger())

	answer, err := generator.Generate(context.Background(), "What do mitochondria produce?", sampleChunks(), "")
	require.NoError(t, err)

	assert.Equal(t, "Mitochondria produce ATP.", answer.Text)
	assert.Equal(t, "gemini", answer.Provider)
	assert.Equal(t, "test-model", answer.Model)
	assert.Equal(t, 1, provider.calls)

	// References carry the chunk texts verbatim, in rank order
	assert.Equal(t, []string{"Mitochondria produce ATP.", "ATP stores chemical energy."}, answer.References)
}

func TestGenerate_PromptContainsSourcesAndQuestion(t *testing.T) {
	provider := &recordingProvider{name: "gemini", model: "test-model", response: "ok"}
	generator := NewGenerator(newTestRegistry(provider), 0.1, common.GetLogger())

	_, err := generator.Generate(context.Background(), "What do mitochondria produce?", sampleChunks(), "")
	require.NoError(t, err)

	assert.Contains(t, provider.lastPrompt, "[Source 1: biology.pdf, Chunk 5]")
	assert.Contains(t, provider.lastPrompt, "[Source 2: chemistry.pdf, Chunk 1]")
	assert.Contains(t, provider.lastPrompt, "Mitochondria produce ATP.")
	assert.Contains(t, provider.lastPrompt, "Question: What do mitochondria produce?")
}

func TestGenerate_NoChunksSkipsProvider(t *testing.T) {
	provider := &recordingProvider{name: "gemini", model: "test-model", response: "should not be used"}
	generator := NewGenerator(newTestRegistry(provider), 0.1, common.GetLogger())

	answer, err := generator.Generate(context.Background(), "Anything?", nil, "")
	require.NoError(t, err)

	assert.Equal(t, NoContextAnswer, answer.Text)
	assert.Empty(t, answer.References)
	assert.Equal(t, 0, provider.calls, "provider must not be called without context")
}

func TestGenerate_SelectsNamedProvider(t *testing.T) {
	gemini := &recordingProvider{name: "gemini", model: "g-model", response: "from gemini"}
	claude := &recordingProvider{name: "claude", model: "c-model", response: "from claude"}
	generator := NewGenerator(newTestRegistry(gemini, claude), 0.1, common.GetLogger())

	answer, err := generator.Generate(context.Background(), "Anything?", sampleChunks(), "claude")
	require.NoError(t, err)

	assert.Equal(t, "from claude", answer.Text)
	assert.Equal(t, "claude", answer.Provider)
	assert.Equal(t, 0, gemini.calls)
}

func TestGenerate_UnknownProvider(t *testing.T) {
	provider := &recordingProvider{name: "gemini", model: "test-model"}
	generator := NewGenerator(newTestRegistry(provider), 0.1, common.GetLogger())

	_, err := generator.Generate(context.Background(), "Anything?", sampleChunks(), "mistral")
	require.Error(t, err)
	var cfgErr *common.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}
