package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/libris/internal/common"
	"github.com/ternarybob/libris/internal/services/answer"
	"github.com/ternarybob/libris/internal/services/llm"
	"github.com/ternarybob/libris/internal/services/retriever"
	"github.com/ternarybob/libris/internal/services/vectorindex"
)

type staticEmbedder struct{}

func (staticEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (e staticEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1, 0, 0}
	}
	return vectors, nil
}

func (staticEmbedder) Dimension() int    { return 3 }
func (staticEmbedder) ModelName() string { return "fake-embedder" }

type staticProvider struct {
	response string
}

func (p *staticProvider) Complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	return p.response, nil
}
func (p *staticProvider) Name() string  { return "gemini" }
func (p *staticProvider) Model() string { return "test-model" }
func (p *staticProvider) Close() error  { return nil }

type nullSnapshots struct{}

func (nullSnapshots) Save(ctx context.Context, data []byte) error { return nil }
func (nullSnapshots) Load(ctx context.Context) ([]byte, error)    { return nil, nil }

func newQuestionHandler(t *testing.T, indexed bool) *QuestionHandler {
	t.Helper()

	logger := common.GetLogger()
	index := vectorindex.New(3, "fake-embedder", nullSnapshots{}, logger)
	if indexed {
		require.NoError(t, index.Insert(vectorindex.Entry{
			ChunkID:  "chunk_a",
			Document: "biology.pdf",
			Position: 0,
			Text:     "Mitochondria produce ATP.",
			Vector:   []float32{1, 0, 0},
		}))
	}

	registry := llm.NewRegistry("gemini", logger)
	registry.Register(&staticProvider{response: "Mitochondria produce ATP."})

	return NewQuestionHandler(
		retriever.NewService(staticEmbedder{}, index, 3, logger),
		answer.NewGenerator(registry, 0.1, logger),
	)
}

func TestAskHandler(t *testing.T) {
	handler := newQuestionHandler(t, true)

	req := httptest.NewRequest("POST", "/api/question", strings.NewReader(`{"question":"What do mitochondria produce?"}`))
	rec := httptest.NewRecorder()
	handler.AskHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"answer":"Mitochondria produce ATP."`)
	assert.Contains(t, body, `"references":["Mitochondria produce ATP."]`)
	assert.Contains(t, body, `"provider":"gemini"`)
}

func TestAskHandler_EmptyIndex(t *testing.T) {
	handler := newQuestionHandler(t, false)

	req := httptest.NewRequest("POST", "/api/question", strings.NewReader(`{"question":"Anything?"}`))
	rec := httptest.NewRecorder()
	handler.AskHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"references":[]`)
}

func TestAskHandler_Validation(t *testing.T) {
	handler := newQuestionHandler(t, true)

	tests := []struct {
		name   string
		method string
		body   string
		status int
	}{
		{"wrong method", "GET", "", http.StatusMethodNotAllowed},
		{"invalid json", "POST", "{not json", http.StatusBadRequest},
		{"missing question", "POST", `{"top_k":3}`, http.StatusBadRequest},
		{"blank question", "POST", `{"question":"   "}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/question", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			handler.AskHandler(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestAskHandler_UnknownProvider(t *testing.T) {
	handler := newQuestionHandler(t, true)

	req := httptest.NewRequest("POST", "/api/question", strings.NewReader(`{"question":"Anything?","provider":"mistral"}`))
	rec := httptest.NewRecorder()
	handler.AskHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"content", common.NewContentError("bad pdf", nil), http.StatusBadRequest},
		{"config", common.NewConfigError("bad provider", nil), http.StatusBadRequest},
		{"not found", common.NewNotFoundError("document", "x.pdf"), http.StatusNotFound},
		{"provider permanent", common.NewProviderError("gemini", false, errors.New("401")), http.StatusBadGateway},
		{"provider transient", common.NewProviderError("gemini", true, errors.New("429")), http.StatusServiceUnavailable},
		{"consistency", common.NewConsistencyError("duplicate id", nil), http.StatusInternalServerError},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, StatusForError(tt.err))
		})
	}
}
