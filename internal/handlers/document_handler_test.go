package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/libris/internal/common"
	"github.com/ternarybob/libris/internal/models"
	"github.com/ternarybob/libris/internal/services/chunker"
	"github.com/ternarybob/libris/internal/services/ingest"
	"github.com/ternarybob/libris/internal/services/vectorindex"
)

type stubExtractor struct {
	text  string
	pages int
}

func (s stubExtractor) ExtractText(ctx context.Context, content []byte) (string, error) {
	return s.text, nil
}

func (s stubExtractor) Metadata(ctx context.Context, content []byte) (*models.PDFMetadata, error) {
	return &models.PDFMetadata{PageCount: s.pages, FileSize: int64(len(content))}, nil
}

type stubDocs struct {
	docs map[string]models.Document
}

func newStubDocs() *stubDocs {
	return &stubDocs{docs: make(map[string]models.Document)}
}

func (m *stubDocs) Register(ctx context.Context, doc *models.Document) error {
	if _, exists := m.docs[doc.Filename]; exists {
		return common.NewConsistencyError("document already registered", nil)
	}
	m.docs[doc.Filename] = *doc
	return nil
}

func (m *stubDocs) Remove(ctx context.Context, filename string) error {
	delete(m.docs, filename)
	return nil
}

func (m *stubDocs) Get(ctx context.Context, filename string) (*models.Document, error) {
	doc, ok := m.docs[filename]
	if !ok {
		return nil, common.NewNotFoundError("document", filename)
	}
	return &doc, nil
}

func (m *stubDocs) Exists(ctx context.Context, filename string) (bool, error) {
	_, ok := m.docs[filename]
	return ok, nil
}

func (m *stubDocs) List(ctx context.Context) ([]models.Document, error) {
	docs := make([]models.Document, 0, len(m.docs))
	for _, doc := range m.docs {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(a, b int) bool { return docs[a].Filename < docs[b].Filename })
	return docs, nil
}

func (m *stubDocs) Count(ctx context.Context) (int, error) {
	return len(m.docs), nil
}

func newDocumentHandler(t *testing.T) *DocumentHandler {
	t.Helper()

	logger := common.GetLogger()
	textChunker, err := chunker.New(chunker.Config{Size: 40, Overlap: 5})
	require.NoError(t, err)

	index := vectorindex.New(3, "fake-embedder", nullSnapshots{}, logger)
	service := ingest.NewService(
		stubExtractor{text: "The quick brown fox jumps over the lazy dog.\n\nPack my box with five dozen liquor jugs.", pages: 1},
		staticEmbedder{},
		textChunker,
		index,
		newStubDocs(),
		logger,
	)
	return NewDocumentHandler(service)
}

func multipartBody(t *testing.T, filenames ...string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, filename := range filenames {
		part, err := writer.CreateFormFile("files", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte("%PDF-fake"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestUploadHandler(t *testing.T) {
	handler := newDocumentHandler(t)

	body, contentType := multipartBody(t, "biology.pdf", "notes.txt")
	req := httptest.NewRequest("POST", "/api/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.UploadHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Indexed     int            `json:"indexed"`
		Failed      int            `json:"failed"`
		TotalChunks int            `json:"total_chunks"`
		Results     []uploadResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, 1, resp.Indexed)
	assert.Equal(t, 1, resp.Failed)
	require.Len(t, resp.Results, 2)

	// Aggregate chunk count matches the per-file counts of indexed files
	perFile := 0
	for _, result := range resp.Results {
		perFile += result.Chunks
	}
	assert.Equal(t, perFile, resp.TotalChunks)
	assert.Greater(t, resp.TotalChunks, 1)
}

func TestUploadHandler_AllFilesRejected(t *testing.T) {
	handler := newDocumentHandler(t)

	body, contentType := multipartBody(t, "notes.txt")
	req := httptest.NewRequest("POST", "/api/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.UploadHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_chunks":0`)
}

func TestUploadHandler_NoFiles(t *testing.T) {
	handler := newDocumentHandler(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/api/documents", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.UploadHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
