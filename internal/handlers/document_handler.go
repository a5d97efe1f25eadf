package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/libris/internal/common"
	"github.com/ternarybob/libris/internal/services/ingest"
)

// maxUploadBytes caps a single multipart upload at 64 MB
const maxUploadBytes = 64 << 20

type DocumentHandler struct {
	ingestService *ingest.Service
	logger        arbor.ILogger
}

func NewDocumentHandler(ingestService *ingest.Service) *DocumentHandler {
	return &DocumentHandler{
		ingestService: ingestService,
		logger:        common.GetLogger(),
	}
}

// uploadResult is the per-file outcome of a multipart upload
type uploadResult struct {
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Chunks   int    `json:"chunks,omitempty"`
	Pages    int    `json:"pages,omitempty"`
	Error    string `json:"error,omitempty"`
}

// UploadHandler indexes one or more PDFs from a multipart form.
// Files are processed independently; one bad file does not fail the batch.
func (h *DocumentHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		WriteError(w, http.StatusBadRequest, "no files provided in field 'files'")
		return
	}

	results := make([]uploadResult, 0, len(files))
	indexed := 0
	totalChunks := 0
	for _, header := range files {
		result := uploadResult{Filename: header.Filename}

		file, err := header.Open()
		if err != nil {
			result.Status = "failed"
			result.Error = "failed to open uploaded file"
			results = append(results, result)
			continue
		}
		content, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			result.Status = "failed"
			result.Error = "failed to read uploaded file"
			results = append(results, result)
			continue
		}

		doc, err := h.ingestService.IndexDocument(r.Context(), header.Filename, content)
		if err != nil {
			h.logger.Warn().Str("filename", header.Filename).Err(err).Msg("Upload failed")
			result.Status = "failed"
			result.Error = err.Error()
			results = append(results, result)
			continue
		}

		result.Status = "indexed"
		result.Chunks = doc.ChunkCount
		result.Pages = doc.PageCount
		results = append(results, result)
		indexed++
		totalChunks += doc.ChunkCount
	}

	status := http.StatusOK
	if indexed == 0 {
		status = http.StatusBadRequest
	}
	WriteJSON(w, status, map[string]interface{}{
		"indexed":      indexed,
		"failed":       len(files) - indexed,
		"total_chunks": totalChunks,
		"results":      results,
	})
}

// ListHandler returns the document catalog ordered by filename
func (h *DocumentHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	docs, err := h.ingestService.ListDocuments(r.Context())
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"total":     len(docs),
		"documents": docs,
	})
}

// StatsHandler returns collection statistics
func (h *DocumentHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	stats, err := h.ingestService.Stats(r.Context())
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

// DeleteHandler removes a document by filename from the request path
func (h *DocumentHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "DELETE") {
		return
	}

	filename := strings.TrimPrefix(r.URL.Path, "/api/documents/")
	if filename == "" || strings.Contains(filename, "/") {
		WriteError(w, http.StatusBadRequest, "invalid document filename")
		return
	}

	if err := h.ingestService.DeleteDocument(r.Context(), filename); err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"status":   "deleted",
		"filename": filename,
	})
}
