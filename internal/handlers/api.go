package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/libris/internal/common"
	"github.com/ternarybob/libris/internal/services/ingest"
)

type APIHandler struct {
	ingestService *ingest.Service
	providerNames []string
	logger        arbor.ILogger
}

func NewAPIHandler(ingestService *ingest.Service, providerNames []string) *APIHandler {
	return &APIHandler{
		ingestService: ingestService,
		providerNames: providerNames,
		logger:        common.GetLogger(),
	}
}

// VersionHandler returns version information
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version":    common.GetVersion(),
		"build":      common.GetBuild(),
		"git_commit": common.GetGitCommit(),
	})
}

// HealthHandler reports collection totals and index/catalog consistency
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	stats, err := h.ingestService.Stats(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Health check failed")
		WriteDomainError(w, err)
		return
	}

	status := "ok"
	if !stats.Consistent {
		status = "inconsistent"
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":          status,
		"total_documents": stats.TotalDocuments,
		"total_chunks":    stats.TotalChunks,
		"indexed_vectors": stats.IndexedVectors,
		"consistent":      stats.Consistent,
		"providers":       h.providerNames,
	})
}

// NotFoundHandler handles 404 errors with JSON response
func (h *APIHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusNotFound, map[string]interface{}{
		"error":   "Not Found",
		"path":    r.URL.Path,
		"message": "The requested endpoint does not exist",
	})
}
