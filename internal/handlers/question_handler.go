package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/libris/internal/common"
	"github.com/ternarybob/libris/internal/services/answer"
	"github.com/ternarybob/libris/internal/services/retriever"
)

type QuestionHandler struct {
	retriever *retriever.Service
	generator *answer.Generator
	logger    arbor.ILogger
}

func NewQuestionHandler(retrieverService *retriever.Service, generator *answer.Generator) *QuestionHandler {
	return &QuestionHandler{
		retriever: retrieverService,
		generator: generator,
		logger:    common.GetLogger(),
	}
}

type questionRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// AskHandler retrieves relevant chunks and generates a grounded answer
func (h *QuestionHandler) AskHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		WriteError(w, http.StatusBadRequest, "question is required")
		return
	}

	chunks, err := h.retriever.Retrieve(r.Context(), req.Question, req.TopK)
	if err != nil {
		h.logger.Error().Err(err).Msg("Retrieval failed")
		WriteDomainError(w, err)
		return
	}

	result, err := h.generator.Generate(r.Context(), req.Question, chunks, req.Provider)
	if err != nil {
		h.logger.Error().Err(err).Msg("Answer generation failed")
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}
