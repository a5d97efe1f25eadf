package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ternarybob/libris/internal/common"
)

// RequireMethod validates that the HTTP request uses the specified method.
// Returns true if the method matches, false otherwise (and writes error response).
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return false
	}
	return true
}

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes a standard error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// WriteDomainError maps a service error onto its HTTP status
func WriteDomainError(w http.ResponseWriter, err error) error {
	return WriteError(w, StatusForError(err), err.Error())
}

// StatusForError maps the service error taxonomy onto HTTP status codes.
// Unclassified errors are internal.
func StatusForError(err error) int {
	var contentErr *common.ContentError
	var configErr *common.ConfigError
	var providerErr *common.ProviderError
	var consistencyErr *common.ConsistencyError
	var notFoundErr *common.NotFoundError

	switch {
	case errors.As(err, &contentErr), errors.As(err, &configErr):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &providerErr):
		if providerErr.Transient {
			return http.StatusServiceUnavailable
		}
		return http.StatusBadGateway
	case errors.As(err, &consistencyErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
