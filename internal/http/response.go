package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"finquest/internal/core"
	"finquest/internal/log"
	"finquest/internal/services"
	"finquest/internal/sources"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorStatus maps service errors onto response codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrMissingData):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidBudgets):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, sources.ErrNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err against the request and writes the mapped status.
// Only server errors are logged at error level.
func respondError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status := errorStatus(err)
	logger := log.FromContext(r.Context())
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		logger.ErrorContext(r.Context(), "Request failed",
			log.FieldOperation, operation,
			log.FieldStatusCode, status,
			log.FieldError, err)
	} else {
		logger.InfoContext(r.Context(), "Request rejected",
			log.FieldOperation, operation,
			log.FieldStatusCode, status,
			log.FieldError, err)
	}
	writeError(w, status, err.Error())
}
