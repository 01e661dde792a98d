package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/heartmarshall/json-auditor/internal/domain"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Offset *int64            `json:"offset,omitempty"`
	Fields []fieldErrorEntry `json:"fields,omitempty"`
}

type fieldErrorEntry struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// handleError maps domain errors to HTTP responses. Server-side failures
// are logged; client errors are not.
func (h *AuditHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve  *domain.ValidationError
		mie *domain.MalformedInputError
	)

	switch {
	case errors.As(err, &ve):
		resp := errorResponse{Error: "validation failed"}
		for _, fe := range ve.Errors {
			resp.Fields = append(resp.Fields, fieldErrorEntry{Field: fe.Field, Message: fe.Message})
		}
		writeJSON(w, http.StatusBadRequest, resp)
	case errors.As(err, &mie):
		resp := errorResponse{Error: mie.Error()}
		if mie.Offset >= 0 {
			resp.Offset = &mie.Offset
		}
		writeJSON(w, http.StatusBadRequest, resp)
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrStorage), errors.Is(err, context.DeadlineExceeded):
		h.log.ErrorContext(r.Context(), "storage unavailable", slog.String("error", err.Error()))
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
	case errors.Is(err, context.Canceled):
		h.log.WarnContext(r.Context(), "request canceled", slog.String("error", err.Error()))
		writeError(w, http.StatusServiceUnavailable, "request canceled")
	default:
		h.log.ErrorContext(r.Context(), "internal error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
