package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gorilla/csrf"

	"github.com/nomis52/activityboard/board"
	"github.com/nomis52/activityboard/clients/activityclient"
	"github.com/nomis52/activityboard/view"
)

// ErrorResponse is returned when an error occurs.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// writeHTML renders into a buffer first so a template error never leaves a
// half written page behind.
func writeHTML(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, render func(*bytes.Buffer, template.HTML) error) {
	var buf bytes.Buffer
	if err := render(&buf, csrf.TemplateField(r)); err != nil {
		logger.ErrorContext(r.Context(), "failed to render page", "path", r.URL.Path, "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		logger.DebugContext(r.Context(), "failed to write page", "error", err)
	}
}

// writeBoard renders the board page for page.
func writeBoard(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, page view.Page) {
	writeHTML(w, r, logger, status, func(buf *bytes.Buffer, field template.HTML) error {
		return view.WriteHTML(buf, page, field)
	})
}

// failureStatus maps a failed board mutation to the status of the re-rendered page.
func failureStatus(err error) int {
	var apiErr *activityclient.APIError
	switch {
	case errors.Is(err, board.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.As(err, &apiErr) && apiErr.StatusCode >= 400:
		return apiErr.StatusCode
	default:
		return http.StatusBadGateway
	}
}
