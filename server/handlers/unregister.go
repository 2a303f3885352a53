package handlers

import (
	"bytes"
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/nomis52/activityboard/board"
	"github.com/nomis52/activityboard/view"
)

// confirmValue is the form value that confirms an unregister.
const confirmValue = "yes"

// UnregisterConfirmHandler serves the confirmation step shown before a
// participant is removed.
type UnregisterConfirmHandler struct {
	logger *slog.Logger
}

// NewUnregisterConfirmHandler creates a new UnregisterConfirmHandler.
func NewUnregisterConfirmHandler(logger *slog.Logger) *UnregisterConfirmHandler {
	return &UnregisterConfirmHandler{logger: logger}
}

// ServeHTTP implements http.Handler.
func (h *UnregisterConfirmHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	activity := r.URL.Query().Get("activity")
	email := r.URL.Query().Get("email")
	if activity == "" || email == "" {
		http.Error(w, "activity and email are required", http.StatusBadRequest)
		return
	}

	writeHTML(w, r, h.logger, http.StatusOK, func(buf *bytes.Buffer, field template.HTML) error {
		return view.WriteConfirmHTML(buf, activity, email, field)
	})
}

// UnregisterHandler handles the confirmation form.
type UnregisterHandler struct {
	logger *slog.Logger
	board  Board
}

// NewUnregisterHandler creates a new UnregisterHandler.
func NewUnregisterHandler(logger *slog.Logger, b Board) *UnregisterHandler {
	return &UnregisterHandler{
		logger: logger,
		board:  b,
	}
}

// ServeHTTP implements http.Handler. Anything other than confirm=yes cancels
// without contacting the API.
func (h *UnregisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	activity := r.PostFormValue("activity")
	email := r.PostFormValue("email")
	confirmed := r.PostFormValue("confirm") == confirmValue

	_, err := h.board.Unregister(r.Context(), activity, email, func(string, string) bool {
		return confirmed
	})
	switch {
	case err == nil, errors.Is(err, board.ErrCancelled):
		http.Redirect(w, r, "/", http.StatusSeeOther)
	default:
		h.logger.InfoContext(r.Context(), "unregister rejected", "activity", activity, "error", err)
		writeBoard(w, r, h.logger, failureStatus(err), h.board.View(view.Selection{}))
	}
}
