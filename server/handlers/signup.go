package handlers

import (
	"log/slog"
	"net/http"

	"github.com/nomis52/activityboard/view"
)

// SignupHandler handles the signup form.
type SignupHandler struct {
	logger *slog.Logger
	board  Board
}

// NewSignupHandler creates a new SignupHandler.
func NewSignupHandler(logger *slog.Logger, b Board) *SignupHandler {
	return &SignupHandler{
		logger: logger,
		board:  b,
	}
}

// ServeHTTP implements http.Handler. A successful signup redirects back to
// the board; a failed one re-renders it with the form values kept.
func (h *SignupHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	sel := view.Selection{
		Activity: r.PostFormValue("activity"),
		Email:    r.PostFormValue("email"),
	}

	if _, err := h.board.Signup(r.Context(), sel.Activity, sel.Email); err != nil {
		h.logger.InfoContext(r.Context(), "signup rejected", "activity", sel.Activity, "error", err)
		writeBoard(w, r, h.logger, failureStatus(err), h.board.View(sel))
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}
