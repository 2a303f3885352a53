package handlers

import (
	"net/http"

	"github.com/nomis52/activityboard/view"
)

// ViewHandler returns the current render description as JSON.
type ViewHandler struct {
	board Board
}

// NewViewHandler creates a new ViewHandler.
func NewViewHandler(b Board) *ViewHandler {
	return &ViewHandler{board: b}
}

// ServeHTTP implements http.Handler. The optional activity and email query
// parameters fill the form selection.
func (h *ViewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := h.board.View(view.Selection{
		Activity: q.Get("activity"),
		Email:    q.Get("email"),
	})
	writeJSON(w, http.StatusOK, page)
}
