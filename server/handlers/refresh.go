package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/nomis52/activityboard/board"
)

// RefreshHandler re-fetches the directory on demand.
type RefreshHandler struct {
	logger *slog.Logger
	board  Board
}

// NewRefreshHandler creates a new RefreshHandler.
func NewRefreshHandler(logger *slog.Logger, b Board) *RefreshHandler {
	return &RefreshHandler{
		logger: logger,
		board:  b,
	}
}

// ServeHTTP implements http.Handler. It answers 202 when a newer fetch
// superseded this one.
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := h.board.Load(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, h.board.Status())
	case errors.Is(err, board.ErrStale):
		writeJSON(w, http.StatusAccepted, h.board.Status())
	default:
		h.logger.WarnContext(r.Context(), "refresh failed", "error", err)
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: err.Error()})
	}
}
