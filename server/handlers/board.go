package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/nomis52/activityboard/board"
	"github.com/nomis52/activityboard/view"
)

// BoardHandler serves the board page.
type BoardHandler struct {
	logger *slog.Logger
	board  Board
}

// NewBoardHandler creates a new BoardHandler.
func NewBoardHandler(logger *slog.Logger, b Board) *BoardHandler {
	return &BoardHandler{
		logger: logger,
		board:  b,
	}
}

// ServeHTTP implements http.Handler. The first request loads the directory
// if nothing has fetched it yet.
func (h *BoardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.board.Status().State == view.StateIdle {
		if err := h.board.Load(r.Context()); err != nil && !errors.Is(err, board.ErrStale) {
			h.logger.WarnContext(r.Context(), "initial load failed", "error", err)
		}
	}

	page := h.board.View(view.Selection{})
	writeBoard(w, r, h.logger, http.StatusOK, page)
}
