package activityapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// MessageResponse is the body of a successful mutation.
type MessageResponse struct {
	Message string `json:"message"`
}

// Handler serves the activities API.
type Handler struct {
	store  Store
	logger *slog.Logger
	mux    *http.ServeMux
}

// NewHandler creates a Handler over store.
func NewHandler(store Store, logger *slog.Logger) *Handler {
	h := &Handler{
		store:  store,
		logger: logger,
		mux:    http.NewServeMux(),
	}
	h.mux.HandleFunc("GET /activities", h.handleActivities)
	h.mux.HandleFunc("POST /activities/{name}/signup", h.handleSignup)
	h.mux.HandleFunc("DELETE /activities/{name}/participants", h.handleUnregister)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) handleActivities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Activities())
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	activity := r.PathValue("name")
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Detail: "Email is required"})
		return
	}

	if err := h.store.Signup(activity, email); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.Info("signed up", "activity", activity, "email", email, "request_id", r.Header.Get("X-Request-ID"))
	writeJSON(w, http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("Signed up %s for %s", email, activity),
	})
}

func (h *Handler) handleUnregister(w http.ResponseWriter, r *http.Request) {
	activity := r.PathValue("name")
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Detail: "Email is required"})
		return
	}

	if err := h.store.Unregister(activity, email); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.Info("unregistered", "activity", activity, "email", email, "request_id", r.Header.Get("X-Request-ID"))
	writeJSON(w, http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("Unregistered %s from %s", email, activity),
	})
}

// writeError maps store errors to status codes and user-facing details.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := http.StatusInternalServerError, "Internal server error"
	switch {
	case errors.Is(err, ErrActivityNotFound):
		status, detail = http.StatusNotFound, "Activity not found"
	case errors.Is(err, ErrAlreadySignedUp):
		status, detail = http.StatusBadRequest, "Student already signed up"
	case errors.Is(err, ErrActivityFull):
		status, detail = http.StatusBadRequest, "Activity is full"
	case errors.Is(err, ErrNotRegistered):
		status, detail = http.StatusNotFound, "Student not registered"
	default:
		h.logger.Error("store operation failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, ErrorResponse{Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}
