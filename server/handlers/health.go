package handlers

import (
	"io"
	"net/http"
)

// HandleHealth reports that the process is serving. It does not contact the
// activities API.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "ok")
}
