// Package types provides shared types for the server package and its subpackages.
package types

import (
	"time"

	"github.com/nomis52/activityboard/buildinfo"
	"github.com/nomis52/activityboard/board"
)

// ServerProperties holds metadata about the running server instance.
type ServerProperties struct {
	Build     buildinfo.Properties `json:"build"`
	StartedAt time.Time            `json:"started_at"`
	Hostname  string               `json:"hostname"`
}

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	Server ServerProperties `json:"server"`
	Board  board.Status     `json:"board"`
	// APIURL is the activities API the board currently talks to.
	APIURL string `json:"api_url"`
	// NextRefresh is nil when no refresh schedule is configured.
	NextRefresh *time.Time `json:"next_refresh,omitempty"`
}
