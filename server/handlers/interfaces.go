// Package handlers provides HTTP handlers for the activity board server.
//
// Each handler is in its own file and implements http.Handler.
// Handlers use interfaces to access server dependencies, avoiding
// circular imports.
package handlers

import (
	"context"

	"github.com/nomis52/activityboard/board"
	"github.com/nomis52/activityboard/server/config"
	"github.com/nomis52/activityboard/server/types"
	"github.com/nomis52/activityboard/view"
)

// ConfigProvider provides access to the current configuration.
type ConfigProvider interface {
	Config() *config.ServerConfig
}

// Reloader can reload its configuration.
type Reloader interface {
	Reload() error
}

// Board is the view controller behind the board pages.
// *board.Controller satisfies it.
type Board interface {
	Load(ctx context.Context) error
	Signup(ctx context.Context, activity, email string) (board.Result, error)
	Unregister(ctx context.Context, activity, email string, confirm board.Confirmer) (board.Result, error)
	View(sel view.Selection) view.Page
	Status() board.Status
}

// StatusProvider provides the data behind /api/status.
type StatusProvider interface {
	Status() types.StatusResponse
}
