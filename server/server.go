// Package server provides the HTTP server for the activity board.
//
// The server renders the board for browsers on a shared kiosk and forwards
// signups and unregisters to the activities API.
//
// # Endpoints
//
//   - GET / - Board page
//   - POST /signup - Signup form, redirects to / on success
//   - GET /unregister - Confirmation page for removing a participant
//   - POST /unregister - Confirmation form, redirects to / when done
//   - GET /api/view - Current render description as JSON
//   - POST /api/refresh - Re-fetches the directory
//   - GET /api/status - Server properties, board status and next refresh
//   - GET /health - Simple health check, returns "ok"
//   - GET /metrics - Prometheus metrics
//   - GET /config - Returns current configuration as YAML
//   - POST /reload - Reloads configuration from disk
//
// # Architecture
//
// Config-derived dependencies, the config itself and the activities client,
// are swapped atomically on reload. The board controller is created once and
// reaches the API through a proxy that always uses the current client, so a
// reload never discards the committed snapshot.
//
// # Example
//
//	srv, err := server.New("/etc/activityboard/server.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/nomis52/activityboard/board"
	"github.com/nomis52/activityboard/buildinfo"
	"github.com/nomis52/activityboard/clients/activityclient"
	"github.com/nomis52/activityboard/directory"
	"github.com/nomis52/activityboard/logging"
	"github.com/nomis52/activityboard/metrics"
	"github.com/nomis52/activityboard/notice"
	"github.com/nomis52/activityboard/server/config"
	"github.com/nomis52/activityboard/server/cron"
	"github.com/nomis52/activityboard/server/handlers"
	"github.com/nomis52/activityboard/server/types"
	"github.com/nomis52/activityboard/view"
)

const (
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultShutdownTimeout = 5 * time.Second
)

// serverDeps holds config-derived dependencies that are swapped atomically on reload.
type serverDeps struct {
	config *config.ServerConfig
	client *activityclient.Client
}

// Server is the HTTP server for the activity board.
type Server struct {
	addr        string
	configPath  string
	logWriter   io.Writer
	logger      *logging.Logger
	deps        atomic.Pointer[serverDeps]
	registry    *metrics.ScrapeRegistry
	board       *board.Controller
	cronTrigger *cron.CronTrigger
	certLoader  *CertLoader
	httpServer  *http.Server
	startedAt   time.Time
	hostname    string
}

// Option configures a Server.
type Option func(*Server) error

// WithListenAddr overrides the configured listen address.
func WithListenAddr(addr string) Option {
	return func(s *Server) error {
		s.addr = addr
		return nil
	}
}

// WithLogWriter sends logs to w instead of the default output.
func WithLogWriter(w io.Writer) Option {
	return func(s *Server) error {
		s.logWriter = w
		return nil
	}
}

// New creates a new Server with the given config path and options.
// It loads the configuration and initializes all dependencies.
func New(configPath string, opts ...Option) (*Server, error) {
	s := &Server{
		configPath: configPath,
		startedAt:  time.Now(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	s.logger, err = logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Writer: s.logWriter,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if s.addr == "" {
		s.addr = cfg.Listener.Addr
	}
	s.hostname, _ = os.Hostname()

	if err := s.apply(cfg); err != nil {
		return nil, err
	}

	s.registry, err = metrics.NewScrapeRegistry()
	if err != nil {
		return nil, fmt.Errorf("creating metrics registry: %w", err)
	}

	s.board, err = board.New(apiProxy{s},
		board.WithLogger(s.logger.Logger),
		board.WithRegistry(s.registry),
		board.WithNotices(notice.New(notice.WithTimeout(cfg.Board.MessageTimeout))),
	)
	if err != nil {
		return nil, fmt.Errorf("creating board: %w", err)
	}

	if spec := cfg.Board.RefreshSchedule; spec != "" {
		s.cronTrigger, err = cron.NewCronTrigger(spec, s.refresh, s.logger.With("component", "cron"))
		if err != nil {
			return nil, fmt.Errorf("creating cron trigger: %w", err)
		}
	}

	if cfg.Listener.TLS() {
		s.certLoader, err = NewCertLoader(cfg.Listener.CertFile, cfg.Listener.KeyFile, s.logger.Logger)
		if err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Logger returns the server's logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger.Logger
}

// Reload reads the config from disk and rebuilds server dependencies. The
// listener, CSRF settings and refresh schedule only change on restart.
func (s *Server) Reload() error {
	cfg, err := config.LoadConfig(s.configPath)
	if err != nil {
		return err
	}
	if err := s.logger.SetLevel(cfg.LogLevel); err != nil {
		return err
	}
	return s.apply(cfg)
}

// apply builds the dependencies for cfg and swaps them in.
func (s *Server) apply(cfg *config.ServerConfig) error {
	client, err := activityclient.New(cfg.API.URL,
		activityclient.WithLogger(s.logger.With("component", "activityclient")),
		activityclient.WithTimeout(cfg.API.Timeout),
	)
	if err != nil {
		return fmt.Errorf("creating activities client: %w", err)
	}

	s.deps.Store(&serverDeps{
		config: cfg,
		client: client,
	})

	s.logger.Info("configuration loaded", "config_path", s.configPath, "api_url", cfg.API.URL)
	return nil
}

// Config returns the current configuration.
func (s *Server) Config() *config.ServerConfig {
	return s.deps.Load().config
}

// NextRefresh returns the next scheduled refresh, or nil if no schedule is configured.
func (s *Server) NextRefresh() *time.Time {
	if s.cronTrigger == nil {
		return nil
	}
	next := s.cronTrigger.NextRun()
	return &next
}

// Status implements handlers.StatusProvider.
func (s *Server) Status() types.StatusResponse {
	return types.StatusResponse{
		Server: types.ServerProperties{
			Build:     buildinfo.Get(),
			StartedAt: s.startedAt,
			Hostname:  s.hostname,
		},
		Board:       s.board.Status(),
		APIURL:      s.Config().API.URL,
		NextRefresh: s.NextRefresh(),
	}
}

// refresh is the scheduled reconciliation. Losing to a newer fetch is not
// a failure.
func (s *Server) refresh(ctx context.Context) error {
	if err := s.board.Load(ctx); err != nil && !errors.Is(err, board.ErrStale) {
		return err
	}
	return nil
}

// Handler returns the server's routes wrapped in its middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	return Chain(mux,
		RequestID,
		AccessLog(s.logger.With("component", "http")),
		SecurityHeaders,
	)
}

// Run starts the HTTP server and blocks until the context is cancelled.
// It performs a graceful shutdown when the context is done.
// If a refresh schedule is configured, it is started automatically.
func (s *Server) Run(ctx context.Context) error {
	defer s.logger.Close()

	s.httpServer = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	}
	if s.certLoader != nil {
		s.httpServer.TLSConfig = s.certLoader.TLSConfig()
	}

	if s.cronTrigger != nil {
		s.logger.Info("starting refresh schedule",
			"spec", s.cronTrigger.Spec(),
			"next_run", s.cronTrigger.NextRun(),
		)
		s.cronTrigger.Start(ctx)
	}

	go func() {
		if err := s.refresh(ctx); err != nil {
			s.logger.Warn("initial load failed", "error", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server",
			"addr", s.addr,
			"config_path", s.configPath,
			"tls", s.certLoader != nil,
		)
		var err error
		if s.certLoader != nil {
			err = s.httpServer.ListenAndServeTLS("", "")
		} else {
			err = s.httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	logger := s.logger.With("component", "handlers")
	forms := CSRF(s.Config().CSRF, logger)

	// Board pages
	mux.Handle("GET /{$}", forms(handlers.NewBoardHandler(logger, s.board)))
	mux.Handle("POST /signup", forms(handlers.NewSignupHandler(logger, s.board)))
	mux.Handle("GET /unregister", forms(handlers.NewUnregisterConfirmHandler(logger)))
	mux.Handle("POST /unregister", forms(handlers.NewUnregisterHandler(logger, s.board)))
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(view.StaticFS())))

	// API endpoints
	mux.Handle("GET /api/view", handlers.NewViewHandler(s.board))
	mux.Handle("POST /api/refresh", handlers.NewRefreshHandler(logger, s.board))
	mux.Handle("GET /api/status", handlers.NewStatusHandler(s))
	mux.HandleFunc("GET /health", handlers.HandleHealth)
	mux.Handle("GET /metrics", s.registry.Handler())
	mux.Handle("GET /config", handlers.NewConfigHandler(logger, s))
	mux.Handle("POST /reload", handlers.NewReloadHandler(logger, s))
}

// apiProxy forwards to the activities client current at call time.
type apiProxy struct {
	s *Server
}

func (p apiProxy) Activities(ctx context.Context) (directory.Directory, error) {
	return p.s.deps.Load().client.Activities(ctx)
}

func (p apiProxy) Signup(ctx context.Context, activity, email string) (string, error) {
	return p.s.deps.Load().client.Signup(ctx, activity, email)
}

func (p apiProxy) Unregister(ctx context.Context, activity, email string) (string, error) {
	return p.s.deps.Load().client.Unregister(ctx, activity, email)
}
