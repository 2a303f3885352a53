package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nomis52/activityboard/activityapi"
	"github.com/nomis52/activityboard/logging"
)

const shutdownTimeout = 5 * time.Second

type Args struct {
	ListenAddr string
	StateFile  string
	LogLevel   string
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	args := parseArgs()

	logger, err := logging.New(logging.Config{Level: args.LogLevel, Format: "text"})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Close()

	var store activityapi.Store
	if args.StateFile != "" {
		store, err = activityapi.NewDiskStore(args.StateFile, activityapi.DefaultActivities(), logger.Logger)
		if err != nil {
			return fmt.Errorf("failed to open state file: %w", err)
		}
	} else {
		store = activityapi.NewMemoryStore(activityapi.DefaultActivities())
	}

	httpServer := &http.Server{
		Addr:              args.ListenAddr,
		Handler:           activityapi.NewHandler(store, logger.Logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting activities API", "addr", args.ListenAddr, "state_file", args.StateFile)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down activities API")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

func parseArgs() Args {
	listenAddr := flag.String("listen", ":8000", "Listen address")
	stateFile := flag.String("state", "", "JSON file the rosters are persisted to (in memory if empty)")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nReference activities API for the activity board\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	return Args{
		ListenAddr: *listenAddr,
		StateFile:  *stateFile,
		LogLevel:   *logLevel,
	}
}
