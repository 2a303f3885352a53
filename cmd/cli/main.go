package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/nomis52/activityboard/board"
	"github.com/nomis52/activityboard/buildinfo"
	"github.com/nomis52/activityboard/clients/activityclient"
	"github.com/nomis52/activityboard/logging"
	"github.com/nomis52/activityboard/metrics"
	"github.com/nomis52/activityboard/server/config"
	"github.com/nomis52/activityboard/view"
)

const metricsJob = "activityboard-cli"

type Args struct {
	ConfigPath  string
	ShowVersion bool
	Command     string
	Activity    string
	Email       string
	Yes         bool
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(argv []string, stdin io.Reader, stdout, stderr io.Writer) error {
	args, err := parseArgs(argv, stderr)
	if err != nil {
		return err
	}

	if args.ShowVersion {
		fmt.Fprintf(stdout, "activityboard-cli %s\n", buildinfo.Get())
		return nil
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.LoadConfig(args.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Format: "text",
		Writer: stderr,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Close()

	client, err := activityclient.New(cfg.API.URL,
		activityclient.WithLogger(logger.With("component", "activityclient")),
		activityclient.WithTimeout(cfg.API.Timeout),
	)
	if err != nil {
		return err
	}

	opts := []board.Option{board.WithLogger(logger.Logger)}
	var registry *metrics.PushRegistry
	if cfg.Monitoring.VictoriaMetricsURL != "" {
		hostname, _ := os.Hostname()
		registry = metrics.NewPushRegistry(metrics.PushConfig{
			URL:      cfg.Monitoring.VictoriaMetricsURL,
			Prefix:   cfg.Monitoring.MetricsPrefix,
			Job:      metricsJob,
			Instance: hostname,
		})
		opts = append(opts, board.WithRegistry(registry))
	}

	ctrl, err := board.New(client, opts...)
	if err != nil {
		return err
	}

	ctx := context.Background()
	cmdErr := execute(ctx, ctrl, args, stdin, stdout)

	if registry != nil {
		if err := registry.Push(ctx); err != nil {
			logger.Warn("failed to push metrics", "error", err)
		}
	}
	return cmdErr
}

// execute runs one command and prints the resulting board.
func execute(ctx context.Context, ctrl *board.Controller, args Args, stdin io.Reader, stdout io.Writer) error {
	var err error
	switch args.Command {
	case "list":
		err = ctrl.Load(ctx)
	case "signup":
		_, err = ctrl.Signup(ctx, args.Activity, args.Email)
	case "unregister":
		var confirm board.Confirmer
		if !args.Yes {
			confirm = promptConfirm(stdin, stdout)
		}
		_, err = ctrl.Unregister(ctx, args.Activity, args.Email, confirm)
		if errors.Is(err, board.ErrCancelled) {
			fmt.Fprintln(stdout, "Cancelled.")
			return nil
		}
	default:
		return fmt.Errorf("unknown command %q", args.Command)
	}

	if werr := view.WriteText(stdout, ctrl.View(view.Selection{})); werr != nil {
		return werr
	}
	return err
}

// promptConfirm asks on stdout and reads a y/yes answer from stdin.
func promptConfirm(stdin io.Reader, stdout io.Writer) board.Confirmer {
	return func(activity, email string) bool {
		fmt.Fprintf(stdout, "%s [y/N] ", view.ConfirmPrompt(activity, email))
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && line == "" {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		default:
			return false
		}
	}
}

func parseArgs(argv []string, stderr io.Writer) (Args, error) {
	fset := flag.NewFlagSet("activityboard-cli", flag.ContinueOnError)
	fset.SetOutput(stderr)
	configPath := fset.String("config", "", "Path to config file")
	configPathShort := fset.String("c", "", "Path to config file (shorthand)")
	showVersion := fset.Bool("version", false, "Show version information")

	fset.Usage = func() {
		fmt.Fprintf(stderr, "Usage: activityboard-cli [options] <command> [command options]\n")
		fmt.Fprintf(stderr, "\nCommands:\n")
		fmt.Fprintf(stderr, "  list                                  Show all activities\n")
		fmt.Fprintf(stderr, "  signup -activity A -email E           Sign a student up\n")
		fmt.Fprintf(stderr, "  unregister -activity A -email E [-yes] Remove a student\n")
		fmt.Fprintf(stderr, "\nOptions:\n")
		fset.PrintDefaults()
	}

	if err := fset.Parse(argv); err != nil {
		return Args{}, err
	}

	args := Args{
		ConfigPath:  *configPath,
		ShowVersion: *showVersion,
	}
	if args.ConfigPath == "" {
		args.ConfigPath = *configPathShort
	}
	if args.ShowVersion {
		return args, nil
	}
	if args.ConfigPath == "" {
		return Args{}, fmt.Errorf("config flag (-c or --config) is required")
	}

	rest := fset.Args()
	if len(rest) == 0 {
		fset.Usage()
		return Args{}, errors.New("a command is required")
	}
	args.Command = rest[0]

	sub := flag.NewFlagSet(args.Command, flag.ContinueOnError)
	sub.SetOutput(stderr)
	activity := sub.String("activity", "", "Activity name")
	email := sub.String("email", "", "Student email")
	yes := sub.Bool("yes", false, "Unregister without asking for confirmation")
	if err := sub.Parse(rest[1:]); err != nil {
		return Args{}, err
	}
	args.Activity = *activity
	args.Email = *email
	args.Yes = *yes

	return args, nil
}
