// Package config loads the board server configuration.
//
// Values come from a YAML file and may be overridden by ACTIVITYBOARD_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/nomis52/activityboard/logging"
)

const (
	defaultListenAddr     = ":8080"
	defaultMessageTimeout = 4 * time.Second
	defaultLogLevel       = "info"
	defaultLogFormat      = "json"

	redacted = "[REDACTED]"
)

// ServerConfig represents the server runtime configuration.
type ServerConfig struct {
	Listener   ListenerConfig   `yaml:"listener"`
	API        APIConfig        `yaml:"api"`
	Board      BoardConfig      `yaml:"board"`
	CSRF       CSRFConfig       `yaml:"csrf"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	LogLevel   string           `yaml:"log_level" env:"ACTIVITYBOARD_LOG_LEVEL"`
	// json or text
	LogFormat string `yaml:"log_format" env:"ACTIVITYBOARD_LOG_FORMAT"`
}

// ListenerConfig holds HTTP server listener settings.
type ListenerConfig struct {
	// The listen address, defaults to :8080
	Addr string `yaml:"addr" env:"ACTIVITYBOARD_LISTEN_ADDR"`
	// PEM files for HTTPS. Both or neither must be set; changes on disk are
	// picked up without a restart.
	CertFile string `yaml:"cert_file" env:"ACTIVITYBOARD_TLS_CERT_FILE"`
	KeyFile  string `yaml:"key_file" env:"ACTIVITYBOARD_TLS_KEY_FILE"`
}

// TLS reports whether the listener serves HTTPS.
func (l ListenerConfig) TLS() bool {
	return l.CertFile != "" && l.KeyFile != ""
}

// APIConfig points at the activities API.
type APIConfig struct {
	URL string `yaml:"url" env:"ACTIVITYBOARD_API_URL"`
	// Zero means no client-side timeout.
	Timeout time.Duration `yaml:"timeout" env:"ACTIVITYBOARD_API_TIMEOUT"`
}

// BoardConfig controls the view controller.
type BoardConfig struct {
	// How long a message stays visible, defaults to 4s
	MessageTimeout time.Duration `yaml:"message_timeout"`
	// Optional cron spec for re-fetching the directory
	RefreshSchedule string `yaml:"refresh_schedule" env:"ACTIVITYBOARD_REFRESH_SCHEDULE"`
}

// CSRFConfig configures form protection.
type CSRFConfig struct {
	// 32 byte authentication key. Empty disables CSRF protection.
	Key string `yaml:"key" env:"ACTIVITYBOARD_CSRF_KEY"`
	// Only send the CSRF cookie over HTTPS.
	Secure bool `yaml:"secure"`
	// Origins allowed to submit forms, in addition to the request's own.
	TrustedOrigins []string `yaml:"trusted_origins"`
}

// MonitoringConfig holds metrics settings.
type MonitoringConfig struct {
	// Remote write endpoint used by the CLI. Empty disables pushing.
	VictoriaMetricsURL string `yaml:"victoriametrics_url" env:"ACTIVITYBOARD_VICTORIAMETRICS_URL"`
	MetricsPrefix      string `yaml:"metrics_prefix"`
}

// LoadConfig reads the YAML config file at the given path, applies
// environment overrides and defaults, and validates the result.
func LoadConfig(path string) (*ServerConfig, error) {
	var cfg ServerConfig
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open server config file %s: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode YAML server config: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment overrides: %w", err)
	}

	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults sets reasonable default values for optional fields.
func (c *ServerConfig) SetDefaults() {
	if c.Listener.Addr == "" {
		c.Listener.Addr = defaultListenAddr
	}
	if c.Board.MessageTimeout == 0 {
		c.Board.MessageTimeout = defaultMessageTimeout
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = defaultLogFormat
	}
}

// Validate checks the configuration for errors.
func (c *ServerConfig) Validate() error {
	var errs []error

	if c.API.URL == "" {
		errs = append(errs, errors.New("api.url is required"))
	} else if u, err := url.Parse(c.API.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("api.url %q must be an absolute URL", c.API.URL))
	}
	if (c.Listener.CertFile == "") != (c.Listener.KeyFile == "") {
		errs = append(errs, errors.New("listener.cert_file and listener.key_file must be set together"))
	}
	if c.API.Timeout < 0 {
		errs = append(errs, errors.New("api.timeout must not be negative"))
	}
	if c.Board.MessageTimeout < 0 {
		errs = append(errs, errors.New("board.message_timeout must not be negative"))
	}
	if c.CSRF.Key != "" && len(c.CSRF.Key) != 32 {
		errs = append(errs, fmt.Errorf("csrf.key must be 32 bytes, got %d", len(c.CSRF.Key)))
	}
	if _, err := logging.ParseLevel(c.LogLevel); c.LogLevel != "" && err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	switch c.LogFormat {
	case "", "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log_format %q must be json or text", c.LogFormat))
	}

	return errors.Join(errs...)
}

// Redacted returns a copy of the config that is safe to display.
func (c *ServerConfig) Redacted() ServerConfig {
	out := *c
	if out.CSRF.Key != "" {
		out.CSRF.Key = redacted
	}
	out.CSRF.TrustedOrigins = append([]string(nil), c.CSRF.TrustedOrigins...)
	return out
}
