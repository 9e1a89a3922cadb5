// Package config provides configuration management for the autoclip agent.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// Default values
	DefaultPort            = 8788
	DefaultLogLevel        = "info"
	DefaultDataDir         = ".autoclip"
	DefaultPollIntervalMs  = 2000
	DefaultRefreshMs       = 15000
	DefaultDragLeaseTTLMs  = 30000
	DefaultExportFrameRate = 30.0

	// Environment variable names
	EnvPort         = "AUTOCLIP_PORT"
	EnvLogLevel     = "AUTOCLIP_LOG_LEVEL"
	EnvDataDir      = "AUTOCLIP_DATA_DIR"
	EnvBackendURL   = "AUTOCLIP_BACKEND_URL"
	EnvBackendToken = "AUTOCLIP_BACKEND_TOKEN"
	EnvAPIToken     = "AUTOCLIP_API_TOKEN"
	EnvPollMs       = "AUTOCLIP_POLL_INTERVAL_MS"
	EnvRefreshMs    = "AUTOCLIP_REFRESH_INTERVAL_MS"
	EnvDragLeaseMs  = "AUTOCLIP_DRAG_LEASE_TTL_MS"

	// Database filename
	DBFilename = "autoclip.db"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	BackendURL() string
	BackendToken() string
	APIToken() string
	PollInterval() time.Duration
	RefreshInterval() time.Duration
	DragLeaseTTL() time.Duration
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port         int
	logLevel     string
	dataDir      string
	backendURL   string
	backendToken string
	apiToken     string
	pollMs       int
	refreshMs    int
	dragLeaseMs  int
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:        DefaultPort,
		logLevel:    DefaultLogLevel,
		dataDir:     defaultDataDir(),
		pollMs:      DefaultPollIntervalMs,
		refreshMs:   DefaultRefreshMs,
		dragLeaseMs: DefaultDragLeaseTTLMs,
	}

	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	cfg.backendURL = os.Getenv(EnvBackendURL)
	cfg.backendToken = os.Getenv(EnvBackendToken)
	cfg.apiToken = os.Getenv(EnvAPIToken)

	var err error
	if cfg.pollMs, err = intervalMs(EnvPollMs, DefaultPollIntervalMs); err != nil {
		return nil, err
	}
	if cfg.refreshMs, err = intervalMs(EnvRefreshMs, DefaultRefreshMs); err != nil {
		return nil, err
	}
	if cfg.dragLeaseMs, err = intervalMs(EnvDragLeaseMs, DefaultDragLeaseTTLMs); err != nil {
		return nil, err
	}

	return cfg, nil
}

func intervalMs(env string, def int) (int, error) {
	v := os.Getenv(env)
	if v == "" {
		return def, nil
	}
	ms, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", env, err)
	}
	if ms < 1 {
		return 0, fmt.Errorf("invalid %s: must be at least 1ms", env)
	}
	return ms, nil
}

// Port returns the local HTTP API port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// BackendURL returns the processing service base URL
func (c *EnvConfig) BackendURL() string {
	return c.backendURL
}

// BackendToken returns the bearer token for the processing service
func (c *EnvConfig) BackendToken() string {
	return c.backendToken
}

// APIToken returns the bearer token required by the local API; empty
// disables local auth
func (c *EnvConfig) APIToken() string {
	return c.apiToken
}

func (c *EnvConfig) PollInterval() time.Duration {
	return time.Duration(c.pollMs) * time.Millisecond
}

func (c *EnvConfig) RefreshInterval() time.Duration {
	return time.Duration(c.refreshMs) * time.Millisecond
}

func (c *EnvConfig) DragLeaseTTL() time.Duration {
	return time.Duration(c.dragLeaseMs) * time.Millisecond
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
