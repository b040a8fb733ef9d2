// ABOUTME: Process configuration loaded from KANBANFS_* environment variables.
// ABOUTME: Enforces that remote access requires an auth token and non-loopback binds need opt-in.
package server

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"
)

var (
	ErrRemoteWithoutToken = errors.New(
		"KANBANFS_ALLOW_REMOTE is true but KANBANFS_AUTH_TOKEN is not set; refusing to start without authentication",
	)
	ErrNonLoopbackBind = errors.New(
		"KANBANFS_BIND is a non-loopback address but KANBANFS_ALLOW_REMOTE is not true; set KANBANFS_ALLOW_REMOTE=true and KANBANFS_AUTH_TOKEN to allow remote access",
	)
)

// DefaultBind is the listen address when KANBANFS_BIND is unset.
const DefaultBind = "127.0.0.1:7771"

// Config holds process configuration.
type Config struct {
	Dir            string        // Workspace root (KANBANFS_DIR, default: current directory)
	Bind           string        // Listen address (KANBANFS_BIND, default: 127.0.0.1:7771)
	AllowRemote    bool          // Allow non-loopback binds (KANBANFS_ALLOW_REMOTE)
	AuthToken      string        // Bearer token for /api (KANBANFS_AUTH_TOKEN, optional)
	WebhookTimeout time.Duration // Per-delivery timeout (KANBANFS_WEBHOOK_TIMEOUT, default: 10s)
	DeadLetterDB   string        // SQLite dead-letter path (KANBANFS_DEADLETTER_DB, optional)
	Journal        string        // JSONL event journal path (KANBANFS_JOURNAL, optional)
}

// ConfigFromEnv loads configuration from KANBANFS_* environment variables
// and applies the bind rules.
func ConfigFromEnv() (*Config, error) {
	cfg, err := LoadEnv()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnv reads KANBANFS_* environment variables without checking the bind
// rules. Commands that never listen use it.
func LoadEnv() (*Config, error) {
	dir := envOrDefault("KANBANFS_DIR", "")
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
		dir = wd
	}

	bind := envOrDefault("KANBANFS_BIND", DefaultBind)

	allowRemote := false
	if v := os.Getenv("KANBANFS_ALLOW_REMOTE"); v == "true" || v == "1" || v == "yes" {
		allowRemote = true
	}
	authToken := os.Getenv("KANBANFS_AUTH_TOKEN")

	timeout := 10 * time.Second
	if v := os.Getenv("KANBANFS_WEBHOOK_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid KANBANFS_WEBHOOK_TIMEOUT %q", v)
		}
		timeout = d
	}

	cfg := &Config{
		Dir:            dir,
		Bind:           bind,
		AllowRemote:    allowRemote,
		AuthToken:      authToken,
		WebhookTimeout: timeout,
		DeadLetterDB:   os.Getenv("KANBANFS_DEADLETTER_DB"),
		Journal:        os.Getenv("KANBANFS_JOURNAL"),
	}
	return cfg, nil
}

// Validate applies the bind security rules. Only 127.0.0.0/8, ::1 and
// "localhost" count as loopback.
func (c *Config) Validate() error {
	if c.AllowRemote && c.AuthToken == "" {
		return ErrRemoteWithoutToken
	}
	if c.AllowRemote {
		return nil
	}
	host, _, err := net.SplitHostPort(c.Bind)
	if err != nil || host == "" {
		return nil
	}
	ip := net.ParseIP(host)
	switch {
	case ip != nil && ip.IsLoopback():
	case ip != nil:
		return fmt.Errorf("%w: KANBANFS_BIND=%s", ErrNonLoopbackBind, c.Bind)
	case host == "localhost":
	default:
		return fmt.Errorf("%w: KANBANFS_BIND=%s", ErrNonLoopbackBind, c.Bind)
	}
	return nil
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
