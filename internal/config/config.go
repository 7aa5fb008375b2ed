// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load layers defaults, an optional YAML file, a .env file and env vars.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr is the listen address of the user facing site, e.g. ":3000".
	Addr string `koanf:"addr"`

	// OpsAddr serves /healthz and /stats. Empty disables the ops listener.
	OpsAddr string `koanf:"ops_addr"`

	// BackendURL is the base address of the analysis backend.
	BackendURL string `koanf:"backend_url"`

	// BackendTimeoutMS bounds each backend call. 0 means no timeout.
	BackendTimeoutMS int `koanf:"backend_timeout_ms"`

	// MaxUploadBytes caps the multipart body accepted by the upload view.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// StashSize bounds how many uploaded files are kept for resubmission.
	StashSize int `koanf:"stash_size"`

	// StashTTLSeconds is how long a stashed file stays usable.
	StashTTLSeconds int `koanf:"stash_ttl_seconds"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		Addr:             ":3000",
		OpsAddr:          ":9090",
		BackendURL:       "http://127.0.0.1:5000",
		BackendTimeoutMS: 0,
		MaxUploadBytes:   5 << 20,
		StashSize:        256,
		StashTTLSeconds:  900,
	}
}

// BackendTimeout returns BackendTimeoutMS as a duration.
func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.BackendTimeoutMS) * time.Millisecond
}

// StashTTL returns StashTTLSeconds as a duration.
func (c *Config) StashTTL() time.Duration {
	return time.Duration(c.StashTTLSeconds) * time.Second
}

// Validate reports the first invalid setting wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.BackendTimeoutMS < 0:
		return fmt.Errorf("%w: backend_timeout_ms must not be negative", ErrInvalidConfig)
	case c.MaxUploadBytes <= 0:
		return fmt.Errorf("%w: max_upload_bytes must be positive", ErrInvalidConfig)
	case c.StashSize <= 0:
		return fmt.Errorf("%w: stash_size must be positive", ErrInvalidConfig)
	case c.StashTTLSeconds <= 0:
		return fmt.Errorf("%w: stash_ttl_seconds must be positive", ErrInvalidConfig)
	}
	u, err := url.Parse(c.BackendURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: backend_url must be an absolute http(s) URL, got %q", ErrInvalidConfig, c.BackendURL)
	}
	return nil
}
