package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// DefaultServerURL is used when config.toml is missing or empty.
const DefaultServerURL = "http://localhost:8000"

// Config represents the global ~/.hobnet/config.toml.
type Config struct {
	ServerURL      string `toml:"server_url"`
	WebSocketURL   string `toml:"websocket_url"`
	DefaultProfile string `toml:"default_profile"`
}

// Load reads config from the given path. Returns an error if the file
// is missing; callers fall back to defaults in that case.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// ResolveServerURL returns the configured server URL or the default.
func (c *Config) ResolveServerURL() string {
	if c == nil || c.ServerURL == "" {
		return DefaultServerURL
	}
	return strings.TrimRight(c.ServerURL, "/")
}

// ResolveWebSocketURL returns the configured websocket URL, or derives
// one from the server URL (http -> ws, https -> wss).
func (c *Config) ResolveWebSocketURL() string {
	if c != nil && c.WebSocketURL != "" {
		return strings.TrimRight(c.WebSocketURL, "/")
	}
	base := c.ResolveServerURL()
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	default:
		return fmt.Sprintf("ws://%s", base)
	}
}
