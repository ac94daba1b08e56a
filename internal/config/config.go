package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the global ~/.chatwire/config.toml.
type Config struct {
	DefaultProfile string       `toml:"default_profile"`
	LogLevel       string       `toml:"log_level"`
	Server         ServerConfig `toml:"server"`
	Sync           SyncConfig   `toml:"sync"`
	Push           PushConfig   `toml:"push"`
}

// ServerConfig locates the chat backend.
type ServerConfig struct {
	BaseURL string `toml:"base_url"`
	PushURL string `toml:"push_url"`
}

// SyncConfig tunes the chat synchronization core.
type SyncConfig struct {
	PageSize int `toml:"page_size"`
}

// PushConfig tunes push channel reconnection.
type PushConfig struct {
	ReconnectDelay    Duration `toml:"reconnect_delay"`
	ReconnectAttempts int      `toml:"reconnect_attempts"`
}

// Duration is a time.Duration that round-trips through TOML as "1s".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		DefaultProfile: "main",
		LogLevel:       "info",
		Server: ServerConfig{
			BaseURL: "http://localhost:8080",
			PushURL: "ws://localhost:8080/ws",
		},
		Sync: SyncConfig{PageSize: 50},
		Push: PushConfig{
			ReconnectDelay:    Duration{time.Second},
			ReconnectAttempts: 5,
		},
	}
}

// Load reads config from the given path on top of the defaults. Returns an
// error if the file is missing or does not parse.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault is Load, falling back to Default when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Validate rejects values the client cannot run with.
func (c *Config) Validate() error {
	for name, raw := range map[string]string{"server.base_url": c.Server.BaseURL, "server.push_url": c.Server.PushURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s: invalid url %q", name, raw)
		}
	}
	if c.Sync.PageSize <= 0 {
		return fmt.Errorf("sync.page_size must be positive, got %d", c.Sync.PageSize)
	}
	if c.Push.ReconnectAttempts < 0 {
		return fmt.Errorf("push.reconnect_attempts must not be negative, got %d", c.Push.ReconnectAttempts)
	}
	return nil
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

// WithServer points the config at base and derives the push url from it:
// http becomes ws, https becomes wss, and the path is replaced with /ws.
func (c *Config) WithServer(base string) error {
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return fmt.Errorf("invalid server url %q", base)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return fmt.Errorf("server url %q: scheme must be http or https", base)
	}
	u.Path = "/ws"
	u.RawQuery = ""
	c.Server.BaseURL = base
	c.Server.PushURL = u.String()
	return nil
}
