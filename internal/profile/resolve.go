package profile

import (
	"os"

	"github.com/matheus3301/chatwire/internal/config"
)

const DefaultName = "main"

// ServerEnv overrides the configured backend base url.
const ServerEnv = "CHATWIRE_SERVER"

// Resolve determines the active profile name using precedence:
// 1. flagOverride (--profile flag)
// 2. config.toml default_profile
// 3. "main"
func Resolve(flagOverride string, cfg *config.Config) string {
	if flagOverride != "" {
		return flagOverride
	}
	if cfg != nil && cfg.DefaultProfile != "" {
		return cfg.DefaultProfile
	}
	return DefaultName
}

// ResolveServer applies the --server flag, then $CHATWIRE_SERVER, on top of
// the configured base url.
func ResolveServer(flagOverride string, cfg *config.Config) string {
	if flagOverride != "" {
		return flagOverride
	}
	if env := os.Getenv(ServerEnv); env != "" {
		return env
	}
	if cfg != nil {
		return cfg.Server.BaseURL
	}
	return config.Default().Server.BaseURL
}
