package app

import (
	"fmt"

	"github.com/matheus3301/chatwire/internal/config"
	"github.com/matheus3301/chatwire/internal/profile"
)

// Resolve loads the global config and applies the --profile and --server
// overrides shared by every binary.
func Resolve(profileFlag, serverFlag string) (Params, error) {
	cfg, err := config.LoadOrDefault(profile.ConfigPath())
	if err != nil {
		return Params{}, fmt.Errorf("load config: %w", err)
	}

	name := profile.Resolve(profileFlag, cfg)
	if err := profile.ValidateName(name); err != nil {
		return Params{}, err
	}

	if server := profile.ResolveServer(serverFlag, cfg); server != cfg.Server.BaseURL {
		if err := cfg.WithServer(server); err != nil {
			return Params{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return Params{}, fmt.Errorf("config: %w", err)
	}
	return Params{Profile: name, Config: cfg}, nil
}
