package config

import (
	"fmt"

	"github.com/yndnr/snapkv/internal/infra/confloader"
)

// Load reads defaults, then the YAML file at path (if any), then SNAPKV_
// environment variables.
func Load(path string) (*ServerConfig, error) {
	loader := confloader.NewLoader(
		confloader.WithConfigFile(path),
		confloader.WithDefaults(DefaultMap()),
	)

	cfg := &ServerConfig{}
	if err := loader.Load(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
