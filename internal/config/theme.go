package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/j-veylop/blockrun-report/internal/services/presentation"
)

// LoadTheme returns the built-in presentation config with the YAML file at
// path laid over it. An empty path or a missing file yields the defaults. A
// palette named in the file replaces the built-in palette of that theme.
func LoadTheme(path string) (presentation.Config, error) {
	cfg := presentation.DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // path is operator-supplied configuration
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read theme file %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse theme file %s: %w", path, err)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("theme validate: %w", err)
	}
	return cfg, nil
}
