package commons

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"stockroom/internal/config"
)

// LoadConfig reads a YAML config file on top of base. Keys missing from the
// file keep the value they have in base.
func LoadConfig(path string, base *config.Config) (*config.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg config.Config
	if base != nil {
		cfg = *base
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &cfg, nil
}
