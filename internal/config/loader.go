package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML file at path on top of Default. Keys absent from the
// file keep their default values. The file must declare version 1.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	cfg.Version = 0
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if cfg.Version != 1 {
		return nil, errors.New("unsupported config version")
	}

	return cfg, nil
}
