package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultPath is read when CONFIG_PATH is unset. A missing default file is
// not an error.
const DefaultPath = "./auditor.yaml"

// Load builds the configuration from CONFIG_PATH (or DefaultPath), then
// environment variables, then env-default tags, and validates the result.
func Load() (*Config, error) {
	path, explicit := os.LookupEnv("CONFIG_PATH")
	explicit = explicit && path != ""
	if !explicit {
		path = DefaultPath
	}
	return LoadFrom(path, explicit)
}

// LoadFrom reads path when it exists. With required set, a missing file
// fails instead of falling back to the environment.
func LoadFrom(path string, required bool) (*Config, error) {
	var cfg Config

	_, statErr := os.Stat(path)
	switch {
	case statErr == nil:
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	case required || !errors.Is(statErr, fs.ErrNotExist):
		return nil, fmt.Errorf("config: file %s: %w", path, statErr)
	default:
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}
