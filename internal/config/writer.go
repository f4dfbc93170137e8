package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

// Save writes cfg to path as YAML. The write is atomic so a watcher or
// a concurrent reader never observes a half-written file.
func Save(path string, cfg *Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := renameio.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// DefaultUserConfigPath is where `config init` writes when no explicit
// path is given.
func DefaultUserConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".agno.yaml"
	}
	return filepath.Join(home, ".config", "agno-console", ".agno.yaml")
}

// InitConfig writes a starter config with defaults at path, refusing to
// overwrite an existing file.
func InitConfig(path string) (*Config, error) {
	if path == "" {
		path = DefaultUserConfigPath()
	}
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("config already exists at %s", path)
	}

	cfg, err := NewLoader().Load()
	if err != nil {
		return nil, err
	}
	if err := Save(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
