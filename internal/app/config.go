package app

import (
	"fmt"

	coreconfig "github.com/m3rciful/demobot/core/config"
	"github.com/m3rciful/demobot/core/database"
)

// Config is the full bot configuration: the core sections plus storage.
type Config struct {
	coreconfig.Config `yaml:",inline"`
	Storage           database.Config `yaml:"storage"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config { return &c.Config }

// LoadConfig reads and validates the configuration. A missing bot token is
// reported as coreconfig.ErrMissingToken.
func LoadConfig(path string) (*Config, error) {
	cfg, err := LoadStorageConfig(path)
	if err != nil {
		return nil, err
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadStorageConfig reads the configuration validating only the storage
// section, for commands that never talk to Telegram.
func LoadStorageConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.LoadInto(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Storage.Normalize(); err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	return &cfg, nil
}
