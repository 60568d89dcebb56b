// Package config loads planner settings from YAML.
package config

import (
	"os"

	"github.com/born-ml/tiling/internal/platform"
	"github.com/born-ml/tiling/internal/tiling"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when a configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the configuration of a planner.
type Config struct {
	Preset  string            `yaml:"preset"`            // Built-in profile name
	Profile *platform.Profile `yaml:"profile,omitempty"` // Custom profile; overrides Preset
	Engine  EngineConfig      `yaml:"engine"`
}

// EngineConfig configures the planning engine.
type EngineConfig struct {
	CacheEntries int    `yaml:"cache_entries"` // 0 disables the memo cache
	Verify       bool   `yaml:"verify"`        // Cell-level coverage checks
	DualPolicy   string `yaml:"dual_policy"`   // weighted, first, second, outermost
	Workers      int    `yaml:"workers"`       // Batch fan-out; 0 means one per CPU
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		Preset: "arch35",
		Engine: EngineConfig{
			CacheEntries: tiling.DefaultCacheEntries,
			DualPolicy:   tiling.DualWeighted.String(),
		},
	}
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	c := DefaultConfig()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads a YAML configuration from path.
func Load(path string) (*Config, error) {
	//nolint:gosec // G304: config path is supplied by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	c, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return c, nil
}

// Validate checks every field.
func (c *Config) Validate() error {
	if _, err := c.ResolveProfile(); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "profile: %v", err)
	}
	if _, err := c.Policy(); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "engine.dual_policy: %v", err)
	}
	if c.Engine.CacheEntries < 0 {
		return errors.Wrapf(ErrInvalidConfig, "engine.cache_entries %d is negative", c.Engine.CacheEntries)
	}
	if c.Engine.Workers < 0 {
		return errors.Wrapf(ErrInvalidConfig, "engine.workers %d is negative", c.Engine.Workers)
	}
	return nil
}

// ResolveProfile returns the custom profile when set, else the preset.
func (c *Config) ResolveProfile() (platform.Profile, error) {
	if c.Profile != nil {
		if err := c.Profile.Validate(); err != nil {
			return platform.Profile{}, err
		}
		return *c.Profile, nil
	}
	return platform.Preset(c.Preset)
}

// Policy returns the parsed dual-split policy.
func (c *Config) Policy() (tiling.DualPolicy, error) {
	return tiling.ParseDualPolicy(c.Engine.DualPolicy)
}
