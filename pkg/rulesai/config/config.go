package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/rulesai/pkg/rulesai/inference/simple"
	"github.com/cognicore/rulesai/pkg/rulesai/internalerr"
	"github.com/cognicore/rulesai/pkg/rulesai/world"
)

// Config represents an agent run configuration
type Config struct {
	Rules   string         `yaml:"rules"`
	World   string         `yaml:"world"`
	Seed    int64          `yaml:"seed"`
	Scoping string         `yaml:"scoping"`
	Cycles  int            `yaml:"cycles"`
	Costs   map[string]int `yaml:"costs"`
	Trace   Trace          `yaml:"trace"`
	Log     Log            `yaml:"log"`
}

// Trace configures the decision trace store. An empty Path keeps decisions
// in memory.
type Trace struct {
	Path       string `yaml:"path"`
	KeepCycles int    `yaml:"keep_cycles"`
}

// Log configures the logger
type Log struct {
	Level string `yaml:"level"`
}

// Default returns a configuration with every optional field set.
func Default() *Config {
	return &Config{
		Scoping: simple.ScopeAllVariables.String(),
		Cycles:  1,
		Log:     Log{Level: "info"},
	}
}

// Load reads a YAML configuration file. Relative paths inside it are
// resolved against the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", internalerr.ErrInvalidConfig, path, err)
	}

	dir := filepath.Dir(path)
	cfg.Rules = resolve(dir, cfg.Rules)
	cfg.World = resolve(dir, cfg.World)
	cfg.Trace.Path = resolve(dir, cfg.Trace.Path)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// Validate checks the configuration for missing or out-of-range values.
func (c *Config) Validate() error {
	if c.Rules == "" {
		return fmt.Errorf("%w: rules path is required", internalerr.ErrInvalidConfig)
	}
	if c.World == "" {
		return fmt.Errorf("%w: world path is required", internalerr.ErrInvalidConfig)
	}
	if _, err := simple.ParseScoping(c.Scoping); err != nil {
		return fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}
	if c.Cycles < 1 {
		return fmt.Errorf("%w: cycles must be at least 1, got %d", internalerr.ErrInvalidConfig, c.Cycles)
	}
	if c.Trace.KeepCycles < 0 {
		return fmt.Errorf("%w: trace.keep_cycles must not be negative", internalerr.ErrInvalidConfig)
	}
	known := make(map[string]bool)
	for _, k := range world.Kinds() {
		known[k] = true
	}
	for kind, cost := range c.Costs {
		if !known[kind] || kind == world.KindResource {
			return fmt.Errorf("%w: cost for unknown unit type %q", internalerr.ErrInvalidConfig, kind)
		}
		if cost < 0 {
			return fmt.Errorf("%w: negative cost for %q", internalerr.ErrInvalidConfig, kind)
		}
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}
	return nil
}

// UnitCosts merges the configured costs over world.DefaultCosts.
func (c *Config) UnitCosts() world.Costs {
	costs := world.DefaultCosts()
	for kind, cost := range c.Costs {
		costs[kind] = cost
	}
	return costs
}
