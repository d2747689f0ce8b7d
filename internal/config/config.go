// Package config provides configuration loading for cartpilot.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/cartpilot/internal/catalog"
	"github.com/roach88/cartpilot/internal/ir"
	"github.com/roach88/cartpilot/internal/match"
	"github.com/roach88/cartpilot/internal/rules"
	"github.com/roach88/cartpilot/internal/semver"
)

// Unknown pair policies
const (
	UnknownPairsCompatible = "compatible"
	UnknownPairsReport     = "report"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "cartpilot.yaml"

// Config represents the complete cartpilot configuration
type Config struct {
	Rules   RulesConfig   `yaml:"rules"`
	Catalog CatalogConfig `yaml:"catalog"`
	Matcher MatcherConfig `yaml:"matcher"`
	Batch   BatchConfig   `yaml:"batch"`
}

// RulesConfig configures the rule tables
type RulesConfig struct {
	// Dir holds .cue rule files (empty = embedded defaults)
	Dir string `yaml:"dir"`
	// Version is a semver constraint the loaded table must satisfy (e.g. "^1.0")
	Version string `yaml:"version"`
	// UnknownPairs is "compatible" or "report"
	UnknownPairs string `yaml:"unknown_pairs"`
	// Expansion is "one_level" or "transitive"
	Expansion rules.Expansion `yaml:"expansion"`
}

// CatalogConfig configures the product catalog
type CatalogConfig struct {
	// Path is a catalog JSON file
	Path string `yaml:"path"`
	// DB is a sqlite catalog; takes precedence over Path
	DB string `yaml:"db"`
	// Vendor selects the vendor section of the catalog
	Vendor string `yaml:"vendor"`
}

// MatcherConfig configures product matching
type MatcherConfig struct {
	// Strategy is "substring", "mapping" or "tag"
	Strategy match.Strategy `yaml:"strategy"`
	// Mapping lists product ids per component for the mapping strategy
	Mapping map[string][]string `yaml:"mapping"`
	// Fallback makes mapping and tag strategies fall back to substring
	Fallback bool `yaml:"fallback"`
}

// BatchConfig configures batch resolution
type BatchConfig struct {
	// Concurrency bounds parallel resolutions
	Concurrency int `yaml:"concurrency"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Rules: RulesConfig{
			Dir:          "", // Embedded
			UnknownPairs: UnknownPairsCompatible,
			Expansion:    rules.ExpandOneLevel,
		},
		Catalog: CatalogConfig{
			Vendor: catalog.DefaultVendor,
		},
		Matcher: MatcherConfig{
			Strategy: match.StrategySubstring,
		},
		Batch: BatchConfig{
			Concurrency: 4,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	switch c.Rules.UnknownPairs {
	case UnknownPairsCompatible, UnknownPairsReport:
	default:
		return fmt.Errorf("rules.unknown_pairs must be %q or %q, got %q",
			UnknownPairsCompatible, UnknownPairsReport, c.Rules.UnknownPairs)
	}
	if !c.Rules.Expansion.Valid() {
		return fmt.Errorf("rules.expansion must be %q or %q, got %q",
			rules.ExpandOneLevel, rules.ExpandTransitive, c.Rules.Expansion)
	}
	if c.Rules.Version != "" {
		if _, err := semver.ParseConstraint(c.Rules.Version); err != nil {
			return fmt.Errorf("rules.version: %w", err)
		}
	}
	if c.Catalog.Vendor == "" {
		return fmt.Errorf("catalog.vendor is required")
	}
	switch c.Matcher.Strategy {
	case match.StrategySubstring, match.StrategyTag:
	case match.StrategyMapping:
		if len(c.Matcher.Mapping) == 0 {
			return fmt.Errorf("matcher.mapping is required for the mapping strategy")
		}
	default:
		return fmt.Errorf("matcher.strategy must be substring, mapping or tag, got %q", c.Matcher.Strategy)
	}
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("batch.concurrency must be at least 1")
	}
	return nil
}

// ComponentMapping returns the matcher mapping keyed by component.
func (c *Config) ComponentMapping() map[ir.Component][]string {
	if len(c.Matcher.Mapping) == 0 {
		return nil
	}
	out := make(map[ir.Component][]string, len(c.Matcher.Mapping))
	for k, v := range c.Matcher.Mapping {
		out[ir.Component(k)] = v
	}
	return out
}

// LoadFromFile loads configuration from a YAML file over the defaults.
// Unknown keys are errors so typos do not silently fall back to defaults.
// Relative rules.dir, catalog.path and catalog.db resolve against the
// file's directory.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	base := filepath.Dir(path)
	config.Rules.Dir = resolve(base, config.Rules.Dir)
	config.Catalog.Path = resolve(base, config.Catalog.Path)
	config.Catalog.DB = resolve(base, config.Catalog.DB)

	return config, nil
}

// Load returns the configuration at path, or the defaults when path is
// empty and no DefaultFile exists in the working directory. The result is
// validated.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	config, err := LoadFromFile(path)
	switch {
	case err == nil:
	case !explicit && errors.Is(err, os.ErrNotExist):
		config = DefaultConfig()
	default:
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
