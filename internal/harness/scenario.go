package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/cartpilot/internal/config"
	"github.com/roach88/cartpilot/internal/engine"
	"github.com/roach88/cartpilot/internal/ir"
	"github.com/roach88/cartpilot/internal/rules"
)

// Scenario defines a conformance test scenario: one goal and what its
// resolution must look like.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Goal is the free-text request to resolve.
	Goal string `yaml:"goal"`

	// RequestID is an optional fixed request id for deterministic output.
	// If empty, defaults to "test-request-default".
	RequestID string `yaml:"request_id,omitempty"`

	// Options override the harness pipeline settings for this scenario.
	Options Options `yaml:"options,omitempty"`

	// Expect lists the checks applied to the resolution.
	Expect Expect `yaml:"expect"`
}

// Options are per-scenario pipeline overrides.
type Options struct {
	// UnknownPairs is "compatible" or "report" (empty = harness default).
	UnknownPairs string `yaml:"unknown_pairs,omitempty"`

	// Expansion is "one_level" or "transitive" (empty = harness default).
	Expansion rules.Expansion `yaml:"expansion,omitempty"`
}

// Pair is an unordered pair of components, written [a, b].
type Pair []ir.Component

// Expect specifies expected resolution outcomes.
// Nil fields are not checked.
type Expect struct {
	// Error is the expected pipeline error code. When set, the resolution
	// must fail with this code and every other expectation is ignored.
	Error string `yaml:"error,omitempty"`

	Scenario ir.Scenario `yaml:"scenario,omitempty"`

	// Required is compared in order.
	Required []ir.Component `yaml:"required,omitempty"`

	// Missing is compared as a set.
	Missing []ir.Component `yaml:"missing,omitempty"`

	// Compatible and Incompatible check matrix entries.
	Compatible   []Pair `yaml:"compatible,omitempty"`
	Incompatible []Pair `yaml:"incompatible,omitempty"`

	// Issues is the number of compatibility issues.
	Issues *int `yaml:"issues,omitempty"`

	CartSize     *int     `yaml:"cart_size,omitempty"`
	Completeness *float64 `yaml:"completeness,omitempty"`

	// Total is the cart total in dollars.
	Total *float64 `yaml:"total,omitempty"`

	// Selected maps component to the expected primary product id.
	Selected map[string]string `yaml:"selected,omitempty"`

	// Unmatched is compared as a set.
	Unmatched []ir.Component `yaml:"unmatched,omitempty"`

	// ValidationErrors is compared as a set.
	ValidationErrors []string `yaml:"validation_errors,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "expects:" vs "expect:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadDir loads every *.yaml and *.yml scenario in dir, sorted by file
// name. Scenario names must be unique.
func LoadDir(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenario files in %s", dir)
	}
	sort.Strings(paths)

	seen := make(map[string]string, len(paths))
	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		if prev, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("%s: scenario name %q already used by %s", filepath.Base(path), s.Name, prev)
		}
		seen[s.Name] = filepath.Base(path)
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	// An empty goal is only meaningful as an expected failure
	if s.Goal == "" && s.Expect.Error == "" {
		return fmt.Errorf("goal is required")
	}

	switch s.Options.UnknownPairs {
	case "", config.UnknownPairsCompatible, config.UnknownPairsReport:
	default:
		return fmt.Errorf("options.unknown_pairs: unknown policy %q", s.Options.UnknownPairs)
	}
	if s.Options.Expansion != "" && !s.Options.Expansion.Valid() {
		return fmt.Errorf("options.expansion: unknown mode %q", s.Options.Expansion)
	}

	return validateExpect(&s.Expect)
}

// validateExpect checks expectation shapes.
func validateExpect(e *Expect) error {
	switch engine.PipelineErrorCode(e.Error) {
	case "", engine.ErrCodeInvalidRequest, engine.ErrCodeCatalogUnavailable,
		engine.ErrCodeStageFailed, engine.ErrCodeRulesInvalid:
	default:
		return fmt.Errorf("expect.error: unknown error code %q", e.Error)
	}

	if e.Scenario != "" && !e.Scenario.Valid() {
		return fmt.Errorf("expect.scenario: unknown scenario %q", e.Scenario)
	}

	for i, p := range e.Compatible {
		if len(p) != 2 {
			return fmt.Errorf("expect.compatible[%d]: pair must have 2 components, got %d", i, len(p))
		}
	}
	for i, p := range e.Incompatible {
		if len(p) != 2 {
			return fmt.Errorf("expect.incompatible[%d]: pair must have 2 components, got %d", i, len(p))
		}
	}

	if e.Issues != nil && *e.Issues < 0 {
		return fmt.Errorf("expect.issues must be non-negative")
	}
	if e.CartSize != nil && *e.CartSize < 0 {
		return fmt.Errorf("expect.cart_size must be non-negative")
	}
	if e.Completeness != nil && (*e.Completeness < 0 || *e.Completeness > 1) {
		return fmt.Errorf("expect.completeness must be within [0, 1]")
	}
	if e.Total != nil && *e.Total < 0 {
		return fmt.Errorf("expect.total must be non-negative")
	}

	return nil
}
