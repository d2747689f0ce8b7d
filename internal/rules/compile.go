package rules

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/cartpilot/internal/ir"
)

//go:embed schema.cue
var schemaCUE string

//go:embed default.cue
var defaultCUE []byte

// rawRuleSet mirrors #RuleSet for decoding. CUE's Decode honors json tags.
type rawRuleSet struct {
	Version         string              `json:"version"`
	Intent          []rawIntentGroup    `json:"intent"`
	DefaultScenario string              `json:"default_scenario"`
	Plans           map[string][]string `json:"plans"`
	FallbackPlan    []string            `json:"fallback_plan"`
	Dependencies    map[string][]string `json:"dependencies"`
	Compatibility   []rawPairRule       `json:"compatibility"`
	Ecosystems      map[string][]string `json:"ecosystems"`
}

type rawIntentGroup struct {
	Scenario string   `json:"scenario"`
	Keywords []string `json:"keywords"`
}

type rawPairRule struct {
	A          string `json:"a"`
	B          string `json:"b"`
	Compatible bool   `json:"compatible"`
}

// Compile converts a CUE value into a RuleSet.
//
// The value is unified with the embedded #RuleSet schema first, so
// structural mistakes (unknown fields, wrong types, missing plans) are
// reported with source positions. Compile does not run the semantic
// checks in Validate; callers that load untrusted tables should run both.
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(src)
//	rs, err := rules.Compile(v)
func Compile(v cue.Value) (*RuleSet, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	schema := v.Context().CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compiling embedded schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#RuleSet"))

	unified := def.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var raw rawRuleSet
	if err := unified.Decode(&raw); err != nil {
		return nil, formatCUEError(err)
	}

	return fromRaw(&raw), nil
}

// CompileSource compiles CUE source text. name is used in error positions.
func CompileSource(name string, src []byte) (*RuleSet, error) {
	ctx := cuecontext.New()
	return Compile(ctx.CompileBytes(src, cue.Filename(name)))
}

// Default returns the embedded industrial rule table.
func Default() (*RuleSet, error) {
	return CompileSource("default.cue", defaultCUE)
}

// DefaultSource returns the embedded rule table text, e.g. to seed a
// rules directory for editing.
func DefaultSource() []byte {
	return append([]byte(nil), defaultCUE...)
}

// LoadDir loads every .cue file in dir as one CUE instance and compiles it.
func LoadDir(dir string) (*RuleSet, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("rules directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("rules directory: not a directory: %s", dir)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, fmt.Errorf("scanning rules directory: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", inst.Err)
	}

	ctx := cuecontext.New()
	return Compile(ctx.BuildInstance(inst))
}

func fromRaw(raw *rawRuleSet) *RuleSet {
	rs := &RuleSet{
		Version:         raw.Version,
		DefaultScenario: ir.Scenario(raw.DefaultScenario),
		Plans:           make(map[ir.Scenario][]ir.Component, len(raw.Plans)),
		FallbackPlan:    toComponents(raw.FallbackPlan),
		Dependencies:    make(map[ir.Component][]ir.Component, len(raw.Dependencies)),
	}

	for _, g := range raw.Intent {
		rs.Intent = append(rs.Intent, IntentGroup{
			Scenario: ir.Scenario(g.Scenario),
			Keywords: g.Keywords,
		})
	}
	for scenario, plan := range raw.Plans {
		rs.Plans[ir.Scenario(scenario)] = toComponents(plan)
	}
	for c, deps := range raw.Dependencies {
		rs.Dependencies[ir.Component(c)] = toComponents(deps)
	}
	for _, r := range raw.Compatibility {
		rs.Compatibility = append(rs.Compatibility, PairRule{
			A:          ir.Component(r.A),
			B:          ir.Component(r.B),
			Compatible: r.Compatible,
		})
	}

	// Map iteration is random; ecosystems are ordered by name so ecosystem
	// verdicts are deterministic when a pair shares several.
	names := make([]string, 0, len(raw.Ecosystems))
	for name := range raw.Ecosystems {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		rs.Ecosystems = append(rs.Ecosystems, Ecosystem{
			Name:    name,
			Members: toComponents(raw.Ecosystems[name]),
		})
	}

	return rs
}

func toComponents(in []string) []ir.Component {
	if in == nil {
		return nil
	}
	out := make([]ir.Component, len(in))
	for i, s := range in {
		out[i] = ir.Component(s)
	}
	return out
}

// CompileError represents a rule-table compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return &CompileError{Field: "cue", Message: firstErr.Error()}
}
