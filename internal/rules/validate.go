package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/cartpilot/internal/ir"
	"github.com/roach88/cartpilot/internal/semver"
)

// Validation error codes (E200-E299)
const (
	ErrVersionMissing       = "E201" // version is required
	ErrVersionInvalid       = "E202" // version is not semver
	ErrUnknownScenario      = "E203" // scenario outside the closed set
	ErrScenarioWithoutPlan  = "E204" // closed-set scenario has no plan
	ErrEmptyPlan            = "E205" // plan or fallback plan is empty
	ErrDefaultScenario      = "E206" // default scenario unknown or missing
	ErrEmptyKeywords        = "E207" // intent group has no keywords
	ErrSelfPair             = "E208" // compatibility rule pairs a component with itself
	ErrContradictoryRule    = "E209" // (a,b) and (b,a) disagree, or duplicates disagree
	ErrEmptyIdentifier      = "E210" // empty component, keyword or ecosystem name
	ErrVersionUnsatisfiable = "E211" // version outside the configured constraint
)

// ValidationError represents a semantic rule-table error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled rule set for semantic errors.
// Returns all errors found (does not fail-fast), in a stable order.
func Validate(rs *RuleSet) []ValidationError {
	var errs []ValidationError
	add := func(code, field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Code: code})
	}

	// Version
	if strings.TrimSpace(rs.Version) == "" {
		add(ErrVersionMissing, "version", "version is required")
	} else if _, err := semver.ParseVersion(rs.Version); err != nil {
		add(ErrVersionInvalid, "version", "%q is not a semantic version", rs.Version)
	}

	// Intent groups
	for i, g := range rs.Intent {
		field := fmt.Sprintf("intent[%d]", i)
		if !g.Scenario.Valid() {
			add(ErrUnknownScenario, field+".scenario", "unknown scenario %q", g.Scenario)
		}
		if len(g.Keywords) == 0 {
			add(ErrEmptyKeywords, field+".keywords", "intent group for %q has no keywords", g.Scenario)
		}
		for j, kw := range g.Keywords {
			if strings.TrimSpace(kw) == "" {
				add(ErrEmptyIdentifier, fmt.Sprintf("%s.keywords[%d]", field, j), "keyword must be non-empty")
			}
		}
	}

	// Default scenario
	if !rs.DefaultScenario.Valid() {
		add(ErrDefaultScenario, "default_scenario", "unknown default scenario %q", rs.DefaultScenario)
	}

	// Plans, sorted for stable output
	scenarios := make([]string, 0, len(rs.Plans))
	for s := range rs.Plans {
		scenarios = append(scenarios, string(s))
	}
	sort.Strings(scenarios)
	for _, s := range scenarios {
		field := "plans." + s
		if !ir.Scenario(s).Valid() {
			add(ErrUnknownScenario, field, "unknown scenario %q", s)
		}
		plan := rs.Plans[ir.Scenario(s)]
		if len(plan) == 0 {
			add(ErrEmptyPlan, field, "plan for %q is empty", s)
		}
		checkIdentifiers(plan, field, add)
	}
	for _, s := range ir.Scenarios {
		if _, ok := rs.Plans[s]; !ok {
			add(ErrScenarioWithoutPlan, "plans", "scenario %q has no plan", s)
		}
	}
	if len(rs.FallbackPlan) == 0 {
		add(ErrEmptyPlan, "fallback_plan", "fallback plan is empty")
	}
	checkIdentifiers(rs.FallbackPlan, "fallback_plan", add)

	// Dependencies
	components := make([]string, 0, len(rs.Dependencies))
	for c := range rs.Dependencies {
		components = append(components, string(c))
	}
	sort.Strings(components)
	for _, c := range components {
		field := fmt.Sprintf("dependencies[%q]", c)
		if strings.TrimSpace(c) == "" {
			add(ErrEmptyIdentifier, field, "component must be non-empty")
		}
		checkIdentifiers(rs.Dependencies[ir.Component(c)], field, add)
	}

	// Compatibility rules
	seen := make(map[[2]ir.Component]int)
	for i, r := range rs.Compatibility {
		field := fmt.Sprintf("compatibility[%d]", i)
		if r.A == "" || r.B == "" {
			add(ErrEmptyIdentifier, field, "pair rule components must be non-empty")
			continue
		}
		if r.A == r.B {
			add(ErrSelfPair, field, "%q is paired with itself", r.A)
			continue
		}
		for _, key := range [][2]ir.Component{{r.A, r.B}, {r.B, r.A}} {
			if j, ok := seen[key]; ok && rs.Compatibility[j].Compatible != r.Compatible {
				add(ErrContradictoryRule, field, "rule for %q/%q contradicts compatibility[%d]", r.A, r.B, j)
				break
			}
		}
		if _, ok := seen[[2]ir.Component{r.A, r.B}]; !ok {
			seen[[2]ir.Component{r.A, r.B}] = i
		}
	}

	// Ecosystems
	for _, eco := range rs.Ecosystems {
		field := "ecosystems." + eco.Name
		if strings.TrimSpace(eco.Name) == "" {
			add(ErrEmptyIdentifier, "ecosystems", "ecosystem name must be non-empty")
		}
		checkIdentifiers(eco.Members, field, add)
	}

	return errs
}

func checkIdentifiers(cs []ir.Component, field string, add func(code, field, format string, args ...any)) {
	for i, c := range cs {
		if strings.TrimSpace(string(c)) == "" {
			add(ErrEmptyIdentifier, fmt.Sprintf("%s[%d]", field, i), "component must be non-empty")
		}
	}
}

// CheckVersion verifies the rule set version satisfies constraint.
// An empty constraint accepts any valid version.
func (rs *RuleSet) CheckVersion(constraint string) error {
	v, err := semver.ParseVersion(rs.Version)
	if err != nil {
		return ValidationError{Field: "version", Message: err.Error(), Code: ErrVersionInvalid}
	}
	if strings.TrimSpace(constraint) == "" {
		return nil
	}
	c, err := semver.ParseConstraint(constraint)
	if err != nil {
		return fmt.Errorf("rules version constraint: %w", err)
	}
	if !semver.Satisfies(v, c) {
		return ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("rule set version %s does not satisfy %q", v, constraint),
			Code:    ErrVersionUnsatisfiable,
		}
	}
	return nil
}
