package rules

import (
	"slices"

	"github.com/roach88/cartpilot/internal/ir"
)

// RuleSet is the immutable configuration consulted by the pipeline:
// intent keywords, scenario plans, the dependency table, pairwise
// compatibility rules and category ecosystems.
//
// A RuleSet is built once (Compile, LoadDir, Default) and then only read,
// so it is safe to share between concurrent resolutions. Tests may build
// one literally to substitute rule sets.
type RuleSet struct {
	Version         string
	Intent          []IntentGroup
	DefaultScenario ir.Scenario
	Plans           map[ir.Scenario][]ir.Component
	FallbackPlan    []ir.Component
	Dependencies    map[ir.Component][]ir.Component
	Compatibility   []PairRule
	Ecosystems      []Ecosystem
}

// IntentGroup maps any of its keywords to a scenario.
type IntentGroup struct {
	Scenario ir.Scenario
	Keywords []string
}

// PairRule is an explicit compatibility verdict for an ordered pair.
// Lookups also consult the reverse order, so one rule covers both.
type PairRule struct {
	A          ir.Component
	B          ir.Component
	Compatible bool
}

// Ecosystem is a named set of mutually compatible components.
type Ecosystem struct {
	Name    string
	Members []ir.Component
}

// Contains reports whether c belongs to the ecosystem.
func (e Ecosystem) Contains(c ir.Component) bool {
	return slices.Contains(e.Members, c)
}

// VerdictSource records which rule decided a compatibility verdict.
type VerdictSource string

const (
	SourceExplicit  VerdictSource = "explicit"
	SourceReverse   VerdictSource = "reverse"
	SourceEcosystem VerdictSource = "ecosystem"
	SourceDefault   VerdictSource = "default"
)

// Verdict is the outcome of a pairwise compatibility check.
type Verdict struct {
	Compatible bool
	Source     VerdictSource
	Ecosystem  string // set when Source == SourceEcosystem
}

// DirectDependencies returns the mandated accessories of c, or nil.
func (rs *RuleSet) DirectDependencies(c ir.Component) []ir.Component {
	return rs.Dependencies[c]
}

// Plan returns the required components for s, falling back to the
// fallback plan for scenarios without an entry.
func (rs *RuleSet) Plan(s ir.Scenario) []ir.Component {
	if plan, ok := rs.Plans[s]; ok && len(plan) > 0 {
		return plan
	}
	return rs.FallbackPlan
}

// Compatible decides whether a and b may share a cart.
//
// Resolution order: exact ordered rule, reverse ordered rule, shared
// ecosystem (compatible), default (compatible). Only an explicit false
// rule can make a pair incompatible.
func (rs *RuleSet) Compatible(a, b ir.Component) Verdict {
	for _, r := range rs.Compatibility {
		if r.A == a && r.B == b {
			return Verdict{Compatible: r.Compatible, Source: SourceExplicit}
		}
	}
	for _, r := range rs.Compatibility {
		if r.A == b && r.B == a {
			return Verdict{Compatible: r.Compatible, Source: SourceReverse}
		}
	}
	for _, eco := range rs.Ecosystems {
		if eco.Contains(a) && eco.Contains(b) {
			return Verdict{Compatible: true, Source: SourceEcosystem, Ecosystem: eco.Name}
		}
	}
	return Verdict{Compatible: true, Source: SourceDefault}
}
