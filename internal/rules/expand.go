package rules

import (
	"fmt"
	"slices"

	"github.com/roach88/cartpilot/internal/ir"
)

// Expansion selects how far dependency closure reaches.
type Expansion string

const (
	// ExpandOneLevel pulls in the direct dependencies of required
	// components only. Dependencies of dependencies are not followed.
	ExpandOneLevel Expansion = "one_level"

	// ExpandTransitive follows dependencies breadth-first until closure.
	// It requires an acyclic dependency table; see CheckExpansion.
	ExpandTransitive Expansion = "transitive"
)

// Valid reports whether e names a known expansion mode.
func (e Expansion) Valid() bool {
	return e == ExpandOneLevel || e == ExpandTransitive
}

// CheckExpansion verifies rs can be expanded in mode e.
// Transitive expansion over a cyclic table is rejected.
func (rs *RuleSet) CheckExpansion(e Expansion) error {
	if !e.Valid() {
		return fmt.Errorf("unknown dependency expansion %q", e)
	}
	if e != ExpandTransitive {
		return nil
	}
	if cycles := AnalyzeCycles(rs); len(cycles) > 0 {
		return fmt.Errorf("transitive expansion needs an acyclic dependency table: %s", cycles[0].Message)
	}
	return nil
}

// Expand computes the dependency closure of required.
//
// It returns the direct dependency list of every required component and
// the components that must be added: the union of dependencies minus
// anything already required, without duplicates, in first-appearance
// order (required order, then table order).
//
// With ExpandTransitive, dependencies of added components are appended in
// breadth-first order. Callers must have passed CheckExpansion; a visited
// set still guarantees termination.
func (rs *RuleSet) Expand(required []ir.Component, e Expansion) (map[ir.Component][]ir.Component, []ir.Component) {
	direct := make(map[ir.Component][]ir.Component, len(required))
	present := make(map[ir.Component]bool, len(required))
	for _, c := range required {
		present[c] = true
	}

	var missing []ir.Component
	var queue []ir.Component
	for _, c := range required {
		deps := slices.Clone(rs.DirectDependencies(c))
		if deps == nil {
			deps = []ir.Component{}
		}
		direct[c] = deps
		for _, d := range deps {
			if !present[d] {
				present[d] = true
				missing = append(missing, d)
				queue = append(queue, d)
			}
		}
	}

	if e == ExpandTransitive {
		for len(queue) > 0 {
			c := queue[0]
			queue = queue[1:]
			for _, d := range rs.DirectDependencies(c) {
				if !present[d] {
					present[d] = true
					missing = append(missing, d)
					queue = append(queue, d)
				}
			}
		}
	}

	if missing == nil {
		missing = []ir.Component{}
	}
	return direct, missing
}
