package engine

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/cartpilot/internal/ir"
	"github.com/roach88/cartpilot/internal/match"
	"github.com/roach88/cartpilot/internal/rules"
)

// IssueIncompatible is the issue text recorded for an incompatible pair.
const IssueIncompatible = "Incompatible components"

// ClassifyIntent maps a goal to a scenario.
//
// The goal is lower-cased and each keyword group is tested in order; the
// first group with a keyword contained in the goal wins, so "electrical
// fire" is electrical work. A goal matching nothing gets fallback.
// ClassifyIntent never fails.
func ClassifyIntent(groups []rules.IntentGroup, fallback ir.Scenario, goal string) ir.Scenario {
	lower := cases.Lower(language.Und)
	text := lower.String(goal)
	for _, g := range groups {
		for _, kw := range g.Keywords {
			if kw == "" {
				continue
			}
			if strings.Contains(text, lower.String(kw)) {
				return g.Scenario
			}
		}
	}
	return fallback
}

// PlanComponents returns the required components for scenario.
// The result is a copy; callers may modify it.
func PlanComponents(rs *rules.RuleSet, scenario ir.Scenario) []ir.Component {
	return slices.Clone(rs.Plan(scenario))
}

// ResolveDependencies returns the direct dependency map of required and
// the dependencies not already required, in first-appearance order.
func ResolveDependencies(rs *rules.RuleSet, required []ir.Component, e rules.Expansion) (map[ir.Component][]ir.Component, []ir.Component) {
	return rs.Expand(required, e)
}

// CompatibilityReport is the output of CheckCompatibility.
type CompatibilityReport struct {
	Matrix     ir.CompatibilityMatrix
	Issues     []ir.CompatibilityIssue
	Unanalyzed []ir.ComponentPair
}

// CheckCompatibility evaluates every unordered pair of components.
//
// Each pair is evaluated once, in (i < j) order over components, and the
// verdict is written to both directions of the matrix. Every component gets
// a matrix row, even one with no partners. One issue is recorded per
// incompatible pair; pairs decided by the optimistic default are listed in
// Unanalyzed.
func CheckCompatibility(rs *rules.RuleSet, components []ir.Component) CompatibilityReport {
	report := CompatibilityReport{
		Matrix:     make(ir.CompatibilityMatrix, len(components)),
		Issues:     []ir.CompatibilityIssue{},
		Unanalyzed: []ir.ComponentPair{},
	}

	for i, a := range components {
		if report.Matrix[a] == nil {
			report.Matrix[a] = make(map[ir.Component]bool)
		}
		for _, b := range components[i+1:] {
			if a == b {
				continue
			}
			if _, done := report.Matrix[a][b]; done {
				continue
			}

			v := rs.Compatible(a, b)
			report.Matrix.Set(a, b, v.Compatible)
			if !v.Compatible {
				report.Issues = append(report.Issues, ir.CompatibilityIssue{
					Component1: a,
					Component2: b,
					Issue:      IssueIncompatible,
				})
			}
			if v.Source == rules.SourceDefault {
				report.Unanalyzed = append(report.Unanalyzed, ir.ComponentPair{A: a, B: b})
			}
		}
	}

	return report
}

// SelectProducts picks a primary product and alternatives per component.
//
// Components are visited in order; a component already selected is
// skipped, so there is at most one selection per component. Components the
// matcher cannot satisfy are omitted. Selected products are copies.
func SelectProducts(m match.Matcher, components []ir.Component, products []ir.Product) []ir.Selection {
	selections := []ir.Selection{}
	seen := make(map[ir.Component]bool, len(components))

	for _, c := range components {
		if seen[c] {
			continue
		}
		seen[c] = true

		matches := m.Match(c, products)
		if len(matches) == 0 {
			continue
		}
		alternatives := make([]ir.Product, 0, len(matches)-1)
		for _, p := range matches[1:] {
			alternatives = append(alternatives, p.Clone())
		}
		selections = append(selections, ir.Selection{
			Component:    c,
			Product:      matches[0].Clone(),
			Alternatives: alternatives,
		})
	}

	return selections
}

// Cart is the output of ComposeCart.
type Cart struct {
	Items   []ir.CartItem
	Total   ir.Cents
	Summary string
}

// ComposeCart turns selections into cart items in selection order.
//
// The total is the exact sum of item prices (a missing price counts as
// zero). Items always carry non-nil specs and tags so they render as {}
// and [] rather than null.
func ComposeCart(selections []ir.Selection) Cart {
	cart := Cart{Items: make([]ir.CartItem, 0, len(selections))}

	for _, s := range selections {
		p := s.Product.Clone()
		if p.Specs == nil {
			p.Specs = map[string]any{}
		}
		if p.CompatibilityTags == nil {
			p.CompatibilityTags = []string{}
		}
		cart.Items = append(cart.Items, ir.CartItem{Product: p, Component: s.Component})
		cart.Total += p.Price
	}

	cart.Summary = Summary(len(cart.Items), cart.Total)
	return cart
}

// Summary formats the cart summary line.
func Summary(count int, total ir.Cents) string {
	return fmt.Sprintf("%d items selected. Total $%s", count, total)
}

// Completeness is the share of components that received a product.
//
// components is required ∪ missing; duplicates count once. With no
// components at all there is nothing left unmatched and the score is 1.
func Completeness(components []ir.Component, selections []ir.Selection) float64 {
	distinct := make(map[ir.Component]bool, len(components))
	for _, c := range components {
		distinct[c] = true
	}
	if len(distinct) == 0 {
		return 1.0
	}

	matched := 0
	for _, s := range selections {
		if distinct[s.Component] {
			matched++
		}
	}
	return float64(matched) / float64(len(distinct))
}
