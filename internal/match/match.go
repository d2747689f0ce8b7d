// Package match decides which catalog products satisfy a component.
package match

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/roach88/cartpilot/internal/ir"
)

// Matcher returns the products satisfying component, in catalog order.
// The first result is the primary selection; the rest are alternatives.
// A nil or empty result means the component is unmatched.
//
// Matchers must not modify products.
type Matcher interface {
	Match(component ir.Component, products []ir.Product) []ir.Product
}

// Strategy names a matcher configuration.
type Strategy string

const (
	StrategySubstring Strategy = "substring"
	StrategyMapping   Strategy = "mapping"
	StrategyTag       Strategy = "tag"
)

// Substring matches products whose id contains the component name,
// compared under Unicode case folding.
type Substring struct{}

// Match implements Matcher.
func (Substring) Match(component ir.Component, products []ir.Product) []ir.Product {
	// cases.Caser is stateful; one per call keeps Substring safe to share.
	fold := cases.Fold()
	needle := fold.String(string(component))

	var out []ir.Product
	for _, p := range products {
		if strings.Contains(fold.String(p.ID), needle) {
			out = append(out, p)
		}
	}
	return out
}

// Mapping matches an explicit component → product id table. Products are
// returned in catalog order, not table order; ids absent from the catalog
// are skipped. Components missing from the table match nothing.
type Mapping map[ir.Component][]string

// Match implements Matcher.
func (m Mapping) Match(component ir.Component, products []ir.Product) []ir.Product {
	ids := m[component]
	if len(ids) == 0 {
		return nil
	}
	var out []ir.Product
	for _, p := range products {
		if slices.Contains(ids, p.ID) {
			out = append(out, p)
		}
	}
	return out
}

// Tags matches products carrying the component name as a compatibility tag.
type Tags struct{}

// Match implements Matcher.
func (Tags) Match(component ir.Component, products []ir.Product) []ir.Product {
	var out []ir.Product
	for _, p := range products {
		if slices.Contains(p.CompatibilityTags, string(component)) {
			out = append(out, p)
		}
	}
	return out
}

// Chain tries each matcher in turn and returns the first non-empty result.
type Chain []Matcher

// Match implements Matcher.
func (c Chain) Match(component ir.Component, products []ir.Product) []ir.Product {
	for _, m := range c {
		if out := m.Match(component, products); len(out) > 0 {
			return out
		}
	}
	return nil
}

// New builds the matcher for strategy. An empty strategy means substring.
// With fallback set, mapping and tag strategies fall back to substring
// matching for components they do not cover.
func New(strategy Strategy, mapping map[ir.Component][]string, fallback bool) (Matcher, error) {
	var primary Matcher
	switch strategy {
	case "", StrategySubstring:
		return Substring{}, nil
	case StrategyMapping:
		if len(mapping) == 0 {
			return nil, fmt.Errorf("mapping strategy needs a non-empty mapping")
		}
		primary = Mapping(mapping)
	case StrategyTag:
		primary = Tags{}
	default:
		return nil, fmt.Errorf("unknown match strategy %q (want substring, mapping or tag)", strategy)
	}

	if fallback {
		return Chain{primary, Substring{}}, nil
	}
	return primary, nil
}
