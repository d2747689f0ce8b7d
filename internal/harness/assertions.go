package harness

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/roach88/cartpilot/internal/ir"
)

// completenessTolerance absorbs float formatting in scenario files
// (0.33 for one third).
const completenessTolerance = 0.005

// AssertionError is returned when an expectation fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Field    string // Expectation key, e.g. "missing"
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Expectation failed: %s\n", e.Field)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateExpectations checks a finished resolution against exp and
// returns one error per failed expectation, in expectation order.
func EvaluateExpectations(state *ir.State, out *ir.Result, exp Expect) []error {
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	if exp.Scenario != "" && state.Scenario != exp.Scenario {
		add(&AssertionError{Field: "scenario", Expected: string(exp.Scenario), Actual: string(state.Scenario)})
	}
	if exp.Required != nil {
		add(assertOrdered("required", exp.Required, state.RequiredComponents))
	}
	if exp.Missing != nil {
		add(assertSet("missing", exp.Missing, state.MissingDependencies))
	}
	for _, p := range exp.Compatible {
		add(assertPair("compatible", state.CompatibilityMatrix, p, true))
	}
	for _, p := range exp.Incompatible {
		add(assertPair("incompatible", state.CompatibilityMatrix, p, false))
	}
	if exp.Issues != nil && len(state.CompatibilityIssues) != *exp.Issues {
		add(&AssertionError{
			Field:    "issues",
			Expected: fmt.Sprintf("%d compatibility issues", *exp.Issues),
			Actual:   fmt.Sprintf("%d: %v", len(state.CompatibilityIssues), state.CompatibilityIssues),
		})
	}
	if exp.CartSize != nil && len(out.Cart) != *exp.CartSize {
		add(&AssertionError{
			Field:    "cart_size",
			Expected: fmt.Sprintf("%d items", *exp.CartSize),
			Actual:   fmt.Sprintf("%d items", len(out.Cart)),
		})
	}
	if exp.Completeness != nil && math.Abs(out.CompletenessScore-*exp.Completeness) > completenessTolerance {
		add(&AssertionError{
			Field:    "completeness",
			Expected: fmt.Sprintf("%.4f", *exp.Completeness),
			Actual:   fmt.Sprintf("%.4f", out.CompletenessScore),
		})
	}
	if exp.Total != nil {
		if want := ir.CentsFromFloat(*exp.Total); out.TotalPrice != want {
			add(&AssertionError{Field: "total", Expected: want.String(), Actual: out.TotalPrice.String()})
		}
	}
	for _, c := range sortedKeys(exp.Selected) {
		add(assertSelected(state, ir.Component(c), exp.Selected[c]))
	}
	if exp.Unmatched != nil {
		add(assertSet("unmatched", exp.Unmatched, out.Metadata.UnmatchedComponents))
	}
	if exp.ValidationErrors != nil {
		add(assertSet("validation_errors", exp.ValidationErrors, out.ValidationErrors))
	}

	return errs
}

// assertOrdered compares two lists element by element.
func assertOrdered[T ~string](field string, want, got []T) error {
	if slices.Equal(want, got) {
		return nil
	}
	return &AssertionError{
		Field:    field,
		Expected: fmt.Sprintf("%v", want),
		Actual:   fmt.Sprintf("%v", got),
	}
}

// assertSet compares two lists ignoring order and duplicates.
func assertSet[T ~string](field string, want, got []T) error {
	w := setOf(want)
	g := setOf(got)
	if slices.Equal(w, g) {
		return nil
	}
	return &AssertionError{
		Field:    field,
		Expected: fmt.Sprintf("set %v", w),
		Actual:   fmt.Sprintf("set %v", g),
	}
}

// assertPair checks one matrix entry in both directions.
func assertPair(field string, m ir.CompatibilityMatrix, p Pair, want bool) error {
	a, b := p[0], p[1]
	ab, okAB := m[a][b]
	ba, okBA := m[b][a]
	switch {
	case !okAB || !okBA:
		return &AssertionError{
			Field:    field,
			Expected: fmt.Sprintf("matrix entry for %s and %s", a, b),
			Actual:   "pair not analysed",
		}
	case ab != want || ba != want:
		return &AssertionError{
			Field:    field,
			Expected: fmt.Sprintf("%s and %s compatible=%t", a, b, want),
			Actual:   fmt.Sprintf("compatible=%t", ab),
		}
	}
	return nil
}

// assertSelected checks the primary product chosen for component c.
func assertSelected(state *ir.State, c ir.Component, wantID string) error {
	sel, ok := state.Selected(c)
	if !ok {
		return &AssertionError{
			Field:    "selected",
			Expected: fmt.Sprintf("%s → %s", c, wantID),
			Actual:   fmt.Sprintf("%s unmatched", c),
		}
	}
	if sel.Product.ID != wantID {
		return &AssertionError{
			Field:    "selected",
			Expected: fmt.Sprintf("%s → %s", c, wantID),
			Actual:   fmt.Sprintf("%s → %s", c, sel.Product.ID),
		}
	}
	return nil
}

func setOf[T ~string](cs []T) []T {
	out := slices.Clone(cs)
	slices.Sort(out)
	return slices.Compact(out)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
