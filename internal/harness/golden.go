package harness

import (
	"cmp"
	"fmt"
	"slices"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/cartpilot/internal/ir"
)

// Snapshot captures the observable outcome of a scenario for golden
// comparison. Completeness is rendered as a fixed-precision string because
// canonical JSON carries no floats.
type Snapshot struct {
	ScenarioName string
	Output       *ir.Result
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON
// serialization. The cart hash is left out; cart content is compared
// item by item instead. Everything whose order follows the dependency
// expansion (missing and unmatched components, validation errors, the
// cart itself) is sorted, so snapshots pin membership only.
func (s *Snapshot) toCanonicalMap() map[string]any {
	out := s.Output
	cart := slices.SortedFunc(slices.Values(out.Cart), func(a, b ir.CartItem) int {
		return cmp.Or(cmp.Compare(a.Component, b.Component), cmp.Compare(a.ID, b.ID))
	})
	items := make([]any, len(cart))
	for i, item := range cart {
		items[i] = map[string]any{
			"component": item.Component,
			"id":        item.ID,
			"price":     item.Price,
		}
	}

	return map[string]any{
		"scenario_name":        s.ScenarioName,
		"request_id":           out.RequestID,
		"scenario":             out.Metadata.ParsedIntent.Scenario,
		"required_components":  out.Metadata.RequiredComponents,
		"missing_dependencies": setOf(out.Metadata.MissingDependencies),
		"unmatched_components": setOf(out.Metadata.UnmatchedComponents),
		"items":                items,
		"total_price":          out.TotalPrice,
		"completeness":         fmt.Sprintf("%.4f", out.CompletenessScore),
		"cart_summary":         out.CartSummary,
		"validation_errors":    setOf(out.ValidationErrors),
		"rules_version":        out.Metadata.RulesVersion,
	}
}

// MarshalSnapshot renders the canonical snapshot bytes for a result.
func MarshalSnapshot(scenarioName string, result *Result) ([]byte, error) {
	if result.Output == nil {
		return nil, fmt.Errorf("scenario %s produced no output (error %s)", scenarioName, result.ErrorCode)
	}
	snapshot := Snapshot{ScenarioName: scenarioName, Output: result.Output}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario on h and compares the outcome against
// a golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, h *Harness, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := h.Run(t.Context(), scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already computed result against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
