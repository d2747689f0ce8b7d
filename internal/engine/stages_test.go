package engine

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cartpilot/internal/ir"
	"github.com/roach88/cartpilot/internal/match"
	"github.com/roach88/cartpilot/internal/rules"
	"github.com/roach88/cartpilot/internal/testutil"
)

func defaultRules(t *testing.T) *rules.RuleSet {
	t.Helper()
	rs, err := rules.Default()
	require.NoError(t, err)
	return rs
}

func TestClassifyIntent(t *testing.T) {
	rs := defaultRules(t)

	tests := []struct {
		goal string
		want ir.Scenario
	}{
		{"electrical work near live panels", ir.ScenarioElectricalWork},
		{"electrical fire", ir.ScenarioElectricalWork},
		{"HIGH VOLTAGE switchgear", ir.ScenarioElectricalWork},
		{"set up a Workshop", ir.ScenarioConstructionWork},
		{"fire testing", ir.ScenarioFireRisk},
		{"roof work at height", ir.ScenarioWorkingAtHeight},
		{"ladder safety", ir.ScenarioWorkingAtHeight},
		{"gas leak in a tank", ir.ScenarioConfinedSpace},
		{"confined entry", ir.ScenarioConfinedSpace},
		{"acid spill", ir.ScenarioChemicalEnvironment},
		{"warehouse cameras", ir.ScenarioFacilitySecurity},
		{"motor diagnostics", ir.ScenarioEquipmentDiagnostics},
		{"buy snacks", ir.ScenarioToolUsage},
		{"", ir.ScenarioToolUsage},
	}

	for _, tt := range tests {
		t.Run(tt.goal, func(t *testing.T) {
			got := ClassifyIntent(rs.Intent, rs.DefaultScenario, tt.goal)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Valid())
		})
	}
}

func TestPlanComponents(t *testing.T) {
	rs := defaultRules(t)

	plan := PlanComponents(rs, ir.ScenarioToolUsage)
	assert.Equal(t, []ir.Component{"power-drills", "wrenches", "pliers"}, plan)

	// The result is a copy
	plan[0] = "hammers"
	assert.Equal(t, ir.Component("power-drills"), PlanComponents(rs, ir.ScenarioToolUsage)[0])

	assert.Equal(t, []ir.Component{"power-drills"}, PlanComponents(rs, "gardening"))
}

func TestResolveDependencies_NoOverlapWithRequired(t *testing.T) {
	rs := defaultRules(t)

	for _, s := range ir.Scenarios {
		required := PlanComponents(rs, s)
		_, missing := ResolveDependencies(rs, required, rules.ExpandOneLevel)
		for _, m := range missing {
			assert.NotContains(t, required, m, "scenario %s", s)
		}
		seen := make(map[ir.Component]bool)
		for _, m := range missing {
			assert.False(t, seen[m], "duplicate %s in scenario %s", m, s)
			seen[m] = true
		}
	}
}

func TestCheckCompatibility_DefaultTable(t *testing.T) {
	rs := defaultRules(t)
	components := []ir.Component{"digital-multimeters", "clamp-meters", "safety-goggles", "electrical-insulating-gloves"}

	report := CheckCompatibility(rs, components)

	assert.Empty(t, report.Issues)
	assert.True(t, report.Matrix["digital-multimeters"]["clamp-meters"])
	assert.Len(t, report.Unanalyzed, 5, "only the multimeter/clamp-meter pair has a rule")
	assert.NotContains(t, report.Unanalyzed, ir.ComponentPair{A: "digital-multimeters", B: "clamp-meters"})

	for _, a := range components {
		_, self := report.Matrix[a][a]
		assert.False(t, self, "self pair for %s", a)
		for _, b := range components {
			if a != b {
				assert.Equal(t, report.Matrix[a][b], report.Matrix[b][a])
			}
		}
	}
}

func TestCheckCompatibility_OneIssuePerPair(t *testing.T) {
	rs := defaultRules(t)
	rs.Compatibility = append(rs.Compatibility, rules.PairRule{A: "safety-gloves", B: "power-drills", Compatible: false})

	components := []ir.Component{"power-drills", "wrenches", "pliers", "safety-goggles", "safety-gloves"}
	report := CheckCompatibility(rs, components)

	want := []ir.CompatibilityIssue{
		{Component1: "power-drills", Component2: "safety-gloves", Issue: IssueIncompatible},
	}
	if diff := cmp.Diff(want, report.Issues); diff != "" {
		t.Errorf("issues mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, report.Matrix["power-drills"]["safety-gloves"])
	assert.False(t, report.Matrix["safety-gloves"]["power-drills"])

	// Ecosystem and explicit pairs are analysed; the rest default
	assert.NotContains(t, report.Unanalyzed, ir.ComponentPair{A: "power-drills", B: "wrenches"})
	assert.NotContains(t, report.Unanalyzed, ir.ComponentPair{A: "safety-goggles", B: "safety-gloves"})
	assert.Contains(t, report.Unanalyzed, ir.ComponentPair{A: "wrenches", B: "safety-goggles"})
}

func TestCheckCompatibility_EdgeCases(t *testing.T) {
	rs := defaultRules(t)

	single := CheckCompatibility(rs, []ir.Component{"locks"})
	assert.Equal(t, ir.CompatibilityMatrix{"locks": {}}, single.Matrix)
	assert.Empty(t, single.Issues)

	dup := CheckCompatibility(rs, []ir.Component{"locks", "video-surveillance", "locks"})
	assert.Len(t, dup.Matrix, 2)
	assert.Empty(t, dup.Unanalyzed, "security ecosystem covers the pair")

	empty := CheckCompatibility(rs, nil)
	assert.Empty(t, empty.Matrix)
	assert.NotNil(t, empty.Issues)
}

func TestSelectProducts(t *testing.T) {
	products := testutil.Catalog()
	components := []ir.Component{
		"respirators", "video-surveillance", "electrical-insulating-gloves", "respirators", "locks",
	}

	selections := SelectProducts(match.Substring{}, components, products)
	require.Len(t, selections, 3)

	// Catalog order decides: the full-face product is listed first
	assert.Equal(t, ir.Component("respirators"), selections[0].Component)
	assert.Equal(t, "full-face-respirators-3m-6800", selections[0].Product.ID)
	require.Len(t, selections[0].Alternatives, 1)
	assert.Equal(t, "respirators-3m-6200-half-mask", selections[0].Alternatives[0].ID)

	assert.Equal(t, "video-surveillance-axis-m3106", selections[1].Product.ID)
	assert.Equal(t, "video-surveillance-monitors-22in", selections[1].Alternatives[0].ID)

	assert.Equal(t, "locks-master-lock-6121", selections[2].Product.ID)
	assert.NotNil(t, selections[2].Alternatives)
	assert.Empty(t, selections[2].Alternatives)
}

func TestSelectProducts_CopiesProducts(t *testing.T) {
	products := testutil.Catalog()
	selections := SelectProducts(match.Substring{}, []ir.Component{"locks"}, products)
	require.Len(t, selections, 1)

	selections[0].Product.Specs["type"] = "tampered"
	selections[0].Product.CompatibilityTags[0] = "tampered"
	assert.Equal(t, testutil.Catalog(), products)
}

func TestComposeCart(t *testing.T) {
	selections := []ir.Selection{
		{Component: "pliers", Product: ir.Product{ID: "pliers-1", Price: 3999}},
		{Component: "wrenches", Product: ir.Product{ID: "wrenches-1", Price: 1899, Specs: map[string]any{"size": "8in"}}},
		{Component: "guides", Product: ir.Product{ID: "kh-guide"}},
	}

	cart := ComposeCart(selections)

	require.Len(t, cart.Items, 3)
	assert.Equal(t, ir.Component("pliers"), cart.Items[0].Component)
	assert.Equal(t, "wrenches-1", cart.Items[1].ID)
	assert.Equal(t, ir.Cents(5898), cart.Total)
	assert.Equal(t, "3 items selected. Total $58.98", cart.Summary)

	assert.NotNil(t, cart.Items[0].Specs)
	assert.NotNil(t, cart.Items[0].CompatibilityTags)
	assert.Equal(t, "8in", cart.Items[1].Specs["size"])
}

func TestComposeCart_Empty(t *testing.T) {
	cart := ComposeCart(nil)
	assert.NotNil(t, cart.Items)
	assert.Empty(t, cart.Items)
	assert.Equal(t, ir.Cents(0), cart.Total)
	assert.Equal(t, "0 items selected. Total $0.00", cart.Summary)
}

func TestCompleteness(t *testing.T) {
	sel := func(cs ...ir.Component) []ir.Selection {
		out := make([]ir.Selection, len(cs))
		for i, c := range cs {
			out[i] = ir.Selection{Component: c}
		}
		return out
	}

	tests := []struct {
		name       string
		components []ir.Component
		selections []ir.Selection
		want       float64
	}{
		{"no components", nil, nil, 1.0},
		{"all matched", []ir.Component{"a", "b"}, sel("a", "b"), 1.0},
		{"three of four", []ir.Component{"a", "b", "c", "d"}, sel("a", "b", "d"), 0.75},
		{"none matched", []ir.Component{"a"}, nil, 0.0},
		{"duplicates count once", []ir.Component{"a", "a", "b"}, sel("a"), 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Completeness(tt.components, tt.selections), 1e-9)
		})
	}
}
