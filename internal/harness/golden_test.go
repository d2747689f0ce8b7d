package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cartpilot/internal/ir"
)

func TestRunWithGolden(t *testing.T) {
	h := defaultHarness(t)

	for _, name := range []string{"electrical_panel", "fire_safety", "facility_security"} {
		t.Run(name, func(t *testing.T) {
			s, err := LoadScenario("testdata/scenarios/" + name + ".yaml")
			require.NoError(t, err)

			result, err := RunWithGolden(t, h, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "failures: %v", result.Errors)
		})
	}
}

func TestMarshalSnapshot_Deterministic(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/facility_security.yaml")
	require.NoError(t, err)

	h := defaultHarness(t)
	first, err := h.Run(t.Context(), s)
	require.NoError(t, err)
	second, err := h.Run(t.Context(), s)
	require.NoError(t, err)

	a, err := MarshalSnapshot(s.Name, first)
	require.NoError(t, err)
	b, err := MarshalSnapshot(s.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestMarshalSnapshot_NoOutput(t *testing.T) {
	_, err := MarshalSnapshot("broken", &Result{ErrorCode: "INVALID_REQUEST"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_REQUEST")
}

func TestMarshalSnapshot_Shape(t *testing.T) {
	out := &ir.Result{
		RequestID:         "r",
		Cart:              []ir.CartItem{{Product: ir.Product{ID: "locks-1", Price: 150}, Component: "locks"}},
		TotalPrice:        150,
		CompletenessScore: 0.5,
		CartSummary:       "1 items selected. Total $1.50",
		ValidationErrors:  []string{},
		Metadata: ir.Metadata{
			ParsedIntent:       ir.ParsedIntent{Scenario: ir.ScenarioFacilitySecurity},
			RequiredComponents: []ir.Component{"locks", "video-surveillance"},
			RulesVersion:       "1.0.0",
		},
	}

	data, err := MarshalSnapshot("shape", &Result{Output: out})
	require.NoError(t, err)
	assert.Equal(t,
		`{"cart_summary":"1 items selected. Total $1.50","completeness":"0.5000",`+
			`"items":[{"component":"locks","id":"locks-1","price":150}],`+
			`"missing_dependencies":[],"request_id":"r",`+
			`"required_components":["locks","video-surveillance"],"rules_version":"1.0.0",`+
			`"scenario":"facility_security","scenario_name":"shape","total_price":150,`+
			`"unmatched_components":[],"validation_errors":[]}`,
		string(data))
}
