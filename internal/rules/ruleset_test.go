package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cartpilot/internal/ir"
)

func TestCompatible_ResolutionOrder(t *testing.T) {
	rs := &RuleSet{
		Compatibility: []PairRule{
			{A: "grinder", B: "solvent", Compatible: false},
			{A: "drill", B: "goggles", Compatible: true},
			// Explicit rule overrides ecosystem membership
			{A: "helmet", B: "gloves", Compatible: false},
		},
		Ecosystems: []Ecosystem{
			{Name: "ppe", Members: []ir.Component{"helmet", "gloves", "goggles"}},
		},
	}

	tests := []struct {
		name       string
		a, b       ir.Component
		compatible bool
		source     VerdictSource
	}{
		{"exact negative", "grinder", "solvent", false, SourceExplicit},
		{"reverse negative", "solvent", "grinder", false, SourceReverse},
		{"exact positive", "drill", "goggles", true, SourceExplicit},
		{"explicit beats ecosystem", "gloves", "helmet", false, SourceReverse},
		{"ecosystem", "helmet", "goggles", true, SourceEcosystem},
		{"default", "drill", "ladder", true, SourceDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := rs.Compatible(tt.a, tt.b)
			assert.Equal(t, tt.compatible, v.Compatible)
			assert.Equal(t, tt.source, v.Source)
		})
	}

	assert.Equal(t, "ppe", rs.Compatible("helmet", "goggles").Ecosystem)
}

func TestCompatible_SymmetricOverDefaultTable(t *testing.T) {
	rs, err := Default()
	require.NoError(t, err)

	var all []ir.Component
	for _, plan := range rs.Plans {
		all = append(all, plan...)
	}
	for c := range rs.Dependencies {
		all = append(all, c)
	}
	all = append(all, "flammable_environment", "no_gas_detector", "confined-space")

	for _, a := range all {
		for _, b := range all {
			if a == b {
				continue
			}
			assert.Equal(t, rs.Compatible(a, b).Compatible, rs.Compatible(b, a).Compatible,
				"asymmetric verdict for %s/%s", a, b)
		}
	}
}

func TestCompatible_DefaultTableKnownPairs(t *testing.T) {
	rs, err := Default()
	require.NoError(t, err)

	v := rs.Compatible("digital-multimeters", "clamp-meters")
	assert.True(t, v.Compatible)
	assert.Equal(t, SourceExplicit, v.Source)

	v = rs.Compatible("angle-grinders", "flammable_environment")
	assert.False(t, v.Compatible)
	assert.Equal(t, SourceReverse, v.Source)

	v = rs.Compatible("safety-goggles", "safety-gloves")
	assert.Equal(t, SourceEcosystem, v.Source)
	assert.Equal(t, "ppe_ecosystem", v.Ecosystem)

	v = rs.Compatible("digital-multimeters", "electrical-insulating-gloves")
	assert.True(t, v.Compatible)
	assert.Equal(t, SourceDefault, v.Source)
}

func TestPlan_Fallback(t *testing.T) {
	rs := &RuleSet{
		Plans:        map[ir.Scenario][]ir.Component{ir.ScenarioFireRisk: {"fire-extinguishers"}},
		FallbackPlan: []ir.Component{"power-drills"},
	}
	assert.Equal(t, []ir.Component{"fire-extinguishers"}, rs.Plan(ir.ScenarioFireRisk))
	assert.Equal(t, []ir.Component{"power-drills"}, rs.Plan("unknown"))
}

func TestDirectDependencies(t *testing.T) {
	rs, err := Default()
	require.NoError(t, err)

	assert.Equal(t, []ir.Component{"safety-goggles"}, rs.DirectDependencies("clamp-meters"))
	assert.Nil(t, rs.DirectDependencies("pliers"))
}
