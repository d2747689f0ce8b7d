package match

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cartpilot/internal/ir"
)

func catalog() []ir.Product {
	return []ir.Product{
		{ID: "Digital-Multimeters-Fluke-117", Price: 24999, CompatibilityTags: []string{"testing"}},
		{ID: "safety-goggles-3m", Price: 4999, CompatibilityTags: []string{"ppe", "safety-goggles"}},
		{ID: "digital-multimeters-klein", Price: 8999},
		{ID: "clamp-meters-fluke-323", Price: 15999, CompatibilityTags: []string{"testing", "digital-multimeters"}},
		{ID: "STRASSE-WRENCHES", Price: 1299},
	}
}

func ids(products []ir.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func TestSubstring(t *testing.T) {
	tests := []struct {
		component ir.Component
		want      []string
	}{
		{"digital-multimeters", []string{"Digital-Multimeters-Fluke-117", "digital-multimeters-klein"}},
		{"safety-goggles", []string{"safety-goggles-3m"}},
		{"FLUKE", []string{"Digital-Multimeters-Fluke-117", "clamp-meters-fluke-323"}},
		// Full case folding: ß folds to ss
		{"straße", []string{"STRASSE-WRENCHES"}},
		{"fire-extinguishers", []string{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.component), func(t *testing.T) {
			got := ids(Substring{}.Match(tt.component, catalog()))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Substring.Match(%q) mismatch (-want +got):\n%s", tt.component, diff)
			}
		})
	}
}

func TestSubstring_DoesNotModifyCatalog(t *testing.T) {
	products := catalog()
	before := catalog()
	_ = Substring{}.Match("digital-multimeters", products)
	assert.Equal(t, before, products)
}

func TestMapping_CatalogOrder(t *testing.T) {
	m := Mapping{
		"digital-multimeters": {"digital-multimeters-klein", "Digital-Multimeters-Fluke-117", "not-in-catalog"},
	}

	got := ids(m.Match("digital-multimeters", catalog()))
	assert.Equal(t, []string{"Digital-Multimeters-Fluke-117", "digital-multimeters-klein"}, got)
	assert.Empty(t, m.Match("clamp-meters", catalog()))
}

func TestTags(t *testing.T) {
	got := ids(Tags{}.Match("digital-multimeters", catalog()))
	assert.Equal(t, []string{"clamp-meters-fluke-323"}, got)
	assert.Empty(t, Tags{}.Match("locks", catalog()))
}

func TestChain_FirstNonEmptyWins(t *testing.T) {
	c := Chain{Mapping{"wrenches": {"STRASSE-WRENCHES"}}, Substring{}}

	assert.Equal(t, []string{"STRASSE-WRENCHES"}, ids(c.Match("wrenches", catalog())))
	assert.Equal(t, []string{"safety-goggles-3m"}, ids(c.Match("safety-goggles", catalog())))
	assert.Empty(t, c.Match("locks", catalog()))
	assert.Empty(t, Chain{}.Match("locks", catalog()))
}

func TestNew(t *testing.T) {
	mapping := map[ir.Component][]string{"locks": {"master-lock-1"}}

	m, err := New("", nil, false)
	require.NoError(t, err)
	assert.IsType(t, Substring{}, m)

	m, err = New(StrategySubstring, nil, true)
	require.NoError(t, err)
	assert.IsType(t, Substring{}, m, "fallback is meaningless for substring")

	m, err = New(StrategyMapping, mapping, false)
	require.NoError(t, err)
	assert.IsType(t, Mapping{}, m)

	m, err = New(StrategyTag, nil, true)
	require.NoError(t, err)
	assert.Equal(t, Chain{Tags{}, Substring{}}, m)

	_, err = New(StrategyMapping, nil, false)
	assert.ErrorContains(t, err, "non-empty mapping")

	_, err = New("regex", nil, false)
	assert.ErrorContains(t, err, `unknown match strategy "regex"`)
}
