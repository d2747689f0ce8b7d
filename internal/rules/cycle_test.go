package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cartpilot/internal/ir"
)

func TestAnalyzeCycles_Empty(t *testing.T) {
	assert.Equal(t, []CycleWarning{}, AnalyzeCycles(&RuleSet{}))
}

func TestAnalyzeCycles_Acyclic(t *testing.T) {
	rs := &RuleSet{Dependencies: map[ir.Component][]ir.Component{
		"a": {"b", "c"},
		"b": {"c"},
	}}
	assert.Empty(t, AnalyzeCycles(rs))
}

func TestAnalyzeCycles_SelfLoop(t *testing.T) {
	rs := &RuleSet{Dependencies: map[ir.Component][]ir.Component{
		"harness": {"harness", "helmet"},
	}}

	warnings := AnalyzeCycles(rs)
	require.Len(t, warnings, 1)
	assert.Equal(t, []ir.Component{"harness", "harness"}, warnings[0].Path)
	assert.Equal(t, "Component depends on itself: harness → harness", warnings[0].Message)
	assert.Equal(t, "warning", warnings[0].Level)
}

func TestAnalyzeCycles_MultiNode(t *testing.T) {
	rs := &RuleSet{Dependencies: map[ir.Component][]ir.Component{
		"detector":   {"respirator"},
		"respirator": {"alarm"},
		"alarm":      {"detector"},
		"drill":      {"goggles"},
	}}

	warnings := AnalyzeCycles(rs)
	require.Len(t, warnings, 1)
	assert.Equal(t, []ir.Component{"alarm", "detector", "respirator", "alarm"}, warnings[0].Path)
	assert.Equal(t, "Dependency cycle detected: alarm → detector → respirator → alarm", warnings[0].Message)
}

func TestAnalyzeCycles_PathReturnsToStart(t *testing.T) {
	// A greedy walk from a would wander a → b → c and get stuck
	rs := &RuleSet{Dependencies: map[ir.Component][]ir.Component{
		"a": {"b"},
		"b": {"c", "a"},
		"c": {"b"},
	}}

	warnings := AnalyzeCycles(rs)
	require.Len(t, warnings, 1)
	path := warnings[0].Path
	assert.Equal(t, []ir.Component{"a", "b", "a"}, path)
	assert.Equal(t, path[0], path[len(path)-1])
}

func TestAnalyzeCycles_ShortestCycle(t *testing.T) {
	rs := &RuleSet{Dependencies: map[ir.Component][]ir.Component{
		"a": {"b", "d"},
		"b": {"c"},
		"c": {"a"},
		"d": {"a"},
	}}

	warnings := AnalyzeCycles(rs)
	require.Len(t, warnings, 1)
	assert.Equal(t, []ir.Component{"a", "d", "a"}, warnings[0].Path)
	assert.Equal(t, "Dependency cycle detected: a → d → a", warnings[0].Message)
}

func TestAnalyzeCycles_SortedAndStable(t *testing.T) {
	rs := &RuleSet{Dependencies: map[ir.Component][]ir.Component{
		"z": {"y"},
		"y": {"z"},
		"b": {"a"},
		"a": {"b"},
	}}

	first := AnalyzeCycles(rs)
	require.Len(t, first, 2)
	assert.Equal(t, "Dependency cycle detected: a → b → a", first[0].Message)
	assert.Equal(t, "Dependency cycle detected: y → z → y", first[1].Message)

	for range 10 {
		assert.Equal(t, first, AnalyzeCycles(rs))
	}
}
