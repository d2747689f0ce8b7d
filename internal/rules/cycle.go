package rules

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/roach88/cartpilot/internal/ir"
)

// CycleWarning represents a cycle in the dependency table.
//
// Cycles are harmless for one-level expansion, which never follows a
// dependency's own dependencies, so they are warnings. Transitive
// expansion refuses a rule set that has any.
type CycleWarning struct {
	Path    []ir.Component `json:"path"`    // e.g. ["a", "b", "a"]
	Message string         `json:"message"` // Human-readable description
	Level   string         `json:"level"`   // "warning"
}

// AnalyzeCycles finds components that depend, directly or transitively,
// on themselves.
//
// The algorithm:
//  1. Build component → dependency edges from the dependency table
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or a self-loop as a cycle
//
// An acyclic table returns an empty list. Output is sorted by path so the
// result does not depend on map iteration order.
func AnalyzeCycles(rs *RuleSet) []CycleWarning {
	graph := buildDependencyGraph(rs)
	if len(graph) == 0 {
		return []CycleWarning{}
	}

	warnings := []CycleWarning{}
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph))
		}
	}

	sort.Slice(warnings, func(i, j int) bool {
		return warnings[i].Message < warnings[j].Message
	})
	return warnings
}

// dependencyGraph maps component → direct dependencies.
type dependencyGraph map[ir.Component][]ir.Component

func buildDependencyGraph(rs *RuleSet) dependencyGraph {
	graph := make(dependencyGraph, len(rs.Dependencies))
	for c, deps := range rs.Dependencies {
		graph[c] = append(graph[c], deps...)
		for _, d := range deps {
			// Ensure every node exists in the graph
			if _, ok := graph[d]; !ok {
				graph[d] = nil
			}
		}
	}
	return graph
}

func hasSelfLoop(node ir.Component, graph dependencyGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
//
// Nodes are visited in sorted order so SCC membership order is stable.
// Single-node SCCs without self-loops are NOT cycles.
func tarjanSCC(graph dependencyGraph) [][]ir.Component {
	var (
		index   = 0
		stack   []ir.Component
		indices = make(map[ir.Component]int)
		lowlink = make(map[ir.Component]int)
		onStack = make(map[ir.Component]bool)
		sccs    [][]ir.Component
	)

	var strongConnect func(ir.Component)
	strongConnect = func(v ir.Component) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root node: pop the stack and emit an SCC
		if lowlink[v] == indices[v] {
			var scc []ir.Component
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]ir.Component, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	slices.Sort(nodes)
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

func cycleSCCToWarning(scc []ir.Component, graph dependencyGraph) CycleWarning {
	if len(scc) == 1 {
		c := scc[0]
		return CycleWarning{
			Path:    []ir.Component{c, c},
			Message: fmt.Sprintf("Component depends on itself: %s → %s", c, c),
			Level:   "warning",
		}
	}

	path := reconstructCyclePath(scc, graph)
	parts := make([]string, len(path))
	for i, c := range path {
		parts[i] = string(c)
	}
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("Dependency cycle detected: %s", strings.Join(parts, " → ")),
		Level:   "warning",
	}
}

// reconstructCyclePath returns a shortest cycle through the SCC's smallest
// member, found breadth-first along edges that stay inside the SCC.
func reconstructCyclePath(scc []ir.Component, graph dependencyGraph) []ir.Component {
	if len(scc) == 0 {
		return []ir.Component{}
	}

	members := make(map[ir.Component]bool, len(scc))
	for _, c := range scc {
		members[c] = true
	}

	start := slices.Min(scc)
	parent := make(map[ir.Component]ir.Component)
	queue := []ir.Component{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, next := range graph[current] {
			if !members[next] {
				continue
			}
			if next == start {
				var back []ir.Component
				for c := current; c != start; c = parent[c] {
					back = append(back, c)
				}
				slices.Reverse(back)
				path := append([]ir.Component{start}, back...)
				return append(path, start)
			}
			if _, seen := parent[next]; seen {
				continue
			}
			parent[next] = current
			queue = append(queue, next)
		}
	}

	// Unreachable for a real SCC
	return []ir.Component{start}
}
