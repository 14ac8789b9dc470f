package transform

import (
	"slices"

	"github.com/matzehuels/buildorder/pkg/dag"
)

// FindCycles returns the cycles formed by edges of the given kinds.
//
// Each cycle is listed once, starting at the node where the depth-first
// search re-entered it and ending at the node holding the back edge, so
// cycle[len-1] → cycle[0] closes it. Roots and children are visited in
// lexical order, making the result deterministic. An empty kinds set
// matches every edge.
func FindCycles(g *dag.DAG, kinds dag.KindSet) [][]string {
	var cycles [][]string
	walk(g, kinds, func(stack []string, child string) {
		start := slices.Index(stack, child)
		cycles = append(cycles, slices.Clone(stack[start:]))
	})
	return cycles
}

// BreakCycles removes every back edge of the given kinds and returns the
// number of edges removed. Afterwards FindCycles(g, kinds) is empty.
func BreakCycles(g *dag.DAG, kinds dag.KindSet) int {
	var backEdges [][2]string
	walk(g, kinds, func(stack []string, child string) {
		backEdges = append(backEdges, [2]string{stack[len(stack)-1], child})
	})

	removed := 0
	for _, e := range backEdges {
		for _, k := range kindsBetween(g, e[0], e[1], kinds) {
			g.RemoveEdge(e[0], e[1], k)
			removed++
		}
	}
	return removed
}

func kindsBetween(g *dag.DAG, from, to string, kinds dag.KindSet) []dag.RefKind {
	var out []dag.RefKind
	for _, e := range g.OutEdges(from) {
		if e.To == to && kinds.Matches(e.Kind) {
			out = append(out, e.Kind)
		}
	}
	return out
}

// walk runs a colored DFS over the whole graph and reports each back edge
// together with the current DFS stack.
func walk(g *dag.DAG, kinds dag.KindSet, onBackEdge func(stack []string, child string)) {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, g.NodeCount())
	var stack []string

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		stack = append(stack, id)
		children := slices.Clone(g.Children(id, kinds))
		slices.Sort(children)
		for _, child := range children {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				onBackEdge(stack, child)
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
	}

	for _, id := range g.NodeIDs() {
		if color[id] == white {
			dfs(id)
		}
	}
}
