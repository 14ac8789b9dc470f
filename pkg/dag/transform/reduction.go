package transform

import "github.com/matzehuels/buildorder/pkg/dag"

// TransitiveReduction removes redundant edges of the given kinds.
//
// An edge (u, v) is removed when u reaches v through at least one other
// node using edges of the given kinds. For example, if project edges A→B,
// B→C and A→C all exist, A→C is removed because A reaches C via B. Edges of
// other kinds are left untouched.
//
// Reachability is computed once up front with a DFS per node, so the cost is
// O(V·(V+E)) time and O(V²) space. On graphs with cycles the result keeps
// every node reachable but is not unique.
func TransitiveReduction(g *dag.DAG, kinds dag.KindSet) {
	ids := g.NodeIDs()
	if len(ids) == 0 {
		return
	}

	index := dag.PosMap(ids)
	adjacency := make([][]int, len(ids))
	for _, id := range ids {
		for _, child := range g.Children(id, kinds) {
			adjacency[index[id]] = append(adjacency[index[id]], index[child])
		}
	}

	reachability := computeReachability(adjacency)

	for _, e := range g.Edges() {
		if !kinds.Matches(e.Kind) {
			continue
		}
		src, dst := index[e.From], index[e.To]
		for _, intermediate := range adjacency[src] {
			if intermediate != dst && intermediate != src && reachability[intermediate][dst] {
				g.RemoveEdge(e.From, e.To, e.Kind)
				break
			}
		}
	}
}

func computeReachability(adjacency [][]int) [][]bool {
	n := len(adjacency)
	reachable := make([][]bool, n)
	for i := range reachable {
		reachable[i] = make([]bool, n)
	}

	var dfs func(source, current int)
	dfs = func(source, current int) {
		if reachable[source][current] {
			return
		}
		reachable[source][current] = true
		for _, next := range adjacency[current] {
			dfs(source, next)
		}
	}

	for i := range reachable {
		dfs(i, i)
	}
	return reachable
}
