// Package transform provides graph queries and transformations over the
// workspace reference graph.
//
// # Cycles
//
// Real workspaces contain cyclic project references. [FindCycles] lists the
// cycles reachable over a set of reference kinds, using depth-first search
// with white/gray/black coloring and lexical tie-breaks so the result is
// deterministic. [BreakCycles] removes the back edges found by the same
// search, which turns the kind-restricted view of the graph into a DAG.
//
// # Transitive Reduction
//
// [TransitiveReduction] removes redundant edges that can be inferred through
// other paths. If A→B and B→C exist, then A→C is redundant and removed. The
// renderer uses it to draw only direct dependencies.
package transform
