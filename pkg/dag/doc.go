// Package dag provides the reference graph between workspace projects and
// bundles that the build-order and classpath resolvers operate on.
//
// # Overview
//
// Every project or bundle is a [Node] identified by a unique string. A node's
// declared references are its outgoing [Edge]s, kept in declaration order and
// typed by a [RefKind] (source, library, project, container, and the bundle
// kinds require, import and host). Resolvers select the kinds they care
// about with a [KindSet]: only project edges usually affect build order,
// while library and container edges do not.
//
// # Basic Usage
//
//	g := dag.New(nil)
//	g.AddNode(dag.Node{ID: "app"})
//	g.AddNode(dag.Node{ID: "core"})
//	g.AddEdge(dag.Edge{From: "app", To: "core", Kind: dag.RefProject})
//
//	g.Children("app", dag.Kinds(dag.RefProject)) // ["core"]
//
// # Edge Semantics
//
// Edges have set semantics per (from, to, kind): adding the same edge twice
// is a no-op, while two edges between the same pair with different kinds are
// both kept. Every edge endpoint must be a node of the graph. References that
// cannot be resolved are represented by [NodeKindExternal] pseudo-nodes
// rather than dangling edges; the workspace loader creates them.
//
// # Cycles
//
// Despite its name the graph may contain cycles, because real workspaces do.
// The order package tolerates them; the [transform] subpackage finds them.
//
// # Concurrency
//
// DAG instances are not safe for concurrent use. Build one graph per
// resolution run.
//
// [transform]: github.com/matzehuels/buildorder/pkg/dag/transform
package dag
