package dag

import (
	"errors"
	"maps"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [DAG.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [DAG.AddNode] when a node with the
	// same ID already exists in the graph.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [DAG.AddEdge] when the From node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [DAG.AddEdge] when the To node
	// does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrInvalidEdgeEndpoint is returned by [DAG.Validate] when an edge
	// references a node that doesn't exist.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")

	// ErrInvalidRefKind is returned when a reference kind is unknown.
	ErrInvalidRefKind = errors.New("invalid reference kind")
)

// Metadata stores arbitrary key-value pairs attached to nodes or the graph.
// Metadata maps are never nil after the node or graph has been created.
type Metadata map[string]any

// NodeKind distinguishes workspace projects, bundles and the pseudo-nodes
// standing in for references that could not be resolved.
type NodeKind int

const (
	// NodeKindProject is a source project of the workspace.
	NodeKindProject NodeKind = iota
	// NodeKindBundle is an OSGi-style bundle (source or pre-built binary).
	NodeKindBundle
	// NodeKindExternal stands in for a referenced ID that has no node.
	NodeKindExternal
)

var nodeKindNames = map[NodeKind]string{
	NodeKindProject:  "project",
	NodeKindBundle:   "bundle",
	NodeKindExternal: "external",
}

// String returns the lower-case kind name.
func (k NodeKind) String() string {
	if s, ok := nodeKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParseNodeKind is the inverse of [NodeKind.String].
func ParseNodeKind(s string) (NodeKind, bool) {
	for k, name := range nodeKindNames {
		if name == s {
			return k, true
		}
	}
	return NodeKindProject, false
}

// Node is a project or bundle identity in the dependency graph.
//
// The zero value is not usable - ID must be set before adding to a DAG.
type Node struct {
	ID   string   // Unique identifier
	Kind NodeKind // Project, bundle or external pseudo-node
	Meta Metadata // Arbitrary key-value metadata (never nil after AddNode)

	// Version is the bundle version, empty for plain projects.
	Version string
	// FragmentHost is the ID of the host node when this node is a fragment.
	FragmentHost string
}

// IsExternal reports whether the node stands in for an unresolved reference.
func (n Node) IsExternal() bool { return n.Kind == NodeKindExternal }

// IsFragment reports whether the node declares a fragment host.
func (n Node) IsFragment() bool { return n.FragmentHost != "" }

// Edge is a directed reference from a node to one of its dependencies.
type Edge struct {
	From string   // Dependent node ID
	To   string   // Dependency node ID
	Kind RefKind  // Reference kind
	Meta Metadata // Arbitrary key-value metadata (never nil after AddEdge)
}

type edgeKey struct {
	from, to string
	kind     RefKind
}

// DAG is a directed reference graph between projects and bundles.
//
// Despite the name, the graph may contain cycles: workspaces with cyclic
// project references are tolerated and handled by the resolvers. Use
// [DAG.Validate] and the transform package to inspect them.
//
// The zero value is not usable - use New to create a valid DAG instance.
// DAG is not safe for concurrent use without external synchronization.
type DAG struct {
	nodes    map[string]*Node
	edges    []Edge
	edgeSet  map[edgeKey]struct{}
	outgoing map[string][]Edge // nodeID -> edges in declaration order
	incoming map[string][]Edge // nodeID -> edges in declaration order
	meta     Metadata
}

// New creates an empty DAG with optional graph-level metadata.
func New(meta Metadata) *DAG {
	if meta == nil {
		meta = Metadata{}
	}
	return &DAG{
		nodes:    make(map[string]*Node),
		edgeSet:  make(map[edgeKey]struct{}),
		outgoing: make(map[string][]Edge),
		incoming: make(map[string][]Edge),
		meta:     meta,
	}
}

// Meta returns the graph-level metadata map.
func (d *DAG) Meta() Metadata { return d.meta }

// AddNode adds a node to the graph.
// Returns ErrInvalidNodeID if the node ID is empty, or ErrDuplicateNodeID
// if a node with the same ID already exists.
func (d *DAG) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := d.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if n.Meta == nil {
		n.Meta = Metadata{}
	}
	d.nodes[n.ID] = &n
	return nil
}

// AddEdge adds a directed edge between two existing nodes.
//
// Edges have set semantics per (From, To, Kind): adding an edge that already
// exists is a no-op and returns nil. Edges between the same pair with
// different kinds are kept separately.
func (d *DAG) AddEdge(e Edge) error {
	if _, ok := d.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := d.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	if !e.Kind.Valid() {
		return ErrInvalidRefKind
	}
	key := edgeKey{e.From, e.To, e.Kind}
	if _, dup := d.edgeSet[key]; dup {
		return nil
	}
	if e.Meta == nil {
		e.Meta = Metadata{}
	}
	d.edgeSet[key] = struct{}{}
	d.edges = append(d.edges, e)
	d.outgoing[e.From] = append(d.outgoing[e.From], e)
	d.incoming[e.To] = append(d.incoming[e.To], e)
	return nil
}

// HasEdge reports whether the edge from→to of the given kind exists.
func (d *DAG) HasEdge(from, to string, kind RefKind) bool {
	_, ok := d.edgeSet[edgeKey{from, to, kind}]
	return ok
}

// Linked reports whether any edge from→to exists whose kind is in kinds.
// An empty kinds set matches every kind.
func (d *DAG) Linked(from, to string, kinds KindSet) bool {
	for _, e := range d.outgoing[from] {
		if e.To == to && kinds.Matches(e.Kind) {
			return true
		}
	}
	return false
}

// RemoveEdge removes the edge from→to of the given kind if it exists.
func (d *DAG) RemoveEdge(from, to string, kind RefKind) {
	key := edgeKey{from, to, kind}
	if _, ok := d.edgeSet[key]; !ok {
		return
	}
	delete(d.edgeSet, key)
	match := func(e Edge) bool { return e.From == from && e.To == to && e.Kind == kind }
	d.edges = slices.DeleteFunc(d.edges, match)
	d.outgoing[from] = slices.DeleteFunc(d.outgoing[from], match)
	d.incoming[to] = slices.DeleteFunc(d.incoming[to], match)
}

// Nodes returns all nodes sorted by ID.
// The returned slice contains pointers to the actual node structs.
func (d *DAG) Nodes() []*Node {
	nodes := make([]*Node, 0, len(d.nodes))
	for _, id := range d.NodeIDs() {
		nodes = append(nodes, d.nodes[id])
	}
	return nodes
}

// NodeIDs returns all node IDs in ascending order.
func (d *DAG) NodeIDs() []string {
	return slices.Sorted(maps.Keys(d.nodes))
}

// Edges returns a copy of all edges in insertion order.
func (d *DAG) Edges() []Edge { return slices.Clone(d.edges) }

// NodeCount returns the number of nodes in the graph.
func (d *DAG) NodeCount() int { return len(d.nodes) }

// EdgeCount returns the number of edges in the graph.
func (d *DAG) EdgeCount() int { return len(d.edges) }

// Node returns the node with the given ID and true, or nil and false.
func (d *DAG) Node(id string) (*Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// OutEdges returns the outgoing edges of a node in declaration order.
// The returned slice should not be modified.
func (d *DAG) OutEdges(id string) []Edge { return d.outgoing[id] }

// InEdges returns the incoming edges of a node in declaration order.
// The returned slice should not be modified.
func (d *DAG) InEdges(id string) []Edge { return d.incoming[id] }

// Children returns the distinct IDs this node references through edges of
// the given kinds, in declaration order. An empty kinds set matches all.
func (d *DAG) Children(id string, kinds KindSet) []string {
	return distinct(d.outgoing[id], kinds, func(e Edge) string { return e.To })
}

// Parents returns the distinct IDs of nodes referencing this node through
// edges of the given kinds, in declaration order.
func (d *DAG) Parents(id string, kinds KindSet) []string {
	return distinct(d.incoming[id], kinds, func(e Edge) string { return e.From })
}

func distinct(edges []Edge, kinds KindSet, end func(Edge) string) []string {
	var out []string
	seen := make(map[string]bool, len(edges))
	for _, e := range edges {
		if !kinds.Matches(e.Kind) {
			continue
		}
		id := end(e)
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// Externals returns the external pseudo-nodes sorted by ID.
func (d *DAG) Externals() []*Node {
	var out []*Node
	for _, n := range d.Nodes() {
		if n.IsExternal() {
			out = append(out, n)
		}
	}
	return out
}

// Clone returns a deep copy of the graph structure. Metadata maps are
// copied shallowly.
func (d *DAG) Clone() *DAG {
	c := New(maps.Clone(d.meta))
	for _, id := range d.NodeIDs() {
		n := *d.nodes[id]
		n.Meta = maps.Clone(n.Meta)
		_ = c.AddNode(n)
	}
	for _, e := range d.edges {
		e.Meta = maps.Clone(e.Meta)
		_ = c.AddEdge(e)
	}
	return c
}

// Validate checks that every edge connects existing nodes and that fragment
// hosts refer to nodes of the graph. Cycles are not an integrity violation;
// see transform.FindCycles.
func (d *DAG) Validate() error {
	for _, e := range d.edges {
		if _, ok := d.nodes[e.From]; !ok {
			return ErrInvalidEdgeEndpoint
		}
		if _, ok := d.nodes[e.To]; !ok {
			return ErrInvalidEdgeEndpoint
		}
	}
	for _, n := range d.nodes {
		if n.FragmentHost == "" {
			continue
		}
		if _, ok := d.nodes[n.FragmentHost]; !ok {
			return ErrInvalidEdgeEndpoint
		}
	}
	return nil
}

// PosMap creates a position lookup map from a slice of node IDs.
func PosMap(ids []string) map[string]int {
	m := make(map[string]int, len(ids))
	for i, id := range ids {
		m[id] = i
	}
	return m
}

// NodeIDs extracts the ID from each node in a slice.
func NodeIDs(nodes []*Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}
