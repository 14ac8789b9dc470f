package io

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/matzehuels/buildorder/pkg/dag"
)

type graph struct {
	Nodes []node `json:"nodes"`
	Edges []edge `json:"edges"`
}

type node struct {
	ID           string       `json:"id"`
	Kind         string       `json:"kind,omitempty"`
	Version      string       `json:"version,omitempty"`
	FragmentHost string       `json:"fragment_host,omitempty"`
	Meta         dag.Metadata `json:"meta,omitempty"`
}

type edge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Kind string `json:"kind,omitempty"`
}

// WriteJSON encodes a graph as indented JSON. Nodes are sorted by ID and
// edges keep insertion order.
func WriteJSON(g *dag.DAG, w io.Writer) error {
	nodes := g.Nodes()
	edges := g.Edges()
	out := graph{
		Nodes: make([]node, len(nodes)),
		Edges: make([]edge, len(edges)),
	}

	for i, n := range nodes {
		nd := node{ID: n.ID, Version: n.Version, FragmentHost: n.FragmentHost}
		if len(n.Meta) > 0 {
			nd.Meta = n.Meta
		}
		if n.Kind != dag.NodeKindProject {
			nd.Kind = n.Kind.String()
		}
		out.Nodes[i] = nd
	}
	for i, e := range edges {
		out.Edges[i] = edge{From: e.From, To: e.To, Kind: e.Kind.String()}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadJSON decodes a JSON graph from r.
//
// Errors name the node or edge that caused them and wrap the dag sentinel
// errors, so errors.Is(err, dag.ErrDuplicateNodeID) works. ReadJSON does not
// close r.
func ReadJSON(r io.Reader) (*dag.DAG, error) {
	var data graph
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	g := dag.New(nil)
	for _, n := range data.Nodes {
		nd := dag.Node{ID: n.ID, Version: n.Version, FragmentHost: n.FragmentHost, Meta: n.Meta}
		if n.Kind != "" {
			k, ok := dag.ParseNodeKind(n.Kind)
			if !ok {
				return nil, fmt.Errorf("node %s: unknown kind %q", n.ID, n.Kind)
			}
			nd.Kind = k
		}
		if err := g.AddNode(nd); err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ID, err)
		}
	}
	for _, e := range data.Edges {
		kind := dag.RefProject
		if e.Kind != "" {
			k, err := dag.ParseRefKind(e.Kind)
			if err != nil {
				return nil, fmt.Errorf("edge %s->%s: %w", e.From, e.To, err)
			}
			kind = k
		}
		if err := g.AddEdge(dag.Edge{From: e.From, To: e.To, Kind: kind}); err != nil {
			return nil, fmt.Errorf("edge %s->%s: %w", e.From, e.To, err)
		}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}
