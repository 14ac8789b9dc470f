package io

import (
	"bytes"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/buildorder/pkg/dag"
	"github.com/matzehuels/buildorder/pkg/order"
)

func sampleGraph(t *testing.T) *dag.DAG {
	t.Helper()
	g := dag.New(nil)
	nodes := []dag.Node{
		{ID: "app"},
		{ID: "core", Meta: dag.Metadata{"owner": "platform"}},
		{ID: "org.lib_1.0.0", Kind: dag.NodeKindBundle, Version: "1.0.0"},
		{ID: "org.lib.nl_1.0.0", Kind: dag.NodeKindBundle, Version: "1.0.0", FragmentHost: "org.lib_1.0.0"},
		{ID: "missing", Kind: dag.NodeKindExternal},
	}
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	edges := []dag.Edge{
		{From: "app", To: "core", Kind: dag.RefProject},
		{From: "app", To: "missing", Kind: dag.RefLibrary},
		{From: "org.lib.nl_1.0.0", To: "org.lib_1.0.0", Kind: dag.RefHost},
	}
	for _, e := range edges {
		if err := g.AddEdge(e); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func TestRoundTrip(t *testing.T) {
	g := sampleGraph(t)
	var buf bytes.Buffer
	if err := WriteJSON(g, &buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	got, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}

	if !slices.Equal(got.NodeIDs(), g.NodeIDs()) {
		t.Errorf("nodes = %v, want %v", got.NodeIDs(), g.NodeIDs())
	}
	if got.EdgeCount() != g.EdgeCount() {
		t.Errorf("edges = %d, want %d", got.EdgeCount(), g.EdgeCount())
	}
	if !got.HasEdge("app", "missing", dag.RefLibrary) {
		t.Error("library edge lost")
	}
	n, _ := got.Node("org.lib.nl_1.0.0")
	if n.Kind != dag.NodeKindBundle || n.Version != "1.0.0" || n.FragmentHost != "org.lib_1.0.0" {
		t.Errorf("fragment node = %+v", n)
	}
	if m, _ := got.Node("missing"); !m.IsExternal() {
		t.Error("external kind lost")
	}
	if c, _ := got.Node("core"); c.Meta["owner"] != "platform" {
		t.Errorf("meta lost: %v", c.Meta)
	}
}

func TestReadJSONDefaults(t *testing.T) {
	g, err := ReadJSON(strings.NewReader(`{"nodes":[{"id":"a"},{"id":"b"}],"edges":[{"from":"a","to":"b"}]}`))
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if !g.HasEdge("a", "b", dag.RefProject) {
		t.Error("edge kind should default to project")
	}
}

func TestReadJSONErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"duplicate node", `{"nodes":[{"id":"a"},{"id":"a"}],"edges":[]}`, dag.ErrDuplicateNodeID},
		{"unknown target", `{"nodes":[{"id":"a"}],"edges":[{"from":"a","to":"x"}]}`, dag.ErrUnknownTargetNode},
		{"bad edge kind", `{"nodes":[{"id":"a"},{"id":"b"}],"edges":[{"from":"a","to":"b","kind":"bogus"}]}`, dag.ErrInvalidRefKind},
		{"dangling host", `{"nodes":[{"id":"f","fragment_host":"h"}],"edges":[]}`, dag.ErrInvalidEdgeEndpoint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSON(strings.NewReader(tt.input))
			if !errors.Is(err, tt.want) {
				t.Errorf("ReadJSON() = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := ReadJSON(strings.NewReader(`{"nodes":[{"id":"a","kind":"tower"}]}`)); err == nil {
		t.Error("unknown node kind should fail")
	}
	if _, err := ReadJSON(strings.NewReader(`{`)); err == nil {
		t.Error("malformed JSON should fail")
	}
}

func TestOrderReport(t *testing.T) {
	r := &order.Result{Roots: []string{"app"}, Order: []string{"core", "app"}}
	rep := NewOrderReport(r, order.Options{})
	if !slices.Equal(rep.Kinds, []string{"project"}) {
		t.Errorf("Kinds = %v, want default [project]", rep.Kinds)
	}
	if back := rep.Result(); back.Position("app") != 1 {
		t.Errorf("Result().Position(app) = %d", back.Position("app"))
	}

	var buf bytes.Buffer
	if err := Encode(&buf, NewOrderReport(&order.Result{}, order.Options{})); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"order": []`) {
		t.Errorf("empty order should encode as []: %s", buf.String())
	}
}
