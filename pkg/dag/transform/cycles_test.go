package transform

import (
	"reflect"
	"testing"

	"github.com/matzehuels/buildorder/pkg/dag"
)

var projectOnly = dag.Kinds(dag.RefProject)

func build(t *testing.T, ids []string, edges [][2]string, kind dag.RefKind) *dag.DAG {
	t.Helper()
	g := dag.New(nil)
	for _, id := range ids {
		if err := g.AddNode(dag.Node{ID: id}); err != nil {
			t.Fatalf("AddNode(%q): %v", id, err)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(dag.Edge{From: e[0], To: e[1], Kind: kind}); err != nil {
			t.Fatalf("AddEdge(%v): %v", e, err)
		}
	}
	return g
}

func TestFindCycles(t *testing.T) {
	tests := []struct {
		name  string
		ids   []string
		edges [][2]string
		want  [][]string
	}{
		{
			name:  "acyclic",
			ids:   []string{"a", "b", "c"},
			edges: [][2]string{{"a", "b"}, {"b", "c"}},
			want:  nil,
		},
		{
			name:  "two-cycle",
			ids:   []string{"a", "b"},
			edges: [][2]string{{"a", "b"}, {"b", "a"}},
			want:  [][]string{{"a", "b"}},
		},
		{
			name:  "triangle entered mid-way",
			ids:   []string{"root", "x", "y", "z"},
			edges: [][2]string{{"root", "x"}, {"x", "y"}, {"y", "z"}, {"z", "x"}},
			want:  [][]string{{"x", "y", "z"}},
		},
		{
			name:  "self reference",
			ids:   []string{"a"},
			edges: [][2]string{{"a", "a"}},
			want:  [][]string{{"a"}},
		},
		{
			name:  "two separate cycles",
			ids:   []string{"a", "b", "c", "d"},
			edges: [][2]string{{"a", "b"}, {"b", "a"}, {"c", "d"}, {"d", "c"}},
			want:  [][]string{{"a", "b"}, {"c", "d"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := build(t, tt.ids, tt.edges, dag.RefProject)
			got := FindCycles(g, projectOnly)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FindCycles() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFindCyclesIgnoresOtherKinds(t *testing.T) {
	g := build(t, []string{"a", "b"}, [][2]string{{"a", "b"}}, dag.RefProject)
	_ = g.AddEdge(dag.Edge{From: "b", To: "a", Kind: dag.RefLibrary})

	if got := FindCycles(g, projectOnly); len(got) != 0 {
		t.Errorf("FindCycles(project) = %v, want none", got)
	}
	if got := FindCycles(g, 0); len(got) != 1 {
		t.Errorf("FindCycles(all) = %v, want one cycle", got)
	}
}

func TestBreakCycles(t *testing.T) {
	tests := []struct {
		name        string
		ids         []string
		edges       [][2]string
		wantRemoved int
		wantEdges   int
	}{
		{"no cycles", []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}}, 0, 2},
		{"simple cycle", []string{"a", "b"}, [][2]string{{"a", "b"}, {"b", "a"}}, 1, 1},
		{"triangle", []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}}, 1, 2},
		{"multiple cycles", []string{"a", "b", "c", "d"}, [][2]string{{"a", "b"}, {"b", "a"}, {"c", "d"}, {"d", "c"}}, 2, 2},
		{"self loop", []string{"a"}, [][2]string{{"a", "a"}}, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := build(t, tt.ids, tt.edges, dag.RefProject)
			removed := BreakCycles(g, projectOnly)
			if removed != tt.wantRemoved {
				t.Errorf("BreakCycles() removed %d edges, want %d", removed, tt.wantRemoved)
			}
			if g.EdgeCount() != tt.wantEdges {
				t.Errorf("EdgeCount() = %d, want %d", g.EdgeCount(), tt.wantEdges)
			}
			if c := FindCycles(g, projectOnly); len(c) != 0 {
				t.Errorf("cycles remain after BreakCycles: %v", c)
			}
		})
	}
}

func TestTransitiveReduction(t *testing.T) {
	g := build(t, []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}, {"a", "c"}}, dag.RefProject)
	_ = g.AddEdge(dag.Edge{From: "a", To: "c", Kind: dag.RefLibrary})

	TransitiveReduction(g, projectOnly)

	if g.HasEdge("a", "c", dag.RefProject) {
		t.Error("transitive project edge a→c not removed")
	}
	if !g.HasEdge("a", "c", dag.RefLibrary) {
		t.Error("library edge a→c should be untouched")
	}
	if !g.HasEdge("a", "b", dag.RefProject) || !g.HasEdge("b", "c", dag.RefProject) {
		t.Error("direct edges removed")
	}
}

func TestTransitiveReductionEmpty(t *testing.T) {
	g := dag.New(nil)
	TransitiveReduction(g, 0)
	if g.EdgeCount() != 0 {
		t.Errorf("EdgeCount() = %d, want 0", g.EdgeCount())
	}
}
