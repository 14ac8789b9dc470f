package nodelink

import (
	"strings"
	"testing"

	"github.com/matzehuels/buildorder/pkg/dag"
)

func testGraph(t *testing.T) *dag.DAG {
	t.Helper()
	g := dag.New(nil)
	for _, n := range []dag.Node{
		{ID: "app"},
		{ID: "core"},
		{ID: "junit", Kind: dag.NodeKindExternal},
		{ID: "org.lib_1.0.0", Kind: dag.NodeKindBundle, Version: "1.0.0"},
	} {
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	_ = g.AddEdge(dag.Edge{From: "app", To: "core", Kind: dag.RefProject})
	_ = g.AddEdge(dag.Edge{From: "core", To: "app", Kind: dag.RefProject})
	_ = g.AddEdge(dag.Edge{From: "app", To: "junit", Kind: dag.RefLibrary})
	return g
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(testGraph(t), Options{})

	for _, want := range []string{
		"digraph G {",
		`"app" -> "core" [style=solid];`,
		`"app" -> "junit" [style=dashed, color=gray40];`,
		`"junit" [label="junit", style="rounded,filled,dashed"`,
		`"org.lib_1.0.0" [label="org.lib_1.0.0", fillcolor=aliceblue];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOTCyclesAndKinds(t *testing.T) {
	dot := ToDOT(testGraph(t), Options{
		Cycles: [][]string{{"app", "core"}},
		Kinds:  dag.Kinds(dag.RefProject),
	})
	if !strings.Contains(dot, `"app" -> "core" [style=solid, color=red, penwidth=2];`) {
		t.Errorf("cycle edge app->core not highlighted:\n%s", dot)
	}
	if !strings.Contains(dot, `"core" -> "app" [style=solid, color=red, penwidth=2];`) {
		t.Errorf("closing edge core->app not highlighted:\n%s", dot)
	}
	if strings.Contains(dot, `"app" -> "junit"`) {
		t.Error("library edge should be filtered out")
	}
}

func TestDetailedLabel(t *testing.T) {
	n := dag.Node{ID: "org.lib_1.0.0", Version: "1.0.0", Meta: dag.Metadata{"project": "lib"}}
	got := fmtLabel(n, map[string]int{"org.lib_1.0.0": 1}, true)
	want := "org.lib_1.0.0\n#2\nversion: 1.0.0\nproject: lib"
	if got != want {
		t.Errorf("fmtLabel() = %q, want %q", got, want)
	}
	if got := fmtLabel(dag.Node{ID: "x"}, nil, true); got != "x" {
		t.Errorf("plain detailed label = %q", got)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 100.00 50.00" xmlns="x"><g/></svg>`)
	got := string(normalizeViewBox(in))
	if !strings.Contains(got, `viewBox="0 0 100.00 50.00" width="100" height="50"`) {
		t.Errorf("normalizeViewBox() = %s", got)
	}
	if string(normalizeViewBox([]byte("<svg>"))) != "<svg>" {
		t.Error("svg without viewBox should be unchanged")
	}
}
