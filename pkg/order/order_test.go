package order

import (
	"fmt"
	"math/rand"
	"reflect"
	"slices"
	"testing"

	"github.com/matzehuels/buildorder/pkg/dag"
	"github.com/matzehuels/buildorder/pkg/errors"
)

type ref struct {
	from, to string
	kind     dag.RefKind
}

func graph(t *testing.T, ids []string, refs ...ref) *dag.DAG {
	t.Helper()
	g := dag.New(nil)
	for _, id := range ids {
		if err := g.AddNode(dag.Node{ID: id}); err != nil {
			t.Fatalf("AddNode(%q): %v", id, err)
		}
	}
	for _, r := range refs {
		if r.kind == 0 {
			r.kind = dag.RefProject
		}
		if err := g.AddEdge(dag.Edge{From: r.from, To: r.to, Kind: r.kind}); err != nil {
			t.Fatalf("AddEdge(%v): %v", r, err)
		}
	}
	return g
}

func TestResolveChain(t *testing.T) {
	g := graph(t, []string{"A", "B", "C"}, ref{from: "A", to: "B"}, ref{from: "B", to: "C"})

	res, err := Resolve(g, []string{"A"}, Options{})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if want := []string{"C", "B", "A"}; !slices.Equal(res.Order, want) {
		t.Errorf("Order = %v, want %v", res.Order, want)
	}
}

func TestResolveCycleTolerated(t *testing.T) {
	g := graph(t, []string{"A", "B"}, ref{from: "A", to: "B"}, ref{from: "B", to: "A"})

	res, err := Resolve(g, []string{"A"}, Options{ReportCycles: true})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	got := slices.Sorted(slices.Values(res.Order))
	if !slices.Equal(got, []string{"A", "B"}) {
		t.Errorf("Order = %v, want a permutation of [A B]", res.Order)
	}
	if want := [][]string{{"A", "B"}}; !reflect.DeepEqual(res.Cycles, want) {
		t.Errorf("Cycles = %v, want %v", res.Cycles, want)
	}
}

func TestResolveCycleNotReportedByDefault(t *testing.T) {
	g := graph(t, []string{"A", "B"}, ref{from: "A", to: "B"}, ref{from: "B", to: "A"})

	res, err := Resolve(g, nil, Options{})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if res.Cycles != nil {
		t.Errorf("Cycles = %v, want nil", res.Cycles)
	}
}

func TestResolveStrictCycles(t *testing.T) {
	g := graph(t, []string{"A", "B", "C"},
		ref{from: "A", to: "B"}, ref{from: "B", to: "C"}, ref{from: "C", to: "B"})

	res, err := Resolve(g, []string{"A"}, Options{StrictCycles: true})
	if res != nil {
		t.Errorf("Resolve() returned a partial result: %v", res)
	}
	if !errors.Is(err, errors.ErrCodeCycleDetected) {
		t.Fatalf("Resolve() error = %v, want CYCLE_DETECTED", err)
	}
	if got := errors.GetChain(err); !slices.Equal(got, []string{"B", "C"}) {
		t.Errorf("chain = %v, want [B C]", got)
	}
}

func TestResolveKinds(t *testing.T) {
	g := graph(t, []string{"app", "lib", "jar"},
		ref{from: "app", to: "lib", kind: dag.RefContainer},
		ref{from: "app", to: "jar", kind: dag.RefLibrary})

	tests := []struct {
		name  string
		kinds dag.KindSet
		want  []string
	}{
		{"project only", 0, []string{"app"}},
		{"container", dag.Kinds(dag.RefContainer), []string{"lib", "app"}},
		{"container and library", dag.Kinds(dag.RefContainer, dag.RefLibrary), []string{"jar", "lib", "app"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Resolve(g, []string{"app"}, Options{Kinds: tt.kinds})
			if err != nil {
				t.Fatalf("Resolve() error: %v", err)
			}
			if !slices.Equal(res.Order, tt.want) {
				t.Errorf("Order = %v, want %v", res.Order, tt.want)
			}
		})
	}
}

func TestResolveRoots(t *testing.T) {
	g := graph(t, []string{"a", "b", "c", "d"}, ref{from: "b", to: "a"}, ref{from: "d", to: "c"})
	_ = g.AddNode(dag.Node{ID: "ext", Kind: dag.NodeKindExternal})
	_ = g.AddEdge(dag.Edge{From: "c", To: "ext", Kind: dag.RefProject})

	t.Run("all non-external", func(t *testing.T) {
		res, err := Resolve(g, nil, Options{})
		if err != nil {
			t.Fatal(err)
		}
		if want := []string{"a", "b", "c", "d"}; !slices.Equal(res.Order, want) {
			t.Errorf("Order = %v, want %v", res.Order, want)
		}
	})

	t.Run("include external", func(t *testing.T) {
		res, err := Resolve(g, []string{"d"}, Options{IncludeExternal: true})
		if err != nil {
			t.Fatal(err)
		}
		if want := []string{"ext", "c", "d"}; !slices.Equal(res.Order, want) {
			t.Errorf("Order = %v, want %v", res.Order, want)
		}
	})

	t.Run("roots are sorted and deduplicated", func(t *testing.T) {
		res, err := Resolve(g, []string{"d", "b", "d"}, Options{})
		if err != nil {
			t.Fatal(err)
		}
		if want := []string{"b", "d"}; !slices.Equal(res.Roots, want) {
			t.Errorf("Roots = %v, want %v", res.Roots, want)
		}
		if want := []string{"a", "b", "c", "d"}; !slices.Equal(res.Order, want) {
			t.Errorf("Order = %v, want %v", res.Order, want)
		}
	})

	t.Run("skip resolution", func(t *testing.T) {
		res, err := Resolve(g, []string{"d", "b"}, Options{SkipResolution: true})
		if err != nil {
			t.Fatal(err)
		}
		if want := []string{"d", "b"}; !slices.Equal(res.Order, want) {
			t.Errorf("Order = %v, want %v", res.Order, want)
		}
	})

	t.Run("unknown root", func(t *testing.T) {
		_, err := Resolve(g, []string{"nope"}, Options{})
		if !errors.Is(err, errors.ErrCodeUnknownNode) {
			t.Errorf("error = %v, want UNKNOWN_NODE", err)
		}
	})

	t.Run("external root", func(t *testing.T) {
		_, err := Resolve(g, []string{"ext"}, Options{})
		if !errors.Is(err, errors.ErrCodeUnresolvedDependency) {
			t.Errorf("error = %v, want UNRESOLVED_DEPENDENCY", err)
		}
	})
}

// randomDAG builds an acyclic graph by only linking higher indices to lower.
func randomDAG(t *testing.T, rng *rand.Rand, n int) *dag.DAG {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("p%02d", i)
	}
	var refs []ref
	for i := 1; i < n; i++ {
		for j := 0; j < i; j++ {
			if rng.Intn(4) == 0 {
				refs = append(refs, ref{from: ids[i], to: ids[j]})
			}
		}
	}
	rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	return graph(t, ids, refs...)
}

func TestResolveDependenciesFirst(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 25; i++ {
		g := randomDAG(t, rng, 20)
		res, err := Resolve(g, nil, Options{})
		if err != nil {
			t.Fatalf("Resolve() error: %v", err)
		}
		pos := dag.PosMap(res.Order)
		for _, e := range g.Edges() {
			if pos[e.To] >= pos[e.From] {
				t.Fatalf("dependency %s placed after dependent %s in %v", e.To, e.From, res.Order)
			}
		}
		if len(res.Order) != g.NodeCount() {
			t.Fatalf("Order has %d nodes, want %d", len(res.Order), g.NodeCount())
		}
	}
}

func TestResolveDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	g := randomDAG(t, rng, 30)
	_ = g.AddEdge(dag.Edge{From: "p00", To: "p29", Kind: dag.RefProject}) // close a cycle

	first, err := Resolve(g, nil, Options{ReportCycles: true})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := Resolve(g.Clone(), nil, Options{ReportCycles: true})
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs:\n%v\n%v", i, first, again)
		}
	}
}

func TestFindCycles(t *testing.T) {
	g := graph(t, []string{"a", "b", "c"},
		ref{from: "a", to: "b"}, ref{from: "b", to: "a"},
		ref{from: "b", to: "c", kind: dag.RefLibrary}, ref{from: "c", to: "b", kind: dag.RefLibrary})

	if got := FindCycles(g, 0); !reflect.DeepEqual(got, [][]string{{"a", "b"}}) {
		t.Errorf("FindCycles(default) = %v", got)
	}
	if got := FindCycles(g, dag.Kinds(dag.RefLibrary)); !reflect.DeepEqual(got, [][]string{{"b", "c"}}) {
		t.Errorf("FindCycles(library) = %v", got)
	}
}

func TestPosition(t *testing.T) {
	r := &Result{Order: []string{"x", "y"}}
	if r.Position("y") != 1 || r.Position("z") != -1 {
		t.Errorf("Position() = %d, %d", r.Position("y"), r.Position("z"))
	}
}
