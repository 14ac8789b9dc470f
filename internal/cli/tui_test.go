package cli

import (
	"slices"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/buildorder/pkg/dag"
	bio "github.com/matzehuels/buildorder/pkg/io"
)

func browseGraph(t *testing.T) *dag.DAG {
	t.Helper()
	g := dag.New(nil)
	for _, id := range []string{"app", "ui", "model", "junit"} {
		if err := g.AddNode(dag.Node{ID: id}); err != nil {
			t.Fatal(err)
		}
	}
	_ = g.AddEdge(dag.Edge{From: "app", To: "ui", Kind: dag.RefProject})
	_ = g.AddEdge(dag.Edge{From: "ui", To: "model", Kind: dag.RefProject})
	_ = g.AddEdge(dag.Edge{From: "app", To: "junit", Kind: dag.RefLibrary})
	return g
}

func TestNewBrowseItems(t *testing.T) {
	report := bio.OrderReport{Order: []string{"model", "ui", "app"}, Kinds: []string{"project"}}
	items := newBrowseItems(browseGraph(t), report)
	if len(items) != 3 {
		t.Fatalf("len(items) = %d, want 3", len(items))
	}
	app := items[2]
	if !slices.Equal(app.Deps, []string{"ui"}) {
		t.Errorf("app.Deps = %v", app.Deps)
	}
	if !slices.Equal(app.Other, []string{"junit (library)"}) {
		t.Errorf("app.Other = %v", app.Other)
	}
	if ui := items[1]; !slices.Equal(ui.Dependents, []string{"app"}) {
		t.Errorf("ui.Dependents = %v", ui.Dependents)
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestOrderBrowserNavigation(t *testing.T) {
	report := bio.OrderReport{Order: []string{"model", "ui", "app"}, Kinds: []string{"project"}}
	var m tea.Model = NewOrderBrowserModel(newBrowseItems(browseGraph(t), report))

	steps := []struct {
		key  string
		want string
	}{
		{"G", "app"},
		{"enter", "ui"}, // first dependency
		{"enter", "model"},
		{"u", "ui"}, // first dependent
		{"k", "model"},
		{"k", "model"}, // clamped at the top
		{"down", "ui"},
	}
	for _, s := range steps {
		m, _ = m.Update(key(s.key))
		got := m.(OrderBrowserModel)
		if id := got.Items[got.Cursor].ID; id != s.want {
			t.Fatalf("after %q cursor at %q, want %q", s.key, id, s.want)
		}
	}

	if _, cmd := m.Update(key("q")); cmd == nil {
		t.Error("q should quit")
	}
}

func TestOrderBrowserView(t *testing.T) {
	report := bio.OrderReport{
		Order:  []string{"model", "ui", "app"},
		Kinds:  []string{"project"},
		Cycles: [][]string{{"app", "ui"}},
	}
	m := NewOrderBrowserModel(newBrowseItems(browseGraph(t), report))
	m.move(2)
	view := m.View()
	for _, want := range []string{"Build Order", "app", "Depends on", "Needed by", "reference cycle", "[3/3]"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	if empty := NewOrderBrowserModel(nil).View(); !strings.Contains(empty, "nothing to build") {
		t.Errorf("empty view = %q", empty)
	}
}
