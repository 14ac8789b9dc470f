package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/buildorder/pkg/dag"
	bio "github.com/matzehuels/buildorder/pkg/io"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	detailPaneStyle   = lipgloss.NewStyle().PaddingLeft(2).BorderStyle(lipgloss.NormalBorder()).BorderLeft(true).BorderForeground(colorDim)
)

// =============================================================================
// OrderBrowserModel - Interactive build order browser
// =============================================================================

// BrowseItem is one project of the build order with its neighbourhood.
type BrowseItem struct {
	ID         string
	Kind       string
	Version    string
	Deps       []string // Counted references, in declaration order
	Dependents []string // Projects referencing this one through counted kinds
	Other      []string // References of kinds that do not affect the order
	InCycle    bool
}

// newBrowseItems pairs every ordered node with its references in g.
func newBrowseItems(g *dag.DAG, report bio.OrderReport) []BrowseItem {
	kinds, _ := dag.ParseKinds(strings.Join(report.Kinds, ","))
	inCycle := make(map[string]bool)
	for _, c := range report.Cycles {
		for _, id := range c {
			inCycle[id] = true
		}
	}

	items := make([]BrowseItem, 0, len(report.Order))
	for _, id := range report.Order {
		it := BrowseItem{ID: id, InCycle: inCycle[id]}
		if n, ok := g.Node(id); ok {
			it.Kind = n.Kind.String()
			it.Version = n.Version
		}
		it.Deps = g.Children(id, kinds)
		it.Dependents = g.Parents(id, kinds)
		for _, e := range g.OutEdges(id) {
			if !kinds.Matches(e.Kind) {
				it.Other = append(it.Other, e.To+" ("+e.Kind.String()+")")
			}
		}
		items = append(items, it)
	}
	return items
}

// OrderBrowserModel is the bubbletea model for browsing a build order.
type OrderBrowserModel struct {
	Items  []BrowseItem
	Cursor int
	Height int
	Offset int

	index map[string]int
}

// NewOrderBrowserModel creates a browser over items.
func NewOrderBrowserModel(items []BrowseItem) OrderBrowserModel {
	index := make(map[string]int, len(items))
	for i, it := range items {
		index[it.ID] = i
	}
	return OrderBrowserModel{Items: items, Height: 15, index: index}
}

func (m OrderBrowserModel) Init() tea.Cmd {
	return nil
}

func (m OrderBrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m.move(m.Cursor - 1)
		case "down", "j":
			m.move(m.Cursor + 1)
		case "home", "g":
			m.move(0)
		case "end", "G":
			m.move(len(m.Items) - 1)
		case "enter", "d":
			// Jump to the first dependency that is part of the order.
			if it, ok := m.current(); ok {
				for _, dep := range it.Deps {
					if i, ok := m.index[dep]; ok {
						m.move(i)
						break
					}
				}
			}
		case "u":
			if it, ok := m.current(); ok {
				for _, p := range it.Dependents {
					if i, ok := m.index[p]; ok {
						m.move(i)
						break
					}
				}
			}
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
		m.move(m.Cursor)
	}
	return m, nil
}

// move places the cursor at i, clamped, and scrolls it into view.
func (m *OrderBrowserModel) move(i int) {
	if len(m.Items) == 0 {
		return
	}
	i = max(0, min(i, len(m.Items)-1))
	m.Cursor = i
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m OrderBrowserModel) current() (BrowseItem, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.Items) {
		return BrowseItem{}, false
	}
	return m.Items[m.Cursor], true
}

func (m OrderBrowserModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Build Order"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ dependency  u dependent  q quit"))
	b.WriteString("\n\n")

	if len(m.Items) == 0 {
		b.WriteString(listDimStyle.Render("  nothing to build"))
		return b.String()
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.listView(), m.detailView()))
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Items))))

	return b.String()
}

func (m OrderBrowserModel) listView() string {
	end := min(m.Offset+m.Height, len(m.Items))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		it := m.Items[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		mark := ""
		if it.InCycle {
			mark = iconWarning
		}
		rows = append(rows, []string{cursor, fmt.Sprint(i + 1), it.ID, fmt.Sprint(len(it.Deps)), mark})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "#", "Project", "Deps", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Items) {
				return lipgloss.NewStyle()
			}
			it := m.Items[idx]
			switch {
			case idx == m.Cursor:
				return listSelectedStyle
			case col == 4 || it.InCycle:
				return lipgloss.NewStyle().Foreground(colorYellow)
			case it.Kind == "external":
				return listDimStyle
			case col == 1 || col == 3:
				return lipgloss.NewStyle().Foreground(colorGray)
			}
			return listNormalStyle
		})

	return t.Render()
}

func (m OrderBrowserModel) detailView() string {
	it, ok := m.current()
	if !ok {
		return ""
	}
	var b strings.Builder
	b.WriteString(StyleHighlight.Render(it.ID))
	b.WriteString("\n")
	meta := it.Kind
	if it.Version != "" {
		meta += " " + it.Version
	}
	b.WriteString(listDimStyle.Render(meta))
	b.WriteString("\n")
	if it.InCycle {
		b.WriteString(StyleWarning.Render(iconWarning + " part of a reference cycle"))
		b.WriteString("\n")
	}
	section := func(title string, ids []string) {
		b.WriteString("\n")
		b.WriteString(headerLine(title, len(ids)))
		b.WriteString("\n")
		for _, id := range ids {
			style := listNormalStyle
			if _, ok := m.index[id]; !ok {
				style = listDimStyle
			}
			b.WriteString("  " + style.Render(id) + "\n")
		}
	}
	section("Depends on", it.Deps)
	section("Needed by", it.Dependents)
	if len(it.Other) > 0 {
		section("Other references", it.Other)
	}
	return detailPaneStyle.Render(b.String())
}

func headerLine(title string, n int) string {
	return lipgloss.NewStyle().Foreground(colorGray).Bold(true).Render(title) +
		listDimStyle.Render(fmt.Sprintf(" (%d)", n))
}
