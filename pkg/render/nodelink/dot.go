package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/buildorder/pkg/dag"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the build-order position, version and metadata to labels.
	Detailed bool
	// Order is a build order; with Detailed, nodes show their position in it.
	Order []string
	// Cycles are highlighted in red.
	Cycles [][]string
	// Kinds restricts the drawn edges. The empty set draws every edge.
	Kinds dag.KindSet
}

var edgeStyles = map[dag.RefKind]string{
	dag.RefProject:   `style=solid`,
	dag.RefLibrary:   `style=dashed, color=gray40`,
	dag.RefSource:    `style=dotted, color=gray40`,
	dag.RefContainer: `style=bold, color=steelblue`,
	dag.RefRequire:   `style=solid, color=darkgreen`,
	dag.RefImport:    `style=dashed, color=darkgreen`,
	dag.RefHost:      `style=dotted, arrowhead=empty`,
}

// ToDOT converts a reference graph to Graphviz DOT source.
//
// Edges are styled by kind. External pseudo-nodes are drawn dashed and grey,
// bundles with a light fill. Edges between consecutive members of a cycle in
// opts.Cycles are drawn red.
func ToDOT(g *dag.DAG, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=BT;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	pos := dag.PosMap(opts.Order)
	for _, n := range g.Nodes() {
		attrs := fmtAttrs(*n, fmtLabel(*n, pos, opts.Detailed))
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	cyc := cycleEdges(opts.Cycles)
	buf.WriteString("\n")
	for _, e := range g.Edges() {
		if !opts.Kinds.Matches(e.Kind) {
			continue
		}
		attrs := edgeStyles[e.Kind]
		if cyc[[2]string{e.From, e.To}] {
			attrs += `, color=red, penwidth=2`
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From, e.To, attrs)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func cycleEdges(cycles [][]string) map[[2]string]bool {
	out := make(map[[2]string]bool)
	for _, c := range cycles {
		for i, id := range c {
			out[[2]string{id, c[(i+1)%len(c)]}] = true
		}
	}
	return out
}

func fmtLabel(n dag.Node, pos map[string]int, detailed bool) string {
	if !detailed {
		return n.ID
	}

	var parts []string
	if i, ok := pos[n.ID]; ok {
		parts = append(parts, fmt.Sprintf("#%d", i+1))
	}
	if n.Version != "" {
		parts = append(parts, "version: "+n.Version)
	}
	if n.FragmentHost != "" {
		parts = append(parts, "host: "+n.FragmentHost)
	}
	for _, k := range slices.Sorted(maps.Keys(n.Meta)) {
		parts = append(parts, fmt.Sprintf("%s: %v", k, n.Meta[k]))
	}
	if len(parts) == 0 {
		return n.ID
	}
	return n.ID + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n dag.Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch n.Kind {
	case dag.NodeKindExternal:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=gray30")
	case dag.NodeKindBundle:
		attrs = append(attrs, "fillcolor=aliceblue")
	}
	return attrs
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	data, err := render(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(data), nil
}

// RenderPNG renders DOT source to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.PNG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
