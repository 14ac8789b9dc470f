package pipeline

import (
	"bytes"
	"context"
	"fmt"

	"github.com/matzehuels/buildorder/pkg/dag/transform"
	bio "github.com/matzehuels/buildorder/pkg/io"
	"github.com/matzehuels/buildorder/pkg/order"
	"github.com/matzehuels/buildorder/pkg/render/nodelink"
)

// Format constants for graph output.
const (
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatJSON = "json"
)

// ValidFormats is the set of supported graph output formats.
var ValidFormats = map[string]bool{
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatJSON: true,
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: dot, svg, png, json)", format)
	}
	return nil
}

// RenderOptions configures [Runner.Render].
type RenderOptions struct {
	Format   string // dot, svg, png or json (default dot)
	Detailed bool   // Annotate nodes with their build-order position
	Reduce   bool   // Drop transitively implied edges of the counted kinds
	Acyclic  bool   // Drop the back edges of cycles over the counted kinds
	AllEdges bool   // Draw every reference kind, not only the counted ones
}

// Render draws the workspace graph after the container stage. Cycles over
// the counted kinds are highlighted.
func (r *Runner) Render(ctx context.Context, opts Options, ropts RenderOptions) ([]byte, error) {
	if ropts.Format == "" {
		ropts.Format = FormatDOT
	}
	if err := ValidateFormat(ropts.Format); err != nil {
		return nil, err
	}
	if err := r.prepare(&opts); err != nil {
		return nil, err
	}

	l, err := r.Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	g := l.Graph
	if ropts.Reduce || ropts.Acyclic {
		g = g.Clone()
	}
	if ropts.Acyclic {
		n := transform.BreakCycles(g, opts.kinds)
		opts.Logger.Debug("removed back edges", "count", n)
	}
	if ropts.Reduce {
		transform.TransitiveReduction(g, opts.kinds)
	}

	if ropts.Format == FormatJSON {
		var buf bytes.Buffer
		if err := bio.WriteJSON(g, &buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	nopts := nodelink.Options{Detailed: ropts.Detailed, Kinds: opts.kinds}
	if ropts.AllEdges {
		nopts.Kinds = 0
	}
	res, err := order.Resolve(g, nil, order.Options{Kinds: opts.kinds, ReportCycles: true})
	if err != nil {
		return nil, explain(g, err)
	}
	nopts.Order, nopts.Cycles = res.Order, res.Cycles

	dot := nodelink.ToDOT(g, nopts)
	switch ropts.Format {
	case FormatSVG:
		return nodelink.RenderSVG(ctx, dot)
	case FormatPNG:
		return nodelink.RenderPNG(ctx, dot)
	}
	return []byte(dot), nil
}
