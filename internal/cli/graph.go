package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/buildorder/pkg/pipeline"
)

// graphCommand creates the graph command for drawing the reference graph.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		flags    resolveFlags
		format   string
		output   string
		detailed bool
		reduce   bool
		acyclic  bool
		allEdges bool
	)

	cmd := &cobra.Command{
		Use:   "graph [workspace]",
		Short: "Draw the workspace reference graph",
		Long: `Draw the reference graph of a workspace after container resolution.

Edges are styled by reference kind and cycle edges are highlighted. The
format is taken from --format, or from the extension of --output.`,
		Example: `  buildorder graph workspace.toml | dot -Tsvg > graph.svg
  buildorder graph workspace.toml -o graph.svg --detailed
  buildorder graph workspace.toml -o graph.png --reduce
  buildorder graph workspace.toml --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = formatFromPath(output)
			}
			if err := pipeline.ValidateFormat(format); err != nil {
				return err
			}
			opts := c.options(cmd, args[0], &flags)
			ropts := pipeline.RenderOptions{
				Format:   format,
				Detailed: detailed,
				Reduce:   reduce,
				Acyclic:  acyclic,
				AllEdges: allEdges,
			}

			ctx := cmd.Context()
			prog := newProgress(loggerFromContext(ctx))
			var spinner *Spinner
			if format == pipeline.FormatSVG || format == pipeline.FormatPNG {
				spinner = newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", format))
				spinner.Start()
			}
			data, err := withRunner(c, ctx, flags.noCache, func(r *pipeline.Runner) ([]byte, error) {
				return r.Render(ctx, opts, ropts)
			})
			if spinner != nil {
				spinner.Stop()
			}
			if err != nil {
				return fail(cmd, err, false)
			}
			prog.done(fmt.Sprintf("Rendered %s graph", format))

			if output == "" || output == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printSuccess("Wrote %s graph", strings.ToUpper(format))
			printFile(output)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: dot, svg, png, json (default dot)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "label nodes with their build-order position and version")
	cmd.Flags().BoolVar(&reduce, "reduce", false, "drop edges implied by longer paths")
	cmd.Flags().BoolVar(&acyclic, "break-cycles", false, "drop the back edge of every cycle")
	cmd.Flags().BoolVar(&allEdges, "all-edges", false, "draw every reference kind, not only the counted ones")

	return cmd
}

// formatFromPath infers the output format from a file extension.
func formatFromPath(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "gv" {
		return pipeline.FormatDOT
	}
	if pipeline.ValidFormats[ext] {
		return ext
	}
	return pipeline.FormatDOT
}
