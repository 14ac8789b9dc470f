package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	bio "github.com/matzehuels/buildorder/pkg/io"
	"github.com/matzehuels/buildorder/pkg/pipeline"
)

// classpathCommand creates the classpath command for resolving bundle classpaths.
func (c *CLI) classpathCommand() *cobra.Command {
	var (
		flags     resolveFlags
		set       string
		locations bool
		jsonOut   bool
	)

	cmd := &cobra.Command{
		Use:   "classpath [workspace] [bundle...]",
		Short: "Resolve the classpath of bundles",
		Long: `Resolve the classpath of one or more bundles against the target platform.

A bundle is named by its project, by its symbolic name (the highest version
wins) or by "name_version". Required bundles, imported packages and fragments
are followed transitively. Unresolved requirements are reported together with
the bundle that blocks the chain.`,
		Example: `  buildorder classpath workspace.toml app
  buildorder classpath workspace.toml org.acme.core_1.2.0 --platform release
  buildorder classpath workspace.toml app --locations`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.options(cmd, args[0], &flags)
			opts.Roots = args[1:]
			opts.Set = set

			ctx := cmd.Context()
			res, err := withRunner(c, ctx, flags.noCache, func(r *pipeline.Runner) (*pipeline.ClasspathResult, error) {
				return r.Classpath(ctx, opts)
			})
			if err != nil {
				return fail(cmd, err, jsonOut)
			}

			switch {
			case jsonOut:
				return bio.Encode(cmd.OutOrStdout(), map[string]any{
					"platform":   res.Platform,
					"classpaths": res.Classpaths,
				})
			case locations:
				for _, cp := range res.Classpaths {
					fmt.Fprintln(cmd.OutOrStdout(), strings.Join(cp.Locations, ":"))
				}
				return nil
			}
			printClasspaths(res)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&set, "set", "", "resolve the bundles of a named project set")
	cmd.Flags().BoolVar(&locations, "locations", false, "print one colon-separated location list per bundle")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the result as JSON")

	return cmd
}

func printClasspaths(res *pipeline.ClasspathResult) {
	printSuccess("Resolved %d classpaths on platform %s", len(res.Classpaths), StyleHighlight.Render(res.Platform))
	printStats(res.Stats, res.CacheInfo.Hit)
	for _, cp := range res.Classpaths {
		printNewline()
		fmt.Println(StyleTitle.Render(cp.Root))
		for _, e := range cp.Entries {
			line := "  " + StyleValue.Render(e.Bundle)
			if e.Project != "" {
				line += StyleDim.Render(" (" + e.Project + ")")
			}
			if len(e.Fragments) > 0 {
				line += StyleDim.Render(" + " + strings.Join(e.Fragments, ", "))
			}
			fmt.Println(line)
		}
		if len(cp.Projects) > 0 {
			printKeyValue("projects", strings.Join(cp.Projects, ", "))
		}
	}
}
