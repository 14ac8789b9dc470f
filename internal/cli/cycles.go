package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/buildorder/pkg/errors"
	bio "github.com/matzehuels/buildorder/pkg/io"
	"github.com/matzehuels/buildorder/pkg/pipeline"
)

var errCyclesFound = errors.New(errors.ErrCodeCycleDetected, "workspace contains reference cycles")

// cyclesCommand creates the cycles command for listing reference cycles.
func (c *CLI) cyclesCommand() *cobra.Command {
	var (
		flags   resolveFlags
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "cycles [workspace]",
		Short: "List reference cycles between projects",
		Long: `List the cycles formed by the counted reference kinds. Each cycle is printed
starting at its smallest project name. The command fails with a non-zero exit
code when at least one cycle exists, so it can guard a CI job.`,
		Example: `  buildorder cycles workspace.toml
  buildorder cycles workspace.toml --kinds project,library`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.options(cmd, args[0], &flags)

			ctx := cmd.Context()
			res, err := withRunner(c, ctx, flags.noCache, func(r *pipeline.Runner) (*pipeline.CyclesResult, error) {
				return r.Cycles(ctx, opts)
			})
			if err != nil {
				return fail(cmd, err, jsonOut)
			}

			if jsonOut {
				cycles := res.Cycles
				if cycles == nil {
					cycles = [][]string{}
				}
				if err := bio.Encode(cmd.OutOrStdout(), map[string]any{
					"kinds":  res.Kinds,
					"cycles": cycles,
				}); err != nil {
					return err
				}
				if len(cycles) > 0 {
					return &reportedError{errCyclesFound}
				}
				return nil
			}

			if len(res.Cycles) == 0 {
				printSuccess("No cycles")
				printStats(res.Stats, res.CacheInfo.Hit)
				return nil
			}
			printWarning("%d reference cycles", len(res.Cycles))
			printStats(res.Stats, res.CacheInfo.Hit)
			printNewline()
			printCycles(res.Cycles)
			return &reportedError{errCyclesFound}
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the result as JSON")

	return cmd
}
