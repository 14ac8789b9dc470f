package cli

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/buildorder/pkg/diagnose"
	bio "github.com/matzehuels/buildorder/pkg/io"
	"github.com/matzehuels/buildorder/pkg/pipeline"
)

// orderCommand creates the order command for computing a build order.
func (c *CLI) orderCommand() *cobra.Command {
	var (
		flags           resolveFlags
		set             string
		noResolve       bool
		includeExternal bool
		jsonOut         bool
	)

	cmd := &cobra.Command{
		Use:   "order [workspace] [root...]",
		Short: "Print the build order of a workspace",
		Long: `Print the order in which projects must be built so that every project comes
after the projects it references.

Roots select the projects to build; their dependencies are included. Without
roots, every project of the workspace is ordered. Use --set to take the roots
from a project set of the workspace.`,
		Example: `  buildorder order workspace.toml
  buildorder order workspace.toml app tools
  buildorder order workspace.hcl --set frontend --kinds project
  buildorder order workspace.toml --json
  buildorder order graph.json --graph`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.options(cmd, args[0], &flags)
			opts.Roots = args[1:]
			opts.Set = set
			opts.NoResolve = noResolve
			opts.IncludeExternal = includeExternal
			return c.runOrder(cmd, opts, flags.noCache, jsonOut)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&set, "set", "", "take roots from a named project set")
	cmd.Flags().BoolVar(&noResolve, "no-resolve", false, "print the selected roots without resolving dependencies")
	cmd.Flags().BoolVar(&includeExternal, "include-external", false, "keep unresolved references in the order")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the result as JSON")

	return cmd
}

func (c *CLI) runOrder(cmd *cobra.Command, opts pipeline.Options, noCache, jsonOut bool) error {
	ctx := cmd.Context()
	res, err := withRunner(c, ctx, noCache, func(r *pipeline.Runner) (*pipeline.OrderResult, error) {
		return r.Order(ctx, opts)
	})
	if err != nil {
		return fail(cmd, err, jsonOut)
	}

	if jsonOut {
		return bio.Encode(cmd.OutOrStdout(), res.Report)
	}

	printSuccess("Build order of %d projects", len(res.Report.Order))
	printStats(res.Stats, res.CacheInfo.Hit)
	printNewline()

	inCycle := make(map[string]bool)
	for _, cyc := range res.Report.Cycles {
		for _, id := range cyc {
			inCycle[id] = true
		}
	}
	printNumbered(res.Report.Order, inCycle)

	if len(res.Report.Cycles) > 0 {
		printNewline()
		printWarning("%d reference cycles; the order inside a cycle is arbitrary", len(res.Report.Cycles))
		printCycles(res.Report.Cycles)
		input := opts.Workspace
		if opts.Graph != "" {
			input = opts.Graph + " --graph"
		}
		printNextStep("Inspect", fmt.Sprintf("%s cycles %s", appName, input))
	}
	return nil
}

// reportedError marks an error that has already been shown to the user.
type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// Reported reports whether err was already printed by a command.
func Reported(err error) bool {
	var r *reportedError
	return stderrors.As(err, &r)
}

// fail shows err and marks it reported. With jsonOut the diagnosis is
// written to stdout as {"error": ...}.
func fail(cmd *cobra.Command, err error, jsonOut bool) error {
	if jsonOut {
		var ex diagnose.Explanation
		var f *pipeline.Failure
		if stderrors.As(err, &f) {
			ex = f.Explanation
		} else {
			ex = diagnose.Explain(nil, err)
		}
		if encErr := bio.Encode(cmd.OutOrStdout(), map[string]any{"error": ex}); encErr != nil {
			return encErr
		}
		return &reportedError{err}
	}
	printFailure(err)
	return &reportedError{err}
}

// withRunner creates a runner, runs fn and closes the runner.
func withRunner[T any](c *CLI, ctx context.Context, noCache bool, fn func(*pipeline.Runner) (T, error)) (T, error) {
	var zero T
	r, err := c.newRunner(ctx, noCache)
	if err != nil {
		return zero, err
	}
	defer func() {
		if err := r.Close(); err != nil {
			c.Logger.Warn("close cache", "error", err)
		}
	}()
	return fn(r)
}
