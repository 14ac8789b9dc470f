package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/buildorder/pkg/pipeline"
)

// browseCommand creates the browse command, an interactive build order viewer.
func (c *CLI) browseCommand() *cobra.Command {
	var (
		flags resolveFlags
		set   string
	)

	cmd := &cobra.Command{
		Use:   "browse [workspace] [root...]",
		Short: "Browse a build order interactively",
		Long: `Open an interactive view of the build order. Selecting a project shows the
projects it depends on, the projects that need it and its other references.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.options(cmd, args[0], &flags)
			opts.Roots = args[1:]
			opts.Set = set

			ctx := cmd.Context()
			items, err := withRunner(c, ctx, flags.noCache, func(r *pipeline.Runner) ([]BrowseItem, error) {
				res, err := r.Order(ctx, opts)
				if err != nil {
					return nil, err
				}
				l, err := r.Load(ctx, opts)
				if err != nil {
					return nil, err
				}
				return newBrowseItems(l.Graph, res.Report), nil
			})
			if err != nil {
				return fail(cmd, err, false)
			}

			p := tea.NewProgram(NewOrderBrowserModel(items), tea.WithContext(ctx), tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("browse: %w", err)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&set, "set", "", "take roots from a named project set")

	return cmd
}
