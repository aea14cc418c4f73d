package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/scenegraph/pkg/dsg"
)

// changesCommand creates the changes command.
func (c *CLI) changesCommand() *cobra.Command {
	var (
		since string
		clear bool
	)

	cmd := &cobra.Command{
		Use:   "changes <file>",
		Short: "List new and removed nodes and edges",
		Long: `List the change ledgers of a graph. A freshly loaded file reports all of
its content as new. With --since the file is swept into the given base
graph first: nodes and edges the base lacks are reported as new, and base
edges the file no longer contains are reported as removed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			g, err := loadGraph(ctx, args[0])
			if err != nil {
				return err
			}
			if since != "" {
				base, err := loadGraph(ctx, since)
				if err != nil {
					return err
				}
				clearLedgers(base)
				sweep(ctx, base, g, dsg.DefaultMergeConfig())
				g = base
			}

			printChanges(g, clear)
			return nil
		},
	}

	cmd.Flags().StringVar(&since, "since", "", "report changes relative to this base graph")
	cmd.Flags().BoolVar(&clear, "clear", false, "acknowledge the changes after listing them")
	return cmd
}

// clearLedgers acknowledges every pending change of g.
func clearLedgers(g *dsg.Graph) {
	g.GetNewNodes(true)
	g.GetRemovedNodes(true)
	g.GetNewEdges(true)
	g.GetRemovedEdges(true)
}

func printChanges(g *dsg.Graph, clear bool) {
	newNodes := g.GetNewNodes(clear)
	removedNodes := g.GetRemovedNodes(clear)
	newEdges := g.GetNewEdges(clear)
	removedEdges := g.GetRemovedEdges(clear)

	printInfo("%s new nodes", formatCount(len(newNodes)))
	for _, id := range newNodes {
		printDetail("+ %s", id)
	}
	printInfo("%s removed nodes", formatCount(len(removedNodes)))
	for _, id := range removedNodes {
		printDetail("- %s", id)
	}
	printInfo("%s new edges", formatCount(len(newEdges)))
	for _, k := range newEdges {
		printDetail("+ %s", k)
	}
	printInfo("%s removed edges", formatCount(len(removedEdges)))
	for _, k := range removedEdges {
		printDetail("- %s", k)
	}
	if clear {
		printSuccess("%d changes acknowledged", len(newNodes)+len(removedNodes)+len(newEdges)+len(removedEdges))
	}
}
