package cli

import (
	"github.com/spf13/cobra"
)

// convertCommand creates the convert command.
func (c *CLI) convertCommand() *cobra.Command {
	var noMesh bool

	cmd := &cobra.Command{
		Use:   "convert <in> <out>",
		Short: "Convert a graph file between JSON and binary",
		Long: `Convert a graph file. Formats follow the file extensions:
.json is JSON; .dsg, .sparkdsg, .msgpack and .bin are binary.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			g, err := loadGraph(ctx, args[0])
			if err != nil {
				return err
			}
			if err := saveGraph(ctx, g, args[1], !noMesh); err != nil {
				return err
			}
			printSuccess("Converted %s", args[0])
			printStats(g.NumNodes(false), g.NumEdges())
			printFile(args[1])
			return nil
		},
	}

	cmd.Flags().BoolVar(&noMesh, "no-mesh", false, "drop the mesh from the output")
	return cmd
}
