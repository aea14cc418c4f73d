package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/scenegraph/pkg/buildinfo"
)

// graphFileCommands take graph files as positional arguments.
var graphFileCommands = map[string]struct{}{
	"info": {}, "convert": {}, "merge": {}, "sweep": {}, "changes": {},
	"render": {}, "browse": {}, "watch": {},
}

// RootCommand creates the root cobra command with all subcommands registered.
// The CLI logger is attached to the command context before any subcommand
// runs.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Scenegraph inspects, merges and serves layered 3D scene graphs",
		Long:         `Scenegraph works with hierarchical scene graphs made of layers (objects, places, rooms, buildings) and per-agent dynamic layers. It converts, merges, renders and watches graph files and keeps snapshots of them.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimPrefix(cmd.CommandPath(), cmd.Root().Name())
			cmd.SetContext(withLogger(cmd.Context(), commandLogger(c.Logger, strings.TrimSpace(name))))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.infoCommand())
	root.AddCommand(c.convertCommand())
	root.AddCommand(c.mergeCommand())
	root.AddCommand(c.sweepCommand())
	root.AddCommand(c.changesCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.snapshotCommand())
	root.AddCommand(c.completionCommand())

	for _, cmd := range root.Commands() {
		if _, ok := graphFileCommands[cmd.Name()]; ok {
			cmd.ValidArgsFunction = graphFileCompletion
		}
	}

	return root
}
