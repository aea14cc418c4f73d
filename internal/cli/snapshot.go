package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/scenegraph/pkg/dsg"
	sgerrors "github.com/matzehuels/scenegraph/pkg/errors"
	"github.com/matzehuels/scenegraph/pkg/store"
)

// snapshotCommand creates the snapshot management command.
func (c *CLI) snapshotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Store and retrieve graph snapshots",
		Long: `Manage graph snapshots in the store selected by the config file
(file, badger, redis or none).`,
	}

	cmd.AddCommand(c.snapshotPutCommand())
	cmd.AddCommand(c.snapshotGetCommand())
	cmd.AddCommand(c.snapshotListCommand())
	cmd.AddCommand(c.snapshotRemoveCommand())

	return cmd
}

// openStore opens the store configured for the CLI.
func openStore(ctx context.Context) (store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := loggerFromContext(ctx)
	logger.Debug("opening snapshot store", "backend", cfg.Snapshots.Backend, "dir", cfg.Snapshots.Dir)
	return store.Open(ctx, cfg.Snapshots, logger)
}

func parseFormat(s string) (dsg.Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return dsg.FormatJSON, nil
	case "binary", "bin", "msgpack":
		return dsg.FormatBinary, nil
	}
	return dsg.FormatUnknown, sgerrors.New(sgerrors.ErrCodeInvalidInput, "unknown format %q (want json or binary)", s)
}

// snapshotPutCommand creates the "snapshot put" subcommand.
func (c *CLI) snapshotPutCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:               "put <file>",
		Short:             "Store a graph file as a new snapshot",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: graphFileCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, err := parseFormat(format)
			if err != nil {
				return err
			}
			g, err := loadGraph(ctx, args[0])
			if err != nil {
				return err
			}
			s, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			spinner := newSpinnerWithContext(ctx, "Storing snapshot...")
			spinner.Start()
			snap, err := store.SaveGraph(ctx, s, g, f)
			if err != nil {
				spinner.StopWithError("Snapshot failed")
				return err
			}
			spinner.StopWithSuccess("Stored snapshot")
			printKeyValue("ID", snap.ID)
			printKeyValue("Size", formatBytes(snap.Size))
			printKeyValue("Hash", snap.Hash[:16])
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "binary", "encoding: json or binary")
	return cmd
}

// snapshotGetCommand creates the "snapshot get" subcommand.
func (c *CLI) snapshotGetCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Restore a snapshot into a graph file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := sgerrors.ValidateSnapshotID(args[0]); err != nil {
				return err
			}
			s, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			g, err := store.LoadGraph(ctx, s, args[0], dsg.WithLogger(loggerFromContext(ctx)))
			if err != nil {
				return err
			}
			if err := saveGraph(ctx, g, output, true); err != nil {
				return err
			}
			printSuccess("Restored snapshot %s", args[0])
			printStats(g.NumNodes(false), g.NumEdges())
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

// snapshotListCommand creates the "snapshot list" subcommand.
func (c *CLI) snapshotListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			snaps, err := s.List(ctx)
			if err != nil {
				return err
			}
			if len(snaps) == 0 {
				printInfo("No snapshots")
				return nil
			}
			for _, snap := range snaps {
				printLine(fmt.Sprintf("%s  %s  %s",
					StyleHighlight.Render(snap.ID),
					StyleDim.Render(snap.CreatedAt.Local().Format(time.DateTime)),
					StyleValue.Render(formatBytes(snap.Size))))
			}
			return nil
		},
	}
}

// snapshotRemoveCommand creates the "snapshot rm" subcommand.
func (c *CLI) snapshotRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"remove", "delete"},
		Short:   "Delete snapshots",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			for _, id := range args {
				if err := s.Delete(ctx, id); err != nil {
					return err
				}
				printSuccess("Deleted %s", id)
			}
			return nil
		},
	}
}
