package cli

import (
	"context"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/scenegraph/pkg/dsg"
)

// addMergeFlags registers the merge flags shared by merge, sweep and watch.
func addMergeFlags(cmd *cobra.Command, f *mergeFlags) {
	cmd.Flags().StringVar(&f.configFile, "config", "", "merge config file (.toml, .yaml)")
	cmd.Flags().BoolVar(&f.enforceParents, "enforce-parents", true, "keep every child at a single parent")
	cmd.Flags().BoolVar(&f.clearRemoved, "clear-removed", false, "drain the removal ledgers of the incoming graph")
}

// mergeConfig resolves the merge configuration for cmd.
func mergeConfig(cmd *cobra.Command, f mergeFlags) (dsg.GraphMergeConfig, error) {
	cfg, err := loadConfig()
	if err != nil {
		return dsg.GraphMergeConfig{}, err
	}
	return f.resolve(cfg.Merge, cmd.Flags().Changed("enforce-parents"), cmd.Flags().Changed("clear-removed"))
}

// mergeCommand creates the merge command.
func (c *CLI) mergeCommand() *cobra.Command {
	var (
		flags  mergeFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "merge <base> <other>",
		Short: "Merge one graph file into another",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			config, err := mergeConfig(cmd, flags)
			if err != nil {
				return err
			}
			base, err := loadGraph(ctx, args[0])
			if err != nil {
				return err
			}
			other, err := loadGraph(ctx, args[1])
			if err != nil {
				return err
			}

			before := base.NumNodes(false)
			prog := newProgress(loggerFromContext(ctx))
			base.MergeGraph(other, config)
			prog.done("merged", "file", filepath.Base(args[1]), "nodes", base.NumNodes(false)-before)

			if err := saveGraph(ctx, base, output, true); err != nil {
				return err
			}
			printSuccess("Merged %d new nodes", base.NumNodes(false)-before)
			printStats(base.NumNodes(false), base.NumEdges())
			printFile(output)
			return nil
		},
	}

	addMergeFlags(cmd, &flags)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

// sweepResult summarizes an incremental update.
type sweepResult struct {
	Reaffirmed int
	Added      int
	Removed    int
	Took       time.Duration
}

// sweep applies update to base as an incremental rebuild: every edge of base
// is marked stale, edges present in update are reaffirmed or added, and the
// edges nothing reaffirmed are removed.
func sweep(ctx context.Context, base, update *dsg.Graph, config dsg.GraphMergeConfig) sweepResult {
	start := time.Now()
	base.MarkEdgesAsStale()

	var res sweepResult
	for _, e := range allEdges(update) {
		source, target := config.MergedID(e.Source), config.MergedID(e.Target)
		if base.ReaffirmEdge(source, target) {
			res.Reaffirmed++
		}
	}

	edgesBefore := base.NumEdges()
	base.MergeGraph(update, config)
	res.Added = base.NumEdges() - edgesBefore
	res.Removed = base.RemoveAllStaleEdges()
	res.Took = time.Since(start)

	loggerFromContext(ctx).Debug("sweep finished",
		"reaffirmed", res.Reaffirmed, "added", res.Added, "removed", res.Removed, "took", res.Took)
	return res
}

// allEdges returns every intralayer and interlayer edge of g.
func allEdges(g *dsg.Graph) []*dsg.Edge {
	var edges []*dsg.Edge
	for _, key := range g.LayerKeys() {
		edges = append(edges, g.FindKey(key).Edges()...)
	}
	edges = append(edges, g.InterlayerEdges()...)
	return append(edges, g.DynamicInterlayerEdges()...)
}

// sweepCommand creates the sweep command.
func (c *CLI) sweepCommand() *cobra.Command {
	var (
		flags  mergeFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "sweep <base> <update>",
		Short: "Rebuild a graph incrementally, dropping edges the update no longer has",
		Long: `Sweep marks every edge of the base graph as stale, reaffirms the edges
the update still contains, merges the update in and removes the edges that
were not reaffirmed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			config, err := mergeConfig(cmd, flags)
			if err != nil {
				return err
			}
			base, err := loadGraph(ctx, args[0])
			if err != nil {
				return err
			}
			update, err := loadGraph(ctx, args[1])
			if err != nil {
				return err
			}

			res := sweep(ctx, base, update, config)
			if err := saveGraph(ctx, base, output, true); err != nil {
				return err
			}
			printSuccess("Swept %s", args[0])
			printKeyValue("Reaffirmed", formatCount(res.Reaffirmed))
			printKeyValue("Added", formatCount(res.Added))
			printKeyValue("Removed", formatCount(res.Removed))
			printFile(output)
			return nil
		},
	}

	addMergeFlags(cmd, &flags)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
