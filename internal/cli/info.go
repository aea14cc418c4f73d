package cli

import (
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/scenegraph/pkg/dsg"
)

// infoCommand creates the info command.
func (c *CLI) infoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Show layer, node and edge counts of a graph file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadGraph(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printGraphInfo(g)
			return nil
		},
	}
}

func printGraphInfo(g *dsg.Graph) {
	printLine(StyleTitle.Render("Layers"))
	printLine(layerTable(g))
	printNewline()

	printKeyValue("Nodes", fmt.Sprintf("%d static · %d dynamic", g.NumStaticNodes(), g.NumDynamicNodes()))
	printKeyValue("Edges", fmt.Sprintf("%d static · %d dynamic", g.NumStaticEdges(), g.NumDynamicEdges()))
	printKeyValue("Interlayer", fmt.Sprintf("%d static · %d dynamic", len(g.InterlayerEdges()), len(g.DynamicInterlayerEdges())))
	if g.HasMesh() {
		printKeyValue("Mesh", fmt.Sprintf("%d vertices", g.Mesh().NumVertices()))
	} else {
		printKeyValue("Mesh", "none")
	}
	if ids := g.MapViewIDs(); len(ids) > 0 {
		latest, _ := g.LatestMapViewID()
		printKeyValue("Map views", fmt.Sprintf("%d (latest %d)", len(ids), latest))
	}
	for _, k := range slices.Sorted(maps.Keys(g.Metadata)) {
		printKeyValue(k, fmt.Sprint(g.Metadata[k]))
	}
}

// layerTable renders one row per static and dynamic layer.
func layerTable(g *dsg.Graph) string {
	names := make(map[dsg.LayerID][]string)
	layerNames := g.LayerNames()
	for _, name := range slices.Sorted(maps.Keys(layerNames)) {
		id := layerNames[name]
		names[id] = append(names[id], name)
	}

	var rows [][]string
	for _, key := range g.LayerKeys() {
		l := g.FindKey(key)
		prefix := "—"
		if key.Dynamic {
			prefix = key.Prefix.String()
		}
		name := "—"
		if n := names[key.Layer]; len(n) > 0 {
			name = fmt.Sprint(n)
			if len(n) == 1 {
				name = n[0]
			}
		}
		rows = append(rows, []string{
			strconv.Itoa(int(key.Layer)),
			name,
			prefix,
			strconv.Itoa(l.NumNodes()),
			strconv.Itoa(l.NumEdges()),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Layer", "Name", "Prefix", "Nodes", "Edges").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col >= 3 {
				return lipgloss.NewStyle().Foreground(colorCyan).Align(lipgloss.Right)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		}).
		Render()
}
