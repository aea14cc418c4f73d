package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/scenegraph/pkg/dsg"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// browseCommand creates the browse command.
func (c *CLI) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse <file>",
		Short: "Browse layers and nodes of a graph interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadGraph(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = tea.NewProgram(NewBrowseModel(g), tea.WithContext(cmd.Context()), tea.WithAltScreen()).Run()
			return err
		},
	}
}

// =============================================================================
// BrowseModel - Interactive layer and node browser
// =============================================================================

// browseLevel is the screen the browser shows.
type browseLevel int

const (
	levelLayers browseLevel = iota
	levelNodes
	levelNode
)

// BrowseModel is the bubbletea model for browsing a graph: a list of
// layers, the nodes of the selected layer and the details of one node.
type BrowseModel struct {
	Graph  *dsg.Graph
	Keys   []dsg.LayerKey
	Nodes  []*dsg.Node
	Level  browseLevel
	Height int

	layerCursor, layerOffset int
	nodeCursor, nodeOffset   int
}

// NewBrowseModel creates a browser positioned on the layer list.
func NewBrowseModel(g *dsg.Graph) BrowseModel {
	return BrowseModel{
		Graph:  g,
		Keys:   g.LayerKeys(),
		Height: 15,
	}
}

func (m BrowseModel) Init() tea.Cmd {
	return nil
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc", "left", "h", "backspace":
			if m.Level == levelLayers {
				return m, tea.Quit
			}
			m.Level--
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "enter", "right", "l":
			m.descend()
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m *BrowseModel) move(delta int) {
	switch m.Level {
	case levelLayers:
		m.layerCursor, m.layerOffset = scroll(m.layerCursor, m.layerOffset, delta, len(m.Keys), m.Height)
	case levelNodes:
		m.nodeCursor, m.nodeOffset = scroll(m.nodeCursor, m.nodeOffset, delta, len(m.Nodes), m.Height)
	}
}

// scroll moves a cursor within [0, n) and keeps it inside the visible window.
func scroll(cursor, offset, delta, n, height int) (int, int) {
	cursor = min(max(cursor+delta, 0), max(n-1, 0))
	if cursor < offset {
		offset = cursor
	}
	if cursor >= offset+height {
		offset = cursor - height + 1
	}
	return cursor, offset
}

func (m *BrowseModel) descend() {
	switch m.Level {
	case levelLayers:
		if len(m.Keys) == 0 {
			return
		}
		l := m.Graph.FindKey(m.Keys[m.layerCursor])
		if l == nil || l.NumNodes() == 0 {
			return
		}
		m.Nodes = l.Nodes()
		m.nodeCursor, m.nodeOffset = 0, 0
		m.Level = levelNodes
	case levelNodes:
		if len(m.Nodes) > 0 {
			m.Level = levelNode
		}
	}
}

func (m BrowseModel) View() string {
	var b strings.Builder
	switch m.Level {
	case levelLayers:
		b.WriteString(StyleTitle.Render("Layers"))
		b.WriteString("\n")
		b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ open  q quit"))
		b.WriteString("\n\n")
		b.WriteString(m.layerList())
	case levelNodes:
		b.WriteString(StyleTitle.Render("Layer " + m.Keys[m.layerCursor].String()))
		b.WriteString("\n")
		b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ details  esc back  q quit"))
		b.WriteString("\n\n")
		b.WriteString(m.nodeTable())
		b.WriteString("\n\n")
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.nodeCursor+1, len(m.Nodes))))
	case levelNode:
		n := m.Nodes[m.nodeCursor]
		b.WriteString(StyleTitle.Render("Node " + n.ID.Label()))
		b.WriteString("\n")
		b.WriteString(listDimStyle.Render("esc back  q quit"))
		b.WriteString("\n\n")
		b.WriteString(nodeDetails(n))
	}
	return b.String()
}

func (m BrowseModel) layerList() string {
	var b strings.Builder
	end := min(m.layerOffset+m.Height, len(m.Keys))
	for i := m.layerOffset; i < end; i++ {
		key := m.Keys[i]
		l := m.Graph.FindKey(key)
		cursor := "  "
		if i == m.layerCursor {
			cursor = "▸ "
		}
		kind := "static"
		if key.Dynamic {
			kind = "dynamic " + key.Prefix.String()
		}
		line := fmt.Sprintf("%s%-8s %-12s %5d nodes %5d edges", cursor, key.String(), kind, l.NumNodes(), l.NumEdges())
		switch {
		case i == m.layerCursor:
			b.WriteString(listSelectedStyle.Render(line))
		case l.NumNodes() == 0:
			b.WriteString(listDimStyle.Render(line))
		default:
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}
	if len(m.Keys) == 0 {
		b.WriteString(listDimStyle.Render("  (no layers)"))
	}
	return b.String()
}

func (m BrowseModel) nodeTable() string {
	end := min(m.nodeOffset+m.Height, len(m.Nodes))
	rows := [][]string{}
	for i := m.nodeOffset; i < end; i++ {
		n := m.Nodes[i]
		cursor := "  "
		if i == m.nodeCursor {
			cursor = "▸ "
		}
		name := "—"
		if attrs, ok := n.Attributes().(*dsg.NodeAttrs); ok && attrs.Name != "" {
			name = attrs.Name
		}
		rows = append(rows, []string{
			cursor, n.ID.Label(), name,
			strconv.Itoa(len(n.Parents())), strconv.Itoa(len(n.Children())), strconv.Itoa(len(n.Siblings())),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Node", "Name", "Parents", "Children", "Siblings").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.nodeOffset+row == m.nodeCursor {
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			if col >= 3 {
				return lipgloss.NewStyle().Foreground(colorGray)
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

func nodeDetails(n *dsg.Node) string {
	var b strings.Builder
	kv := func(k, v string) {
		b.WriteString(lipgloss.NewStyle().Foreground(colorGray).Width(12).Render(k))
		b.WriteString(" ")
		b.WriteString(StyleValue.Render(v))
		b.WriteString("\n")
	}
	kv("Layer", strconv.Itoa(int(n.Layer)))
	if stamp, ok := n.Timestamp(); ok {
		kv("Timestamp", stamp.String())
	}
	if attrs, ok := n.Attributes().(*dsg.NodeAttrs); ok {
		if attrs.Name != "" {
			kv("Name", attrs.Name)
		}
		p := attrs.Position
		kv("Position", fmt.Sprintf("%.3f, %.3f, %.3f", p[0], p[1], p[2]))
		kv("Semantic", strconv.FormatUint(uint64(attrs.SemanticLabel), 10))
		if len(attrs.Views) > 0 {
			kv("Views", strconv.Itoa(len(attrs.Views)))
		}
	}
	kv("Parents", joinIDs(n.Parents()))
	kv("Children", joinIDs(n.Children()))
	kv("Siblings", joinIDs(n.Siblings()))
	return b.String()
}

func joinIDs(ids []dsg.NodeID) string {
	if len(ids) == 0 {
		return "—"
	}
	labels := make([]string, len(ids))
	for i, id := range ids {
		labels[i] = id.Label()
	}
	return strings.Join(labels, ", ")
}
