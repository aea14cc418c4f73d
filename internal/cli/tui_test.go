package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/scenegraph/pkg/dsg"
)

func press(t *testing.T, m BrowseModel, keys ...tea.KeyType) BrowseModel {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(tea.KeyMsg{Type: k})
		m = next.(BrowseModel)
	}
	return m
}

func TestBrowseNavigation(t *testing.T) {
	g := placesGraph(3)
	m := NewBrowseModel(g)

	placesRow := -1
	for i, k := range m.Keys {
		if k == dsg.StaticKey(dsg.LayerPlaces) {
			placesRow = i
		}
	}
	if placesRow < 0 {
		t.Fatalf("places layer missing from %v", m.Keys)
	}
	for range placesRow {
		m = press(t, m, tea.KeyDown)
	}
	if m.layerCursor != placesRow {
		t.Fatalf("layerCursor = %d, want %d", m.layerCursor, placesRow)
	}

	m = press(t, m, tea.KeyEnter)
	if m.Level != levelNodes || len(m.Nodes) != 3 {
		t.Fatalf("after enter: level %d with %d nodes, want nodes level with 3", m.Level, len(m.Nodes))
	}
	if !strings.Contains(m.View(), "p0") {
		t.Errorf("node table lacks p0:\n%s", m.View())
	}

	m = press(t, m, tea.KeyDown, tea.KeyEnter)
	if m.Level != levelNode {
		t.Fatalf("level = %d, want node details", m.Level)
	}
	view := m.View()
	if !strings.Contains(view, "Node p1") || !strings.Contains(view, "p0, p2") {
		t.Errorf("details view:\n%s", view)
	}

	m = press(t, m, tea.KeyEsc, tea.KeyEsc)
	if m.Level != levelLayers {
		t.Errorf("level = %d after two esc, want layers", m.Level)
	}
}

func TestBrowseEmptyLayerStays(t *testing.T) {
	m := NewBrowseModel(placesGraph(0))
	m = press(t, m, tea.KeyEnter)
	if m.Level != levelLayers {
		t.Errorf("entering an empty layer should be a no-op, level = %d", m.Level)
	}
}

func TestBrowseQuit(t *testing.T) {
	m := NewBrowseModel(placesGraph(1))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestScroll(t *testing.T) {
	tests := []struct {
		name                 string
		cursor, offset       int
		delta, n, height     int
		wantCursor, wantOffs int
	}{
		{"down within window", 0, 0, 1, 10, 5, 1, 0},
		{"down past window", 4, 0, 1, 10, 5, 5, 1},
		{"up past window", 5, 5, -1, 10, 5, 4, 4},
		{"clamp at top", 0, 0, -1, 10, 5, 0, 0},
		{"clamp at bottom", 9, 5, 1, 10, 5, 9, 5},
		{"empty list", 0, 0, 1, 0, 5, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, o := scroll(tt.cursor, tt.offset, tt.delta, tt.n, tt.height)
			if c != tt.wantCursor || o != tt.wantOffs {
				t.Errorf("scroll() = (%d, %d), want (%d, %d)", c, o, tt.wantCursor, tt.wantOffs)
			}
		})
	}
}
