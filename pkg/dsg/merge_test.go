package dsg

import (
	"slices"
	"testing"
	"time"

	"github.com/matzehuels/scenegraph/pkg/observability"
)

func TestMergedID(t *testing.T) {
	cfg := GraphMergeConfig{PreviousMerges: map[NodeID]NodeID{
		p1: p2,
		p2: p3,
		o1: o2,
		o2: o1,
	}}

	tests := []struct {
		name string
		in   NodeID
		want NodeID
	}{
		{"unmerged", r1, r1},
		{"chain", p1, p3},
		{"chain tail", p2, p3},
		{"cycle", o1, o2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cfg.MergedID(tt.in); got != tt.want {
				t.Errorf("MergedID(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	if got := DefaultMergeConfig().MergedID(p1); got != p1 {
		t.Errorf("empty config MergedID() = %v", got)
	}
}

func TestMergeGraph(t *testing.T) {
	// g already knows p1 and p2, with o1 below p2. The incoming graph moves
	// o1 under p1 and adds o2.
	g := quietGraph()
	g.EmplaceNode(LayerPlaces, p1, &NodeAttrs{Name: "old"})
	g.EmplaceNode(LayerPlaces, p2, &NodeAttrs{})
	g.EmplaceNode(LayerObjects, o1, &NodeAttrs{})
	g.InsertEdge(p2, o1, nil)
	g.GetNewNodes(true)
	g.GetNewEdges(true)

	other := quietGraph()
	other.EmplaceNode(LayerPlaces, p1, &NodeAttrs{Name: "new"})
	other.EmplaceNode(LayerObjects, o1, &NodeAttrs{})
	other.EmplaceNode(LayerObjects, o2, &NodeAttrs{})
	other.InsertEdge(p1, o1, nil)
	other.InsertEdge(o2, p1, &EdgeAttrs{Weight: 5})
	other.AddMapView(1, []byte{9})

	if !g.MergeGraph(other, DefaultMergeConfig()) {
		t.Fatal("MergeGraph() = false")
	}

	if name := g.FindNode(p1).Attributes().(*NodeAttrs).Name; name != "new" {
		t.Errorf("p1 payload = %q, want new", name)
	}
	if got := g.FindNode(o1).Parents(); !slices.Equal(got, []NodeID{p1}) {
		t.Errorf("Parents(o1) = %v, want [p1]", got)
	}
	if got := g.FindNode(o2).Parents(); !slices.Equal(got, []NodeID{p1}) {
		t.Errorf("Parents(o2) = %v, want [p1]", got)
	}
	if g.FindNode(p2).HasChildren() {
		t.Error("p2 kept its child")
	}
	if got := g.GetNewNodes(false); !slices.Equal(got, []NodeID{o2}) {
		t.Errorf("GetNewNodes() = %v, want [o2]", got)
	}
	if _, ok := g.MapView(1); !ok {
		t.Error("map view not merged")
	}
	checkRelations(t, g)

	// The source keeps its content and stays independent.
	if other.NumNodes(false) != 3 || other.NumEdges() != 2 {
		t.Errorf("source changed: %d nodes, %d edges", other.NumNodes(false), other.NumEdges())
	}
	g.FindEdge(p1, o2).Info.(*EdgeAttrs).Weight = 1
	if w := other.FindEdge(p1, o2).Info.(*EdgeAttrs).Weight; w != 5 {
		t.Errorf("source edge payload shared, weight = %v", w)
	}
}

func TestMergeGraphWithoutParentConstraints(t *testing.T) {
	g := quietGraph()
	g.EmplaceNode(LayerPlaces, p1, &NodeAttrs{})
	g.EmplaceNode(LayerPlaces, p2, &NodeAttrs{})
	g.EmplaceNode(LayerObjects, o1, &NodeAttrs{})
	g.InsertEdge(p2, o1, nil)

	other := quietGraph()
	other.EmplaceNode(LayerPlaces, p1, &NodeAttrs{})
	other.EmplaceNode(LayerObjects, o1, &NodeAttrs{})
	other.InsertEdge(p1, o1, nil)

	g.MergeGraph(other, GraphMergeConfig{})
	if got := g.FindNode(o1).Parents(); !slices.Equal(got, []NodeID{p1, p2}) {
		t.Errorf("Parents(o1) = %v, want [p1 p2]", got)
	}
	checkRelations(t, g)
}

func TestMergeGraphPreviousMerges(t *testing.T) {
	// g merged p3 into p1 earlier; the incoming graph still refers to p3.
	g := quietGraph()
	g.EmplaceNode(LayerPlaces, p1, &NodeAttrs{})
	g.EmplaceNode(LayerPlaces, p2, &NodeAttrs{})
	g.EmplaceNode(LayerObjects, o1, &NodeAttrs{})

	other := quietGraph()
	other.EmplaceNode(LayerPlaces, p2, &NodeAttrs{})
	other.EmplaceNode(LayerPlaces, p3, &NodeAttrs{})
	other.EmplaceNode(LayerObjects, o1, &NodeAttrs{})
	other.InsertEdge(p3, o1, nil)
	other.InsertEdge(p3, p2, nil)

	cfg := DefaultMergeConfig()
	cfg.PreviousMerges = map[NodeID]NodeID{p3: p1}
	g.MergeGraph(other, cfg)

	if g.HasNode(p3) {
		t.Error("merged-away node was brought back")
	}
	if !g.HasEdge(p1, o1) {
		t.Error("interlayer edge not redirected to p1")
	}
	if !g.HasEdge(p1, p2) {
		t.Error("intralayer edge not redirected to p1")
	}
	checkRelations(t, g)
}

func TestMergeGraphRemovals(t *testing.T) {
	g := quietGraph()
	g.EmplaceNode(LayerPlaces, p1, &NodeAttrs{})
	g.EmplaceNode(LayerPlaces, p2, &NodeAttrs{})
	g.EmplaceNode(LayerPlaces, p3, &NodeAttrs{})
	g.EmplaceNode(LayerObjects, o1, &NodeAttrs{})
	g.InsertEdge(p1, p2, nil)
	g.InsertEdge(p3, o1, nil)

	other := g.Clone()
	other.GetRemovedNodes(true)
	other.GetRemovedEdges(true)
	other.RemoveNode(p3)
	other.RemoveEdge(p1, p2)

	cfg := DefaultMergeConfig()
	cfg.ClearRemoved = true
	g.MergeGraph(other, cfg)

	if g.HasNode(p3) {
		t.Error("removed node survived")
	}
	if g.HasEdge(p1, p2) {
		t.Error("removed edge survived")
	}
	if g.FindNode(o1).HasParent() {
		t.Error("removed parent still referenced")
	}
	if len(other.GetRemovedNodes(false)) != 0 || len(other.GetRemovedEdges(false)) != 0 {
		t.Error("ClearRemoved should drain the source ledgers")
	}
	checkRelations(t, g)
}

func TestMergeGraphDynamicLayers(t *testing.T) {
	prefix := NewPrefix('a')
	g := quietGraph()
	g.EmplaceNode(LayerPlaces, p1, &NodeAttrs{})
	g.EmplaceDynamicNode(LayerAgents, prefix, 0, &NodeAttrs{}, false)

	other := quietGraph()
	other.EmplaceNode(LayerPlaces, p1, &NodeAttrs{})
	a0, _ := other.EmplaceDynamicNode(LayerAgents, prefix, 0, &NodeAttrs{Name: "updated"}, false)
	a1, _ := other.EmplaceDynamicNode(LayerAgents, prefix, time.Second, &NodeAttrs{}, true)
	other.InsertEdge(p1, a1, nil)

	g.MergeGraph(other, DefaultMergeConfig())

	if !g.IsDynamic(a1) || !g.HasEdge(a0, a1) {
		t.Error("dynamic node or edge not merged")
	}
	if name := g.FindNode(a0).Attributes().(*NodeAttrs).Name; name != "updated" {
		t.Errorf("a0 payload = %q", name)
	}
	if got := g.FindNode(a1).Parents(); !slices.Equal(got, []NodeID{p1}) {
		t.Errorf("Parents(a1) = %v", got)
	}
	next, _ := g.EmplaceDynamicNode(LayerAgents, prefix, 2*time.Second, &NodeAttrs{}, true)
	if next != prefix.MakeID(2) {
		t.Errorf("next dynamic id = %v, want %v", next, prefix.MakeID(2))
	}
	checkRelations(t, g)
}

func TestMergeGraphSkipsConflictingNodes(t *testing.T) {
	g := quietGraph()
	g.EmplaceNode(LayerRooms, p1, &NodeAttrs{Name: "room"})

	other := quietGraph()
	other.EmplaceNode(LayerPlaces, p1, &NodeAttrs{Name: "place"})
	other.EmplaceNode(LayerPlaces, p2, &NodeAttrs{})
	other.InsertEdge(p1, p2, nil)

	g.MergeGraph(other, DefaultMergeConfig())

	key, _ := g.LayerForNode(p1)
	if key != StaticKey(LayerRooms) {
		t.Errorf("p1 moved to %v", key)
	}
	if name := g.FindNode(p1).Attributes().(*NodeAttrs).Name; name != "room" {
		t.Errorf("p1 payload = %q, want room", name)
	}
	if g.FindLayer(LayerPlaces).HasNode(p1) {
		t.Error("conflicting node inserted into a second layer")
	}
	if !g.HasNode(p2) {
		t.Error("non-conflicting node missing")
	}
	checkRelations(t, g)
}

func TestMergeGraphHooks(t *testing.T) {
	hooks := &recordingGraphHooks{}
	observability.SetGraphHooks(hooks)
	t.Cleanup(observability.Reset)

	g := quietGraph()
	other := quietGraph()
	other.EmplaceNode(LayerPlaces, p1, &NodeAttrs{})
	other.EmplaceNode(LayerPlaces, p2, &NodeAttrs{})
	g.MergeGraph(other, DefaultMergeConfig())
	g.MarkEdgesAsStale()
	g.RemoveAllStaleEdges()

	if hooks.merged != 2 {
		t.Errorf("OnMerge nodesAdded = %d, want 2", hooks.merged)
	}
	if hooks.sweeps != 1 {
		t.Errorf("OnStaleSweep calls = %d, want 1", hooks.sweeps)
	}
}

type recordingGraphHooks struct {
	observability.NoopGraphHooks
	merged int
	sweeps int
}

func (h *recordingGraphHooks) OnMerge(n int, _ time.Duration) { h.merged += n }
func (h *recordingGraphHooks) OnStaleSweep(int)               { h.sweeps++ }

func TestUpdateFromLayer(t *testing.T) {
	g := quietGraph()
	g.EmplaceNode(LayerPlaces, p1, &NodeAttrs{Name: "old"})
	g.EmplaceNode(LayerObjects, o1, &NodeAttrs{})
	g.InsertEdge(p1, o1, nil)

	update := NewLayer(LayerPlaces)
	update.EmplaceNode(p1, &NodeAttrs{Name: "new"})
	update.EmplaceNode(p2, &NodeAttrs{})

	edges := []*Edge{{Source: p1, Target: p2, Info: &EdgeAttrs{Weight: 2}}}
	if !g.UpdateFromLayer(update, edges) {
		t.Fatal("UpdateFromLayer() = false")
	}
	if name := g.FindNode(p1).Attributes().(*NodeAttrs).Name; name != "new" {
		t.Errorf("p1 payload = %q", name)
	}
	if !g.HasNode(p2) || !g.HasEdge(p1, p2) {
		t.Error("new node or edge missing")
	}
	if !g.HasEdge(p1, o1) {
		t.Error("existing interlayer edge lost")
	}
	if update.NumNodes() != 0 {
		t.Error("source layer not reset")
	}

	edges = []*Edge{{Source: p2, Target: p1, Info: &EdgeAttrs{Weight: 7}}}
	g.UpdateFromLayer(NewLayer(LayerPlaces), edges)
	if w := g.FindEdge(p1, p2).Info.(*EdgeAttrs).Weight; w != 7 {
		t.Errorf("edge payload not updated, weight = %v", w)
	}

	if g.UpdateFromLayer(NewLayer(42), nil) {
		t.Error("UpdateFromLayer() with unknown layer = true")
	}
	checkRelations(t, g)
}
