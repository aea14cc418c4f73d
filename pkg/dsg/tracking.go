package dsg

import (
	"maps"
	"slices"
	"time"

	"github.com/matzehuels/scenegraph/pkg/observability"
)

func (g *Graph) allLayers() []*Layer {
	keys := g.LayerKeys()
	out := make([]*Layer, 0, len(keys))
	for _, key := range keys {
		out = append(out, g.FindKey(key))
	}
	return out
}

func (g *Graph) interlayerContainers() []*EdgeContainer {
	return []*EdgeContainer{g.interlayer, g.dynamicInterlayer}
}

// GetNewNodes returns the ids of nodes added since the ledger was last
// drained, across all layers. With clear set they are marked visible.
func (g *Graph) GetNewNodes(clear bool) []NodeID {
	var out []NodeID
	for _, l := range g.allLayers() {
		out = l.GetNewNodes(out, clear)
	}
	slices.Sort(out)
	return out
}

// GetRemovedNodes returns the ids of removed or merged-away nodes. With clear
// set their ledger entries are dropped.
func (g *Graph) GetRemovedNodes(clear bool) []NodeID {
	var out []NodeID
	for _, l := range g.allLayers() {
		out = l.GetRemovedNodes(out, clear)
	}
	slices.Sort(out)
	return out
}

// GetNewEdges returns the keys of edges added since the ledger was last
// drained, including interlayer edges.
func (g *Graph) GetNewEdges(clear bool) []EdgeKey {
	var out []EdgeKey
	for _, l := range g.allLayers() {
		out = l.GetNewEdges(out, clear)
	}
	for _, c := range g.interlayerContainers() {
		out = c.GetNew(out, clear)
	}
	slices.SortFunc(out, compareKeys)
	return out
}

// GetRemovedEdges returns the keys of removed edges. Edges moved by a node
// merge are not included.
func (g *Graph) GetRemovedEdges(clear bool) []EdgeKey {
	var out []EdgeKey
	for _, l := range g.allLayers() {
		out = l.GetRemovedEdges(out, clear)
	}
	for _, c := range g.interlayerContainers() {
		out = c.GetRemoved(out, clear)
	}
	slices.SortFunc(out, compareKeys)
	return out
}

// MarkEdgesAsStale flags every edge of the graph as stale. Edges that are
// inserted, updated or looked up afterwards lose the flag; the rest can be
// swept with RemoveAllStaleEdges.
func (g *Graph) MarkEdgesAsStale() {
	for _, l := range g.allLayers() {
		l.edges.SetStale()
	}
	for _, c := range g.interlayerContainers() {
		c.SetStale()
	}
}

// RemoveAllStaleEdges removes every edge still flagged stale through the
// normal removal path and returns how many were removed.
func (g *Graph) RemoveAllStaleEdges() int {
	removed := 0
	sweep := func(c *EdgeContainer) {
		for _, key := range c.StaleEdges() {
			if g.RemoveEdge(key.K1, key.K2) {
				removed++
			}
		}
	}
	for _, l := range g.allLayers() {
		sweep(l.edges)
	}
	for _, c := range g.interlayerContainers() {
		sweep(c)
	}
	observability.Graph().OnStaleSweep(removed)
	return removed
}

// Clone returns an independent deep copy of g, including payloads, change
// ledgers, stale flags, the mesh and the map views. The copy shares the
// logger.
func (g *Graph) Clone() *Graph {
	start := time.Now()
	out := &Graph{
		Metadata:          g.Metadata.Clone(),
		layerIDs:          slices.Clone(g.layerIDs),
		layerNames:        maps.Clone(g.layerNames),
		layers:            make(map[LayerID]*Layer, len(g.layers)),
		dynamicLayers:     make(map[LayerID]map[LayerPrefix]*Layer, len(g.dynamicLayers)),
		nodeLookup:        maps.Clone(g.nodeLookup),
		interlayer:        g.interlayer.clone(),
		dynamicInterlayer: g.dynamicInterlayer.clone(),
		mapViews:          make(map[uint16][]byte, len(g.mapViews)),
		logger:            g.logger,
	}
	for id, l := range g.layers {
		out.layers[id] = l.clone()
	}
	for id, group := range g.dynamicLayers {
		cloned := make(map[LayerPrefix]*Layer, len(group))
		for prefix, l := range group {
			cloned[prefix] = l.clone()
		}
		out.dynamicLayers[id] = cloned
	}
	if g.mesh != nil {
		out.mesh = g.mesh.Clone()
	}
	for id, img := range g.mapViews {
		out.mapViews[id] = slices.Clone(img)
	}
	observability.Graph().OnClone(out.NumNodes(false), time.Since(start))
	return out
}
