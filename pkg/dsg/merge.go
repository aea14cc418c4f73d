package dsg

import (
	"maps"
	"slices"
	"time"

	"github.com/matzehuels/scenegraph/pkg/observability"
)

// MergeNodes folds from into to. Both nodes must exist, be distinct and live
// in the same layer. Every edge of from is rewired to to; edges that would
// duplicate an edge of to or collapse into a self-loop are dropped. from is
// then removed and reported as deleted by the change ledger.
//
// When both payloads are [*NodeAttrs], the instance views of from are added
// to those of to.
func (g *Graph) MergeNodes(from, to NodeID) bool {
	if from == to {
		return false
	}
	fk, ok := g.nodeLookup[from]
	if !ok {
		return false
	}
	tk, ok := g.nodeLookup[to]
	if !ok || fk != tk {
		return false
	}
	src := g.FindKey(fk).FindNode(from)
	dst := g.FindKey(tk).FindNode(to)

	for _, parent := range src.parents.sorted() {
		g.rewire(from, to, parent)
	}
	for _, child := range src.children.sorted() {
		g.rewire(from, to, child)
	}
	for _, sib := range src.siblings.sorted() {
		if g.nodeLookup[sib] != fk {
			g.rewire(from, to, sib)
		}
	}

	if fa, ok := src.attrs.(*NodeAttrs); ok && fa != nil {
		if ta, ok := dst.attrs.(*NodeAttrs); ok && ta != nil {
			ta.Views.Merge(fa.Views)
		}
	}

	g.FindKey(fk).MergeNodes(from, to)
	delete(g.nodeLookup, from)
	return true
}

// MergeGraph folds other into g.
//
// Dynamic layers are merged first, then static layers, then interlayer edges.
// Nodes and edges other recorded as removed are removed from g. Incoming edge
// endpoints are redirected through config.PreviousMerges, and with
// config.EnforceParentConstraints set interlayer edges are inserted as parent
// edges. Nodes that g already indexes under a different layer are skipped
// with a warning. Map views are added when missing; the mesh is left alone.
//
// other keeps its nodes and edges. Its removal ledgers are drained when
// config.ClearRemoved is set.
func (g *Graph) MergeGraph(other *Graph, config GraphMergeConfig) bool {
	start := time.Now()
	added := 0

	for _, id := range slices.Sorted(maps.Keys(other.dynamicLayers)) {
		group := other.dynamicLayers[id]
		for _, prefix := range slices.Sorted(maps.Keys(group)) {
			key := DynamicKey(id, prefix)
			added += g.absorbLayer(key, g.AddDynamicLayer(id, prefix), group[prefix], config)
		}
	}

	for _, id := range other.LayerIDs() {
		incoming := other.layers[id]
		layer := g.AddLayer(id)

		for _, removed := range incoming.GetRemovedNodes(nil, config.ClearRemoved) {
			g.RemoveNode(removed)
		}
		for _, key := range incoming.GetRemovedEdges(nil, config.ClearRemoved) {
			source, target := config.MergedID(key.K1), config.MergedID(key.K2)
			if source != target {
				layer.RemoveEdge(source, target)
			}
		}
		added += g.absorbLayer(StaticKey(id), layer, incoming, config)
	}

	for _, c := range []*EdgeContainer{other.interlayer, other.dynamicInterlayer} {
		for _, key := range c.GetRemoved(nil, config.ClearRemoved) {
			source, target := config.MergedID(key.K1), config.MergedID(key.K2)
			if source != target && !c.Contains(key.K1, key.K2) {
				g.RemoveEdge(source, target)
			}
		}
		for _, e := range c.Edges() {
			source, target := config.MergedID(e.Source), config.MergedID(e.Target)
			if source == target {
				continue
			}
			if config.EnforceParentConstraints {
				g.InsertParentEdge(source, target, e.Info.Clone())
			} else {
				g.InsertEdge(source, target, e.Info.Clone())
			}
		}
	}

	for id, img := range other.mapViews {
		if _, ok := g.mapViews[id]; !ok {
			g.mapViews[id] = slices.Clone(img)
		}
	}

	observability.Graph().OnMerge(added, time.Since(start))
	return true
}

// absorbLayer merges a copy of incoming into layer, which is registered in g
// under key, and indexes the nodes it adds.
func (g *Graph) absorbLayer(key LayerKey, layer, incoming *Layer, config GraphMergeConfig) int {
	src := incoming.clone()
	g.dropConflicts(key, src)
	added := layer.MergeLayer(src, config)
	for _, id := range added {
		g.nodeLookup[id] = key
	}
	if config.ClearRemoved {
		incoming.GetRemovedEdges(nil, true)
	}
	return len(added)
}

// dropConflicts removes from src every node g already indexes under a key
// other than key.
func (g *Graph) dropConflicts(key LayerKey, src *Layer) {
	for id := range src.nodes {
		if existing, ok := g.nodeLookup[id]; ok && existing != key {
			g.logger.Warn("skipping node indexed under another layer", "node", id, "layer", existing, "incoming", key)
			delete(src.nodes, id)
			delete(src.status, id)
		}
	}
}

// UpdateFromLayer moves the content of other into the static layer with the
// same id and applies the given intralayer edges. Existing nodes and edges
// take over the incoming payloads. other is reset. It fails, logging an
// error, if the graph has no such layer.
func (g *Graph) UpdateFromLayer(other *Layer, edges []*Edge) bool {
	layer, ok := g.layers[other.id]
	if !ok {
		g.logger.Error("cannot update from unknown layer", "layer", other.id)
		return false
	}
	key := StaticKey(other.id)
	g.dropConflicts(key, other)
	for _, id := range layer.MergeLayer(other, GraphMergeConfig{}) {
		g.nodeLookup[id] = key
	}

	for _, e := range edges {
		if local := layer.edges.peek(e.Source, e.Target); local != nil {
			local.Info = defaultEdgeAttrs(e.Info)
			continue
		}
		layer.InsertEdge(e.Source, e.Target, e.Info)
	}
	return true
}
