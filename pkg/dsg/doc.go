// Package dsg implements a dynamic scene graph: a layered, in-memory graph
// that describes an environment at several levels of abstraction.
//
// # Layers
//
// Nodes are grouped into layers ordered by [LayerID]. Higher layers hold
// coarser concepts (buildings above rooms above places above objects), and an
// edge between two layers always relates a parent in the higher layer to a
// child in the lower one. Edges inside a layer relate siblings.
//
// Besides one static layer per id, a graph holds any number of dynamic
// layers, each identified by a [LayerPrefix]. Dynamic layers store
// timestamped nodes appended in order, typically the trajectory of one agent:
//
//	g := dsg.New()
//	robot := dsg.NewPrefix('a')
//	first, _ := g.EmplaceDynamicNode(dsg.LayerAgents, robot, 0, &dsg.NodeAttrs{}, false)
//	next, _ := g.EmplaceDynamicNode(dsg.LayerAgents, robot, time.Second, &dsg.NodeAttrs{}, true)
//	g.HasEdge(first, next) // true
//
// # Change tracking
//
// Layers and edge containers keep a ledger of added and removed elements.
// [Graph.GetNewNodes], [Graph.GetRemovedNodes], [Graph.GetNewEdges] and
// [Graph.GetRemovedEdges] report it and optionally drain it, so consumers can
// follow a graph incrementally.
//
// # Staleness
//
// [Graph.MarkEdgesAsStale] flags every edge. Inserting, updating or looking
// up an edge reaffirms it; [Graph.RemoveAllStaleEdges] then removes the
// edges nobody touched. This supports rebuilding a graph's connectivity from
// a fresh observation without losing its nodes.
//
// # Merging
//
// [Graph.MergeGraph] folds one graph into another, redirecting ids through a
// [GraphMergeConfig]. [Graph.MergeNodes] fuses two nodes of one layer.
//
// # Files
//
// [Graph.Save] and [Load] pick a codec from the file extension. Codecs are
// registered by pkg/io; import it for its side effects:
//
//	import _ "github.com/matzehuels/scenegraph/pkg/io"
package dsg
