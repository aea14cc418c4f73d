package dsg

import (
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
)

// Graph is a layered, dynamic scene graph.
//
// Nodes live in static layers (one per [LayerID]) or in dynamic layers (one
// per LayerID and [LayerPrefix]). Every node id is unique across the whole
// graph and indexed to the layer holding it. Edges inside one layer are kept
// by that layer; edges between layers are kept by the graph, split into
// edges touching only static layers and edges touching at least one dynamic
// layer.
//
// All mutations keep node relations symmetric: if a lists b as a parent, b
// lists a as a child, and siblings list each other.
//
// Graph is not safe for concurrent use. Callers sharing a graph between
// goroutines must serialize access.
type Graph struct {
	// Metadata is free-form data carried through serialization.
	Metadata Metadata

	layerIDs   []LayerID
	layerNames map[string]LayerID

	layers        map[LayerID]*Layer
	dynamicLayers map[LayerID]map[LayerPrefix]*Layer
	nodeLookup    map[NodeID]LayerKey

	interlayer        *EdgeContainer
	dynamicInterlayer *EdgeContainer

	mesh     Mesh
	mapViews map[uint16][]byte

	logger *log.Logger
}

// Option configures a [Graph] created by [New].
type Option func(*Graph)

// WithLogger sets the logger that receives warnings about rejected
// operations. The default is log.Default().
func WithLogger(l *log.Logger) Option {
	return func(g *Graph) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithLayers replaces the default static layers.
func WithLayers(ids ...LayerID) Option {
	return func(g *Graph) { g.layerIDs = slices.Clone(ids) }
}

// WithLayerNames replaces the default layer names.
func WithLayerNames(names map[string]LayerID) Option {
	return func(g *Graph) { g.layerNames = maps.Clone(names) }
}

// New returns an empty graph with the default layers and names.
func New(opts ...Option) *Graph {
	g := &Graph{
		layerIDs:   DefaultLayerIDs(),
		layerNames: DefaultLayerNames(),
		logger:     log.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.layerNames == nil {
		g.layerNames = make(map[string]LayerID)
	}
	g.Clear()
	return g
}

// Clear removes all nodes, edges, dynamic layers, the mesh and the map views,
// then recreates the configured static layers empty.
func (g *Graph) Clear() {
	g.layers = make(map[LayerID]*Layer, len(g.layerIDs))
	g.dynamicLayers = make(map[LayerID]map[LayerPrefix]*Layer)
	g.nodeLookup = make(map[NodeID]LayerKey)
	g.interlayer = NewEdgeContainer()
	g.dynamicInterlayer = NewEdgeContainer()
	g.mesh = nil
	g.mapViews = make(map[uint16][]byte)

	for _, id := range g.layerIDs {
		g.layers[id] = NewLayer(id)
	}
}

// Reset replaces the static layer set and clears the graph.
func (g *Graph) Reset(ids ...LayerID) {
	g.layerIDs = slices.Clone(ids)
	g.Clear()
}

// Logger returns the graph's logger.
func (g *Graph) Logger() *log.Logger { return g.logger }

// =============================================================================
// Layers
// =============================================================================

// LayerIDs returns the ids of the static layers in ascending order.
func (g *Graph) LayerIDs() []LayerID {
	return slices.Sorted(maps.Keys(g.layers))
}

// LayerNames returns a copy of the name→layer mapping.
func (g *Graph) LayerNames() map[string]LayerID { return maps.Clone(g.layerNames) }

// SetLayerName maps name to a layer id.
func (g *Graph) SetLayerName(name string, id LayerID) { g.layerNames[name] = id }

// HasLayer reports whether a static layer with the given id exists.
func (g *Graph) HasLayer(id LayerID) bool {
	_, ok := g.layers[id]
	return ok
}

// HasDynamicLayer reports whether the dynamic layer (id, prefix) exists.
func (g *Graph) HasDynamicLayer(id LayerID, prefix LayerPrefix) bool {
	_, ok := g.dynamicLayers[id][prefix]
	return ok
}

// HasLayerName reports whether name maps to an existing static layer.
func (g *Graph) HasLayerName(name string) bool {
	id, ok := g.layerNames[name]
	return ok && g.HasLayer(id)
}

// FindLayer returns the static layer with the given id, or nil.
func (g *Graph) FindLayer(id LayerID) *Layer { return g.layers[id] }

// FindDynamicLayer returns a dynamic layer, or nil.
func (g *Graph) FindDynamicLayer(id LayerID, prefix LayerPrefix) *Layer {
	return g.dynamicLayers[id][prefix]
}

// FindLayerByName returns the static layer name maps to, or nil.
func (g *Graph) FindLayerByName(name string) *Layer {
	id, ok := g.layerNames[name]
	if !ok {
		return nil
	}
	return g.layers[id]
}

// FindKey returns the layer for key, or nil.
func (g *Graph) FindKey(key LayerKey) *Layer {
	if key.Dynamic {
		return g.FindDynamicLayer(key.Layer, key.Prefix)
	}
	return g.FindLayer(key.Layer)
}

// GetLayer is like FindLayer but returns an error for unknown ids.
func (g *Graph) GetLayer(id LayerID) (*Layer, error) {
	if l := g.layers[id]; l != nil {
		return l, nil
	}
	return nil, missingLayer(strconv.FormatUint(uint64(id), 10))
}

// GetDynamicLayer is like FindDynamicLayer but returns an error for unknown
// layers.
func (g *Graph) GetDynamicLayer(id LayerID, prefix LayerPrefix) (*Layer, error) {
	if l := g.FindDynamicLayer(id, prefix); l != nil {
		return l, nil
	}
	return nil, missingLayer(DynamicKey(id, prefix).String())
}

// GetLayerByName is like FindLayerByName but returns an error for unknown
// names.
func (g *Graph) GetLayerByName(name string) (*Layer, error) {
	if l := g.FindLayerByName(name); l != nil {
		return l, nil
	}
	return nil, missingLayer(name)
}

// AddLayer returns the static layer with the given id, creating it if needed.
func (g *Graph) AddLayer(id LayerID) *Layer {
	if l, ok := g.layers[id]; ok {
		return l
	}
	l := NewLayer(id)
	g.layers[id] = l
	if !slices.Contains(g.layerIDs, id) {
		g.layerIDs = append(g.layerIDs, id)
		slices.Sort(g.layerIDs)
	}
	return l
}

// AddDynamicLayer returns a dynamic layer, creating it if needed.
func (g *Graph) AddDynamicLayer(id LayerID, prefix LayerPrefix) *Layer {
	group, ok := g.dynamicLayers[id]
	if !ok {
		group = make(map[LayerPrefix]*Layer)
		g.dynamicLayers[id] = group
	}
	if l, ok := group[prefix]; ok {
		return l
	}
	l := NewLayer(id)
	group[prefix] = l
	return l
}

// RemoveLayer removes a static layer and every node in it.
func (g *Graph) RemoveLayer(id LayerID) bool {
	l, ok := g.layers[id]
	if !ok {
		return false
	}
	for _, n := range l.Nodes() {
		g.RemoveNode(n.ID)
	}
	delete(g.layers, id)
	g.layerIDs = slices.DeleteFunc(g.layerIDs, func(x LayerID) bool { return x == id })
	return true
}

// RemoveDynamicLayer removes a dynamic layer and every node in it.
func (g *Graph) RemoveDynamicLayer(id LayerID, prefix LayerPrefix) bool {
	l := g.FindDynamicLayer(id, prefix)
	if l == nil {
		return false
	}
	for _, n := range l.Nodes() {
		g.RemoveNode(n.ID)
	}
	delete(g.dynamicLayers[id], prefix)
	if len(g.dynamicLayers[id]) == 0 {
		delete(g.dynamicLayers, id)
	}
	return true
}

// DynamicLayersOfType returns the dynamic layers of one layer id by prefix.
func (g *Graph) DynamicLayersOfType(id LayerID) map[LayerPrefix]*Layer {
	return maps.Clone(g.dynamicLayers[id])
}

// LayerKeys returns the keys of all layers: static layers first, then dynamic
// layers, each in ascending order.
func (g *Graph) LayerKeys() []LayerKey {
	keys := make([]LayerKey, 0, len(g.layers))
	for _, id := range g.LayerIDs() {
		keys = append(keys, StaticKey(id))
	}
	for _, id := range slices.Sorted(maps.Keys(g.dynamicLayers)) {
		for _, prefix := range slices.Sorted(maps.Keys(g.dynamicLayers[id])) {
			keys = append(keys, DynamicKey(id, prefix))
		}
	}
	return keys
}

// NumLayers returns the number of static layers.
func (g *Graph) NumLayers() int { return len(g.layers) }

// NumDynamicLayers returns the number of dynamic layers across all ids.
func (g *Graph) NumDynamicLayers() int {
	n := 0
	for _, group := range g.dynamicLayers {
		n += len(group)
	}
	return n
}

// NumDynamicLayersOfType returns the number of prefixes under layer id.
func (g *Graph) NumDynamicLayersOfType(id LayerID) int { return len(g.dynamicLayers[id]) }

// =============================================================================
// Nodes
// =============================================================================

// EmplaceNode adds a static node. It fails, logging a warning, if the layer
// does not exist or the id is already used anywhere in the graph.
func (g *Graph) EmplaceNode(layer LayerID, id NodeID, attrs NodeAttributes) bool {
	if _, ok := g.nodeLookup[id]; ok {
		return false
	}
	l, ok := g.layers[layer]
	if !ok {
		g.logger.Warn("invalid layer", "layer", layer, "node", id)
		return false
	}
	if !l.EmplaceNode(id, attrs) {
		return false
	}
	g.nodeLookup[id] = StaticKey(layer)
	return true
}

// EmplaceDynamicNode appends a node to the dynamic layer (layer, prefix),
// creating the layer if needed. The id is generated from the prefix and the
// layer's next free index. With linkPrevious set, an edge to the previously
// appended node is added.
func (g *Graph) EmplaceDynamicNode(layer LayerID, prefix LayerPrefix, stamp time.Duration, attrs NodeAttributes, linkPrevious bool) (NodeID, bool) {
	var index uint64
	l := g.FindDynamicLayer(layer, prefix)
	if l != nil {
		index = l.NextIndex()
	}
	if index > categoryMask {
		g.logger.Warn("dynamic layer out of node ids", "layer", layer, "prefix", prefix)
		return 0, false
	}
	id := prefix.MakeID(index)
	if _, ok := g.nodeLookup[id]; ok {
		g.logger.Warn("dynamic node id already in use", "node", id, "prefix", prefix)
		return 0, false
	}
	if l == nil {
		l = g.AddDynamicLayer(layer, prefix)
	}
	if !l.EmplaceDynamicNode(id, stamp, attrs) {
		return 0, false
	}
	g.nodeLookup[id] = DynamicKey(layer, prefix)

	if linkPrevious && index > 0 {
		prev := prefix.MakeID(index - 1)
		if l.HasNode(prev) {
			l.InsertEdge(prev, id, nil)
		}
	}
	return id, true
}

// InsertNode adds a detached node built with [NewNode] or [NewDynamicNode].
// Nodes with a timestamp go to the dynamic layer named by their id's
// category. The node must have no relations.
func (g *Graph) InsertNode(n *Node) bool {
	if n == nil {
		return false
	}
	if _, ok := g.nodeLookup[n.ID]; ok {
		return false
	}
	if len(n.parents)+len(n.children)+len(n.siblings) > 0 {
		g.logger.Warn("refusing node with existing relations", "node", n.ID)
		return false
	}
	var key LayerKey
	var l *Layer
	if n.stamp != nil {
		key = DynamicKey(n.Layer, n.ID.Category())
		l = g.AddDynamicLayer(n.Layer, n.ID.Category())
	} else {
		key = StaticKey(n.Layer)
		l = g.layers[n.Layer]
		if l == nil {
			g.logger.Warn("invalid layer", "layer", n.Layer, "node", n.ID)
			return false
		}
	}
	if !l.insertNode(n) {
		return false
	}
	g.nodeLookup[n.ID] = key
	return true
}

// AddOrUpdateNode inserts a node or replaces the payload of an existing one.
// A non-nil stamp places a new node in the dynamic layer named by the id's
// category. It returns false, logging a warning, if a static node names a
// missing layer.
func (g *Graph) AddOrUpdateNode(layer LayerID, id NodeID, attrs NodeAttributes, stamp *time.Duration) bool {
	if n := g.FindNode(id); n != nil {
		n.attrs = attrs
		return true
	}
	if stamp != nil {
		prefix := id.Category()
		if !g.AddDynamicLayer(layer, prefix).EmplaceDynamicNode(id, *stamp, attrs) {
			return false
		}
		g.nodeLookup[id] = DynamicKey(layer, prefix)
		return true
	}
	return g.EmplaceNode(layer, id, attrs)
}

// SetNodeAttributes replaces the payload of an existing node.
func (g *Graph) SetNodeAttributes(id NodeID, attrs NodeAttributes) bool {
	n := g.FindNode(id)
	if n == nil {
		return false
	}
	n.attrs = attrs
	return true
}

// HasNode reports whether id is present anywhere in the graph.
func (g *Graph) HasNode(id NodeID) bool {
	_, ok := g.nodeLookup[id]
	return ok
}

// CheckNode returns the ledger state of id in the layer holding it.
// Nodes that were removed are reported as nonexistent.
func (g *Graph) CheckNode(id NodeID) NodeStatus {
	key, ok := g.nodeLookup[id]
	if !ok {
		return NodeStatusNonexistent
	}
	return g.FindKey(key).CheckNode(id)
}

// FindNode returns the node with the given id, or nil.
func (g *Graph) FindNode(id NodeID) *Node {
	key, ok := g.nodeLookup[id]
	if !ok {
		return nil
	}
	return g.FindKey(key).FindNode(id)
}

// GetNode is like FindNode but returns an error for unknown ids.
func (g *Graph) GetNode(id NodeID) (*Node, error) {
	if n := g.FindNode(id); n != nil {
		return n, nil
	}
	return nil, missingNode(id)
}

// LayerForNode returns the key of the layer holding id.
func (g *Graph) LayerForNode(id NodeID) (LayerKey, bool) {
	key, ok := g.nodeLookup[id]
	return key, ok
}

// IsDynamic reports whether id lives in a dynamic layer.
func (g *Graph) IsDynamic(id NodeID) bool {
	return g.nodeLookup[id].Dynamic
}

// NodeIDs returns every node id in ascending order.
func (g *Graph) NodeIDs() []NodeID {
	return slices.Sorted(maps.Keys(g.nodeLookup))
}

// RemoveNode deletes a node and every edge touching it.
func (g *Graph) RemoveNode(id NodeID) bool {
	n := g.FindNode(id)
	if n == nil {
		return false
	}
	key := g.nodeLookup[id]

	neighbors := make(idSet)
	for other := range n.parents {
		neighbors.add(other)
	}
	for other := range n.children {
		neighbors.add(other)
	}
	for other := range n.siblings {
		neighbors.add(other)
	}
	for _, other := range neighbors.sorted() {
		g.RemoveEdge(id, other)
	}

	g.FindKey(key).RemoveNode(id)
	delete(g.nodeLookup, id)
	return true
}

// =============================================================================
// Counts
// =============================================================================

// NumNodes returns the number of nodes, optionally including mesh vertices.
func (g *Graph) NumNodes(includeMesh bool) int {
	n := len(g.nodeLookup)
	if includeMesh && g.mesh != nil {
		n += g.mesh.NumVertices()
	}
	return n
}

// NumStaticNodes counts nodes in static layers.
func (g *Graph) NumStaticNodes() int {
	n := 0
	for _, l := range g.layers {
		n += l.NumNodes()
	}
	return n
}

// NumDynamicNodes counts nodes in dynamic layers.
func (g *Graph) NumDynamicNodes() int {
	n := 0
	for _, group := range g.dynamicLayers {
		for _, l := range group {
			n += l.NumNodes()
		}
	}
	return n
}

// NumEdges returns the number of edges of all kinds.
func (g *Graph) NumEdges() int { return g.NumStaticEdges() + g.NumDynamicEdges() }

// NumStaticEdges counts edges inside static layers and between static layers.
func (g *Graph) NumStaticEdges() int {
	n := g.interlayer.Len()
	for _, l := range g.layers {
		n += l.NumEdges()
	}
	return n
}

// NumDynamicEdges counts edges inside dynamic layers and interlayer edges
// touching a dynamic layer.
func (g *Graph) NumDynamicEdges() int {
	n := g.dynamicInterlayer.Len()
	for _, group := range g.dynamicLayers {
		for _, l := range group {
			n += l.NumEdges()
		}
	}
	return n
}

// Empty reports whether the graph has no nodes and no mesh vertices.
func (g *Graph) Empty() bool { return g.NumNodes(true) == 0 }

// =============================================================================
// Mesh and map views
// =============================================================================

// SetMesh replaces the mesh. A nil mesh removes it.
func (g *Graph) SetMesh(m Mesh) { g.mesh = m }

// Mesh returns the mesh, or nil.
func (g *Graph) Mesh() Mesh { return g.mesh }

// HasMesh reports whether the graph carries a mesh with vertices.
func (g *Graph) HasMesh() bool { return g.mesh != nil && g.mesh.NumVertices() > 0 }

// AddMapView stores an image under id, replacing any previous one.
func (g *Graph) AddMapView(id uint16, image []byte) { g.mapViews[id] = image }

// MapView returns the image stored under id.
func (g *Graph) MapView(id uint16) ([]byte, bool) {
	img, ok := g.mapViews[id]
	return img, ok
}

// MapViewIDs returns the ids of stored map views in ascending order.
func (g *Graph) MapViewIDs() []uint16 { return slices.Sorted(maps.Keys(g.mapViews)) }

// LatestMapViewID returns the largest stored map-view id.
func (g *Graph) LatestMapViewID() (uint16, bool) {
	if len(g.mapViews) == 0 {
		return 0, false
	}
	return slices.Max(g.MapViewIDs()), true
}
