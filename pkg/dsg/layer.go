package dsg

import (
	"cmp"
	"slices"
	"time"
)

// Layer holds the nodes of one hierarchy level, or of one dynamic
// instantiation of it, together with the edges between them.
//
// A Layer on its own tracks intralayer relations only. Interlayer edges and
// the graph-wide node index are kept by [Graph]; mutate layers that belong to
// a graph through the graph.
//
// Layer is not safe for concurrent use.
type Layer struct {
	id     LayerID
	nodes  map[NodeID]*Node
	status map[NodeID]NodeStatus
	edges  *EdgeContainer

	// next is the next free category index handed out to dynamic nodes.
	next uint64
}

// NewLayer returns an empty layer.
func NewLayer(id LayerID) *Layer {
	return &Layer{
		id:     id,
		nodes:  make(map[NodeID]*Node),
		status: make(map[NodeID]NodeStatus),
		edges:  NewEdgeContainer(),
	}
}

// ID returns the layer id.
func (l *Layer) ID() LayerID { return l.id }

// NumNodes returns the number of nodes in the layer.
func (l *Layer) NumNodes() int { return len(l.nodes) }

// NumEdges returns the number of edges inside the layer.
func (l *Layer) NumEdges() int { return l.edges.Len() }

// Nodes returns the nodes of the layer ordered by id.
func (l *Layer) Nodes() []*Node {
	out := make([]*Node, 0, len(l.nodes))
	for _, n := range l.nodes {
		out = append(out, n)
	}
	slices.SortFunc(out, func(a, b *Node) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Edges returns the intralayer edges ordered by key.
func (l *Layer) Edges() []*Edge { return l.edges.Edges() }

// NextIndex returns the category index the next dynamic node will receive.
func (l *Layer) NextIndex() uint64 { return l.next }

// EmplaceNode adds a node. It returns false if the id is already present.
func (l *Layer) EmplaceNode(id NodeID, attrs NodeAttributes) bool {
	return l.insertNode(newNode(id, l.id, attrs, nil))
}

// EmplaceDynamicNode adds a timestamped node.
func (l *Layer) EmplaceDynamicNode(id NodeID, stamp time.Duration, attrs NodeAttributes) bool {
	return l.insertNode(newNode(id, l.id, attrs, &stamp))
}

func (l *Layer) insertNode(n *Node) bool {
	if _, ok := l.nodes[n.ID]; ok {
		return false
	}
	n.Layer = l.id
	l.nodes[n.ID] = n
	l.status[n.ID] = NodeStatusNew
	l.observe(n.ID)
	return true
}

func (l *Layer) observe(id NodeID) {
	if idx := id.CategoryIndex() + 1; idx > l.next {
		l.next = idx
	}
}

// HasNode reports whether the layer holds id.
func (l *Layer) HasNode(id NodeID) bool {
	_, ok := l.nodes[id]
	return ok
}

// FindNode returns the node with the given id, or nil.
func (l *Layer) FindNode(id NodeID) *Node { return l.nodes[id] }

// CheckNode returns the ledger state of id. Removed nodes stay
// [NodeStatusDeleted] until the ledger is drained.
func (l *Layer) CheckNode(id NodeID) NodeStatus {
	if s, ok := l.status[id]; ok {
		return s
	}
	return NodeStatusNonexistent
}

// HasEdge reports whether the edge exists. It leaves the stale flag alone.
func (l *Layer) HasEdge(source, target NodeID) bool { return l.edges.Contains(source, target) }

// FindEdge returns the edge between source and target, or nil. See
// [EdgeContainer.Find] for the effect on staleness.
func (l *Layer) FindEdge(source, target NodeID) *Edge { return l.edges.Find(source, target) }

// InsertEdge connects two nodes of the layer as siblings. It fails if the
// edge exists, if either node is missing or if source equals target.
func (l *Layer) InsertEdge(source, target NodeID, attrs EdgeAttributes) bool {
	if source == target || l.edges.Contains(source, target) {
		return false
	}
	src, ok := l.nodes[source]
	if !ok {
		return false
	}
	tgt, ok := l.nodes[target]
	if !ok {
		return false
	}
	src.siblings.add(target)
	tgt.siblings.add(source)
	l.edges.Insert(source, target, attrs)
	return true
}

// RemoveEdge deletes the edge between source and target.
func (l *Layer) RemoveEdge(source, target NodeID) bool {
	if !l.edges.Contains(source, target) {
		return false
	}
	l.unlink(source, target)
	l.edges.Remove(source, target)
	return true
}

func (l *Layer) unlink(a, b NodeID) {
	if n, ok := l.nodes[a]; ok {
		n.siblings.remove(b)
	}
	if n, ok := l.nodes[b]; ok {
		n.siblings.remove(a)
	}
}

// RemoveNode deletes a node and its intralayer edges.
func (l *Layer) RemoveNode(id NodeID) bool {
	n, ok := l.nodes[id]
	if !ok {
		return false
	}
	for _, sib := range n.siblings.sorted() {
		l.RemoveEdge(id, sib)
	}
	delete(l.nodes, id)
	l.status[id] = NodeStatusDeleted
	return true
}

// MergeNodes folds from into to. Edges of from are rewired to to; an edge that
// would become a self-loop or duplicate an existing edge of to is removed
// instead. from is then deleted.
func (l *Layer) MergeNodes(from, to NodeID) bool {
	if from == to {
		return false
	}
	src, ok := l.nodes[from]
	if !ok {
		return false
	}
	dst, ok := l.nodes[to]
	if !ok {
		return false
	}

	for _, sib := range src.siblings.sorted() {
		e := l.edges.peek(from, sib)
		if e == nil {
			continue
		}
		if sib == to || l.edges.Contains(to, sib) {
			l.RemoveEdge(from, sib)
			continue
		}
		l.unlink(from, sib)
		dst.siblings.add(sib)
		if n, ok := l.nodes[sib]; ok {
			n.siblings.add(to)
		}
		if e.Source == from {
			l.edges.Rewire(from, sib, to, sib)
		} else {
			l.edges.Rewire(sib, from, sib, to)
		}
	}

	delete(l.nodes, from)
	l.status[from] = NodeStatusDeleted
	return true
}

// MergeLayer moves the content of other into l and resets other.
//
// Nodes unknown to l are moved over with their relations cleared and
// reported in the returned slice. Nodes listed as merged away in
// config.PreviousMerges are not brought back. Nodes l already holds only take over the
// incoming payload. Edges are redirected through config.PreviousMerges;
// payloads of existing edges are overwritten and edges whose endpoints are
// not both in l are dropped. Edges that other recorded as removed are
// removed from l unless other still holds them.
func (l *Layer) MergeLayer(other *Layer, config GraphMergeConfig) []NodeID {
	var added []NodeID
	for _, n := range other.Nodes() {
		if config.MergedID(n.ID) != n.ID {
			continue
		}
		if local, ok := l.nodes[n.ID]; ok {
			local.attrs = n.attrs
			continue
		}
		n.clearRelations()
		l.insertNode(n)
		added = append(added, n.ID)
	}

	for _, e := range other.edges.Edges() {
		source, target := config.MergedID(e.Source), config.MergedID(e.Target)
		if source == target {
			continue
		}
		if local := l.edges.peek(source, target); local != nil {
			local.Info = e.Info
			continue
		}
		l.InsertEdge(source, target, e.Info)
	}

	for _, key := range other.edges.GetRemoved(nil, config.ClearRemoved) {
		source, target := config.MergedID(key.K1), config.MergedID(key.K2)
		if source == target || other.edges.Contains(source, target) {
			continue
		}
		l.RemoveEdge(source, target)
	}

	other.reset()
	return added
}

// GetNewNodes appends the ids of nodes marked new to out. With clear set they
// become visible.
func (l *Layer) GetNewNodes(out []NodeID, clear bool) []NodeID {
	for _, id := range l.idsWith(NodeStatusNew) {
		out = append(out, id)
		if clear {
			l.status[id] = NodeStatusVisible
		}
	}
	return out
}

// GetRemovedNodes appends the ids of nodes marked deleted to out. With clear
// set their ledger entries are dropped.
func (l *Layer) GetRemovedNodes(out []NodeID, clear bool) []NodeID {
	for _, id := range l.idsWith(NodeStatusDeleted) {
		out = append(out, id)
		if clear {
			delete(l.status, id)
		}
	}
	return out
}

// GetNewEdges appends the keys of new edges to out; see [EdgeContainer.GetNew].
func (l *Layer) GetNewEdges(out []EdgeKey, clear bool) []EdgeKey {
	return l.edges.GetNew(out, clear)
}

// GetRemovedEdges appends the keys of removed edges to out; see
// [EdgeContainer.GetRemoved].
func (l *Layer) GetRemovedEdges(out []EdgeKey, clear bool) []EdgeKey {
	return l.edges.GetRemoved(out, clear)
}

func (l *Layer) idsWith(status NodeStatus) []NodeID {
	var ids []NodeID
	for id, s := range l.status {
		if s == status {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

func (l *Layer) reset() {
	l.nodes = make(map[NodeID]*Node)
	l.status = make(map[NodeID]NodeStatus)
	l.edges.Reset()
	l.next = 0
}

func (l *Layer) clone() *Layer {
	out := &Layer{
		id:     l.id,
		nodes:  make(map[NodeID]*Node, len(l.nodes)),
		status: make(map[NodeID]NodeStatus, len(l.status)),
		edges:  l.edges.clone(),
		next:   l.next,
	}
	for id, n := range l.nodes {
		out.nodes[id] = n.clone()
	}
	for id, s := range l.status {
		out.status[id] = s
	}
	return out
}
