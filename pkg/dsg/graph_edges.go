package dsg

// InsertEdge connects two existing nodes. Nodes under the same layer key
// become siblings; otherwise the node in the higher layer becomes the parent
// (or, at equal layer ids, both become siblings). It fails if either node is
// missing or the edge already exists.
func (g *Graph) InsertEdge(source, target NodeID, attrs EdgeAttributes) bool {
	sk, tk, ok := g.edgeKeys(source, target)
	if !ok || g.hasEdge(source, target, sk, tk) {
		return false
	}
	if sk == tk {
		return g.FindKey(sk).InsertEdge(source, target, attrs)
	}
	g.link(source, target, sk, tk)
	g.interlayerFor(sk, tk).Insert(source, target, attrs)
	return true
}

// InsertParentEdge is like InsertEdge but keeps the child at a single parent:
// when one endpoint is the parent of the other, every existing parent edge of
// the child is removed first.
func (g *Graph) InsertParentEdge(source, target NodeID, attrs EdgeAttributes) bool {
	sk, tk, ok := g.edgeKeys(source, target)
	if !ok || g.hasEdge(source, target, sk, tk) {
		return false
	}
	if sk == tk {
		return g.FindKey(sk).InsertEdge(source, target, attrs)
	}
	switch {
	case sk.IsParent(tk):
		g.dropParents(target)
	case tk.IsParent(sk):
		g.dropParents(source)
	}
	g.link(source, target, sk, tk)
	g.interlayerFor(sk, tk).Insert(source, target, attrs)
	return true
}

// AddOrUpdateEdge inserts an edge or replaces the payload of an existing one.
func (g *Graph) AddOrUpdateEdge(source, target NodeID, attrs EdgeAttributes) bool {
	if g.SetEdgeAttributes(source, target, attrs) {
		return true
	}
	return g.InsertEdge(source, target, attrs)
}

// SetEdgeAttributes replaces the payload of an existing edge.
func (g *Graph) SetEdgeAttributes(source, target NodeID, attrs EdgeAttributes) bool {
	e := g.FindEdge(source, target)
	if e == nil {
		return false
	}
	e.Info = defaultEdgeAttrs(attrs)
	return true
}

// HasEdge reports whether an edge connects source and target, in either
// orientation.
func (g *Graph) HasEdge(source, target NodeID) bool {
	sk, tk, ok := g.edgeKeys(source, target)
	return ok && g.hasEdge(source, target, sk, tk)
}

func (g *Graph) hasEdge(source, target NodeID, sk, tk LayerKey) bool {
	return g.containerFor(sk, tk).Contains(source, target)
}

// FindEdge returns the edge between source and target, or nil. A successful
// lookup clears the edge's stale flag.
func (g *Graph) FindEdge(source, target NodeID) *Edge {
	sk, tk, ok := g.edgeKeys(source, target)
	if !ok {
		return nil
	}
	return g.containerFor(sk, tk).Find(source, target)
}

// ReaffirmEdge clears the stale flag of the edge between source and target
// and reports whether the edge exists. It is the explicit form of the
// side effect of FindEdge.
func (g *Graph) ReaffirmEdge(source, target NodeID) bool {
	return g.FindEdge(source, target) != nil
}

// GetEdge is like FindEdge but returns an error when no edge exists.
func (g *Graph) GetEdge(source, target NodeID) (*Edge, error) {
	if e := g.FindEdge(source, target); e != nil {
		return e, nil
	}
	return nil, missingEdge(source, target)
}

// RemoveEdge deletes the edge between source and target and the relations it
// implied.
func (g *Graph) RemoveEdge(source, target NodeID) bool {
	sk, tk, ok := g.edgeKeys(source, target)
	if !ok || !g.hasEdge(source, target, sk, tk) {
		return false
	}
	if sk == tk {
		return g.FindKey(sk).RemoveEdge(source, target)
	}
	g.unlink(source, target, sk, tk)
	g.interlayerFor(sk, tk).Remove(source, target)
	return true
}

// InterlayerEdges returns the edges between static layers.
func (g *Graph) InterlayerEdges() []*Edge { return g.interlayer.Edges() }

// DynamicInterlayerEdges returns the interlayer edges touching a dynamic layer.
func (g *Graph) DynamicInterlayerEdges() []*Edge { return g.dynamicInterlayer.Edges() }

func (g *Graph) edgeKeys(source, target NodeID) (LayerKey, LayerKey, bool) {
	sk, ok := g.nodeLookup[source]
	if !ok {
		return LayerKey{}, LayerKey{}, false
	}
	tk, ok := g.nodeLookup[target]
	if !ok {
		return LayerKey{}, LayerKey{}, false
	}
	return sk, tk, true
}

func (g *Graph) containerFor(sk, tk LayerKey) *EdgeContainer {
	if sk == tk {
		return g.FindKey(sk).edges
	}
	return g.interlayerFor(sk, tk)
}

func (g *Graph) interlayerFor(sk, tk LayerKey) *EdgeContainer {
	if sk.Dynamic || tk.Dynamic {
		return g.dynamicInterlayer
	}
	return g.interlayer
}

// link records the relation implied by an interlayer edge on both endpoints.
func (g *Graph) link(source, target NodeID, sk, tk LayerKey) {
	src := g.FindKey(sk).FindNode(source)
	tgt := g.FindKey(tk).FindNode(target)
	switch {
	case sk.IsParent(tk):
		src.children.add(target)
		tgt.parents.add(source)
	case tk.IsParent(sk):
		src.parents.add(target)
		tgt.children.add(source)
	default:
		src.siblings.add(target)
		tgt.siblings.add(source)
	}
}

func (g *Graph) unlink(source, target NodeID, sk, tk LayerKey) {
	src := g.FindKey(sk).FindNode(source)
	tgt := g.FindKey(tk).FindNode(target)
	switch {
	case sk.IsParent(tk):
		src.children.remove(target)
		tgt.parents.remove(source)
	case tk.IsParent(sk):
		src.parents.remove(target)
		tgt.children.remove(source)
	default:
		src.siblings.remove(target)
		tgt.siblings.remove(source)
	}
}

func (g *Graph) dropParents(child NodeID) {
	n := g.FindNode(child)
	if n == nil {
		return
	}
	for _, parent := range n.parents.sorted() {
		g.RemoveEdge(child, parent)
	}
}

// rewire moves the interlayer edge (source, target) to (newSource, target),
// keeping its orientation and a copy of its payload. If newSource is already
// connected to target, the old edge is removed instead.
func (g *Graph) rewire(source, newSource, target NodeID) {
	if source == newSource {
		return
	}
	sk, tk, ok := g.edgeKeys(source, target)
	if !ok {
		return
	}
	if !g.HasNode(newSource) {
		return
	}

	if newSource == target || g.HasEdge(newSource, target) {
		g.RemoveEdge(source, target)
		return
	}

	container := g.containerFor(sk, tk)
	e := container.peek(source, target)
	if e == nil {
		g.logger.Warn("inconsistent relation without edge", "source", source, "target", target)
		return
	}
	attrs := e.Info.Clone()
	forward := e.Source == source

	if sk == tk {
		g.FindKey(sk).unlink(source, target)
	} else {
		g.unlink(source, target, sk, tk)
	}
	container.removeAs(e.Key(), EdgeStatusMerged)

	if forward {
		g.InsertEdge(newSource, target, attrs)
	} else {
		g.InsertEdge(target, newSource, attrs)
	}
}
