package dsg

import (
	"cmp"
	"fmt"
	"slices"
)

// EdgeKey identifies an undirected edge. The smaller id is always K1, so
// (a, b) and (b, a) produce the same key.
type EdgeKey struct {
	K1, K2 NodeID
}

// NewEdgeKey returns the canonical key for an edge between a and b.
func NewEdgeKey(a, b NodeID) EdgeKey {
	if a > b {
		a, b = b, a
	}
	return EdgeKey{K1: a, K2: b}
}

func (k EdgeKey) String() string { return fmt.Sprintf("(%s, %s)", k.K1, k.K2) }

func compareKeys(a, b EdgeKey) int {
	if c := cmp.Compare(a.K1, b.K1); c != 0 {
		return c
	}
	return cmp.Compare(a.K2, b.K2)
}

// Edge is an undirected connection between two nodes. Source and Target keep
// the orientation the edge was inserted with.
type Edge struct {
	Source NodeID
	Target NodeID
	Info   EdgeAttributes
}

// Key returns the canonical key of the edge.
func (e *Edge) Key() EdgeKey { return NewEdgeKey(e.Source, e.Target) }

func (e *Edge) clone() *Edge {
	out := *e
	if e.Info != nil {
		out.Info = e.Info.Clone()
	}
	return &out
}

// EdgeStatus is the change-tracking state of an edge.
type EdgeStatus int

const (
	EdgeStatusNonexistent EdgeStatus = iota
	EdgeStatusNew
	EdgeStatusVisible
	EdgeStatusDeleted
	// EdgeStatusMerged marks an edge whose endpoint was rewired by a node
	// merge. It is not reported as removed.
	EdgeStatusMerged
)

func (s EdgeStatus) String() string {
	switch s {
	case EdgeStatusNew:
		return "new"
	case EdgeStatusVisible:
		return "visible"
	case EdgeStatusDeleted:
		return "deleted"
	case EdgeStatusMerged:
		return "merged"
	default:
		return "nonexistent"
	}
}

// EdgeContainer stores undirected edges together with a change ledger and
// staleness flags. The ledger outlives the edges it describes until it is
// drained by GetNew or GetRemoved.
//
// EdgeContainer is not safe for concurrent use.
type EdgeContainer struct {
	edges  map[EdgeKey]*Edge
	status map[EdgeKey]EdgeStatus
	stale  map[EdgeKey]bool
}

// NewEdgeContainer returns an empty container.
func NewEdgeContainer() *EdgeContainer {
	return &EdgeContainer{
		edges:  make(map[EdgeKey]*Edge),
		status: make(map[EdgeKey]EdgeStatus),
		stale:  make(map[EdgeKey]bool),
	}
}

// Insert stores an edge, replacing any edge with the same key, and marks it
// new. A nil payload is replaced with an empty [EdgeAttrs].
func (c *EdgeContainer) Insert(source, target NodeID, attrs EdgeAttributes) {
	key := NewEdgeKey(source, target)
	c.edges[key] = &Edge{Source: source, Target: target, Info: defaultEdgeAttrs(attrs)}
	c.status[key] = EdgeStatusNew
}

// Remove deletes an edge and marks it deleted. Removing an absent edge is a
// no-op.
func (c *EdgeContainer) Remove(source, target NodeID) {
	c.removeAs(NewEdgeKey(source, target), EdgeStatusDeleted)
}

func (c *EdgeContainer) removeAs(key EdgeKey, status EdgeStatus) bool {
	if _, ok := c.edges[key]; !ok {
		return false
	}
	delete(c.edges, key)
	delete(c.stale, key)
	c.status[key] = status
	return true
}

// Rewire moves the edge (source, target) to (newSource, newTarget), keeping a
// copy of its payload. The old key is marked merged and the new one new.
// It returns false if no edge exists between source and target.
func (c *EdgeContainer) Rewire(source, target, newSource, newTarget NodeID) bool {
	prev, ok := c.edges[NewEdgeKey(source, target)]
	if !ok {
		return false
	}
	attrs := prev.Info.Clone()
	c.removeAs(prev.Key(), EdgeStatusMerged)
	c.Insert(newSource, newTarget, attrs)
	return true
}

// Contains reports whether an edge exists between source and target.
func (c *EdgeContainer) Contains(source, target NodeID) bool {
	_, ok := c.edges[NewEdgeKey(source, target)]
	return ok
}

// Find returns the edge between source and target, or nil.
//
// A successful lookup clears the edge's stale flag: every edge touched after
// [EdgeContainer.SetStale] counts as reaffirmed.
func (c *EdgeContainer) Find(source, target NodeID) *Edge {
	key := NewEdgeKey(source, target)
	e, ok := c.edges[key]
	if !ok {
		return nil
	}
	if _, tracked := c.stale[key]; tracked {
		c.stale[key] = false
	}
	return e
}

func (c *EdgeContainer) peek(source, target NodeID) *Edge {
	return c.edges[NewEdgeKey(source, target)]
}

// Status returns the ledger state of the edge between source and target.
func (c *EdgeContainer) Status(source, target NodeID) EdgeStatus {
	if s, ok := c.status[NewEdgeKey(source, target)]; ok {
		return s
	}
	return EdgeStatusNonexistent
}

// Len returns the number of stored edges.
func (c *EdgeContainer) Len() int { return len(c.edges) }

// Edges returns the stored edges ordered by key.
func (c *EdgeContainer) Edges() []*Edge {
	out := make([]*Edge, 0, len(c.edges))
	for _, e := range c.edges {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b *Edge) int { return compareKeys(a.Key(), b.Key()) })
	return out
}

// GetNew appends the keys of edges marked new to out and returns it. With
// clear set, those edges become visible.
func (c *EdgeContainer) GetNew(out []EdgeKey, clear bool) []EdgeKey {
	for _, key := range c.keysWith(EdgeStatusNew) {
		out = append(out, key)
		if clear {
			c.status[key] = EdgeStatusVisible
		}
	}
	return out
}

// GetRemoved appends the keys of edges marked deleted to out and returns it.
// With clear set, their ledger entries are dropped.
func (c *EdgeContainer) GetRemoved(out []EdgeKey, clear bool) []EdgeKey {
	for _, key := range c.keysWith(EdgeStatusDeleted) {
		out = append(out, key)
		if clear {
			delete(c.status, key)
		}
	}
	return out
}

func (c *EdgeContainer) keysWith(status EdgeStatus) []EdgeKey {
	var keys []EdgeKey
	for key, s := range c.status {
		if s == status {
			keys = append(keys, key)
		}
	}
	slices.SortFunc(keys, compareKeys)
	return keys
}

// SetStale flags every current edge as stale, discarding previous flags.
func (c *EdgeContainer) SetStale() {
	c.stale = make(map[EdgeKey]bool, len(c.edges))
	for key := range c.edges {
		c.stale[key] = true
	}
}

// IsStale reports whether the edge between source and target is flagged stale.
func (c *EdgeContainer) IsStale(source, target NodeID) bool {
	return c.stale[NewEdgeKey(source, target)]
}

// StaleEdges returns the keys of stored edges still flagged stale.
func (c *EdgeContainer) StaleEdges() []EdgeKey {
	var keys []EdgeKey
	for key, stale := range c.stale {
		if _, ok := c.edges[key]; ok && stale {
			keys = append(keys, key)
		}
	}
	slices.SortFunc(keys, compareKeys)
	return keys
}

// Reset drops all edges, ledger entries and flags.
func (c *EdgeContainer) Reset() {
	c.edges = make(map[EdgeKey]*Edge)
	c.status = make(map[EdgeKey]EdgeStatus)
	c.stale = make(map[EdgeKey]bool)
}

func (c *EdgeContainer) clone() *EdgeContainer {
	out := &EdgeContainer{
		edges:  make(map[EdgeKey]*Edge, len(c.edges)),
		status: make(map[EdgeKey]EdgeStatus, len(c.status)),
		stale:  make(map[EdgeKey]bool, len(c.stale)),
	}
	for key, e := range c.edges {
		out.edges[key] = e.clone()
	}
	for key, s := range c.status {
		out.status[key] = s
	}
	for key, s := range c.stale {
		out.stale[key] = s
	}
	return out
}
