package dsg

import (
	"slices"
	"time"
)

// NodeStatus is the change-tracking state of a node within its layer.
type NodeStatus int

const (
	// NodeStatusNonexistent means the layer has never held the node, or the
	// ledger entry was drained.
	NodeStatusNonexistent NodeStatus = iota
	NodeStatusNew
	NodeStatusVisible
	NodeStatusDeleted
)

func (s NodeStatus) String() string {
	switch s {
	case NodeStatusNew:
		return "new"
	case NodeStatusVisible:
		return "visible"
	case NodeStatusDeleted:
		return "deleted"
	default:
		return "nonexistent"
	}
}

type idSet map[NodeID]struct{}

func (s idSet) add(id NodeID)      { s[id] = struct{}{} }
func (s idSet) remove(id NodeID)   { delete(s, id) }
func (s idSet) has(id NodeID) bool { _, ok := s[id]; return ok }

func (s idSet) sorted() []NodeID {
	out := make([]NodeID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func (s idSet) clone() idSet {
	out := make(idSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// Node is a vertex of the scene graph.
//
// Relations are maintained by the owning [Graph] and [Layer]; callers only
// read them. Parents live in higher layers, children in lower layers and
// siblings at the same layer id.
type Node struct {
	ID    NodeID
	Layer LayerID

	stamp *time.Duration
	attrs NodeAttributes

	parents  idSet
	children idSet
	siblings idSet
}

func newNode(id NodeID, layer LayerID, attrs NodeAttributes, stamp *time.Duration) *Node {
	return &Node{
		ID:       id,
		Layer:    layer,
		stamp:    stamp,
		attrs:    attrs,
		parents:  make(idSet),
		children: make(idSet),
		siblings: make(idSet),
	}
}

// NewNode returns a detached static node, for use with [Graph.InsertNode].
func NewNode(id NodeID, layer LayerID, attrs NodeAttributes) *Node {
	return newNode(id, layer, attrs, nil)
}

// NewDynamicNode returns a detached node carrying a timestamp.
func NewDynamicNode(id NodeID, layer LayerID, stamp time.Duration, attrs NodeAttributes) *Node {
	return newNode(id, layer, attrs, &stamp)
}

// Attributes returns the node payload.
func (n *Node) Attributes() NodeAttributes { return n.attrs }

// Timestamp returns the node's timestamp. Only dynamic nodes have one.
func (n *Node) Timestamp() (time.Duration, bool) {
	if n.stamp == nil {
		return 0, false
	}
	return *n.stamp, true
}

// Parents returns the parent ids in ascending order.
func (n *Node) Parents() []NodeID { return n.parents.sorted() }

// Children returns the child ids in ascending order.
func (n *Node) Children() []NodeID { return n.children.sorted() }

// Siblings returns the sibling ids in ascending order.
func (n *Node) Siblings() []NodeID { return n.siblings.sorted() }

// Parent returns the lowest parent id, if any.
func (n *Node) Parent() (NodeID, bool) {
	if len(n.parents) == 0 {
		return 0, false
	}
	return n.parents.sorted()[0], true
}

// HasParent reports whether the node has a parent.
func (n *Node) HasParent() bool   { return len(n.parents) > 0 }

// HasChildren reports whether the node has children.
func (n *Node) HasChildren() bool { return len(n.children) > 0 }

// HasSiblings reports whether the node has siblings.
func (n *Node) HasSiblings() bool { return len(n.siblings) > 0 }

func (n *Node) clone() *Node {
	out := &Node{
		ID:       n.ID,
		Layer:    n.Layer,
		parents:  n.parents.clone(),
		children: n.children.clone(),
		siblings: n.siblings.clone(),
	}
	if n.stamp != nil {
		s := *n.stamp
		out.stamp = &s
	}
	if n.attrs != nil {
		out.attrs = n.attrs.Clone()
	}
	return out
}

func (n *Node) clearRelations() {
	n.parents = make(idSet)
	n.children = make(idSet)
	n.siblings = make(idSet)
}
