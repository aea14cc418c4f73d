package dsg

import "maps"

// NodeAttributes is the payload carried by a node. Implementations must return
// an independent deep copy from Clone.
type NodeAttributes interface {
	Clone() NodeAttributes
}

// EdgeAttributes is the payload carried by an edge.
type EdgeAttributes interface {
	Clone() EdgeAttributes
}

// Kinded is implemented by attribute types that serialize with a kind tag.
// The tag selects the decoder when a graph file is read back.
type Kinded interface {
	AttributeKind() string
}

// Attribute kinds of the built-in payloads.
const (
	KindNodeAttrs = "node"
	KindEdgeAttrs = "edge"
)

// Metadata is free-form JSON-compatible data attached to graphs and payloads.
type Metadata map[string]any

// Clone returns a deep copy of m. Nested maps and slices are copied; other
// values are shared.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return map[string]any(Metadata(t).Clone())
	case Metadata:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// NodeAttrs is the default node payload.
type NodeAttrs struct {
	Name          string        `json:"name,omitempty"`
	Position      [3]float64    `json:"position"`
	SemanticLabel uint32        `json:"semantic_label,omitempty"`
	Meta          Metadata      `json:"meta,omitempty"`
	Views         InstanceViews `json:"views,omitempty"`
}

// Clone implements [NodeAttributes].
func (a *NodeAttrs) Clone() NodeAttributes {
	if a == nil {
		return (*NodeAttrs)(nil)
	}
	out := *a
	out.Meta = a.Meta.Clone()
	out.Views = a.Views.Clone()
	return &out
}

// AttributeKind implements [Kinded].
func (a *NodeAttrs) AttributeKind() string { return KindNodeAttrs }

// EdgeAttrs is the default edge payload, used whenever an edge is inserted
// without one.
type EdgeAttrs struct {
	Weighted bool     `json:"weighted,omitempty"`
	Weight   float64  `json:"weight,omitempty"`
	Meta     Metadata `json:"meta,omitempty"`
}

// Clone implements [EdgeAttributes].
func (a *EdgeAttrs) Clone() EdgeAttributes {
	if a == nil {
		return (*EdgeAttrs)(nil)
	}
	out := *a
	out.Meta = a.Meta.Clone()
	return &out
}

// AttributeKind implements [Kinded].
func (a *EdgeAttrs) AttributeKind() string { return KindEdgeAttrs }

func defaultEdgeAttrs(attrs EdgeAttributes) EdgeAttributes {
	if attrs == nil {
		return &EdgeAttrs{}
	}
	return attrs
}

// View is a single observation of an instance: the mask it was segmented from.
type View struct {
	MaskID uint64 `json:"mask_id"`
	Mask   []byte `json:"mask,omitempty"`
}

// InstanceViews maps a map-view id to the view of an instance in that image.
type InstanceViews map[uint16]View

// Add records a view unless one already exists for the same map view.
func (v *InstanceViews) Add(mapViewID uint16, view View) bool {
	if *v == nil {
		*v = make(InstanceViews)
	}
	if _, ok := (*v)[mapViewID]; ok {
		return false
	}
	(*v)[mapViewID] = view
	return true
}

// Merge adds the views of other that are missing from v.
func (v *InstanceViews) Merge(other InstanceViews) {
	for id, view := range other {
		v.Add(id, view)
	}
}

// Clone returns a deep copy of v.
func (v InstanceViews) Clone() InstanceViews {
	if v == nil {
		return nil
	}
	out := maps.Clone(v)
	for id, view := range out {
		view.Mask = append([]byte(nil), view.Mask...)
		out[id] = view
	}
	return out
}
