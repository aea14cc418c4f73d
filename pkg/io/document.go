package io

import (
	"time"

	"github.com/matzehuels/scenegraph/pkg/dsg"
	sgerrors "github.com/matzehuels/scenegraph/pkg/errors"
)

// formatVersion is the document layout written by this package.
const formatVersion = 1

// raw is the undecoded form of a payload: json.RawMessage or
// msgpack.RawMessage.
type raw interface{ ~[]byte }

type document[R raw] struct {
	Version    int                    `json:"version"`
	Metadata   dsg.Metadata           `json:"metadata,omitempty"`
	LayerIDs   []dsg.LayerID          `json:"layer_ids"`
	LayerNames map[string]dsg.LayerID `json:"layer_names,omitempty"`
	Nodes      []node[R]              `json:"nodes"`
	Edges      []edge[R]              `json:"edges"`
	Mesh       *dsg.BasicMesh         `json:"mesh,omitempty"`
	MapViews   map[uint16][]byte      `json:"map_views,omitempty"`
}

type node[R raw] struct {
	ID         uint64 `json:"id"`
	Layer      uint32 `json:"layer"`
	Timestamp  *int64 `json:"timestamp,omitempty"`
	Kind       string `json:"kind,omitempty"`
	Attributes R      `json:"attributes,omitempty"`
}

type edge[R raw] struct {
	Source     uint64 `json:"source"`
	Target     uint64 `json:"target"`
	Kind       string `json:"kind,omitempty"`
	Attributes R      `json:"attributes,omitempty"`
}

type marshalFunc func(any) ([]byte, error)
type unmarshalFunc func([]byte, any) error

// encodePayload marshals a payload together with its kind. Nil payloads are
// written without attributes.
func encodePayload[R raw](v any, isNil bool, marshal marshalFunc) (string, R, error) {
	var zero R
	if isNil {
		return "", zero, nil
	}
	kind, err := kindOf(v)
	if err != nil {
		return "", zero, err
	}
	data, err := marshal(v)
	if err != nil {
		return "", zero, err
	}
	return kind, R(data), nil
}

func toDocument[R raw](g *dsg.Graph, includeMesh bool, marshal marshalFunc) (*document[R], error) {
	doc := &document[R]{
		Version:    formatVersion,
		Metadata:   g.Metadata,
		LayerIDs:   g.LayerIDs(),
		LayerNames: g.LayerNames(),
	}

	for _, key := range g.LayerKeys() {
		for _, n := range g.FindKey(key).Nodes() {
			kind, attrs, err := encodePayload[R](n.Attributes(), n.Attributes() == nil, marshal)
			if err != nil {
				return nil, sgerrors.Wrap(sgerrors.ErrCodeInvalidFormat, err, "node %s", n.ID)
			}
			rec := node[R]{ID: uint64(n.ID), Layer: uint32(n.Layer), Kind: kind, Attributes: attrs}
			if stamp, ok := n.Timestamp(); ok {
				ns := stamp.Nanoseconds()
				rec.Timestamp = &ns
			}
			doc.Nodes = append(doc.Nodes, rec)
		}
		for _, e := range g.FindKey(key).Edges() {
			rec, err := toEdge[R](e, marshal)
			if err != nil {
				return nil, err
			}
			doc.Edges = append(doc.Edges, rec)
		}
	}
	for _, e := range append(g.InterlayerEdges(), g.DynamicInterlayerEdges()...) {
		rec, err := toEdge[R](e, marshal)
		if err != nil {
			return nil, err
		}
		doc.Edges = append(doc.Edges, rec)
	}

	if includeMesh && g.Mesh() != nil {
		mesh, ok := g.Mesh().(*dsg.BasicMesh)
		if !ok {
			return nil, sgerrors.New(sgerrors.ErrCodeUnsupported, "cannot serialize mesh of type %T", g.Mesh())
		}
		doc.Mesh = mesh
	}
	if ids := g.MapViewIDs(); len(ids) > 0 {
		doc.MapViews = make(map[uint16][]byte, len(ids))
		for _, id := range ids {
			doc.MapViews[id], _ = g.MapView(id)
		}
	}
	return doc, nil
}

func toEdge[R raw](e *dsg.Edge, marshal marshalFunc) (edge[R], error) {
	kind, attrs, err := encodePayload[R](e.Info, e.Info == nil, marshal)
	if err != nil {
		return edge[R]{}, sgerrors.Wrap(sgerrors.ErrCodeInvalidFormat, err, "edge %s->%s", e.Source, e.Target)
	}
	return edge[R]{Source: uint64(e.Source), Target: uint64(e.Target), Kind: kind, Attributes: attrs}, nil
}

func fromDocument[R raw](doc *document[R], unmarshal unmarshalFunc, opts ...dsg.Option) (*dsg.Graph, error) {
	if doc.Version > formatVersion {
		return nil, sgerrors.New(sgerrors.ErrCodeInvalidFormat, "unsupported document version %d", doc.Version)
	}
	for name := range doc.LayerNames {
		if err := sgerrors.ValidateLayerName(name); err != nil {
			return nil, err
		}
	}

	base := []dsg.Option{dsg.WithLayers(doc.LayerIDs...)}
	if doc.LayerNames != nil {
		base = append(base, dsg.WithLayerNames(doc.LayerNames))
	}
	g := dsg.New(append(base, opts...)...)
	g.Metadata = doc.Metadata

	for _, n := range doc.Nodes {
		id := dsg.NodeID(n.ID)
		attrs, err := newNodeAttributes(n.Kind)
		if err != nil {
			return nil, sgerrors.Wrap(sgerrors.ErrCodeInvalidFormat, err, "node %s", id)
		}
		if len(n.Attributes) > 0 {
			if err := unmarshal([]byte(n.Attributes), attrs); err != nil {
				return nil, sgerrors.Wrap(sgerrors.ErrCodeInvalidFormat, err, "node %s", id)
			}
		}

		var ok bool
		if n.Timestamp != nil {
			ok = g.InsertNode(dsg.NewDynamicNode(id, dsg.LayerID(n.Layer), time.Duration(*n.Timestamp), attrs))
		} else {
			ok = g.EmplaceNode(dsg.LayerID(n.Layer), id, attrs)
		}
		if !ok {
			return nil, sgerrors.New(sgerrors.ErrCodeInvalidFormat, "node %s: duplicate id or unknown layer %d", id, n.Layer)
		}
	}

	for _, e := range doc.Edges {
		source, target := dsg.NodeID(e.Source), dsg.NodeID(e.Target)
		attrs, err := newEdgeAttributes(e.Kind)
		if err != nil {
			return nil, sgerrors.Wrap(sgerrors.ErrCodeInvalidFormat, err, "edge %s->%s", source, target)
		}
		if len(e.Attributes) > 0 {
			if err := unmarshal([]byte(e.Attributes), attrs); err != nil {
				return nil, sgerrors.Wrap(sgerrors.ErrCodeInvalidFormat, err, "edge %s->%s", source, target)
			}
		}
		if !g.InsertEdge(source, target, attrs) {
			return nil, sgerrors.New(sgerrors.ErrCodeInvalidFormat, "edge %s->%s: unknown node or duplicate edge", source, target)
		}
	}

	if doc.Mesh != nil {
		g.SetMesh(doc.Mesh)
	}
	for id, img := range doc.MapViews {
		g.AddMapView(id, img)
	}
	return g, nil
}
