package dsg

// Mesh is an optional geometry attached to a graph. Nodes of the mesh count
// toward [Graph.NumNodes] when requested, but the mesh is not part of the
// hierarchy and is never merged.
type Mesh interface {
	NumVertices() int
	Clone() Mesh
}

// BasicMesh is a triangle mesh with optional per-vertex colors.
type BasicMesh struct {
	Vertices [][3]float64 `json:"vertices"`
	Colors   [][4]uint8   `json:"colors,omitempty"`
	Faces    [][3]uint32  `json:"faces,omitempty"`
}

// NumVertices implements [Mesh].
func (m *BasicMesh) NumVertices() int {
	if m == nil {
		return 0
	}
	return len(m.Vertices)
}

// Clone implements [Mesh].
func (m *BasicMesh) Clone() Mesh {
	if m == nil {
		return (*BasicMesh)(nil)
	}
	return &BasicMesh{
		Vertices: append([][3]float64(nil), m.Vertices...),
		Colors:   append([][4]uint8(nil), m.Colors...),
		Faces:    append([][3]uint32(nil), m.Faces...),
	}
}
