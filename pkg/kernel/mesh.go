// Package kernel defines the triangle mesh representation produced by the
// geometry builder, plus the conversion from triangle soup to an indexed,
// welded mesh.
package kernel

// Mesh is a triangle mesh suitable for rendering and export.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	Name     string    `json:"name"`     // which shoe component this came from
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Bounds returns the axis-aligned bounding box of the vertex set.
func (m *Mesh) Bounds() Bounds {
	b := emptyBounds()
	for i := 0; i+2 < len(m.Vertices); i += 3 {
		b.include(float64(m.Vertices[i]), float64(m.Vertices[i+1]), float64(m.Vertices[i+2]))
	}
	return b
}
