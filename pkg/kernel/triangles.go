package kernel

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// DefaultWeldTolerance is the coincidence distance (mm) below which two
// vertices are merged into one. Seams between the sole and upper produce
// duplicates well inside this tolerance.
const DefaultWeldTolerance = 1e-6

// FromTriangles converts a triangle soup into an indexed mesh, welding
// vertices that coincide within tol and dropping triangles that collapse
// in the process. Per-vertex normals are the normalized sum of the face
// normals of adjacent triangles, so a consistently wound soup yields
// consistently outward normals.
func FromTriangles(tris []sdf.Triangle3, tol float64, name string) *Mesh {
	if tol <= 0 {
		tol = DefaultWeldTolerance
	}

	type cell [3]int64
	quantize := func(v v3.Vec) cell {
		return cell{
			int64(math.Round(v.X / tol)),
			int64(math.Round(v.Y / tol)),
			int64(math.Round(v.Z / tol)),
		}
	}

	index := make(map[cell]uint32)
	var verts []v3.Vec
	var accum []v3.Vec // face-normal sums per welded vertex
	var indices []uint32

	for _, tri := range tris {
		n := tri.Normal()
		var idx [3]uint32
		for j := 0; j < 3; j++ {
			c := quantize(tri[j])
			i, ok := index[c]
			if !ok {
				i = uint32(len(verts))
				index[c] = i
				verts = append(verts, tri[j])
				accum = append(accum, v3.Vec{})
			}
			idx[j] = i
		}
		// Degenerate after welding.
		if idx[0] == idx[1] || idx[1] == idx[2] || idx[0] == idx[2] {
			continue
		}
		for j := 0; j < 3; j++ {
			accum[idx[j]] = accum[idx[j]].Add(n)
		}
		indices = append(indices, idx[0], idx[1], idx[2])
	}

	m := &Mesh{
		Name:     name,
		Vertices: make([]float32, 0, len(verts)*3),
		Normals:  make([]float32, 0, len(verts)*3),
		Indices:  indices,
	}
	for i, v := range verts {
		m.Vertices = append(m.Vertices, float32(v.X), float32(v.Y), float32(v.Z))
		n := accum[i]
		if l := n.Length(); l > 0 {
			n = n.DivScalar(l)
		}
		m.Normals = append(m.Normals, float32(n.X), float32(n.Y), float32(n.Z))
	}
	return m
}
