package kernel

import (
	"testing"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// --- Mesh helper method tests ---

func TestMeshVertexCount(t *testing.T) {
	tests := []struct {
		name     string
		vertices []float32
		want     int
	}{
		{"empty", nil, 0},
		{"one vertex", []float32{1, 2, 3}, 1},
		{"four vertices", []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Vertices: tt.vertices}
			if got := m.VertexCount(); got != tt.want {
				t.Errorf("VertexCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshTriangleCount(t *testing.T) {
	tests := []struct {
		name    string
		indices []uint32
		want    int
	}{
		{"empty", nil, 0},
		{"one triangle", []uint32{0, 1, 2}, 1},
		{"two triangles", []uint32{0, 1, 2, 2, 3, 0}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Indices: tt.indices}
			if got := m.TriangleCount(); got != tt.want {
				t.Errorf("TriangleCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshIsEmpty(t *testing.T) {
	t.Run("empty mesh", func(t *testing.T) {
		m := &Mesh{}
		if !m.IsEmpty() {
			t.Error("IsEmpty() = false for empty mesh, want true")
		}
	})
	t.Run("non-empty mesh", func(t *testing.T) {
		m := &Mesh{Vertices: []float32{1, 2, 3}}
		if m.IsEmpty() {
			t.Error("IsEmpty() = true for non-empty mesh, want false")
		}
	})
}

// --- Triangle soup conversion ---

// tri builds a sdf.Triangle3 from three coordinate triples.
func tri(a, b, c [3]float64) sdf.Triangle3 {
	return sdf.Triangle3{
		v3.Vec{X: a[0], Y: a[1], Z: a[2]},
		v3.Vec{X: b[0], Y: b[1], Z: b[2]},
		v3.Vec{X: c[0], Y: c[1], Z: c[2]},
	}
}

func TestFromTrianglesWeldsSharedEdge(t *testing.T) {
	// Two triangles sharing the edge (0,0,0)-(1,0,0): six soup vertices,
	// four after welding.
	soup := []sdf.Triangle3{
		tri([3]float64{0, 0, 0}, [3]float64{1, 0, 0}, [3]float64{0, 1, 0}),
		tri([3]float64{0, 0, 0}, [3]float64{0, -1, 0}, [3]float64{1, 0, 0}),
	}
	m := FromTriangles(soup, DefaultWeldTolerance, "quad")
	if got := m.VertexCount(); got != 4 {
		t.Errorf("VertexCount() = %d, want 4", got)
	}
	if got := m.TriangleCount(); got != 2 {
		t.Errorf("TriangleCount() = %d, want 2", got)
	}
	if m.Name != "quad" {
		t.Errorf("Name = %q, want quad", m.Name)
	}
	if len(m.Normals) != len(m.Vertices) {
		t.Errorf("normals length %d != vertices length %d", len(m.Normals), len(m.Vertices))
	}
}

func TestFromTrianglesWeldTolerance(t *testing.T) {
	// Vertices 1e-9 apart weld at the default tolerance; 0.5 apart do not.
	near := []sdf.Triangle3{
		tri([3]float64{0, 0, 0}, [3]float64{1, 0, 0}, [3]float64{0, 1, 0}),
		tri([3]float64{1e-9, 0, 0}, [3]float64{0, -1, 0}, [3]float64{1, 0, 0}),
	}
	if got := FromTriangles(near, DefaultWeldTolerance, "").VertexCount(); got != 4 {
		t.Errorf("near vertices: VertexCount() = %d, want 4", got)
	}

	far := []sdf.Triangle3{
		tri([3]float64{0, 0, 0}, [3]float64{1, 0, 0}, [3]float64{0, 1, 0}),
		tri([3]float64{0.5, 0, 0}, [3]float64{0, -1, 0}, [3]float64{1, 0, 0}),
	}
	if got := FromTriangles(far, DefaultWeldTolerance, "").VertexCount(); got != 5 {
		t.Errorf("far vertices: VertexCount() = %d, want 5", got)
	}
}

func TestFromTrianglesDropsDegenerate(t *testing.T) {
	soup := []sdf.Triangle3{
		// Collapses to a point pair after welding.
		tri([3]float64{0, 0, 0}, [3]float64{0, 0, 0}, [3]float64{1, 0, 0}),
		tri([3]float64{0, 0, 0}, [3]float64{1, 0, 0}, [3]float64{0, 1, 0}),
	}
	m := FromTriangles(soup, DefaultWeldTolerance, "")
	if got := m.TriangleCount(); got != 1 {
		t.Errorf("TriangleCount() = %d, want 1 (degenerate dropped)", got)
	}
}

func TestMeshBounds(t *testing.T) {
	m := FromTriangles([]sdf.Triangle3{
		tri([3]float64{-1, -2, -3}, [3]float64{4, 0, 0}, [3]float64{0, 5, 6}),
	}, DefaultWeldTolerance, "")
	b := m.Bounds()
	if !b.Valid() {
		t.Fatalf("bounds invalid: %+v", b)
	}
	if b.Min != [3]float64{-1, -2, -3} {
		t.Errorf("Min = %v", b.Min)
	}
	if b.Max != [3]float64{4, 5, 6} {
		t.Errorf("Max = %v", b.Max)
	}
	if got := b.Size(); got != [3]float64{5, 7, 9} {
		t.Errorf("Size() = %v", got)
	}
}
