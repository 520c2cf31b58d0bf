package export

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/lastforge/lastforge/pkg/kernel"
)

// stlHeaderText fills the 80-byte binary STL header.
const stlHeaderText = "lastforge parametric shoe geometry"

// WriteSTL writes the mesh in binary STL: an 80-byte header, a uint32
// triangle count, then 50 bytes per triangle (face normal, three
// vertices, zero attribute count), all little-endian.
func WriteSTL(w io.Writer, m *kernel.Mesh) error {
	bw := bufio.NewWriter(w)

	var header [80]byte
	copy(header[:], stlHeaderText)
	if _, err := bw.Write(header[:]); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(m.TriangleCount())); err != nil {
		return err
	}

	for i := 0; i+2 < len(m.Indices); i += 3 {
		a, err := vertex(m, m.Indices[i])
		if err != nil {
			return err
		}
		b, err := vertex(m, m.Indices[i+1])
		if err != nil {
			return err
		}
		c, err := vertex(m, m.Indices[i+2])
		if err != nil {
			return err
		}

		rec := [12]float32{}
		copy(rec[0:3], faceNormal(a, b, c))
		copy(rec[3:6], a[:])
		copy(rec[6:9], b[:])
		copy(rec[9:12], c[:])
		if err := binary.Write(bw, binary.LittleEndian, rec); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, uint16(0)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func vertex(m *kernel.Mesh, i uint32) ([3]float32, error) {
	off := int(i) * 3
	if off+2 >= len(m.Vertices) {
		return [3]float32{}, fmt.Errorf("index %d out of range for %d vertices", i, m.VertexCount())
	}
	return [3]float32{m.Vertices[off], m.Vertices[off+1], m.Vertices[off+2]}, nil
}

// faceNormal recomputes the normal from the triangle's winding, which is
// what STL consumers expect regardless of the stored vertex normals.
func faceNormal(a, b, c [3]float32) []float32 {
	ux, uy, uz := float64(b[0]-a[0]), float64(b[1]-a[1]), float64(b[2]-a[2])
	vx, vy, vz := float64(c[0]-a[0]), float64(c[1]-a[1]), float64(c[2]-a[2])
	nx := uy*vz - uz*vy
	ny := uz*vx - ux*vz
	nz := ux*vy - uy*vx
	l := math.Sqrt(nx*nx + ny*ny + nz*nz)
	if l == 0 {
		return []float32{0, 0, 0}
	}
	return []float32{float32(nx / l), float32(ny / l), float32(nz / l)}
}
