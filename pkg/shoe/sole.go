package shoe

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	"github.com/fogleman/delaunay"

	"github.com/lastforge/lastforge/pkg/spec"
)

// soleProfile samples a closed 2D outline of the sole as (x, y) pairs.
// The curve is a width-modulated ellipse: full width at the midfoot,
// tapering toward the toe (front half) and the heel (back half). The
// heel sits at x=0 and the toe at x=length.
func soleProfile(s spec.InstrumentalSpec, n int) [][2]float64 {
	length := s.ShoeLengthMM
	width := s.ShoeWidthMM

	profile := make([][2]float64, n)
	for i := 0; i < n; i++ {
		t := 2 * math.Pi * float64(i) / float64(n)
		c := math.Cos(t)

		var widthFactor float64
		if c > 0 {
			// Front half: toe taper.
			widthFactor = 0.7 + 0.3*math.Cos(2*t)
		} else {
			// Back half: heel taper.
			widthFactor = 0.8 + 0.2*math.Cos(2*t)
		}

		profile[i][0] = length/2*c + length/2
		profile[i][1] = width / 2 * math.Sin(t) * widthFactor
	}
	return profile
}

// soleTriangles builds the sole volume: a flat bottom ring at z=0, a top
// ring following the arch and toe-spring curves, Delaunay-triangulated
// caps, and a quad-strip wall connecting the two rings.
func soleTriangles(s spec.InstrumentalSpec) []sdf.Triangle3 {
	profile := soleProfile(s, SoleProfilePoints)
	n := len(profile)
	length := s.ShoeLengthMM

	verts := make([][3]float64, 0, 2*n)
	for _, p := range profile {
		verts = append(verts, [3]float64{p[0], p[1], 0})
	}
	for _, p := range profile {
		t := p[0] / length
		verts = append(verts, [3]float64{p[0], p[1], soleTopZ(s, t)})
	}

	var tris []sdf.Triangle3

	// Cap triangulation is shared between bottom and top rings; only the
	// winding differs (bottom normals face down, top normals face up).
	for _, ct := range capTriangles(profile) {
		a, b, c := ct[0], ct[1], ct[2]
		tris = append(tris, triangle(verts, a, c, b))       // bottom, reversed
		tris = append(tris, triangle(verts, a+n, b+n, c+n)) // top
	}

	// Side wall: two triangles per adjacent profile pair.
	for i := 0; i < n; i++ {
		next := (i + 1) % n
		tris = append(tris, triangle(verts, i, next, next+n))
		tris = append(tris, triangle(verts, i, next+n, i+n))
	}

	return tris
}

// capTriangles triangulates the 2D profile with a planar Delaunay
// triangulation, returning index triples wound counter-clockwise.
func capTriangles(profile [][2]float64) [][3]int {
	points := make([]delaunay.Point, len(profile))
	for i, p := range profile {
		points[i] = delaunay.Point{X: p[0], Y: p[1]}
	}
	tri, err := delaunay.Triangulate(points)
	if err != nil {
		// The profile is a non-degenerate closed curve for any in-range
		// spec, so triangulation cannot fail past the range check.
		panic("shoe: sole profile triangulation: " + err.Error())
	}

	out := make([][3]int, 0, len(tri.Triangles)/3)
	for i := 0; i+2 < len(tri.Triangles); i += 3 {
		a, b, c := tri.Triangles[i], tri.Triangles[i+1], tri.Triangles[i+2]
		if signedArea(profile[a], profile[b], profile[c]) < 0 {
			b, c = c, b
		}
		out = append(out, [3]int{a, b, c})
	}
	return out
}

// signedArea is positive when a,b,c wind counter-clockwise.
func signedArea(a, b, c [2]float64) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}
