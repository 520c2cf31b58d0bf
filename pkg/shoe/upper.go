package shoe

import (
	"math"

	"github.com/deadsy/sdfx/sdf"

	"github.com/lastforge/lastforge/pkg/spec"
)

// upperWidth is the upper shell's width at normalized length position t.
// Three piecewise regions: a narrower heel, a full-width midfoot, and a
// tapering toe.
func upperWidth(s spec.InstrumentalSpec, t float64) float64 {
	w := s.ShoeWidthMM
	switch {
	case t < 0.3:
		return w * (0.7 + t)
	case t < 0.7:
		return w
	default:
		return w * (1 - 0.5*(t-0.7)/0.3)
	}
}

// upperHeight is the shell height at t: full collar height around the
// ankle, a linear transition, then a reduced vamp height toward the toe.
func upperHeight(s spec.InstrumentalSpec, t float64) float64 {
	h := s.CollarHeightMM
	switch {
	case t < 0.2:
		return h
	case t < 0.4:
		return h * (1 - (t-0.2)/0.2*0.5)
	default:
		return h * 0.5 * (1 - (t-0.4)/0.6*0.3)
	}
}

// upperTriangles builds the upper shell: stacked semicircular rings along
// the length axis, open on the underside where the shell meets the sole,
// quad strips between adjacent rings, and centroid fan caps closing the
// toe and heel ends.
func upperTriangles(s spec.InstrumentalSpec) []sdf.Triangle3 {
	const (
		sections = UpperSections
		pts      = UpperRingPoints
	)

	verts := make([][3]float64, 0, sections*pts+2)
	for i := 0; i < sections; i++ {
		t := float64(i) / float64(sections-1)
		x := t * s.ShoeLengthMM
		w := upperWidth(s, t)
		h := upperHeight(s, t)
		base := soleTopZ(s, t) // seat the ring on the sole's top surface

		for j := 0; j < pts; j++ {
			angle := math.Pi * float64(j) / float64(pts-1) // 0..pi semicircle
			verts = append(verts, [3]float64{
				x,
				w / 2 * math.Cos(angle),
				base + h*math.Sin(angle),
			})
		}
	}

	var tris []sdf.Triangle3

	// Quad strips between adjacent rings. j advances from the lateral side
	// over the crest to the medial side, so the outward winding here is
	// (curr, next, currAhead): toward-toe cross ring-advance faces out of
	// the shell, matching the sole's winding.
	for i := 0; i < sections-1; i++ {
		for j := 0; j < pts-1; j++ {
			curr := i*pts + j
			next := curr + 1
			currAhead := (i+1)*pts + j
			nextAhead := currAhead + 1

			tris = append(tris, triangle(verts, curr, next, currAhead))
			tris = append(tris, triangle(verts, next, nextAhead, currAhead))
		}
	}

	// Toe cap: fan to the last ring's centroid.
	toeStart := (sections - 1) * pts
	toeCenter := ringCentroid(verts[toeStart : toeStart+pts])
	verts = append(verts, toeCenter)
	toeCenterIdx := len(verts) - 1
	for j := 0; j < pts-1; j++ {
		tris = append(tris, triangle(verts, toeStart+j, toeStart+j+1, toeCenterIdx))
	}

	// Heel cap: fan to the first ring's centroid, wound the other way so
	// the normal faces backward out of the shoe.
	heelCenter := ringCentroid(verts[:pts])
	verts = append(verts, heelCenter)
	heelCenterIdx := len(verts) - 1
	for j := 0; j < pts-1; j++ {
		tris = append(tris, triangle(verts, j+1, j, heelCenterIdx))
	}

	return tris
}

// ringCentroid is the mean of a ring's points.
func ringCentroid(ring [][3]float64) [3]float64 {
	var c [3]float64
	for _, p := range ring {
		c[0] += p[0]
		c[1] += p[1]
		c[2] += p[2]
	}
	n := float64(len(ring))
	return [3]float64{c[0] / n, c[1] / n, c[2] / n}
}
