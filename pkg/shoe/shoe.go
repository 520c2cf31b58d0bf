// Package shoe builds manufacturable shoe geometry from a validated
// instrumental spec. The builder is a pure function of its inputs: the
// same six measurements always produce byte-identical mesh, bounds, and
// anchor output.
package shoe

import (
	"fmt"

	"github.com/deadsy/sdfx/sdf"

	"github.com/lastforge/lastforge/pkg/kernel"
	"github.com/lastforge/lastforge/pkg/spec"
)

// Tessellation parameters. These are part of the geometry algorithm; any
// change must be accompanied by an identity.BuildVersion bump.
const (
	SoleProfilePoints = 50 // samples along the sole outline
	UpperSections     = 30 // cross-section rings along the upper
	UpperRingPoints   = 24 // points per semicircular ring
)

// OutOfRangeError reports a measurement outside its manufacturing range.
// The validator is a precondition of Build, so seeing this error means an
// internal invariant was violated upstream, not a normal user error.
type OutOfRangeError struct {
	Field string
	Value float64
	Min   float64
	Max   float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("shoe: %s=%v outside valid range [%v, %v]", e.Field, e.Value, e.Min, e.Max)
}

// Result is the complete geometry output for one spec.
type Result struct {
	Mesh    *kernel.Mesh
	Bounds  kernel.Bounds
	Anchors AnchorPoints
}

// Builder turns instrumental specs into shoe geometry. It re-asserts the
// constraint schema it was built with before doing any mesh work.
type Builder struct {
	schema spec.Schema
}

// NewBuilder returns a builder that enforces the given constraint schema.
func NewBuilder(schema spec.Schema) *Builder {
	return &Builder{schema: schema}
}

// Build generates the sole and upper meshes, assembles them into one
// welded mesh with outward normals, and derives bounds and anchor points.
func (b *Builder) Build(s spec.InstrumentalSpec) (*Result, error) {
	if err := b.checkRanges(s); err != nil {
		return nil, err
	}

	tris := soleTriangles(s)
	tris = append(tris, upperTriangles(s)...)

	mesh := kernel.FromTriangles(tris, kernel.DefaultWeldTolerance, "shoe")
	bounds := mesh.Bounds()

	return &Result{
		Mesh:    mesh,
		Bounds:  bounds,
		Anchors: anchorPoints(s),
	}, nil
}

// checkRanges re-runs the range portion of validation on the typed spec.
func (b *Builder) checkRanges(s spec.InstrumentalSpec) error {
	report := spec.Validate(s.ToTree(), nil, b.schema, spec.NonInstrumentalSchema{})
	for _, issue := range report.InstrumentalIssues {
		if issue.Kind != spec.IssueOutOfRange {
			continue
		}
		value, _ := issue.Received.(float64)
		return &OutOfRangeError{
			Field: leafField(issue.Path),
			Value: value,
			Min:   issue.Min,
			Max:   issue.Max,
		}
	}
	return nil
}

// leafField strips the section prefix from a dotted schema path.
func leafField(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[i+1:]
		}
	}
	return path
}

// soleTopZ is the height of the sole's top surface at normalized length
// position t (0 = heel, 1 = toe): base thickness plus a parabolic arch
// peaking at mid-length plus the toe-spring rise over the last 20%.
func soleTopZ(s spec.InstrumentalSpec, t float64) float64 {
	return s.SoleThicknessMM + archOffset(s, t) + toeOffset(s, t)
}

func archOffset(s spec.InstrumentalSpec, t float64) float64 {
	return s.ArchHeightMM * 4 * t * (1 - t)
}

func toeOffset(s spec.InstrumentalSpec, t float64) float64 {
	if t <= 0.8 {
		return 0
	}
	u := (t - 0.8) / 0.2
	return s.ToeSpringMM * u * u
}

// triangle builds a sdf.Triangle3 from three indexed vertices.
func triangle(verts [][3]float64, a, b, c int) sdf.Triangle3 {
	var tri sdf.Triangle3
	for j, i := range [3]int{a, b, c} {
		tri[j].X = verts[i][0]
		tri[j].Y = verts[i][1]
		tri[j].Z = verts[i][2]
	}
	return tri
}
