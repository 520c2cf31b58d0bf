// Package spec defines shoe design specification trees and validates
// instrumental measurements against the manufacturing constraint schema.
package spec

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Tree is a nested specification document, as stored in a snapshot.
// Leaves are scalars; interior nodes are sections.
type Tree = map[string]any

// Dotted field paths for the six instrumental measurements.
const (
	PathShoeLength    = "overall_dimensions.shoe_length_mm"
	PathShoeWidth     = "overall_dimensions.shoe_width_mm"
	PathSoleThickness = "overall_dimensions.sole_thickness_mm"
	PathArchHeight    = "last_profile.arch_height_mm"
	PathToeSpring     = "last_profile.toe_spring_mm"
	PathCollarHeight  = "collar_geometry.collar_height_mm"
)

// InstrumentalSpec holds the six geometry-driving measurements, in mm.
// A value of this type is assumed validated against the constraint schema;
// the mesh builder re-asserts the ranges defensively.
type InstrumentalSpec struct {
	ShoeLengthMM    float64 `json:"shoe_length_mm"`
	ShoeWidthMM     float64 `json:"shoe_width_mm"`
	SoleThicknessMM float64 `json:"sole_thickness_mm"`
	ArchHeightMM    float64 `json:"arch_height_mm"`
	ToeSpringMM     float64 `json:"toe_spring_mm"`
	CollarHeightMM  float64 `json:"collar_height_mm"`
}

// FromTree extracts the six instrumental measurements from a snapshot tree.
// It fails if any field is absent or non-numeric; range checking is the
// validator's concern, not this function's.
func FromTree(t Tree) (InstrumentalSpec, error) {
	var s InstrumentalSpec
	for _, f := range []struct {
		path string
		dst  *float64
	}{
		{PathShoeLength, &s.ShoeLengthMM},
		{PathShoeWidth, &s.ShoeWidthMM},
		{PathSoleThickness, &s.SoleThicknessMM},
		{PathArchHeight, &s.ArchHeightMM},
		{PathToeSpring, &s.ToeSpringMM},
		{PathCollarHeight, &s.CollarHeightMM},
	} {
		v, ok := lookup(t, f.path)
		if !ok {
			return InstrumentalSpec{}, fmt.Errorf("spec: missing field %s", f.path)
		}
		n, ok := toFloat(v)
		if !ok {
			return InstrumentalSpec{}, fmt.Errorf("spec: field %s is %T, want number", f.path, v)
		}
		*f.dst = n
	}
	return s, nil
}

// ToTree renders the measurements back into the canonical nested layout.
func (s InstrumentalSpec) ToTree() Tree {
	return Tree{
		"overall_dimensions": map[string]any{
			"shoe_length_mm":    s.ShoeLengthMM,
			"shoe_width_mm":     s.ShoeWidthMM,
			"sole_thickness_mm": s.SoleThicknessMM,
		},
		"last_profile": map[string]any{
			"arch_height_mm": s.ArchHeightMM,
			"toe_spring_mm":  s.ToeSpringMM,
		},
		"collar_geometry": map[string]any{
			"collar_height_mm": s.CollarHeightMM,
		},
	}
}

// lookup walks a dotted path through nested maps.
func lookup(t Tree, path string) (any, bool) {
	var cur any = t
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// toFloat coerces the numeric types that appear in decoded JSON/YAML trees.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
