package kernel

import "math"

// Bounds is an axis-aligned bounding box in mm.
type Bounds struct {
	Min [3]float64 `json:"min"`
	Max [3]float64 `json:"max"`
}

// emptyBounds returns an inverted box that any include() call will fix.
func emptyBounds() Bounds {
	return Bounds{
		Min: [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)},
		Max: [3]float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)},
	}
}

func (b *Bounds) include(x, y, z float64) {
	for i, v := range [3]float64{x, y, z} {
		if v < b.Min[i] {
			b.Min[i] = v
		}
		if v > b.Max[i] {
			b.Max[i] = v
		}
	}
}

// Valid reports whether Min <= Max componentwise.
func (b Bounds) Valid() bool {
	for i := 0; i < 3; i++ {
		if b.Min[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Size returns the extent along each axis.
func (b Bounds) Size() [3]float64 {
	return [3]float64{b.Max[0] - b.Min[0], b.Max[1] - b.Min[1], b.Max[2] - b.Min[2]}
}
