package shoe

import "github.com/lastforge/lastforge/pkg/spec"

// AnchorPoints are the six named attachment locations for downstream
// branding and accessory placement. They are derived analytically from
// the spec using fixed fractional offsets, not from mesh topology, so
// they remain stable under mesh re-triangulation. At extreme parameter
// combinations they can drift from the true mesh surface.
type AnchorPoints struct {
	ToeBoxCenter   [3]float64 `json:"toe_box_center"`
	HeelCenter     [3]float64 `json:"heel_center"`
	LateralMidfoot [3]float64 `json:"lateral_midfoot"`
	MedialMidfoot  [3]float64 `json:"medial_midfoot"`
	TongueTop      [3]float64 `json:"tongue_top"`
	CollarBack     [3]float64 `json:"collar_back"`
}

// anchorPoints computes the anchors from the spec.
func anchorPoints(s spec.InstrumentalSpec) AnchorPoints {
	length := s.ShoeLengthMM
	width := s.ShoeWidthMM
	sole := s.SoleThicknessMM
	collar := s.CollarHeightMM

	return AnchorPoints{
		ToeBoxCenter:   [3]float64{length * 0.9, 0, sole + collar*0.3},
		HeelCenter:     [3]float64{length * 0.05, 0, sole + collar*0.5},
		LateralMidfoot: [3]float64{length * 0.5, width * 0.45, sole + collar*0.4},
		MedialMidfoot:  [3]float64{length * 0.5, -width * 0.45, sole + collar*0.4},
		TongueTop:      [3]float64{length * 0.3, 0, sole + collar*0.9},
		CollarBack:     [3]float64{length * 0.1, 0, sole + collar},
	}
}
