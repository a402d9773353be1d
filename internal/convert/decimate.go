package convert

import (
	"math"

	"github.com/mrsinham/rtfusion/internal/curve"
)

// flatDelta is the step below which a forward difference counts as flat.
const flatDelta = 1e-5

// Thresholds are the Manhattan distances a point must exceed to be kept.
type Thresholds struct {
	// Corner applies to points where the contour bends back in X or Y.
	Corner float64 `yaml:"corner" json:"corner"`
	// Reference applies to the other points of the first ROI.
	Reference float64 `yaml:"reference" json:"reference"`
	// LesionDivisor scales the threshold of every other ROI: raw point
	// count divided by LesionDivisor.
	LesionDivisor float64 `yaml:"lesion_divisor" json:"lesion_divisor"`
}

// DefaultThresholds returns corner 4, reference 8 and lesion divisor 15.
func DefaultThresholds() Thresholds {
	return Thresholds{Corner: 4.0, Reference: 8.0, LesionDivisor: 15.0}
}

// Regular returns the non-corner threshold for ROI roiIndex whose contour
// has raw points.
func (t Thresholds) Regular(roiIndex, raw int) float64 {
	if roiIndex == 0 {
		return t.Reference
	}
	if t.LesionDivisor == 0 {
		return 0
	}
	return float64(raw) / t.LesionDivisor
}

// Decimate thins pts, keeping the first point always and any later point
// whose Manhattan distance to both the last kept point and the first point
// exceeds the threshold. Interior points where the forward and backward
// differences change sign in X or Y use corner, the others regular. The
// backward difference is taken from a reference point that only advances
// across steps moving in both X and Y.
func Decimate(pts []curve.Point, regular, corner float64) []curve.Point {
	if len(pts) == 0 {
		return nil
	}
	out := make([]curve.Point, 0, len(pts))
	first := pts[0]
	last := first
	ref := first
	out = append(out, first)

	n := len(pts)
	for k := 1; k < n; k++ {
		cur := pts[k]

		isCorner := false
		if k < n-1 {
			next := pts[k+1]
			dx1, dy1 := next.X-cur.X, next.Y-cur.Y
			dx2, dy2 := cur.X-ref.X, cur.Y-ref.Y
			if math.Abs(dx1) >= flatDelta && math.Abs(dy1) >= flatDelta {
				ref = cur
			}
			isCorner = dx1*dx2 < 0 || dy1*dy2 < 0
		}

		d := math.Min(manhattan(cur, last), manhattan(cur, first))
		limit := regular
		if isCorner {
			limit = corner
		}
		if d > limit {
			out = append(out, cur)
			last = cur
		}
	}
	return out
}

func manhattan(a, b curve.Point) float64 {
	return math.Abs(a.X-b.X) + math.Abs(a.Y-b.Y)
}
