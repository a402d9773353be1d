package dicom

import (
	"math"
	"strconv"
	"strings"
)

// Flip is a bitmask of axes the image stack must be mirrored along to reach
// the display orientation. Values combine with bitwise OR.
type Flip uint8

const (
	FlipX Flip = 1 << iota
	FlipY
	FlipZ
)

// FlipNone leaves the stack as stored.
const FlipNone Flip = 0

// Has reports whether every axis in o is set in f.
func (f Flip) Has(o Flip) bool {
	return f&o == o
}

func (f Flip) String() string {
	if f == FlipNone {
		return "none"
	}
	var parts []string
	if f.Has(FlipX) {
		parts = append(parts, "X")
	}
	if f.Has(FlipY) {
		parts = append(parts, "Y")
	}
	if f.Has(FlipZ) {
		parts = append(parts, "Z")
	}
	return strings.Join(parts, "|")
}

// OrientationResult is the flip derived from a series' direction cosines
// and whether this pipeline can load the series at all.
type OrientationResult struct {
	Flip     Flip
	Loadable bool
	// Cosines holds the parsed row and column vectors when six values were
	// present.
	Cosines []float64
}

// ParseCosines splits a raw ImageOrientationPatient value. It returns nil
// unless exactly six numeric values are present.
func ParseCosines(raw string) []float64 {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, `\`)
	if len(parts) != 6 {
		return nil
	}
	out := make([]float64, 6)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil
		}
		out[i] = v
	}
	return out
}

// ResolveOrientation infers the display flip from a raw direction-cosine
// string. Absent or malformed cosines are treated as identity: flip Y and Z,
// loading allowed.
func ResolveOrientation(raw string) OrientationResult {
	cos := ParseCosines(raw)
	if cos == nil {
		return OrientationResult{Flip: FlipY | FlipZ, Loadable: true}
	}
	res := ResolveCosines(cos)
	res.Cosines = cos
	return res
}

// ResolveCosines applies the dominant-axis table to six direction cosines.
// Only transversal acquisitions (row along X, column along Y) are loadable.
// The sign table is deliberately asymmetric:
//
//	row +, col +  ->  Y|Z
//	row -, col -  ->  X|Z
//	row -, col +  ->  X|Y
//	row +, col -  ->  none
func ResolveCosines(cos []float64) OrientationResult {
	if len(cos) != 6 {
		return OrientationResult{Flip: FlipY | FlipZ, Loadable: true}
	}

	rowIdx, colIdx := 0, 0
	var rowMax, colMax float64
	for i := 0; i < 3; i++ {
		if v := math.Abs(cos[i]); v > rowMax {
			rowMax = v
			rowIdx = i
		}
		if v := math.Abs(cos[i+3]); v > colMax {
			colMax = v
			colIdx = i
		}
	}

	if rowIdx != 0 || colIdx != 1 {
		return OrientationResult{Flip: FlipY | FlipZ, Loadable: false}
	}

	rowVal, colVal := cos[rowIdx], cos[colIdx+3]
	switch {
	case rowVal > 0 && colVal > 0:
		return OrientationResult{Flip: FlipY | FlipZ, Loadable: true}
	case rowVal < 0 && colVal < 0:
		return OrientationResult{Flip: FlipX | FlipZ, Loadable: true}
	case rowVal < 0:
		return OrientationResult{Flip: FlipX | FlipY, Loadable: true}
	default:
		return OrientationResult{Flip: FlipNone, Loadable: true}
	}
}
