package dicom

import (
	"errors"
	"fmt"
	"math"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
	"gonum.org/v1/gonum/mat"
)

// ErrOutsideImage is returned when a physical point maps outside the image.
var ErrOutsideImage = errors.New("point outside image")

// Geometry describes the voxel grid of an image: physical origin of the
// first voxel, voxel spacing, grid size and the direction matrix whose
// columns are the row, column and slice-normal unit vectors.
type Geometry struct {
	Origin    [3]float64
	Spacing   [3]float64
	Size      [3]int
	Direction *mat.Dense

	toIndex *mat.Dense
}

// NewGeometry builds a geometry and precomputes the physical-to-index
// transform. A nil direction means identity.
func NewGeometry(origin, spacing [3]float64, size [3]int, direction *mat.Dense) (*Geometry, error) {
	if direction == nil {
		direction = mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	}
	for i, s := range spacing {
		if s == 0 {
			return nil, fmt.Errorf("new geometry: spacing[%d] is zero", i)
		}
	}

	scaled := mat.NewDense(3, 3, nil)
	scaled.Mul(direction, mat.NewDiagDense(3, spacing[:]))

	var inv mat.Dense
	if err := inv.Inverse(scaled); err != nil {
		return nil, fmt.Errorf("new geometry: invert direction: %w", err)
	}

	return &Geometry{
		Origin:    origin,
		Spacing:   spacing,
		Size:      size,
		Direction: direction,
		toIndex:   &inv,
	}, nil
}

// ContinuousIndex maps a physical point to fractional voxel coordinates.
func (g *Geometry) ContinuousIndex(p [3]float64) [3]float64 {
	d := mat.NewVecDense(3, []float64{p[0] - g.Origin[0], p[1] - g.Origin[1], p[2] - g.Origin[2]})
	var idx mat.VecDense
	idx.MulVec(g.toIndex, d)
	return [3]float64{idx.AtVec(0), idx.AtVec(1), idx.AtVec(2)}
}

// PhysicalToIndex maps a physical point to the nearest voxel index, halves
// rounding up. It fails with ErrOutsideImage when the voxel is not inside
// the grid.
func (g *Geometry) PhysicalToIndex(p [3]float64) ([3]int, error) {
	c := g.ContinuousIndex(p)
	var idx [3]int
	for i := range c {
		idx[i] = int(math.Floor(c[i] + 0.5))
		if idx[i] < 0 || idx[i] >= g.Size[i] {
			return idx, ErrOutsideImage
		}
	}
	return idx, nil
}

// IndexToPhysical maps a voxel index back to physical space.
func (g *Geometry) IndexToPhysical(idx [3]float64) [3]float64 {
	scaled := mat.NewDense(3, 3, nil)
	scaled.Mul(g.Direction, mat.NewDiagDense(3, g.Spacing[:]))
	var p mat.VecDense
	p.MulVec(scaled, mat.NewVecDense(3, idx[:]))
	return [3]float64{p.AtVec(0) + g.Origin[0], p.AtVec(1) + g.Origin[1], p.AtVec(2) + g.Origin[2]}
}

// Normal returns the slice normal, the third direction column.
func (g *Geometry) Normal() [3]float64 {
	return [3]float64{g.Direction.At(0, 2), g.Direction.At(1, 2), g.Direction.At(2, 2)}
}

// directionFromCosines builds the direction matrix from six direction
// cosines. The normal is the cross product of row and column.
func directionFromCosines(cos []float64) *mat.Dense {
	if len(cos) != 6 {
		return nil
	}
	r := cos[0:3]
	c := cos[3:6]
	n := [3]float64{
		r[1]*c[2] - r[2]*c[1],
		r[2]*c[0] - r[0]*c[2],
		r[0]*c[1] - r[1]*c[0],
	}
	return mat.NewDense(3, 3, []float64{
		r[0], c[0], n[0],
		r[1], c[1], n[1],
		r[2], c[2], n[2],
	})
}

// sliceSpacing returns the distance between slices declared in ds:
// SpacingBetweenSlices, then SliceThickness, then 1.
func sliceSpacing(ds dicom.Dataset) float64 {
	for _, t := range []tag.Tag{tag.SpacingBetweenSlices, tag.SliceThickness} {
		e, ok := Lookup(ds.Elements, t)
		if !ok {
			continue
		}
		vals, err := Floats(e)
		if err == nil && len(vals) > 0 && vals[0] > 0 {
			return vals[0]
		}
	}
	return 1
}

// SliceGeometry returns the geometry of a single-slice image described by
// ds. Spacing along the normal comes from the slice spacing tags.
func SliceGeometry(ds dicom.Dataset) (*Geometry, error) {
	var origin [3]float64
	if e, ok := Lookup(ds.Elements, tag.ImagePositionPatient); ok {
		vals, err := Floats(e)
		if err != nil || len(vals) != 3 {
			return nil, fmt.Errorf("slice geometry: malformed ImagePositionPatient")
		}
		copy(origin[:], vals)
	}

	spacing := [3]float64{1, 1, sliceSpacing(ds)}
	if e, ok := Lookup(ds.Elements, tag.PixelSpacing); ok {
		vals, err := Floats(e)
		if err != nil || len(vals) != 2 {
			return nil, fmt.Errorf("slice geometry: malformed PixelSpacing")
		}
		// PixelSpacing is (row spacing, column spacing): Y first.
		spacing[0], spacing[1] = vals[1], vals[0]
	}

	rowsElem, ok := Lookup(ds.Elements, tag.Rows)
	if !ok {
		return nil, fmt.Errorf("slice geometry: missing Rows")
	}
	colsElem, ok := Lookup(ds.Elements, tag.Columns)
	if !ok {
		return nil, fmt.Errorf("slice geometry: missing Columns")
	}
	rows, _ := Int(rowsElem)
	cols, _ := Int(colsElem)
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("slice geometry: invalid size %dx%d", cols, rows)
	}

	var direction *mat.Dense
	if e, ok := Lookup(ds.Elements, tag.ImageOrientationPatient); ok {
		direction = directionFromCosines(ParseCosines(String(e)))
	}

	return NewGeometry(origin, spacing, [3]int{cols, rows, 1}, direction)
}
