// Package convert turns the contours of an RT structure set into the curve
// stacks of a model, one sub-model per ROI.
package convert

import (
	"errors"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/mrsinham/rtfusion/internal/curve"
	dcm "github.com/mrsinham/rtfusion/internal/dicom"
	"github.com/mrsinham/rtfusion/internal/rtstruct"
)

var (
	// ErrNoRTStruct is returned when no structure set was loaded.
	ErrNoRTStruct = errors.New("no RT structure set loaded")
	// ErrNoROIs is returned when the structure set holds no ROI.
	ErrNoROIs = errors.New("RT structure set has no ROI")
)

// StartAngle is where every curve ring is made to start.
const StartAngle = math.Pi

// Stack is the image volume contours are placed in.
type Stack interface {
	NumSlices() int
	ImageHeight() int
	WorldSpacing() [3]float64
	WorldOrigin() [3]float64
	// SliceIndex maps a SOP Instance UID to its position in the
	// geometry-sorted slice list.
	SliceIndex(uid string) (int, bool)
	SliceGeometry(index int) (*dcm.Geometry, error)
}

var _ Stack = (*dcm.ImageStack)(nil)

// Options configures Convert.
type Options struct {
	Thresholds Thresholds
	Log        logrus.FieldLogger
}

// ROIReport counts what happened to the contours of one ROI.
type ROIReport struct {
	Name      string `json:"name" yaml:"name" csv:"roi"`
	Index     int    `json:"index" yaml:"index" csv:"index"`
	Contours  int    `json:"contours" yaml:"contours" csv:"contours"`
	Unmapped  int    `json:"unmapped" yaml:"unmapped" csv:"unmapped"`
	Discarded int    `json:"discarded" yaml:"discarded" csv:"discarded"`
	Collapsed int    `json:"collapsed" yaml:"collapsed" csv:"collapsed"`
	Curves    int    `json:"curves" yaml:"curves" csv:"curves"`
	Deleted   bool   `json:"deleted" yaml:"deleted" csv:"deleted"`
}

// Report is the outcome of one conversion.
type Report struct {
	ROIs []ROIReport
}

// Convert places every contour of doc into model. ROI 0 fills the prostate
// sub-model; each later ROI gets a new lesion sub-model, deleted again when
// none of its curves survive. Contours that cannot be placed are dropped
// and only show up in the report.
func Convert(doc *rtstruct.Document, stack Stack, model *curve.Model, opts Options) (*Report, error) {
	if doc == nil {
		return nil, ErrNoRTStruct
	}
	if len(doc.ROIs) == 0 {
		return nil, ErrNoROIs
	}
	if opts.Thresholds == (Thresholds{}) {
		opts.Thresholds = DefaultThresholds()
	}
	log := opts.Log
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		log = l
	}

	c := &converter{stack: stack, thresholds: opts.Thresholds, log: log}
	report := &Report{}
	for i := range doc.ROIs {
		roi := &doc.ROIs[i]
		var sm *curve.SubModel
		if i == 0 {
			sm = model.Prostate
			sm.Name = roi.Name
		} else {
			sm = model.CreateLesionSubModel(roi.Name)
		}
		rep := c.convertROI(i, roi, sm)

		if sm.Stack().Len() == 0 {
			if i > 0 {
				model.DeleteLesionSubModel(sm)
				rep.Deleted = true
			}
			log.WithFields(logrus.Fields{"roi": roi.Name}).Debug("ROI has no curve left")
		} else if err := sm.BuildSurface(); err != nil {
			log.WithFields(logrus.Fields{"roi": roi.Name}).WithError(err).Warn("could not build surface")
		}
		report.ROIs = append(report.ROIs, rep)
	}
	return report, nil
}

type converter struct {
	stack      Stack
	thresholds Thresholds
	log        logrus.FieldLogger
}

func (c *converter) convertROI(index int, roi *rtstruct.ROI, sm *curve.SubModel) ROIReport {
	rep := ROIReport{Name: roi.Name, Index: index, Contours: len(roi.Contours)}
	stack := sm.Stack()
	maxRaw := make(map[int]int)

	for j := range roi.Contours {
		contour := &roi.Contours[j]
		fields := logrus.Fields{"roi": roi.Name, "contour": j, "sop_uid": contour.RefSOPInstanceUID}

		slice, ok := c.stack.SliceIndex(contour.RefSOPInstanceUID)
		if !ok {
			c.log.WithFields(fields).Debug("contour references no slice of the series")
			rep.Unmapped++
			continue
		}
		geom, err := c.stack.SliceGeometry(slice)
		if err != nil {
			c.log.WithFields(fields).WithError(err).Debug("referenced slice has no geometry")
			rep.Unmapped++
			continue
		}

		raw := contour.NumPoints()
		z := c.worldZ(slice)
		if existing, ok := stack.GetCurve(z); ok {
			if raw <= maxRaw[slice] {
				c.log.WithFields(fields).Debug("denser contour already on this slice")
				rep.Discarded++
				continue
			}
			stack.RemoveCurve(existing)
			rep.Discarded++
		}

		pts := c.remap(contour, geom)
		cv := stack.CreateCurve(z)
		cv.SetPoints(Decimate(pts, c.thresholds.Regular(index, raw), c.thresholds.Corner))
		c.log.WithFields(fields).WithFields(logrus.Fields{"raw": raw, "kept": cv.Len()}).Debug("contour placed")

		if raw > maxRaw[slice] {
			maxRaw[slice] = raw
		}
	}

	for _, cv := range stack.Curves() {
		if cv.Len() < 3 {
			stack.RemoveCurve(cv)
			rep.Collapsed++
			continue
		}
		cv.StandardizeStart(StartAngle)
	}
	rep.Curves = stack.Len()
	return rep
}

// worldZ places slice index in the world frame. Slice storage runs
// opposite to world Z.
func (c *converter) worldZ(slice int) float64 {
	return float64(c.stack.NumSlices()-slice-1)*c.stack.WorldSpacing()[2] + c.stack.WorldOrigin()[2]
}

// remap moves contour points from patient space onto the pixel grid of the
// stack's world frame. Points outside the slice are dropped.
func (c *converter) remap(contour *rtstruct.Contour, geom *dcm.Geometry) []curve.Point {
	sp, org := c.stack.WorldSpacing(), c.stack.WorldOrigin()
	h := c.stack.ImageHeight()

	pts := make([]curve.Point, 0, contour.NumPoints())
	for k := 0; k < contour.NumPoints(); k++ {
		idx, err := geom.PhysicalToIndex(contour.Point(k))
		if err != nil {
			continue
		}
		pts = append(pts, curve.Point{
			X: float64(idx[0])*sp[0] + org[0],
			Y: float64(h-idx[1]-1)*sp[1] + org[1],
		})
	}
	return pts
}
