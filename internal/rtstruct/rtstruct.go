// Package rtstruct reads DICOM RT Structure Set documents into plain ROI and
// contour values.
package rtstruct

import (
	"errors"
	"fmt"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	dcm "github.com/mrsinham/rtfusion/internal/dicom"
)

// ErrNotRTStruct is returned when a dataset lacks the structure set or ROI
// contour sequence.
var ErrNotRTStruct = errors.New("not an RT structure set")

var (
	tagReferencedSOPInstanceUID = tag.Tag{Group: 0x0008, Element: 0x1155}
	tagContourImageSequence     = tag.Tag{Group: 0x3006, Element: 0x0016}
	tagStructureSetROISequence  = tag.Tag{Group: 0x3006, Element: 0x0020}
	tagROINumber                = tag.Tag{Group: 0x3006, Element: 0x0022}
	tagROIName                  = tag.Tag{Group: 0x3006, Element: 0x0026}
	tagROIContourSequence       = tag.Tag{Group: 0x3006, Element: 0x0039}
	tagContourSequence          = tag.Tag{Group: 0x3006, Element: 0x0040}
	tagContourGeometricType     = tag.Tag{Group: 0x3006, Element: 0x0042}
	tagNumberOfContourPoints    = tag.Tag{Group: 0x3006, Element: 0x0046}
	tagContourData              = tag.Tag{Group: 0x3006, Element: 0x0050}
	tagReferencedROINumber      = tag.Tag{Group: 0x3006, Element: 0x0084}
)

// GeometryType is a contour's ContourGeometricType.
type GeometryType string

const (
	ClosedPlanar  GeometryType = "CLOSED_PLANAR"
	OpenPlanar    GeometryType = "OPEN_PLANAR"
	OpenNonPlanar GeometryType = "OPEN_NONPLANAR"
	Point         GeometryType = "POINT"
)

// Convertible reports whether contours of this type become curves.
func (g GeometryType) Convertible() bool {
	return g == ClosedPlanar || g == OpenNonPlanar
}

// Contour is one polygon of an ROI in patient coordinates.
type Contour struct {
	Type GeometryType
	// Points is the flat x,y,z list, always a multiple of 3 long.
	Points []float64
	// RefSOPInstanceUID is the slice the contour was drawn on, empty when
	// the contour carries no image reference.
	RefSOPInstanceUID string
}

// NumPoints returns the number of (x, y, z) points.
func (c Contour) NumPoints() int {
	return len(c.Points) / 3
}

// Point returns point i.
func (c Contour) Point(i int) [3]float64 {
	return [3]float64{c.Points[3*i], c.Points[3*i+1], c.Points[3*i+2]}
}

// ROI is a named structure with its contours in source order.
type ROI struct {
	Name string
	// Number is the ROI Number of the structure set entry, ReferencedNumber
	// the ROI number the contour item points back to. Zero when absent.
	Number           int
	ReferencedNumber int
	Contours         []Contour
}

// Document is a parsed structure set. ROIs keep source order; ROIs without
// a name or without contours are left out.
type Document struct {
	ROIs []ROI
	// Skipped counts ROI contour items dropped for a missing name or empty
	// contour sequence.
	Skipped int
}

// ParseFile reads path and parses it as a structure set.
func ParseFile(path string) (*Document, error) {
	ds, err := dcm.SafeParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("read structure set: %w", err)
	}
	return Parse(ds)
}

// Parse extracts the ROIs of an RT Structure Set. The name of ROI contour
// item i is taken from structure set ROI item i, by position, so a
// structure set whose two sequences are ordered differently pairs them the
// way they appear.
//
// A POINT contour must have exactly one point; any other count panics.
func Parse(ds dicom.Dataset) (*Document, error) {
	setSeq, ok := dcm.Lookup(ds.Elements, tagStructureSetROISequence)
	if !ok {
		return nil, fmt.Errorf("%w: missing structure set ROI sequence", ErrNotRTStruct)
	}
	contourSeq, ok := dcm.Lookup(ds.Elements, tagROIContourSequence)
	if !ok {
		return nil, fmt.Errorf("%w: missing ROI contour sequence", ErrNotRTStruct)
	}
	setItems := dcm.SequenceItems(setSeq)
	contourItems := dcm.SequenceItems(contourSeq)
	if len(setItems) == 0 || len(contourItems) == 0 {
		return nil, fmt.Errorf("%w: empty ROI sequences", ErrNotRTStruct)
	}

	doc := &Document{}
	for i, item := range contourItems {
		if i >= len(setItems) {
			doc.Skipped++
			continue
		}
		name := text(setItems[i], tagROIName)
		if name == "" {
			doc.Skipped++
			continue
		}

		cs, ok := dcm.Lookup(item, tagContourSequence)
		contours := dcm.SequenceItems(cs)
		if !ok || len(contours) == 0 {
			doc.Skipped++
			continue
		}

		roi := ROI{
			Name:             name,
			Number:           integer(setItems[i], tagROINumber),
			ReferencedNumber: integer(item, tagReferencedROINumber),
		}
		for _, c := range contours {
			if contour, ok := parseContour(c); ok {
				roi.Contours = append(roi.Contours, contour)
			}
		}
		doc.ROIs = append(doc.ROIs, roi)
	}
	return doc, nil
}

func parseContour(item []*dicom.Element) (Contour, bool) {
	kind := GeometryType(strings.TrimSpace(text(item, tagContourGeometricType)))
	count := integer(item, tagNumberOfContourPoints)

	switch kind {
	case Point:
		if count != 1 {
			panic(fmt.Sprintf("rtstruct: POINT contour with %d points", count))
		}
		return Contour{}, false
	case ClosedPlanar, OpenNonPlanar:
	default:
		return Contour{}, false
	}

	c := Contour{Type: kind}
	if e, ok := dcm.Lookup(item, tagContourData); ok {
		pts, err := dcm.Floats(e)
		if err == nil {
			c.Points = pts[:len(pts)-len(pts)%3]
		}
	}

	if refs, ok := dcm.Lookup(item, tagContourImageSequence); ok {
		if items := dcm.SequenceItems(refs); len(items) > 0 {
			c.RefSOPInstanceUID = text(items[0], tagReferencedSOPInstanceUID)
		}
	}
	return c, true
}

func text(elems []*dicom.Element, t tag.Tag) string {
	e, ok := dcm.Lookup(elems, t)
	if !ok {
		return ""
	}
	return strings.TrimSpace(dcm.String(e))
}

func integer(elems []*dicom.Element, t tag.Tag) int {
	e, ok := dcm.Lookup(elems, t)
	if !ok {
		return 0
	}
	n, _ := dcm.Int(e)
	return n
}
