package dicom

import (
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"

	"github.com/mrsinham/rtfusion/internal/util"
)

// FileRecord holds the tag values extracted from one scanned file. Window
// center/width and image orientation keep their raw text since they may
// carry `\`-separated multi-values.
type FileRecord struct {
	Path string

	StudyUID       string
	SeriesUID      string
	SOPInstanceUID string

	PatientName      string
	PatientID        string
	PatientBirthDate string

	StudyDescription  string
	SeriesDescription string
	StudyDate         string
	Modality          string

	WindowCenter string
	WindowWidth  string

	BitsStored          int
	SmallestPixelValue  int
	LargestPixelValue   int
	RescaleSlope        float64
	RescaleIntercept    float64
	PixelRepresentation int

	ImageOrientation string
	ImagePosition    string
	InstanceNumber   int
	NumberOfFrames   int
}

// IsMultiFrame reports whether the file carries more than one frame.
func (r FileRecord) IsMultiFrame() bool {
	return r.NumberOfFrames > 1
}

// NewFileRecord extracts the record tag set from a parsed dataset. Missing
// tags leave zero values, matching how absent text converts to numbers.
func NewFileRecord(path string, ds dicom.Dataset) FileRecord {
	get := func(name string) *dicom.Element {
		info, err := util.GetTagByName(name)
		if err != nil {
			return nil
		}
		e, _ := Lookup(ds.Elements, info.Tag)
		return e
	}
	text := func(name string) string {
		return strings.TrimSpace(String(get(name)))
	}
	integer := func(name string) int {
		n, _ := Int(get(name))
		return n
	}
	float := func(name string) float64 {
		f, err := strconv.ParseFloat(strings.TrimSpace(FirstValue(text(name))), 64)
		if err != nil {
			return 0
		}
		return f
	}

	rec := FileRecord{
		Path:                path,
		StudyUID:            text("StudyInstanceUID"),
		SeriesUID:           text("SeriesInstanceUID"),
		SOPInstanceUID:      text("SOPInstanceUID"),
		PatientName:         text("PatientName"),
		PatientID:           text("PatientID"),
		PatientBirthDate:    text("PatientBirthDate"),
		StudyDescription:    text("StudyDescription"),
		SeriesDescription:   text("SeriesDescription"),
		StudyDate:           text("StudyDate"),
		Modality:            text("Modality"),
		WindowCenter:        text("WindowCenter"),
		WindowWidth:         text("WindowWidth"),
		BitsStored:          integer("BitsStored"),
		SmallestPixelValue:  integer("SmallestImagePixelValue"),
		LargestPixelValue:   integer("LargestImagePixelValue"),
		RescaleSlope:        float("RescaleSlope"),
		RescaleIntercept:    float("RescaleIntercept"),
		PixelRepresentation: integer("PixelRepresentation"),
		ImageOrientation:    text("ImageOrientationPatient"),
		ImagePosition:       text("ImagePositionPatient"),
		InstanceNumber:      integer("InstanceNumber"),
		NumberOfFrames:      integer("NumberOfFrames"),
	}
	return rec
}

// ReadFileRecord reads the header of path through cache and extracts its
// record.
func ReadFileRecord(cache *HeaderCache, path string) (FileRecord, error) {
	ds, err := cache.Get(path)
	if err != nil {
		return FileRecord{}, err
	}
	return NewFileRecord(path, ds), nil
}
