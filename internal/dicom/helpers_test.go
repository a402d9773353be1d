package dicom

import (
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// writeTestDataset writes elems after a minimal file meta header and returns
// the path.
func writeTestDataset(t *testing.T, dir, name string, elems ...*dicom.Element) string {
	t.Helper()
	all := append([]*dicom.Element{
		mustNewElement(tag.TransferSyntaxUID, []string{ExplicitVRLittleEndian}),
		mustNewElement(tag.MediaStorageSOPClassUID, []string{"1.2.840.10008.5.1.4.1.1.4"}),
		mustNewElement(tag.MediaStorageSOPInstanceUID, []string{"1.2.3.4.5"}),
	}, elems...)
	path := filepath.Join(dir, name)
	if err := writeDatasetToFile(path, dicom.Dataset{Elements: all}); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// sliceElements returns the header elements of one MR slice.
func sliceElements(study, series, sop string, instance int, position string) []*dicom.Element {
	return []*dicom.Element{
		mustNewElement(tag.PatientName, []string{"DOE^JOHN"}),
		mustNewElement(tag.PatientID, []string{"PID1"}),
		mustNewElement(tag.StudyInstanceUID, []string{study}),
		mustNewElement(tag.StudyDate, []string{"20230514"}),
		mustNewElement(tag.StudyDescription, []string{"PROSTATE"}),
		mustNewElement(tag.SeriesInstanceUID, []string{series}),
		mustNewElement(tag.SeriesDescription, []string{"T2 TRA"}),
		mustNewElement(tag.Modality, []string{"MR"}),
		mustNewElement(tag.SOPInstanceUID, []string{sop}),
		mustNewElement(tag.InstanceNumber, []string{strconv.Itoa(instance)}),
		mustNewElement(tag.WindowCenter, []string{"400"}),
		mustNewElement(tag.WindowWidth, []string{"800"}),
		mustNewElement(tag.ImageOrientationPatient, []string{"1", "0", "0", "0", "1", "0"}),
		mustNewElement(tag.ImagePositionPatient, strings.Split(position, `\`)),
		mustNewElement(tag.PixelSpacing, []string{"0.5", "0.5"}),
		mustNewElement(tag.SliceThickness, []string{"3"}),
		mustNewElement(tag.Rows, []int{64}),
		mustNewElement(tag.Columns, []int{64}),
	}
}


func newTestCache(t *testing.T) *HeaderCache {
	t.Helper()
	c, err := NewHeaderCache(0)
	if err != nil {
		t.Fatalf("NewHeaderCache: %v", err)
	}
	return c
}
