package modalities

import (
	"strconv"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// decimal builds a single-valued DS element. The values come from the
// generator's own tables, so a failure is a programming error.
func decimal(t tag.Tag, v float64) *dicom.Element {
	e, err := dicom.NewElement(t, []string{strconv.FormatFloat(v, 'g', 6, 64)})
	if err != nil {
		panic("modalities: " + err.Error())
	}
	return e
}
