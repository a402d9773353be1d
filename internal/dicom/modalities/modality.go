// Package modalities describes the acquisition protocols used for synthetic
// cases.
package modalities

import (
	"math/rand/v2"
	"strings"

	"github.com/suyashkumar/dicom"
)

// Modality is a DICOM modality code.
type Modality string

const (
	MR       Modality = "MR"       // Magnetic Resonance
	RTSTRUCT Modality = "RTSTRUCT" // Radiotherapy Structure Set
)

// IsStructureSet reports whether a series modality code names an RT
// structure set rather than an image series.
func IsStructureSet(m string) bool {
	return Modality(strings.TrimSpace(m)) == RTSTRUCT
}

// Scanner is an imaging device configuration.
type Scanner struct {
	Manufacturer  string
	Model         string
	FieldStrength float64 // Tesla
}

// SeriesParams holds the acquisition parameters of one series.
type SeriesParams struct {
	Modality     Modality
	Scanner      Scanner
	WindowCenter float64
	WindowWidth  float64

	EchoTime              float64
	RepetitionTime        float64
	FlipAngle             float64
	SequenceName          string
	MagneticFieldStrength float64
	ImagingFrequency      float64

	PixelSpacing         float64
	SliceThickness       float64
	SpacingBetweenSlices float64
}

// PixelConfig holds the pixel data layout of a modality.
type PixelConfig struct {
	BitsAllocated       uint16
	BitsStored          uint16
	HighBit             uint16
	PixelRepresentation uint16 // 0 = unsigned
	MinValue            int
	MaxValue            int
	BaseValue           int
}

// Generator produces modality-specific metadata for a series.
type Generator interface {
	Modality() Modality
	SOPClassUID() string
	Scanners() []Scanner
	GenerateSeriesParams(scanner Scanner, rng *rand.Rand) SeriesParams
	PixelConfig() PixelConfig
	// AppendModalityElements appends the modality's acquisition elements.
	AppendModalityElements(ds *dicom.Dataset, params SeriesParams) error
}

// GetGenerator returns the generator for m. Unknown modalities get MR.
func GetGenerator(m Modality) Generator {
	switch m {
	case MR:
		fallthrough
	default:
		return &MRGenerator{}
	}
}
