package modalities

import (
	"fmt"
	"math/rand/v2"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// MRGenerator produces axial T2-weighted prostate acquisitions.
type MRGenerator struct{}

// Modality returns MR.
func (g *MRGenerator) Modality() Modality {
	return MR
}

// SOPClassUID returns the MR Image Storage SOP Class UID.
func (g *MRGenerator) SOPClassUID() string {
	return "1.2.840.10008.5.1.4.1.1.4"
}

// Scanners returns the MR scanners a case may come from.
func (g *MRGenerator) Scanners() []Scanner {
	return []Scanner{
		{Manufacturer: "SIEMENS", Model: "Skyra", FieldStrength: 3.0},
		{Manufacturer: "SIEMENS", Model: "Aera", FieldStrength: 1.5},
		{Manufacturer: "GE MEDICAL SYSTEMS", Model: "Discovery MR750", FieldStrength: 3.0},
		{Manufacturer: "PHILIPS", Model: "Ingenia", FieldStrength: 3.0},
	}
}

// GenerateSeriesParams draws small-field-of-view T2 TSE parameters.
func (g *MRGenerator) GenerateSeriesParams(scanner Scanner, rng *rand.Rand) SeriesParams {
	params := SeriesParams{
		Modality:              MR,
		Scanner:               scanner,
		PixelSpacing:          0.5 + rng.Float64()*0.3,      // 0.5-0.8 mm
		SliceThickness:        3.0 + rng.Float64()*0.5,      // 3.0-3.5 mm
		EchoTime:              90.0 + rng.Float64()*30.0,    // 90-120 ms
		RepetitionTime:        3500.0 + rng.Float64()*2500.0, // 3.5-6 s
		FlipAngle:             120.0 + rng.Float64()*40.0,
		SequenceName:          "T2_TSE_TRA",
		MagneticFieldStrength: scanner.FieldStrength,
		ImagingFrequency:      scanner.FieldStrength * 42.58, // MHz
		WindowCenter:          400.0 + rng.Float64()*400.0,
		WindowWidth:           800.0 + rng.Float64()*800.0,
	}
	params.SpacingBetweenSlices = params.SliceThickness
	return params
}

// PixelConfig returns 12-bit unsigned storage.
func (g *MRGenerator) PixelConfig() PixelConfig {
	return PixelConfig{
		BitsAllocated:       16,
		BitsStored:          12,
		HighBit:             11,
		PixelRepresentation: 0,
		MinValue:            0,
		MaxValue:            4095,
		BaseValue:           600,
	}
}

// AppendModalityElements appends the field strength, the echo and
// repetition times, the flip angle and the sequence name. Zero timings are
// left out.
func (g *MRGenerator) AppendModalityElements(ds *dicom.Dataset, params SeriesParams) error {
	ds.Elements = append(ds.Elements,
		decimal(tag.MagneticFieldStrength, params.MagneticFieldStrength),
		decimal(tag.ImagingFrequency, params.ImagingFrequency),
	)
	for _, v := range []struct {
		t     tag.Tag
		value float64
	}{
		{tag.EchoTime, params.EchoTime},
		{tag.RepetitionTime, params.RepetitionTime},
		{tag.FlipAngle, params.FlipAngle},
	} {
		if v.value != 0 {
			ds.Elements = append(ds.Elements, decimal(v.t, v.value))
		}
	}
	if params.SequenceName == "" {
		return nil
	}
	e, err := dicom.NewElement(tag.SequenceName, []string{params.SequenceName})
	if err != nil {
		return fmt.Errorf("sequence name: %w", err)
	}
	ds.Elements = append(ds.Elements, e)
	return nil
}
