package dicom

import (
	"strings"

	"github.com/araddon/dateparse"
)

// SeriesRow is the per-group summary shown when the user has to pick a
// series.
type SeriesRow struct {
	Index             int    `csv:"index" json:"index" yaml:"index"`
	PatientName       string `csv:"patient_name" json:"patient_name" yaml:"patient_name"`
	StudyDescription  string `csv:"study_description" json:"study_description" yaml:"study_description"`
	SeriesDescription string `csv:"series_description" json:"series_description" yaml:"series_description"`
	StudyDate         string `csv:"study_date" json:"study_date" yaml:"study_date"`
	Modality          string `csv:"modality" json:"modality" yaml:"modality"`
	FileCount         int    `csv:"file_count" json:"file_count" yaml:"file_count"`
	MultiFrame        bool   `csv:"multi_frame" json:"multi_frame" yaml:"multi_frame"`
}

// Rows summarizes every group in scan order.
func (c *Classification) Rows() []SeriesRow {
	rows := make([]SeriesRow, len(c.Groups))
	for i, g := range c.Groups {
		rows[i] = SeriesRow{
			Index:             i,
			PatientName:       FormatPersonName(g.PatientName),
			StudyDescription:  g.StudyDescription,
			SeriesDescription: g.SeriesDescription,
			StudyDate:         FormatStudyDate(g.StudyDate),
			Modality:          g.Modality,
			FileCount:         g.FileCount(),
			MultiFrame:        g.IsMultiFrame,
		}
	}
	return rows
}

// FormatStudyDate renders a DA value (YYYYMMDD) as an ISO date. Values that
// do not parse are returned unchanged.
func FormatStudyDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return raw
	}
	return t.Format("2006-01-02")
}

// FormatPersonName turns a PN value ("Family^Given^Middle") into
// "Given Middle Family".
func FormatPersonName(raw string) string {
	parts := strings.Split(strings.TrimSpace(raw), "^")
	if len(parts) < 2 {
		return strings.TrimSpace(raw)
	}
	var out []string
	for _, p := range parts[1:] {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if family := strings.TrimSpace(parts[0]); family != "" {
		out = append(out, family)
	}
	return strings.Join(out, " ")
}
