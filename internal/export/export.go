// Package export writes curve models and series tables as YAML, JSON or
// CSV.
package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"

	"github.com/mrsinham/rtfusion/internal/curve"
	dcm "github.com/mrsinham/rtfusion/internal/dicom"
)

// Supported formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// ValidFormat reports whether format is one of the supported formats.
func ValidFormat(format string) bool {
	switch format {
	case FormatYAML, FormatJSON, FormatCSV:
		return true
	}
	return false
}

// Model is the document form of a curve model.
type Model struct {
	Structures []Structure `json:"structures" yaml:"structures"`
}

// Structure is one sub-model.
type Structure struct {
	Name    string         `json:"name" yaml:"name"`
	Index   int            `json:"index" yaml:"index"`
	Surface *curve.Surface `json:"surface,omitempty" yaml:"surface,omitempty"`
	Curves  []Curve        `json:"curves" yaml:"curves"`
}

// Curve is one ring of a structure.
type Curve struct {
	Z         float64       `json:"z" yaml:"z"`
	Area      float64       `json:"area" yaml:"area"`
	Perimeter float64       `json:"perimeter" yaml:"perimeter"`
	Points    []curve.Point `json:"points" yaml:"points"`
}

// PointRow is one curve vertex in the CSV form.
type PointRow struct {
	Structure string  `csv:"structure"`
	Index     int     `csv:"index"`
	Z         float64 `csv:"z"`
	Point     int     `csv:"point"`
	X         float64 `csv:"x"`
	Y         float64 `csv:"y"`
}

// NewModel converts m, prostate first.
func NewModel(m *curve.Model) Model {
	var doc Model
	for _, sm := range m.SubModels() {
		s := Structure{Name: sm.Name, Index: sm.Index, Surface: sm.Surface(), Curves: []Curve{}}
		for _, c := range sm.Stack().Curves() {
			s.Curves = append(s.Curves, Curve{
				Z:         c.Z,
				Area:      c.Area(),
				Perimeter: c.Perimeter(),
				Points:    append([]curve.Point(nil), c.Points()...),
			})
		}
		doc.Structures = append(doc.Structures, s)
	}
	return doc
}

// Rows flattens the model into one row per vertex.
func (m Model) Rows() []*PointRow {
	var rows []*PointRow
	for _, s := range m.Structures {
		for _, c := range s.Curves {
			for i, p := range c.Points {
				rows = append(rows, &PointRow{Structure: s.Name, Index: s.Index, Z: c.Z, Point: i, X: p.X, Y: p.Y})
			}
		}
	}
	return rows
}

// WriteModel writes m to w in format.
func WriteModel(w io.Writer, m *curve.Model, format string) error {
	doc := NewModel(m)
	if format == FormatCSV {
		rows := doc.Rows()
		if rows == nil {
			rows = []*PointRow{}
		}
		if err := gocsv.Marshal(rows, w); err != nil {
			return fmt.Errorf("write curves csv: %w", err)
		}
		return nil
	}
	return encode(w, doc, format)
}

// WriteSeries writes the series table to w in format.
func WriteSeries(w io.Writer, rows []dcm.SeriesRow, format string) error {
	if format == FormatCSV {
		if err := gocsv.Marshal(rows, w); err != nil {
			return fmt.Errorf("write series csv: %w", err)
		}
		return nil
	}
	return encode(w, rows, format)
}

// Encode writes v as YAML or JSON.
func Encode(w io.Writer, v any, format string) error {
	return encode(w, v, format)
}

func encode(w io.Writer, v any, format string) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
