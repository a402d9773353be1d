package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/mrsinham/rtfusion/internal/curve"
	dcm "github.com/mrsinham/rtfusion/internal/dicom"
)

func testModel(t *testing.T) *curve.Model {
	t.Helper()
	m := curve.NewModel(nil)
	c := m.Prostate.Stack().CreateCurve(4)
	c.SetPoints([]curve.Point{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}})
	if err := m.Prostate.BuildSurface(); err != nil {
		t.Fatalf("BuildSurface: %v", err)
	}
	l := m.CreateLesionSubModel("Lesion")
	l.Stack().CreateCurve(2).SetPoints([]curve.Point{{X: 1, Y: 1}, {X: 3, Y: 1}, {X: 3, Y: 3}, {X: 1, Y: 3}})
	return m
}

func TestWriteModel_Formats(t *testing.T) {
	m := testModel(t)

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WriteModel(&buf, m, FormatYAML); err != nil {
			t.Fatalf("WriteModel: %v", err)
		}
		var got Model
		if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("yaml.Unmarshal: %v\n%s", err, buf.String())
		}
		if len(got.Structures) != 2 || got.Structures[1].Name != "Lesion" {
			t.Fatalf("structures = %+v", got.Structures)
		}
		if got.Structures[0].Surface == nil || got.Structures[1].Surface != nil {
			t.Errorf("surfaces = %v, %v", got.Structures[0].Surface, got.Structures[1].Surface)
		}
		if a := got.Structures[1].Curves[0].Area; a != 4 {
			t.Errorf("lesion area = %v, want 4", a)
		}
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WriteModel(&buf, m, FormatJSON); err != nil {
			t.Fatalf("WriteModel: %v", err)
		}
		var got Model
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("json.Unmarshal: %v", err)
		}
		if n := len(got.Structures[0].Curves[0].Points); n != 3 {
			t.Errorf("prostate curve has %d points, want 3", n)
		}
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WriteModel(&buf, m, FormatCSV); err != nil {
			t.Fatalf("WriteModel: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if lines[0] != "structure,index,z,point,x,y" {
			t.Errorf("header = %q", lines[0])
		}
		if len(lines) != 1+3+4 {
			t.Errorf("got %d lines, want 8:\n%s", len(lines), buf.String())
		}
		if !strings.HasPrefix(lines[4], "Lesion,1,2,0,") {
			t.Errorf("first lesion row = %q", lines[4])
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if err := WriteModel(&bytes.Buffer{}, m, "xml"); err == nil {
			t.Error("WriteModel(xml) succeeded")
		}
	})
}

func TestWriteModel_EmptyCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteModel(&buf, curve.NewModel(nil), FormatCSV); err != nil {
		t.Fatalf("WriteModel: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "structure,index,z,point,x,y" {
		t.Errorf("empty model csv = %q", got)
	}
}

func TestWriteSeries(t *testing.T) {
	rows := []dcm.SeriesRow{
		{Index: 0, PatientName: "Jane Doe", Modality: "MR", FileCount: 12, StudyDate: "2024-03-05"},
		{Index: 1, PatientName: "Jane Doe", Modality: "MR", FileCount: 3, MultiFrame: true},
	}
	var buf bytes.Buffer
	if err := WriteSeries(&buf, rows, FormatCSV); err != nil {
		t.Fatalf("WriteSeries: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "index,patient_name,") {
		t.Errorf("csv header = %q", strings.SplitN(out, "\n", 2)[0])
	}
	if !strings.Contains(out, "1,Jane Doe,,,,MR,3,true") {
		t.Errorf("missing second row in:\n%s", out)
	}

	buf.Reset()
	if err := WriteSeries(&buf, rows, FormatJSON); err != nil {
		t.Fatalf("WriteSeries json: %v", err)
	}
	if !strings.Contains(buf.String(), `"file_count": 12`) {
		t.Errorf("json output:\n%s", buf.String())
	}
}

func TestValidFormat(t *testing.T) {
	for _, f := range []string{FormatYAML, FormatJSON, FormatCSV} {
		if !ValidFormat(f) {
			t.Errorf("ValidFormat(%q) = false", f)
		}
	}
	if ValidFormat("xml") {
		t.Error("ValidFormat(xml) = true")
	}
}
