package session

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/mrsinham/rtfusion/internal/config"
	"github.com/mrsinham/rtfusion/internal/convert"
	dcm "github.com/mrsinham/rtfusion/internal/dicom"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newSession(t *testing.T, progress dcm.ProgressFunc) (*Session, string) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.WorkDir = t.TempDir()
	s, err := New(Options{Config: cfg, Log: quietLogger(), Progress: progress})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, cfg.WorkDir
}

func generate(t *testing.T, opts dcm.CaseOptions) *dcm.Case {
	t.Helper()
	opts.OutputDir = filepath.Join(t.TempDir(), "case")
	opts.Quiet = true
	if opts.Seed == 0 {
		opts.Seed = 11
	}
	if opts.Slices == 0 {
		opts.Slices = 8
	}
	opts.Width, opts.Height = 96, 96
	c, err := dcm.GenerateCase(opts)
	if err != nil {
		t.Fatalf("GenerateCase: %v", err)
	}
	return c
}

func dirEntries(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	return len(entries)
}

func TestSession_FullPipeline(t *testing.T) {
	gc := generate(t, dcm.CaseOptions{Lesions: 2})
	var progress []int
	s, work := newSession(t, func(p int) { progress = append(progress, p) })

	c, err := s.Load(gc.Files())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.Groups) != 1 {
		t.Fatalf("got %d image series, want 1", len(c.Groups))
	}
	if c.Read != len(gc.Series) {
		t.Errorf("Read = %d, want %d", c.Read, len(gc.Series))
	}
	if len(s.StructureSets()) != 1 {
		t.Fatalf("structure sets = %v, want one", s.StructureSets())
	}
	if len(progress) == 0 || progress[0] != 0 || progress[len(progress)-1] != 100 {
		t.Errorf("progress = %v, want 0 to 100", progress)
	}
	for i := 1; i < len(progress); i++ {
		if progress[i] <= progress[i-1] {
			t.Fatalf("progress decreased or repeated at %d: %v", i, progress)
		}
	}
	if dirEntries(t, work) != 1 {
		t.Errorf("want one staging directory under %s", work)
	}

	if _, _, err := s.ConvertRTContoursToModel(); !errors.Is(err, convert.ErrNoRTStruct) {
		t.Errorf("convert before LoadRTStruct error = %v, want ErrNoRTStruct", err)
	}

	sel, err := s.Select(0)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if sel.Orientation.Flip != dcm.FlipY|dcm.FlipZ || !sel.Orientation.Loadable {
		t.Errorf("orientation = %+v, want Y|Z loadable", sel.Orientation)
	}
	if sel.Windowing.Unknown() {
		t.Error("windowing unknown for a series carrying window tags")
	}
	if s.Stack() == nil || s.Stack().NumSlices() != len(gc.Series) {
		t.Fatalf("stack = %+v", s.Stack())
	}

	doc, err := s.LoadRTStruct(s.StructureSets()[0])
	if err != nil {
		t.Fatalf("LoadRTStruct: %v", err)
	}
	if len(doc.ROIs) != 3 {
		t.Errorf("got %d ROIs, want 3", len(doc.ROIs))
	}

	model, report, err := s.ConvertRTContoursToModel()
	if err != nil {
		t.Fatalf("ConvertRTContoursToModel: %v", err)
	}
	if model.Prostate.Stack().Len() == 0 {
		t.Error("prostate has no curve")
	}
	if len(report.ROIs) != 3 {
		t.Errorf("report has %d ROIs, want 3", len(report.ROIs))
	}
	if s.Model() != model {
		t.Error("Model() does not return the converted model")
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if n := dirEntries(t, work); n != 0 {
		t.Errorf("%d entries left in work dir after Close", n)
	}
}

func TestSession_LoadDICOMDIR(t *testing.T) {
	gc := generate(t, dcm.CaseOptions{WithDICOMDIR: true})
	s, _ := newSession(t, nil)

	c, err := s.Load([]string{gc.DICOMDIR})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.Groups) != 1 || c.Groups[0].FileCount() != len(gc.Series) {
		t.Fatalf("groups = %+v", c.Rows())
	}
	if len(s.StructureSets()) != 0 {
		t.Errorf("structure sets = %v, want none from DICOMDIR", s.StructureSets())
	}

	if _, err := s.Select(0); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if _, err := s.LoadRTStruct(gc.RTStruct.Path); err != nil {
		t.Fatalf("LoadRTStruct: %v", err)
	}
	if _, _, err := s.ConvertRTContoursToModel(); err != nil {
		t.Fatalf("ConvertRTContoursToModel: %v", err)
	}
}

func TestSession_LoadSkipsMissingFile(t *testing.T) {
	gc := generate(t, dcm.CaseOptions{})
	var progress []int
	s, _ := newSession(t, func(p int) { progress = append(progress, p) })

	files := append(gc.Files(), filepath.Join(t.TempDir(), "IM_MISSING"))
	c, err := s.Load(files)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Classification() == nil || len(c.Groups) != 1 {
		t.Fatalf("classification = %+v, want one image series", c)
	}
	if c.Read != len(gc.Series) {
		t.Errorf("Read = %d, want %d", c.Read, len(gc.Series))
	}
	for i := 1; i < len(progress); i++ {
		if progress[i] < progress[i-1] {
			t.Fatalf("progress decreased at %d: %v", i, progress)
		}
	}

	// A second load starts over from 0.
	progress = nil
	if _, err := s.Load(gc.Files()); err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if len(progress) == 0 || progress[0] != 0 || progress[len(progress)-1] != 100 {
		t.Errorf("second load progress = %v, want 0 to 100", progress)
	}
}

func TestSession_LoadInvalid(t *testing.T) {
	dir := t.TempDir()
	junk := filepath.Join(dir, "junk.dcm")
	if err := os.WriteFile(junk, []byte("not dicom"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, work := newSession(t, nil)

	if _, err := s.Load([]string{junk}); !errors.Is(err, dcm.ErrNoValidDICOM) {
		t.Errorf("Load(junk) error = %v, want ErrNoValidDICOM", err)
	}
	if n := dirEntries(t, work); n != 0 {
		t.Errorf("%d entries left in work dir after failed Load", n)
	}
	if _, err := s.Select(0); !errors.Is(err, ErrNoSeries) {
		t.Errorf("Select after failed Load error = %v, want ErrNoSeries", err)
	}
}

func TestSession_LoadOnlyStructureSet(t *testing.T) {
	gc := generate(t, dcm.CaseOptions{})
	s, _ := newSession(t, nil)
	if _, err := s.Load([]string{gc.RTStruct.Path}); !errors.Is(err, dcm.ErrNoValidDICOM) {
		t.Errorf("Load(rtstruct) error = %v, want ErrNoValidDICOM", err)
	}
}

func TestSession_NonTransversal(t *testing.T) {
	gc := generate(t, dcm.CaseOptions{Orientation: []float64{0, 1, 0, 0, 0, -1}, NoRTStruct: true})
	s, _ := newSession(t, nil)

	if _, err := s.Load(gc.Files()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	sel, err := s.Select(0)
	if !errors.Is(err, dcm.ErrNonTransversal) {
		t.Fatalf("Select error = %v, want ErrNonTransversal", err)
	}
	if sel == nil || sel.Orientation.Loadable {
		t.Errorf("selection = %+v, want a non-loadable orientation", sel)
	}
	if s.Stack() != nil {
		t.Error("stack built for a rejected series")
	}
}

func TestSession_TooManyFiles(t *testing.T) {
	gc := generate(t, dcm.CaseOptions{Slices: 5, NoRTStruct: true})
	cfg := config.DefaultConfig()
	cfg.WorkDir = t.TempDir()
	cfg.Import.MaxSeriesFiles = 4
	s, err := New(Options{Config: cfg, Log: quietLogger()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = s.Close() }()

	if _, err := s.Load(gc.Files()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := s.Select(0); !errors.Is(err, dcm.ErrTooManyFiles) {
		t.Errorf("Select error = %v, want ErrTooManyFiles", err)
	}
}
