package dicom

import (
	"fmt"
	"testing"
)

func TestNewImageStack(t *testing.T) {
	dir := t.TempDir()
	var files []string
	for i := 3; i >= 0; i-- {
		pos := fmt.Sprintf(`-16\-16\%d`, 10+i*3)
		files = append(files, writeTestDataset(t, dir, fmt.Sprintf("s%d.dcm", i), sliceElements("1", "1.1", fmt.Sprintf("1.1.%d", i), i+1, pos)...))
	}

	s, err := NewImageStack(newTestCache(t), files, FlipY|FlipZ, nil)
	if err != nil {
		t.Fatalf("NewImageStack: %v", err)
	}
	if s.NumSlices() != 4 || s.Width != 64 || s.ImageHeight() != 64 {
		t.Fatalf("stack size = %dx%dx%d", s.Width, s.ImageHeight(), s.NumSlices())
	}
	if sp := s.WorldSpacing(); !near(sp[0], 0.5) || !near(sp[1], 0.5) || !near(sp[2], 3) {
		t.Errorf("WorldSpacing = %v", sp)
	}
	o := s.WorldOrigin()
	if !near(o[0], -16) || !near(o[1], 14) || !near(o[2], -106) {
		t.Errorf("WorldOrigin = %v, want [-16 14 -106]", o)
	}

	// Sorted by position: slice 0 is the lowest z, written last.
	idx, ok := s.SliceIndex("1.1.0")
	if !ok || idx != 0 {
		t.Errorf("SliceIndex(1.1.0) = %d, %v", idx, ok)
	}
	idx, ok = s.SliceIndex("1.1.3")
	if !ok || idx != 3 {
		t.Errorf("SliceIndex(1.1.3) = %d, %v", idx, ok)
	}
	if _, ok := s.SliceIndex("unknown"); ok {
		t.Error("unknown UID should not map")
	}

	g, err := s.SliceGeometry(3)
	if err != nil {
		t.Fatalf("SliceGeometry: %v", err)
	}
	if g.Origin[2] != 19 {
		t.Errorf("slice 3 origin z = %v, want 19", g.Origin[2])
	}
	if _, err := s.SliceGeometry(4); err == nil {
		t.Error("out of range slice should fail")
	}
}

func TestNewImageStack_NoReadableFile(t *testing.T) {
	if _, err := NewImageStack(nil, []string{"/does/not/exist.dcm"}, FlipNone, nil); err == nil {
		t.Error("expected an error")
	}
}

func TestImageStack_LoadPixels(t *testing.T) {
	c, err := GenerateCase(CaseOptions{OutputDir: t.TempDir(), Slices: 3, Width: 32, Height: 24, Seed: 5, NoRTStruct: true, Quiet: true})
	if err != nil {
		t.Fatalf("GenerateCase: %v", err)
	}
	var files []string
	for _, f := range c.Series {
		files = append(files, f.Path)
	}

	s, err := NewImageStack(newTestCache(t), files, FlipNone, nil)
	if err != nil {
		t.Fatalf("NewImageStack: %v", err)
	}
	if err := s.LoadPixels(); err != nil {
		t.Fatalf("LoadPixels: %v", err)
	}
	if len(s.Pixels) != 32*24*3 {
		t.Fatalf("got %d voxels, want %d", len(s.Pixels), 32*24*3)
	}
	nonZero := 0
	for _, v := range s.Pixels {
		if v != 0 {
			nonZero++
		}
	}
	if nonZero == 0 {
		t.Error("pixel data is all zero")
	}
}
