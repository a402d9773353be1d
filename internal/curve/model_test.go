package curve

import (
	"errors"
	"math"
	"testing"
)

func TestStack(t *testing.T) {
	s := NewStack()
	a := s.CreateCurve(3)
	s.CreateCurve(-1)
	s.CreateCurve(1.5)

	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}
	var zs []float64
	for _, c := range s.Curves() {
		zs = append(zs, c.Z)
	}
	if zs[0] != -1 || zs[1] != 1.5 || zs[2] != 3 {
		t.Errorf("Curves() order = %v, want [-1 1.5 3]", zs)
	}

	if got, ok := s.GetCurve(3); !ok || got != a {
		t.Errorf("GetCurve(3) = %p, %v, want %p", got, ok, a)
	}

	b := s.CreateCurve(3)
	if got, _ := s.GetCurve(3); got != b {
		t.Error("CreateCurve did not replace the curve at the same height")
	}
	// a is stale now and must not remove b.
	s.RemoveCurve(a)
	if _, ok := s.GetCurve(3); !ok {
		t.Error("RemoveCurve of a replaced curve removed its successor")
	}
	s.RemoveCurve(b)
	if _, ok := s.GetCurve(3); ok {
		t.Error("RemoveCurve did not remove the curve")
	}
	s.RemoveCurve(nil)
}

func TestLoftBuilder(t *testing.T) {
	s := NewStack()
	if _, err := (LoftBuilder{}).Build(s); !errors.Is(err, ErrNoCurves) {
		t.Errorf("Build(empty) error = %v, want ErrNoCurves", err)
	}

	for _, z := range []float64{0, 2} {
		c := s.CreateCurve(z)
		c.SetPoints(square(false))
	}
	surf, err := LoftBuilder{}.Build(s)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if surf.Rings != 2 || surf.Vertices != 8 {
		t.Errorf("rings/vertices = %d/%d, want 2/8", surf.Rings, surf.Vertices)
	}
	if surf.ZMin != 0 || surf.ZMax != 2 {
		t.Errorf("z range = [%v,%v], want [0,2]", surf.ZMin, surf.ZMax)
	}
	if math.Abs(surf.Volume-8) > 1e-9 {
		t.Errorf("Volume = %v, want 8", surf.Volume)
	}
}

type countingBuilder struct{ calls int }

func (b *countingBuilder) Build(s *Stack) (*Surface, error) {
	b.calls++
	return &Surface{Rings: s.Len()}, nil
}

func TestModel_Lesions(t *testing.T) {
	b := &countingBuilder{}
	m := NewModel(b)

	if m.Prostate == nil || m.Prostate.Index != 0 {
		t.Fatalf("prostate = %+v", m.Prostate)
	}
	l1 := m.CreateLesionSubModel("Lesion 1")
	l2 := m.CreateLesionSubModel("Lesion 2")
	if l1.Index != 1 || l2.Index != 2 {
		t.Errorf("lesion indices = %d,%d, want 1,2", l1.Index, l2.Index)
	}
	if len(m.SubModels()) != 3 {
		t.Errorf("SubModels() = %d, want 3", len(m.SubModels()))
	}

	if !m.DeleteLesionSubModel(l1) {
		t.Error("DeleteLesionSubModel(l1) = false")
	}
	if m.DeleteLesionSubModel(l1) {
		t.Error("second DeleteLesionSubModel(l1) = true")
	}
	if len(m.Lesions) != 1 || m.Lesions[0] != l2 {
		t.Errorf("Lesions = %v, want [l2]", m.Lesions)
	}
	if l3 := m.CreateLesionSubModel("x"); l3.Index != 3 {
		t.Errorf("index after delete = %d, want 3", l3.Index)
	}

	l2.Stack().CreateCurve(1)
	if err := l2.BuildSurface(); err != nil {
		t.Fatalf("BuildSurface: %v", err)
	}
	if b.calls != 1 || l2.Surface().Rings != 1 {
		t.Errorf("builder calls = %d, surface = %+v", b.calls, l2.Surface())
	}
}

func TestModel_DefaultBuilder(t *testing.T) {
	m := NewModel(nil)
	if err := m.Prostate.BuildSurface(); !errors.Is(err, ErrNoCurves) {
		t.Errorf("BuildSurface(empty) error = %v, want ErrNoCurves", err)
	}
	if m.Prostate.Surface() != nil {
		t.Error("surface set after failed build")
	}
}
