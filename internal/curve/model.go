package curve

import (
	"errors"
	"fmt"
)

// ErrNoCurves is returned when a surface is requested for an empty stack.
var ErrNoCurves = errors.New("stack has no curve")

// Surface summarizes the closed surface lofted through a stack.
type Surface struct {
	Rings    int     `json:"rings" yaml:"rings"`
	Vertices int     `json:"vertices" yaml:"vertices"`
	ZMin     float64 `json:"z_min" yaml:"z_min"`
	ZMax     float64 `json:"z_max" yaml:"z_max"`
	// Volume is the slab estimate in mm³: trapezoids between consecutive
	// rings.
	Volume float64 `json:"volume" yaml:"volume"`
}

// SurfaceBuilder turns a curve stack into a surface.
type SurfaceBuilder interface {
	Build(s *Stack) (*Surface, error)
}

// LoftBuilder is the default SurfaceBuilder. It only measures the stack;
// meshing belongs to the renderer.
type LoftBuilder struct{}

// Build measures s.
func (LoftBuilder) Build(s *Stack) (*Surface, error) {
	curves := s.Curves()
	if len(curves) == 0 {
		return nil, ErrNoCurves
	}
	surf := &Surface{
		Rings: len(curves),
		ZMin:  curves[0].Z,
		ZMax:  curves[len(curves)-1].Z,
	}
	for i, c := range curves {
		surf.Vertices += c.Len()
		if i > 0 {
			prev := curves[i-1]
			surf.Volume += (prev.Area() + c.Area()) / 2 * (c.Z - prev.Z)
		}
	}
	return surf, nil
}

// SubModel is one structure: its curve stack and, once built, its surface.
type SubModel struct {
	Name  string
	Index int

	stack   *Stack
	builder SurfaceBuilder
	surface *Surface
}

// Stack returns the curve stack.
func (m *SubModel) Stack() *Stack { return m.stack }

// Surface returns the last built surface, nil before BuildSurface.
func (m *SubModel) Surface() *Surface { return m.surface }

// BuildSurface rebuilds the surface from the current stack.
func (m *SubModel) BuildSurface() error {
	surf, err := m.builder.Build(m.stack)
	if err != nil {
		return fmt.Errorf("build surface of %q: %w", m.Name, err)
	}
	m.surface = surf
	return nil
}

// Model is the prostate sub-model plus any number of lesion sub-models.
type Model struct {
	Prostate *SubModel
	Lesions  []*SubModel

	builder SurfaceBuilder
	next    int
}

// NewModel returns a model with an empty prostate. A nil builder selects
// LoftBuilder.
func NewModel(builder SurfaceBuilder) *Model {
	if builder == nil {
		builder = LoftBuilder{}
	}
	m := &Model{builder: builder, next: 1}
	m.Prostate = &SubModel{Name: "Prostate", Index: 0, stack: NewStack(), builder: builder}
	return m
}

// CreateLesionSubModel appends an empty lesion.
func (m *Model) CreateLesionSubModel(name string) *SubModel {
	sm := &SubModel{Name: name, Index: m.next, stack: NewStack(), builder: m.builder}
	m.next++
	m.Lesions = append(m.Lesions, sm)
	return sm
}

// DeleteLesionSubModel removes sm from the lesions. It reports whether sm
// was found.
func (m *Model) DeleteLesionSubModel(sm *SubModel) bool {
	for i, l := range m.Lesions {
		if l == sm {
			m.Lesions = append(m.Lesions[:i], m.Lesions[i+1:]...)
			return true
		}
	}
	return false
}

// SubModels returns the prostate followed by the lesions.
func (m *Model) SubModels() []*SubModel {
	return append([]*SubModel{m.Prostate}, m.Lesions...)
}
