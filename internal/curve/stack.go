package curve

import "sort"

// Stack holds at most one curve per Z.
type Stack struct {
	curves map[float64]*Curve
}

// NewStack returns an empty stack.
func NewStack() *Stack {
	return &Stack{curves: make(map[float64]*Curve)}
}

// CreateCurve adds an empty curve at z, replacing any curve already there.
func (s *Stack) CreateCurve(z float64) *Curve {
	c := &Curve{Z: z}
	s.curves[z] = c
	return c
}

// GetCurve returns the curve at exactly z.
func (s *Stack) GetCurve(z float64) (*Curve, bool) {
	c, ok := s.curves[z]
	return c, ok
}

// RemoveCurve drops c if it is still the curve at its height.
func (s *Stack) RemoveCurve(c *Curve) {
	if c == nil {
		return
	}
	if cur, ok := s.curves[c.Z]; ok && cur == c {
		delete(s.curves, c.Z)
	}
}

// Curves returns the curves ordered by increasing Z.
func (s *Stack) Curves() []*Curve {
	out := make([]*Curve, 0, len(s.curves))
	for _, c := range s.curves {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Z < out[j].Z })
	return out
}

// Len returns the number of curves.
func (s *Stack) Len() int { return len(s.curves) }
