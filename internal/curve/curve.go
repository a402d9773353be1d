// Package curve holds the planar curve stacks that make up a structure
// model: one closed curve per slice height, per structure.
package curve

import "math"

// Point is a position in the slice plane, in world millimetres.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Curve is a closed polygon lying at height Z.
type Curve struct {
	Z      float64
	points []Point
}

// Points returns the vertices in ring order. The slice is owned by the
// curve.
func (c *Curve) Points() []Point { return c.points }

// Len returns the number of vertices.
func (c *Curve) Len() int { return len(c.points) }

// AddPoint appends a vertex.
func (c *Curve) AddPoint(p Point) { c.points = append(c.points, p) }

// SetPoints replaces every vertex.
func (c *Curve) SetPoints(pts []Point) {
	c.points = append(c.points[:0], pts...)
}

// Centroid returns the vertex average.
func (c *Curve) Centroid() Point {
	var sum Point
	if len(c.points) == 0 {
		return sum
	}
	for _, p := range c.points {
		sum.X += p.X
		sum.Y += p.Y
	}
	n := float64(len(c.points))
	return Point{X: sum.X / n, Y: sum.Y / n}
}

// SignedArea is positive for counter-clockwise rings.
func (c *Curve) SignedArea() float64 {
	n := len(c.points)
	if n < 3 {
		return 0
	}
	var s float64
	for i := 0; i < n; i++ {
		a, b := c.points[i], c.points[(i+1)%n]
		s += a.X*b.Y - b.X*a.Y
	}
	return s / 2
}

// Area returns the enclosed area in mm².
func (c *Curve) Area() float64 { return math.Abs(c.SignedArea()) }

// Perimeter returns the length of the closed ring.
func (c *Curve) Perimeter() float64 {
	n := len(c.points)
	if n < 2 {
		return 0
	}
	var l float64
	for i := 0; i < n; i++ {
		a, b := c.points[i], c.points[(i+1)%n]
		l += math.Hypot(b.X-a.X, b.Y-a.Y)
	}
	return l
}

// StandardizeStart winds the ring counter-clockwise and rotates it so the
// first vertex is the one whose polar angle around the centroid is closest
// to angle (radians). Rings with fewer than three vertices are left alone.
func (c *Curve) StandardizeStart(angle float64) {
	n := len(c.points)
	if n < 3 {
		return
	}
	if c.SignedArea() < 0 {
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			c.points[i], c.points[j] = c.points[j], c.points[i]
		}
	}

	ctr := c.Centroid()
	best, bestDiff := 0, math.Inf(1)
	for i, p := range c.points {
		d := angularDistance(math.Atan2(p.Y-ctr.Y, p.X-ctr.X), angle)
		if d < bestDiff {
			best, bestDiff = i, d
		}
	}
	if best == 0 {
		return
	}
	rotated := make([]Point, 0, n)
	rotated = append(rotated, c.points[best:]...)
	rotated = append(rotated, c.points[:best]...)
	c.points = rotated
}

func angularDistance(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 2*math.Pi)
	if d > math.Pi {
		d = 2*math.Pi - d
	}
	return d
}
