package convert

import (
	"math"
	"testing"

	"github.com/mrsinham/rtfusion/internal/curve"
)

func TestDecimate_Empty(t *testing.T) {
	if got := Decimate(nil, 8, 4); got != nil {
		t.Errorf("Decimate(nil) = %v, want nil", got)
	}
	one := []curve.Point{{X: 3, Y: 4}}
	if got := Decimate(one, 8, 4); len(got) != 1 || got[0] != one[0] {
		t.Errorf("Decimate(single) = %v, want %v", got, one)
	}
}

func TestDecimate_StraightRun(t *testing.T) {
	var pts []curve.Point
	for x := 0; x <= 30; x++ {
		pts = append(pts, curve.Point{X: float64(x), Y: 5})
	}
	got := Decimate(pts, 8, 4)
	want := []float64{0, 9, 18, 27}
	if len(got) != len(want) {
		t.Fatalf("Decimate kept %v, want x = %v", got, want)
	}
	for i, x := range want {
		if got[i].X != x {
			t.Errorf("point %d x = %v, want %v", i, got[i].X, x)
		}
	}
}

func TestDecimate_CornerUsesLowerThreshold(t *testing.T) {
	// (50,51) turns back in X: kept under the corner threshold even though
	// the regular one would reject it.
	pts := []curve.Point{{X: 10, Y: 53}, {X: 30, Y: 52}, {X: 50, Y: 51}, {X: 30, Y: 23}}

	tests := []struct {
		name    string
		regular float64
		corner  float64
		want    int
	}{
		{name: "defaults", regular: 8, corner: 4, want: 4},
		{name: "regular above step", regular: 22, corner: 4, want: 3},
		{name: "corner above step", regular: 22, corner: 45, want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decimate(pts, tt.regular, tt.corner)
			if len(got) != tt.want {
				t.Errorf("Decimate kept %d points (%v), want %d", len(got), got, tt.want)
			}
			if got[0] != pts[0] {
				t.Errorf("first point = %v, want %v", got[0], pts[0])
			}
		})
	}
}

func TestDecimate_DistanceToFirstPoint(t *testing.T) {
	// A ring closing back on its start: the last point is far from the
	// previous kept point but too close to the first one.
	pts := []curve.Point{{X: 0, Y: 0}, {X: 20, Y: 0}, {X: 20, Y: 20}, {X: 0, Y: 20}, {X: 1, Y: 1}}
	got := Decimate(pts, 8, 4)
	if last := got[len(got)-1]; last == (curve.Point{X: 1, Y: 1}) {
		t.Errorf("point next to the start was kept: %v", got)
	}
}

func TestDecimate_NeverGrows(t *testing.T) {
	for n := 1; n < 80; n += 7 {
		pts := make([]curve.Point, n)
		for i := range pts {
			a := 2 * math.Pi * float64(i) / float64(n)
			pts[i] = curve.Point{X: math.Round(20 * math.Cos(a)), Y: math.Round(20 * math.Sin(a))}
		}
		got := Decimate(pts, float64(n)/15, 4)
		if len(got) == 0 || len(got) > n {
			t.Errorf("n=%d: kept %d points", n, len(got))
		}
	}
}

func TestThresholds_Regular(t *testing.T) {
	th := DefaultThresholds()
	if got := th.Regular(0, 300); got != 8 {
		t.Errorf("Regular(0, 300) = %v, want 8", got)
	}
	if got := th.Regular(2, 30); got != 2 {
		t.Errorf("Regular(2, 30) = %v, want 2", got)
	}
	if got := (Thresholds{}).Regular(1, 30); got != 0 {
		t.Errorf("zero divisor Regular = %v, want 0", got)
	}
}
