package graph

import (
	"math"
	"testing"
)

func TestViewport_RoundTrip(t *testing.T) {
	views := []Viewport{
		NewViewport(),
		{TranslateX: 540, TranslateY: 960, Scale: 1},
		{TranslateX: -123.5, TranslateY: 77.25, Scale: 0.1},
		{TranslateX: 3, TranslateY: -4, Scale: 5},
		{TranslateX: 10, TranslateY: 10, Scale: 1.37},
	}
	points := []Point{{0, 0}, {1, -1}, {250.5, -999}, {-0.001, 1e6}}
	for _, v := range views {
		for _, p := range points {
			got := v.ToGraph(v.ToScreen(p))
			tol := 1e-9 * math.Max(1, math.Max(math.Abs(p.X), math.Abs(p.Y)))
			if math.Abs(got.X-p.X) > tol || math.Abs(got.Y-p.Y) > tol {
				t.Errorf("view %+v: round trip %v -> %v", v, p, got)
			}
		}
	}
}

func TestViewport_Center(t *testing.T) {
	v := NewViewport()
	v.Center(1080, 1920)
	if got := v.ToScreen(Point{}); got != (Point{540, 960}) {
		t.Errorf("origin renders at %v, want centre", got)
	}
}

func TestViewport_PanIgnoresScale(t *testing.T) {
	v := Viewport{Scale: 4}
	v.Pan(10, -5)
	if v.TranslateX != 10 || v.TranslateY != -5 {
		t.Errorf("translate = (%v,%v), want (10,-5)", v.TranslateX, v.TranslateY)
	}
}

func TestViewport_ZoomClamps(t *testing.T) {
	factors := []float64{0, -3, 1e-9, 0.5, 2, 1e9, math.Inf(1), math.NaN()}
	for _, f := range factors {
		v := NewViewport()
		for i := 0; i < 3; i++ {
			v.Zoom(f)
		}
		if v.Scale < MinScale || v.Scale > MaxScale {
			t.Errorf("factor %v: scale %v outside [%v,%v]", f, v.Scale, MinScale, MaxScale)
		}
	}
}

func TestViewport_ZoomKeepsTranslate(t *testing.T) {
	v := Viewport{TranslateX: 100, TranslateY: 50, Scale: 1}
	v.Zoom(2)
	if v.TranslateX != 100 || v.TranslateY != 50 || v.Scale != 2 {
		t.Errorf("view = %+v", v)
	}
}

func TestViewport_ZoomAtKeepsFocus(t *testing.T) {
	v := Viewport{TranslateX: 100, TranslateY: 50, Scale: 1}
	focus := Point{300, 200}
	before := v.ToGraph(focus)
	v.ZoomAt(2.5, focus)
	after := v.ToGraph(focus)
	if !approx(before.X, after.X) || !approx(before.Y, after.Y) {
		t.Errorf("focus moved: %v -> %v", before, after)
	}
}

func TestViewport_ZeroValueActsAsIdentity(t *testing.T) {
	var v Viewport
	if got := v.ToGraph(Point{3, 4}); got != (Point{3, 4}) {
		t.Errorf("ToGraph = %v", got)
	}
}
