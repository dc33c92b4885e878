package graph

import "math"

// Viewport is the affine map between graph space and screen space:
// screen = translate + scale*graph. Scale stays within [MinScale, MaxScale].
type Viewport struct {
	TranslateX float64 `json:"translate_x"`
	TranslateY float64 `json:"translate_y"`
	Scale      float64 `json:"scale"`
}

// NewViewport returns the identity viewport.
func NewViewport() Viewport {
	return Viewport{Scale: 1}
}

// Center puts the graph origin in the middle of a w×h surface at scale 1.
func (v *Viewport) Center(w, h float64) {
	v.TranslateX = w / 2
	v.TranslateY = h / 2
	v.Scale = 1
}

// ToScreen maps a graph-space point to screen space.
func (v Viewport) ToScreen(p Point) Point {
	s := v.scale()
	return Point{X: v.TranslateX + s*p.X, Y: v.TranslateY + s*p.Y}
}

// ToGraph maps a screen-space point to graph space.
func (v Viewport) ToGraph(p Point) Point {
	s := v.scale()
	return Point{X: (p.X - v.TranslateX) / s, Y: (p.Y - v.TranslateY) / s}
}

// Pan shifts the view by a raw screen delta, independent of scale.
func (v *Viewport) Pan(dx, dy float64) {
	v.TranslateX += dx
	v.TranslateY += dy
}

// Zoom multiplies the scale by factor and clamps it. The translation is left
// alone, so the view scales about the screen position of the graph origin.
func (v *Viewport) Zoom(factor float64) {
	if math.IsNaN(factor) {
		return
	}
	v.Scale = clampScale(v.scale() * factor)
}

// ZoomAt scales like Zoom but keeps the graph point under focus (a screen
// point) fixed on screen.
func (v *Viewport) ZoomAt(factor float64, focus Point) {
	anchor := v.ToGraph(focus)
	v.Zoom(factor)
	v.TranslateX = focus.X - v.Scale*anchor.X
	v.TranslateY = focus.Y - v.Scale*anchor.Y
}

// scale guards against a zero-value Viewport.
func (v Viewport) scale() float64 {
	if v.Scale == 0 {
		return 1
	}
	return v.Scale
}

func clampScale(s float64) float64 {
	if s < MinScale {
		return MinScale
	}
	if s > MaxScale {
		return MaxScale
	}
	return s
}
