package graph

import "math"

// HitTest projects a screen point into graph space and returns the lowest
// index whose node centre lies within radius of it. radius is in graph units,
// so the on-screen hit area shrinks as the view zooms out and grows as it
// zooms in.
func HitTest(screen Point, positions []NodePosition, v Viewport, radius float64) (int, bool) {
	g := v.ToGraph(screen)
	for i, p := range positions {
		if math.Hypot(g.X-p.X, g.Y-p.Y) <= radius {
			return i, true
		}
	}
	return -1, false
}
