package graph

import (
	"image/color"
	"math"
)

// Canvas is the drawing surface the renderer paints on. Coordinates passed to
// the draw calls are transformed by the current Translate/Scale state, in the
// order those calls were made.
type Canvas interface {
	Clear(bg color.Color)
	Save()
	Restore()
	Translate(x, y float64)
	Scale(sx, sy float64)
	Line(from, to Point, c color.Color, width float64)
	Polygon(pts []Point, c color.Color)
	Circle(center Point, r float64, c color.Color)
	// Text draws s horizontally centred on x with its baseline at y.
	Text(s string, x, y float64, c color.Color)
	// TextMetrics returns the positive ascent and descent of the current font.
	TextMetrics() (ascent, descent float64)
}

// Theme holds the renderer colours.
type Theme struct {
	Background   color.Color
	Node         color.Color
	SelectedNode color.Color
	Text         color.Color
	Edge         color.Color
	EdgeWidth    float64
}

// DefaultTheme is used when a renderer is given a zero Theme.
var DefaultTheme = Theme{
	Background:   color.RGBA{0xFF, 0xFF, 0xFF, 0xFF},
	Node:         color.RGBA{0x62, 0x00, 0xEE, 0xFF},
	SelectedNode: color.RGBA{0x37, 0x00, 0xB3, 0xFF},
	Text:         color.RGBA{0xFF, 0xFF, 0xFF, 0xFF},
	Edge:         color.RGBA{0xBB, 0x86, 0xFC, 0xFF},
	EdgeWidth:    3,
}

// Scene is everything one frame needs.
type Scene struct {
	Positions []NodePosition
	Edges     []Edge
	Viewport  Viewport
	Selected  int
}

// Render clears c and draws the scene: edges first, then nodes on top.
// Calling it again with the same scene produces the same frame.
func Render(c Canvas, s Scene, theme Theme) {
	if theme.Background == nil {
		theme = DefaultTheme
	}
	c.Clear(theme.Background)
	if len(s.Positions) == 0 {
		return
	}

	c.Save()
	defer c.Restore()
	c.Translate(s.Viewport.TranslateX, s.Viewport.TranslateY)
	scale := s.Viewport.scale()
	c.Scale(scale, scale)

	for _, e := range s.Edges {
		if e.From < 0 || e.To < 0 || e.From >= len(s.Positions) || e.To >= len(s.Positions) || e.From == e.To {
			continue
		}
		drawEdge(c, s.Positions[e.From].Point, s.Positions[e.To].Point, theme)
	}

	ascent, descent := c.TextMetrics()
	offset := (ascent+descent)/2 - descent
	for i, p := range s.Positions {
		fill := theme.Node
		if i == s.Selected {
			fill = theme.SelectedNode
		}
		c.Circle(p.Point, NodeRadius, fill)
		c.Text(TruncateTitle(p.Note.Title), p.X, p.Y+offset, theme.Text)
	}
}

// drawEdge draws a line between the two node boundaries and an arrowhead at
// the destination.
func drawEdge(c Canvas, from, to Point, theme Theme) {
	angle := math.Atan2(to.Y-from.Y, to.X-from.X)
	cos, sin := math.Cos(angle), math.Sin(angle)

	start := Point{X: from.X + NodeRadius*cos, Y: from.Y + NodeRadius*sin}
	end := Point{X: to.X - NodeRadius*cos, Y: to.Y - NodeRadius*sin}
	c.Line(start, end, theme.Edge, theme.EdgeWidth)
	c.Polygon(Arrowhead(end, angle), theme.Edge)
}

// Arrowhead returns the triangle with its tip at tip pointing along angle.
func Arrowhead(tip Point, angle float64) []Point {
	const spread = math.Pi / 6
	return []Point{
		tip,
		{X: tip.X - ArrowSize*math.Cos(angle-spread), Y: tip.Y - ArrowSize*math.Sin(angle-spread)},
		{X: tip.X - ArrowSize*math.Cos(angle+spread), Y: tip.Y - ArrowSize*math.Sin(angle+spread)},
	}
}

// TruncateTitle shortens titles longer than MaxTitleLen runes.
func TruncateTitle(title string) string {
	r := []rune(title)
	if len(r) <= MaxTitleLen {
		return title
	}
	return string(r[:MaxTitleLen]) + TitleEllipse
}
