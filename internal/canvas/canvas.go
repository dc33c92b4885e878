// Package canvas implements graph.Canvas on top of an in-memory raster.
package canvas

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"io"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/starford/mindra/internal/graph"
	"github.com/starford/mindra/internal/models"
)

// DefaultFontSize matches the node title size of the graph view.
const DefaultFontSize = 28

var (
	regular     *truetype.Font
	regularErr  error
	regularOnce sync.Once
)

func regularFont() (*truetype.Font, error) {
	regularOnce.Do(func() {
		regular, regularErr = truetype.Parse(goregular.TTF)
	})
	return regular, regularErr
}

// PNG is a raster canvas backed by a gg context.
type PNG struct {
	dc      *gg.Context
	ascent  float64
	descent float64
}

var _ graph.Canvas = (*PNG)(nil)

// New returns a w×h canvas using Go Regular at fontSize points. A
// non-positive fontSize selects DefaultFontSize.
func New(w, h int, fontSize float64) (*PNG, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("canvas: invalid size %dx%d", w, h)
	}
	if fontSize <= 0 {
		fontSize = DefaultFontSize
	}
	f, err := regularFont()
	if err != nil {
		return nil, fmt.Errorf("canvas: parse font: %w", err)
	}
	face := truetype.NewFace(f, &truetype.Options{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})

	dc := gg.NewContext(w, h)
	dc.SetFontFace(face)
	dc.SetLineCapRound()

	m := face.Metrics()
	return &PNG{
		dc:      dc,
		ascent:  float64(m.Ascent) / 64,
		descent: float64(m.Descent) / 64,
	}, nil
}

func (p *PNG) Clear(bg color.Color) {
	p.dc.SetColor(bg)
	p.dc.Clear()
}

func (p *PNG) Save()    { p.dc.Push() }
func (p *PNG) Restore() { p.dc.Pop() }

func (p *PNG) Translate(x, y float64) { p.dc.Translate(x, y) }
func (p *PNG) Scale(sx, sy float64)   { p.dc.Scale(sx, sy) }

func (p *PNG) Line(from, to graph.Point, c color.Color, width float64) {
	p.dc.SetColor(c)
	p.dc.SetLineWidth(width)
	p.dc.DrawLine(from.X, from.Y, to.X, to.Y)
	p.dc.Stroke()
}

func (p *PNG) Polygon(pts []graph.Point, c color.Color) {
	if len(pts) < 3 {
		return
	}
	p.dc.SetColor(c)
	p.dc.MoveTo(pts[0].X, pts[0].Y)
	for _, pt := range pts[1:] {
		p.dc.LineTo(pt.X, pt.Y)
	}
	p.dc.ClosePath()
	p.dc.Fill()
}

func (p *PNG) Circle(center graph.Point, r float64, c color.Color) {
	p.dc.SetColor(c)
	p.dc.DrawCircle(center.X, center.Y, r)
	p.dc.Fill()
}

// Text anchors the string at its horizontal centre and baseline. The glyphs
// go through the full current transform, so text scales with the zoom.
func (p *PNG) Text(s string, x, y float64, c color.Color) {
	if s == "" {
		return
	}
	p.dc.SetColor(c)
	p.dc.DrawStringAnchored(s, x, y, 0.5, 0)
}

func (p *PNG) TextMetrics() (float64, float64) { return p.ascent, p.descent }

// Image returns the backing raster.
func (p *PNG) Image() image.Image { return p.dc.Image() }

// EncodePNG writes the current frame to w.
func (p *PNG) EncodePNG(w io.Writer) error {
	if err := p.dc.EncodePNG(w); err != nil {
		return fmt.Errorf("canvas: encode png: %w", err)
	}
	return nil
}

// Bytes returns the current frame as PNG data.
func (p *PNG) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Draw renders scene onto a fresh w×h canvas and returns the PNG bytes.
func Draw(w, h int, fontSize float64, scene graph.Scene, theme graph.Theme) ([]byte, error) {
	p, err := New(w, h, fontSize)
	if err != nil {
		return nil, err
	}
	graph.Render(p, scene, theme)
	return p.Bytes()
}

// Snapshot lays out notes on a w×h surface centred on the graph origin
// and renders them without a session.
func Snapshot(notes []models.Note, w, h int, fontSize float64, opts graph.Options) ([]byte, error) {
	e := graph.NewEngine(nil, opts)
	e.Resize(float64(w), float64(h))
	e.SetNotes(notes)
	p, err := New(w, h, fontSize)
	if err != nil {
		return nil, err
	}
	e.Render(p)
	return p.Bytes()
}

// ParseHex parses #RGB, #RRGGBB or #RRGGBBAA. The leading # is optional.
func ParseHex(s string) (color.RGBA, error) {
	raw := strings.TrimPrefix(s, "#")
	if len(raw) == 3 {
		raw = string([]byte{raw[0], raw[0], raw[1], raw[1], raw[2], raw[2]})
	}
	if len(raw) != 6 && len(raw) != 8 {
		return color.RGBA{}, fmt.Errorf("canvas: invalid colour %q", s)
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("canvas: invalid colour %q: %w", s, err)
	}
	c := color.RGBA{R: b[0], G: b[1], B: b[2], A: 0xFF}
	if len(b) == 4 {
		c.A = b[3]
	}
	return c, nil
}
