package graph

import (
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/starford/mindra/internal/models"
	"github.com/starford/mindra/internal/parser"
)

func note(id int64, title, content string) models.Note {
	return models.Note{ID: id, Title: title, Content: content, Links: parser.Links(content)}
}

const eps = 1e-9

func approx(a, b float64) bool { return math.Abs(a-b) <= eps }

// fixedRand returns the same value on every draw.
type fixedRand float64

func (f fixedRand) Float64() float64 { return float64(f) }

type op struct {
	name  string
	args  []float64
	text  string
	color color.Color
}

func (o op) String() string { return fmt.Sprintf("%s%v%q", o.name, o.args, o.text) }

// recordCanvas records draw calls in order.
type recordCanvas struct {
	ops []op
}

func (r *recordCanvas) add(o op) { r.ops = append(r.ops, o) }

func (r *recordCanvas) Clear(bg color.Color) {
	r.ops = r.ops[:0]
	r.add(op{name: "clear", color: bg})
}

func (r *recordCanvas) Save() {
	r.add(op{name: "save"})
}

func (r *recordCanvas) Restore() {
	r.add(op{name: "restore"})
}

func (r *recordCanvas) Translate(x, y float64) {
	r.add(op{name: "translate", args: []float64{x, y}})
}

func (r *recordCanvas) Scale(sx, sy float64) {
	r.add(op{name: "scale", args: []float64{sx, sy}})
}

func (r *recordCanvas) Line(a, b Point, c color.Color, w float64) {
	r.add(op{name: "line", args: []float64{a.X, a.Y, b.X, b.Y}, color: c})
}

func (r *recordCanvas) Polygon(pts []Point, c color.Color) {
	args := make([]float64, 0, 2*len(pts))
	for _, p := range pts {
		args = append(args, p.X, p.Y)
	}
	r.add(op{name: "polygon", args: args, color: c})
}

func (r *recordCanvas) Circle(p Point, rad float64, c color.Color) {
	r.add(op{name: "circle", args: []float64{p.X, p.Y, rad}, color: c})
}

func (r *recordCanvas) Text(s string, x, y float64, c color.Color) {
	r.add(op{name: "text", args: []float64{x, y}, text: s, color: c})
}

func (r *recordCanvas) TextMetrics() (float64, float64) {
	return 20, 6
}

func (r *recordCanvas) count(name string) int {
	n := 0
	for _, o := range r.ops {
		if o.name == name {
			n++
		}
	}
	return n
}

func (r *recordCanvas) named(name string) []op {
	var out []op
	for _, o := range r.ops {
		if o.name == name {
			out = append(out, o)
		}
	}
	return out
}

// fakeHost counts redraw requests and collects activations.
type fakeHost struct {
	redraws   int
	activated []models.Note
}

func (h *fakeHost) RequestRedraw() {
	h.redraws++
}

func (h *fakeHost) NodeActivated(n models.Note) {
	h.activated = append(h.activated, n)
}

var t0 = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func at(ms int) time.Time { return t0.Add(time.Duration(ms) * time.Millisecond) }
