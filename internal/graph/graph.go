// Package graph turns a note snapshot into an interactive node graph: link
// resolution, circular layout, pan/zoom viewport, hit testing, gesture
// interpretation and rendering onto an abstract Canvas.
//
// Nothing in this package is safe for concurrent use. An Engine is meant to
// be driven from a single event loop; callers that share one across
// goroutines must serialise access themselves (see internal/session).
package graph

import "github.com/starford/mindra/internal/models"

// Geometry and presentation constants, in graph-space units unless noted.
const (
	NodeRadius   = 60.0
	NodeSpacing  = 250.0
	ArrowSize    = 15.0
	MaxTitleLen  = 10
	TitleEllipse = "..."

	MinScale = 0.1
	MaxScale = 5.0
)

// Point is a 2-D coordinate pair. Whether it is in graph or screen space
// depends on the caller.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodePosition places one note of the snapshot in graph space. Positions are
// indexed by the note's position in the snapshot.
type NodePosition struct {
	Point
	Note models.Note `json:"-"`
}
