package graph

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/starford/mindra/internal/models"
)

// Rand is the jitter source used by Layout. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// NewRand returns a deterministic jitter source for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Layout places note 0 at the origin and every other note on a jittered
// circle around it. The radius grows with the note count up to twice
// NodeSpacing. There is no relaxation step: overlaps and crossings are only
// reduced by the jitter spread. A nil rnd is seeded from the clock.
func Layout(notes []models.Note, rnd Rand) []NodePosition {
	n := len(notes)
	if n == 0 {
		return []NodePosition{}
	}
	if rnd == nil {
		rnd = NewRand(uint64(time.Now().UnixNano()))
	}

	out := make([]NodePosition, n)
	out[0] = NodePosition{Note: notes[0]}

	base := NodeSpacing * math.Min(float64(n)*0.15, 2.0)
	for i := 1; i < n; i++ {
		angle := 2 * math.Pi * float64(i) / float64(n)
		angle += rnd.Float64()*0.2 - 0.1
		distance := base + rnd.Float64()*(NodeSpacing*0.3)

		out[i] = NodePosition{
			Point: Point{X: distance * math.Cos(angle), Y: distance * math.Sin(angle)},
			Note:  notes[i],
		}
	}
	return out
}
