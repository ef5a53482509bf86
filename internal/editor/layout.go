package editor

import (
	"math"

	"designer/internal/domain"
)

const (
	GridSize = 10.0
	Padding  = 10.0
)

// LayoutEngine places new elements on the canvas so that inserted items
// don't land on top of existing ones.
type LayoutEngine struct {
	gridSize float64
	padding  float64
}

func NewLayoutEngine() *LayoutEngine {
	return &LayoutEngine{gridSize: GridSize, padding: Padding}
}

// snap rounds v to the nearest grid point.
func (le *LayoutEngine) snap(v float64) float64 {
	return math.Round(v/le.gridSize) * le.gridSize
}

// NextPosition finds the first grid position inside the canvas where a box
// of size (w, h) doesn't overlap existing elements. When the canvas is full
// the box is centred.
func (le *LayoutEngine) NextPosition(existing []domain.Element, canvas domain.Size, w, h float64) (float64, float64) {
	if len(existing) == 0 {
		return le.snap((canvas.Width - w) / 2), le.snap((canvas.Height - h) / 2)
	}

	occupied := make([]domain.Rect, len(existing))
	for i, e := range existing {
		occupied[i] = domain.Rect{
			X: e.X - le.padding,
			Y: e.Y - le.padding,
			W: e.Width + le.padding*2,
			H: e.Height + le.padding*2,
		}
	}

	// Scan rows top-to-bottom, columns left-to-right
	candidate := domain.Rect{W: w, H: h}
	for y := le.padding; y+h <= canvas.Height; y += le.gridSize {
		for x := le.padding; x+w <= canvas.Width; x += le.gridSize {
			candidate.X = le.snap(x)
			candidate.Y = le.snap(y)

			overlaps := false
			for _, occ := range occupied {
				if candidate.Intersects(occ) {
					overlaps = true
					break
				}
			}
			if !overlaps {
				return candidate.X, candidate.Y
			}
		}
	}

	return le.snap((canvas.Width - w) / 2), le.snap((canvas.Height - h) / 2)
}
