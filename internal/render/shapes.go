package render

import (
	"math"

	"designer/internal/domain"
)

// RoundedCornerRatio is the corner radius of rounded rectangles relative to
// their shorter side.
const RoundedCornerRatio = 0.15

// PolygonPoints returns the vertices of polygonal shapes inside a w x h box,
// or false for shapes that are not polygons.
func PolygonPoints(t domain.ShapeType, w, h float64) ([][2]float64, bool) {
	switch t {
	case domain.ShapeTriangle:
		return [][2]float64{{w / 2, 0}, {w, h}, {0, h}}, true
	case domain.ShapeRightTriangle:
		return [][2]float64{{0, 0}, {w, h}, {0, h}}, true
	case domain.ShapeInvertedTriangle:
		return [][2]float64{{0, 0}, {w, 0}, {w / 2, h}}, true
	case domain.ShapePentagon:
		return regular(5, w, h), true
	case domain.ShapeHexagon:
		return regular(6, w, h), true
	case domain.ShapeOctagon:
		return regular(8, w, h), true
	case domain.ShapeDiamond:
		return [][2]float64{{w / 2, 0}, {w, h / 2}, {w / 2, h}, {0, h / 2}}, true
	case domain.ShapeStar:
		return star(5, w, h, 0.4), true
	case domain.ShapeArrowRight:
		return arrow(w, h), true
	case domain.ShapeArrowLeft:
		return mapPts(arrow(w, h), func(x, y float64) (float64, float64) { return w - x, y }), true
	case domain.ShapeArrowDown:
		return mapPts(arrow(h, w), func(x, y float64) (float64, float64) { return y, x }), true
	case domain.ShapeArrowUp:
		return mapPts(arrow(h, w), func(x, y float64) (float64, float64) { return y, h - x }), true
	}
	return nil, false
}

// regular builds an n-gon inscribed in the box, first vertex at the top.
func regular(n int, w, h float64) [][2]float64 {
	pts := make([][2]float64, n)
	for i := 0; i < n; i++ {
		a := -math.Pi/2 + 2*math.Pi*float64(i)/float64(n)
		pts[i] = [2]float64{w/2 + w/2*math.Cos(a), h/2 + h/2*math.Sin(a)}
	}
	return pts
}

func star(points int, w, h, inner float64) [][2]float64 {
	pts := make([][2]float64, 0, points*2)
	for i := 0; i < points*2; i++ {
		r := 1.0
		if i%2 == 1 {
			r = inner
		}
		a := -math.Pi/2 + math.Pi*float64(i)/float64(points)
		pts = append(pts, [2]float64{w/2 + w/2*r*math.Cos(a), h/2 + h/2*r*math.Sin(a)})
	}
	return pts
}

// arrow points right: a shaft of half height and a head of 40% of the length.
func arrow(w, h float64) [][2]float64 {
	head := w * 0.4
	return [][2]float64{
		{0, h * 0.25}, {w - head, h * 0.25}, {w - head, 0},
		{w, h / 2},
		{w - head, h}, {w - head, h * 0.75}, {0, h * 0.75},
	}
}

func mapPts(pts [][2]float64, f func(x, y float64) (float64, float64)) [][2]float64 {
	out := make([][2]float64, len(pts))
	for i, p := range pts {
		x, y := f(p[0], p[1])
		out[i] = [2]float64{x, y}
	}
	return out
}

// heartPath draws a heart inside the w x h box.
func heartPath(w, h float64) *Path {
	p := &Path{}
	p.MoveTo(w/2, h*0.3)
	p.CubicTo(w/2, h*0.27, w*0.45, h*0.15, w*0.25, h*0.15)
	p.CubicTo(0, h*0.15, 0, h*0.45, 0, h*0.45)
	p.CubicTo(0, h*0.65, w*0.2, h*0.8, w/2, h)
	p.CubicTo(w*0.8, h*0.8, w, h*0.65, w, h*0.45)
	p.CubicTo(w, h*0.45, w, h*0.15, w*0.75, h*0.15)
	p.CubicTo(w*0.6, h*0.15, w/2, h*0.27, w/2, h*0.3)
	return p.Close()
}

// Outline is the geometry to paint for a shape: a closed outline that is
// filled then stroked, or an open line that is only stroked.
type Outline struct {
	Path   *Path
	Line   bool
	Dashes []float64 // in multiples of the stroke width
}

// ShapeOutline builds the outline of shape t in a w x h box at the origin.
func ShapeOutline(t domain.ShapeType, w, h float64) Outline {
	switch t {
	case domain.ShapeRectangle, domain.ShapeSquare:
		return Outline{Path: RectPath(0, 0, w, h)}
	case domain.ShapeRoundedRectangle:
		return Outline{Path: RoundedRectPath(0, 0, w, h, math.Min(w, h)*RoundedCornerRatio)}
	case domain.ShapeCircle, domain.ShapeEllipse:
		return Outline{Path: EllipsePath(0, 0, w, h)}
	case domain.ShapeHeart:
		return Outline{Path: heartPath(w, h)}
	case domain.ShapeLine, domain.ShapeDashedLine, domain.ShapeDottedLine:
		p := &Path{}
		p.MoveTo(0, h/2).LineTo(w, h/2)
		o := Outline{Path: p, Line: true}
		switch t {
		case domain.ShapeDashedLine:
			o.Dashes = []float64{4, 2}
		case domain.ShapeDottedLine:
			o.Dashes = []float64{1, 1.5}
		}
		return o
	}
	if pts, ok := PolygonPoints(t, w, h); ok {
		return Outline{Path: PolygonPath(pts)}
	}
	return Outline{Path: RectPath(0, 0, w, h)}
}
