package render

import "math"

type opKind int

const (
	opMove opKind = iota
	opLine
	opCubic
	opClose
)

type pathOp struct {
	kind opKind
	pts  [3][2]float64
}

// Path is a backend-neutral outline in local (element) coordinates.
type Path struct {
	ops []pathOp
}

func (p *Path) MoveTo(x, y float64) *Path {
	p.ops = append(p.ops, pathOp{kind: opMove, pts: [3][2]float64{{x, y}}})
	return p
}

func (p *Path) LineTo(x, y float64) *Path {
	p.ops = append(p.ops, pathOp{kind: opLine, pts: [3][2]float64{{x, y}}})
	return p
}

func (p *Path) CubicTo(x1, y1, x2, y2, x, y float64) *Path {
	p.ops = append(p.ops, pathOp{kind: opCubic, pts: [3][2]float64{{x1, y1}, {x2, y2}, {x, y}}})
	return p
}

func (p *Path) Close() *Path {
	p.ops = append(p.ops, pathOp{kind: opClose})
	return p
}

func (p *Path) Empty() bool { return len(p.ops) == 0 }

// Walk replays the path through the given callbacks.
func (p *Path) Walk(move, line func(x, y float64), cubic func(x1, y1, x2, y2, x, y float64), closePath func()) {
	for _, op := range p.ops {
		switch op.kind {
		case opMove:
			move(op.pts[0][0], op.pts[0][1])
		case opLine:
			line(op.pts[0][0], op.pts[0][1])
		case opCubic:
			cubic(op.pts[0][0], op.pts[0][1], op.pts[1][0], op.pts[1][1], op.pts[2][0], op.pts[2][1])
		case opClose:
			closePath()
		}
	}
}

// RectPath is an axis-aligned rectangle.
func RectPath(x, y, w, h float64) *Path {
	p := &Path{}
	return p.MoveTo(x, y).LineTo(x+w, y).LineTo(x+w, y+h).LineTo(x, y+h).Close()
}

// kappa places cubic control points for a quarter ellipse.
const kappa = 0.5522847498

// EllipsePath is the ellipse inscribed in the box (x, y, w, h).
func EllipsePath(x, y, w, h float64) *Path {
	rx, ry := w/2, h/2
	cx, cy := x+rx, y+ry
	ox, oy := rx*kappa, ry*kappa
	p := &Path{}
	p.MoveTo(cx+rx, cy)
	p.CubicTo(cx+rx, cy+oy, cx+ox, cy+ry, cx, cy+ry)
	p.CubicTo(cx-ox, cy+ry, cx-rx, cy+oy, cx-rx, cy)
	p.CubicTo(cx-rx, cy-oy, cx-ox, cy-ry, cx, cy-ry)
	p.CubicTo(cx+ox, cy-ry, cx+rx, cy-oy, cx+rx, cy)
	return p.Close()
}

// RoundedRectPath is a rectangle with corner radius r.
func RoundedRectPath(x, y, w, h, r float64) *Path {
	r = math.Min(r, math.Min(w, h)/2)
	if r <= 0 {
		return RectPath(x, y, w, h)
	}
	o := r * (1 - kappa)
	p := &Path{}
	p.MoveTo(x+r, y)
	p.LineTo(x+w-r, y)
	p.CubicTo(x+w-o, y, x+w, y+o, x+w, y+r)
	p.LineTo(x+w, y+h-r)
	p.CubicTo(x+w, y+h-o, x+w-o, y+h, x+w-r, y+h)
	p.LineTo(x+r, y+h)
	p.CubicTo(x+o, y+h, x, y+h-o, x, y+h-r)
	p.LineTo(x, y+r)
	p.CubicTo(x, y+o, x+o, y, x+r, y)
	return p.Close()
}

// PolygonPath joins pts into a closed outline.
func PolygonPath(pts [][2]float64) *Path {
	p := &Path{}
	for i, pt := range pts {
		if i == 0 {
			p.MoveTo(pt[0], pt[1])
		} else {
			p.LineTo(pt[0], pt[1])
		}
	}
	if len(pts) > 0 {
		p.Close()
	}
	return p
}
