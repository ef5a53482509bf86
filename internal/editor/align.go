package editor

import (
	"math"
	"sort"

	"designer/internal/domain"
)

type AlignMode string

const (
	AlignLeft             AlignMode = "left"
	AlignRight            AlignMode = "right"
	AlignTop              AlignMode = "top"
	AlignBottom           AlignMode = "bottom"
	AlignCenterHorizontal AlignMode = "center-horizontal" // shared x centre
	AlignCenterVertical   AlignMode = "center-vertical"   // shared y centre
	AlignCenterBoth       AlignMode = "center-both"       // canvas only
)

type Axis string

const (
	AxisHorizontal Axis = "horizontal"
	AxisVertical   Axis = "vertical"
)

type TransformOp string

const (
	FlipHorizontal TransformOp = "flip-horizontal"
	FlipVertical   TransformOp = "flip-vertical"
	RotateCW       TransformOp = "rotate-cw"  // +90
	RotateCCW      TransformOp = "rotate-ccw" // -90
)

type LayerOp string

const (
	LayerFront    LayerOp = "front"
	LayerBack     LayerOp = "back"
	LayerForward  LayerOp = "forward"
	LayerBackward LayerOp = "backward"
)

// Align lines up the selected elements' edges or centres. Edges use the
// extremal value across the selection, centres the mean. Fewer than two
// elements produce no updates. Only elements that actually move are returned.
func Align(selected []domain.Element, mode AlignMode) []Update {
	if len(selected) < 2 {
		return nil
	}
	var target float64
	switch mode {
	case AlignLeft:
		target = math.Inf(1)
		for _, e := range selected {
			target = math.Min(target, e.X)
		}
	case AlignRight:
		target = math.Inf(-1)
		for _, e := range selected {
			target = math.Max(target, e.X+e.Width)
		}
	case AlignTop:
		target = math.Inf(1)
		for _, e := range selected {
			target = math.Min(target, e.Y)
		}
	case AlignBottom:
		target = math.Inf(-1)
		for _, e := range selected {
			target = math.Max(target, e.Y+e.Height)
		}
	case AlignCenterHorizontal:
		for _, e := range selected {
			target += e.X + e.Width/2
		}
		target /= float64(len(selected))
	case AlignCenterVertical:
		for _, e := range selected {
			target += e.Y + e.Height/2
		}
		target /= float64(len(selected))
	default:
		return nil
	}

	var out []Update
	for _, e := range selected {
		if u, ok := alignOne(e, mode, target); ok {
			out = append(out, u)
		}
	}
	return out
}

func alignOne(e domain.Element, mode AlignMode, target float64) (Update, bool) {
	x, y := e.X, e.Y
	switch mode {
	case AlignLeft:
		x = target
	case AlignRight:
		x = target - e.Width
	case AlignTop:
		y = target
	case AlignBottom:
		y = target - e.Height
	case AlignCenterHorizontal:
		x = target - e.Width/2
	case AlignCenterVertical:
		y = target - e.Height/2
	}
	return moveTo(e, x, y)
}

// AlignToCanvas aligns each selected element to the canvas bounds,
// independently of the others. It works for a single element.
func AlignToCanvas(selected []domain.Element, canvas domain.Size, mode AlignMode) []Update {
	var out []Update
	for _, e := range selected {
		x, y := e.X, e.Y
		switch mode {
		case AlignLeft:
			x = 0
		case AlignRight:
			x = canvas.Width - e.Width
		case AlignTop:
			y = 0
		case AlignBottom:
			y = canvas.Height - e.Height
		case AlignCenterHorizontal:
			x = (canvas.Width - e.Width) / 2
		case AlignCenterVertical:
			y = (canvas.Height - e.Height) / 2
		case AlignCenterBoth:
			x = (canvas.Width - e.Width) / 2
			y = (canvas.Height - e.Height) / 2
		default:
			return nil
		}
		if u, ok := moveTo(e, x, y); ok {
			out = append(out, u)
		}
	}
	return out
}

// Distribute spaces three or more elements evenly along axis. The first and
// last element (by leading edge) keep their place; the others are moved so
// every gap between consecutive boxes is equal. Sizes never change.
func Distribute(selected []domain.Element, axis Axis) []Update {
	if len(selected) < 3 {
		return nil
	}
	if axis != AxisHorizontal && axis != AxisVertical {
		return nil
	}
	lead := func(e domain.Element) float64 {
		if axis == AxisHorizontal {
			return e.X
		}
		return e.Y
	}
	extent := func(e domain.Element) float64 {
		if axis == AxisHorizontal {
			return e.Width
		}
		return e.Height
	}

	sorted := append([]domain.Element(nil), selected...)
	sort.SliceStable(sorted, func(a, b int) bool {
		return lead(sorted[a]) < lead(sorted[b])
	})
	first, last := sorted[0], sorted[len(sorted)-1]
	span := lead(last) + extent(last) - lead(first)
	var total float64
	for _, e := range sorted {
		total += extent(e)
	}
	gap := (span - total) / float64(len(sorted)-1)

	var out []Update
	pos := lead(first)
	for _, e := range sorted {
		x, y := e.X, e.Y
		if axis == AxisHorizontal {
			x = pos
		} else {
			y = pos
		}
		if u, ok := moveTo(e, x, y); ok {
			out = append(out, u)
		}
		pos += extent(e) + gap
	}
	return out
}

// Transform flips or quarter-turns every selected element.
func Transform(selected []domain.Element, op TransformOp) []Update {
	var out []Update
	for _, e := range selected {
		sx, sy := e.Flip()
		var p Patch
		switch op {
		case FlipHorizontal:
			p.ScaleX = F(-sx)
		case FlipVertical:
			p.ScaleY = F(-sy)
		case RotateCW:
			p.Rotation = F(math.Mod(e.Rotation+90, 360))
		case RotateCCW:
			p.Rotation = F(math.Mod(e.Rotation-90, 360))
		default:
			return nil
		}
		out = append(out, Update{ID: e.ID, Patch: p})
	}
	return out
}

// Layer reorders target relative to all elements of the scene.
func Layer(all []domain.Element, target domain.Element, op LayerOp) []Update {
	z := target.ZIndex
	switch op {
	case LayerFront:
		z = math.MinInt
		for _, e := range all {
			if e.ZIndex > z {
				z = e.ZIndex
			}
		}
		z++
	case LayerBack:
		z = math.MaxInt
		for _, e := range all {
			if e.ZIndex < z {
				z = e.ZIndex
			}
		}
		z--
	case LayerForward:
		z++
	case LayerBackward:
		if z > 0 {
			z--
		}
	default:
		return nil
	}
	if z == target.ZIndex {
		return nil
	}
	return []Update{{ID: target.ID, Patch: Patch{ZIndex: I(z)}}}
}

func moveTo(e domain.Element, x, y float64) (Update, bool) {
	var p Patch
	if x != e.X {
		p.X = F(x)
	}
	if y != e.Y {
		p.Y = F(y)
	}
	if p.Empty() {
		return Update{}, false
	}
	return Update{ID: e.ID, Patch: p}, true
}
