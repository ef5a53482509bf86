package render

import (
	"image"
	"image/color"
	"log"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
)

// affine maps x' = a*x + c*y + e, y' = b*x + d*y + f.
type affine struct{ a, b, c, d, e, f float64 }

func identity() affine { return affine{a: 1, d: 1} }

func (m affine) apply(x, y float64) (float64, float64) {
	return m.a*x + m.c*y + m.e, m.b*x + m.d*y + m.f
}

// mul returns m·n: n is applied first.
func (m affine) mul(n affine) affine {
	return affine{
		a: m.a*n.a + m.c*n.b,
		b: m.b*n.a + m.d*n.b,
		c: m.a*n.c + m.c*n.d,
		d: m.b*n.c + m.d*n.d,
		e: m.a*n.e + m.c*n.f + m.e,
		f: m.b*n.e + m.d*n.f + m.f,
	}
}

// scale is the average linear magnification of m.
func (m affine) scale() float64 {
	return math.Sqrt(math.Abs(m.a*m.d - m.b*m.c))
}

func (m affine) aff3() f64.Aff3 {
	return f64.Aff3{m.a, m.c, m.e, m.b, m.d, m.f}
}

// maxMaskPixels bounds the coverage mask of one text line.
const maxMaskPixels = 16 << 20

// ggLayer is the target saved by BeginLayer.
type ggLayer struct {
	img   *image.RGBA
	dc    *gg.Context
	alpha float64
}

type ggState struct {
	m      affine
	alpha  float64
	shadow *ShadowSpec
}

// GGSurface rasterises onto an RGBA buffer. Paths are flattened into device
// space and filled or stroked by gg; text and bitmaps are composited with
// x/image/draw so they follow rotation and flips.
type GGSurface struct {
	img    *image.RGBA
	dc     *gg.Context
	fonts  *FontBook
	st     ggState
	stack  []ggState
	layers []ggLayer
}

func NewGGSurface(w, h int) *GGSurface {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	return &GGSurface{
		img:   img,
		dc:    gg.NewContextForRGBA(img),
		fonts: DefaultFontBook(),
		st:    ggState{m: identity(), alpha: 1},
	}
}

// Image returns the backing buffer.
func (s *GGSurface) Image() *image.RGBA { return s.img }

func (s *GGSurface) Size() (int, int) {
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

func (s *GGSurface) Clear(c color.NRGBA) {
	draw.Draw(s.img, s.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

func (s *GGSurface) Save() { s.stack = append(s.stack, s.st) }

func (s *GGSurface) Restore() {
	if n := len(s.stack); n > 0 {
		s.st = s.stack[n-1]
		s.stack = s.stack[:n-1]
	}
}

func (s *GGSurface) Translate(dx, dy float64) {
	s.st.m = s.st.m.mul(affine{a: 1, d: 1, e: dx, f: dy})
}

func (s *GGSurface) Rotate(deg float64) {
	sin, cos := math.Sincos(deg * math.Pi / 180)
	s.st.m = s.st.m.mul(affine{a: cos, b: sin, c: -sin, d: cos})
}

func (s *GGSurface) Scale(sx, sy float64) {
	s.st.m = s.st.m.mul(affine{a: sx, d: sy})
}

func (s *GGSurface) SetAlpha(a float64) { s.st.alpha = clampF(a, 0, 1) }

func (s *GGSurface) SetShadow(sh *ShadowSpec) {
	if sh == nil {
		s.st.shadow = nil
		return
	}
	c := *sh
	s.st.shadow = &c
}

// BeginLayer is a no-op for opaque layers.
func (s *GGSurface) BeginLayer(alpha float64) {
	l := ggLayer{img: s.img, dc: s.dc, alpha: clampF(alpha, 0, 1)}
	if l.alpha < 1 {
		s.img = image.NewRGBA(l.img.Bounds())
		s.dc = gg.NewContextForRGBA(s.img)
	}
	s.layers = append(s.layers, l)
}

func (s *GGSurface) EndLayer() {
	n := len(s.layers)
	if n == 0 {
		return
	}
	l := s.layers[n-1]
	s.layers = s.layers[:n-1]
	if l.img == s.img {
		return
	}
	if a := uint8(l.alpha*255 + 0.5); a > 0 {
		draw.DrawMask(l.img, l.img.Bounds(), s.img, image.Point{}, image.NewUniform(color.Alpha{A: a}), image.Point{}, draw.Over)
	}
	s.img, s.dc = l.img, l.dc
}

// painter draws one primitive with transform m. A non-nil tint replaces the
// primitive's colours, which is how shadows are produced.
type painter func(dc *gg.Context, dst *image.RGBA, m affine, tint *color.NRGBA)

func (s *GGSurface) paint(op painter) {
	if sh := s.st.shadow; sh != nil && sh.Color.A > 0 {
		s.paintShadow(op, sh)
	}
	op(s.dc, s.img, s.st.m, nil)
}

// paintShadow offsets in device space, so shadows do not rotate with the
// element.
func (s *GGSurface) paintShadow(op painter, sh *ShadowSpec) {
	tint := withAlpha(sh.Color, s.st.alpha)
	m := s.st.m
	m.e += sh.OffsetX
	m.f += sh.OffsetY
	if sh.Blur <= 0 {
		op(s.dc, s.img, m, &tint)
		return
	}
	layer := image.NewRGBA(s.img.Bounds())
	op(gg.NewContextForRGBA(layer), layer, m, &tint)
	blurred := imaging.Blur(layer, sh.Blur/2)
	draw.Draw(s.img, s.img.Bounds(), blurred, image.Point{}, draw.Over)
}

func withAlpha(c color.NRGBA, a float64) color.NRGBA {
	c.A = uint8(float64(c.A)*a + 0.5)
	return c
}

func trace(dc *gg.Context, p *Path, m affine) {
	dc.ClearPath()
	p.Walk(
		func(x, y float64) { dc.MoveTo(m.apply(x, y)) },
		func(x, y float64) { dc.LineTo(m.apply(x, y)) },
		func(x1, y1, x2, y2, x, y float64) {
			ax, ay := m.apply(x1, y1)
			bx, by := m.apply(x2, y2)
			cx, cy := m.apply(x, y)
			dc.CubicTo(ax, ay, bx, by, cx, cy)
		},
		dc.ClosePath,
	)
}

func (s *GGSurface) Fill(p *Path, c color.NRGBA) {
	c = withAlpha(c, s.st.alpha)
	if c.A == 0 || p == nil || p.Empty() {
		return
	}
	s.paint(func(dc *gg.Context, _ *image.RGBA, m affine, tint *color.NRGBA) {
		col := c
		if tint != nil {
			col = *tint
		}
		trace(dc, p, m)
		dc.SetColor(col)
		dc.Fill()
	})
}

func (s *GGSurface) Stroke(p *Path, c color.NRGBA, width float64, dashes []float64) {
	c = withAlpha(c, s.st.alpha)
	if c.A == 0 || width <= 0 || p == nil || p.Empty() {
		return
	}
	s.paint(func(dc *gg.Context, _ *image.RGBA, m affine, tint *color.NRGBA) {
		col := c
		if tint != nil {
			col = *tint
		}
		k := m.scale()
		trace(dc, p, m)
		dc.SetColor(col)
		dc.SetLineWidth(width * k)
		if len(dashes) > 0 {
			d := make([]float64, len(dashes))
			for i, v := range dashes {
				d[i] = v * k
			}
			dc.SetDash(d...)
		}
		dc.Stroke()
		dc.SetDash()
	})
}

func (s *GGSurface) MeasureText(line string, f FontSpec) float64 {
	return s.fonts.Measure(line, f)
}

// DrawText rasterises the line at device resolution into a coverage mask,
// then maps the mask through the current transform.
func (s *GGSurface) DrawText(line string, x, y float64, f FontSpec, c color.NRGBA) {
	c = withAlpha(c, s.st.alpha)
	if c.A == 0 || line == "" || f.Size <= 0 {
		return
	}
	k := s.st.m.scale()
	if k == 0 {
		return
	}
	dev := f
	dev.Size = f.Size * k

	const pad = 1.0
	var (
		mask  *image.Alpha
		ratio float64
	)
	s.fonts.Use(dev, func(face font.Face, r float64) {
		met := face.Metrics()
		w := font.MeasureString(face, line).Ceil() + 2*pad
		h := (met.Ascent + met.Descent).Ceil() + 2*pad
		if w*h > maxMaskPixels {
			log.Printf("[RENDER] skipped text line of %dx%d pixels", w, h)
			return
		}
		ratio = r
		mask = image.NewAlpha(image.Rect(0, 0, w, h))
		d := &font.Drawer{
			Dst:  mask,
			Src:  image.Opaque,
			Face: face,
			Dot:  fixed.Point26_6{X: fixed.I(pad), Y: met.Ascent + fixed.I(pad)},
		}
		d.DrawString(line)
	})
	if mask == nil {
		return
	}

	// Mask pixels are device pixels divided by ratio when the face was capped.
	u := ratio / k
	place := affine{a: u, d: u, e: x - pad*u, f: y - pad*u}
	s.paint(func(_ *gg.Context, dst *image.RGBA, m affine, tint *color.NRGBA) {
		col := c
		if tint != nil {
			col = *tint
		}
		draw.BiLinear.Transform(dst, m.mul(place).aff3(), image.NewUniform(col), mask.Bounds(), draw.Over,
			&draw.Options{SrcMask: mask, SrcMaskP: image.Point{}})
	})
}

func (s *GGSurface) DrawImage(img image.Image, x, y, w, h float64) {
	if img == nil || w <= 0 || h <= 0 {
		return
	}
	sb := img.Bounds()
	if sb.Empty() {
		return
	}
	alpha := s.st.alpha
	if alpha <= 0 {
		return
	}
	place := affine{
		a: w / float64(sb.Dx()),
		d: h / float64(sb.Dy()),
		e: x - float64(sb.Min.X)*w/float64(sb.Dx()),
		f: y - float64(sb.Min.Y)*h/float64(sb.Dy()),
	}
	s.paint(func(_ *gg.Context, dst *image.RGBA, m affine, tint *color.NRGBA) {
		s2d := m.mul(place).aff3()
		if tint != nil {
			draw.BiLinear.Transform(dst, s2d, image.NewUniform(*tint), sb, draw.Over,
				&draw.Options{SrcMask: img, SrcMaskP: sb.Min})
			return
		}
		var opts *draw.Options
		if alpha < 1 {
			opts = &draw.Options{SrcMask: image.NewUniform(color.Alpha{A: uint8(alpha*255 + 0.5)})}
		}
		draw.BiLinear.Transform(dst, s2d, img, sb, draw.Over, opts)
	})
}
