package render

import (
	"fmt"
	"image"
	"image/color"
	"strings"
)

// Call is one recorded surface operation.
type Call struct {
	Op   string
	Args string
}

func (c Call) String() string {
	if c.Args == "" {
		return c.Op
	}
	return c.Op + "(" + c.Args + ")"
}

// Recorder is a Surface that records calls instead of painting. Text is
// measured with a fixed advance of 0.6em per rune.
type Recorder struct {
	W, H  int
	Calls []Call
}

func NewRecorder(w, h int) *Recorder { return &Recorder{W: w, H: h} }

func (r *Recorder) rec(op, format string, args ...any) {
	r.Calls = append(r.Calls, Call{Op: op, Args: fmt.Sprintf(format, args...)})
}

// Ops returns the operation names in order.
func (r *Recorder) Ops() []string {
	out := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		out[i] = c.Op
	}
	return out
}

// Texts returns the lines passed to DrawText, in order.
func (r *Recorder) Texts() []string {
	var out []string
	for _, c := range r.Calls {
		if c.Op == "text" {
			out = append(out, c.Args[:strings.LastIndex(c.Args, "@")])
		}
	}
	return out
}

// Trace renders the whole recording, one call per line.
func (r *Recorder) Trace() string {
	var b strings.Builder
	for _, c := range r.Calls {
		b.WriteString(c.String())
		b.WriteByte('\n')
	}
	return b.String()
}

func (r *Recorder) Size() (int, int)    { return r.W, r.H }
func (r *Recorder) Clear(c color.NRGBA) { r.rec("clear", "%s", Hex(c)) }
func (r *Recorder) Save()               { r.rec("save", "") }
func (r *Recorder) Restore()            { r.rec("restore", "") }

func (r *Recorder) Translate(dx, dy float64) { r.rec("translate", "%g,%g", dx, dy) }
func (r *Recorder) Rotate(deg float64)       { r.rec("rotate", "%g", deg) }
func (r *Recorder) Scale(sx, sy float64)     { r.rec("scale", "%g,%g", sx, sy) }
func (r *Recorder) SetAlpha(a float64)       { r.rec("alpha", "%g", a) }

func (r *Recorder) BeginLayer(a float64) { r.rec("layer", "%g", a) }
func (r *Recorder) EndLayer()            { r.rec("endlayer", "") }

func (r *Recorder) SetShadow(s *ShadowSpec) {
	if s == nil {
		r.rec("shadow", "none")
		return
	}
	r.rec("shadow", "%s,%g,%g,%g", Hex(s.Color), s.Blur, s.OffsetX, s.OffsetY)
}

func (r *Recorder) Fill(p *Path, c color.NRGBA) {
	r.rec("fill", "%s,%d", Hex(c), len(p.ops))
}

func (r *Recorder) Stroke(p *Path, c color.NRGBA, width float64, dashes []float64) {
	r.rec("stroke", "%s,%g,%v", Hex(c), width, dashes)
}

func (r *Recorder) DrawText(line string, x, y float64, f FontSpec, c color.NRGBA) {
	r.rec("text", "%s@%g,%g", line, x, y)
}

func (r *Recorder) MeasureText(line string, f FontSpec) float64 {
	return float64(len([]rune(line))) * f.Size * 0.6
}

func (r *Recorder) DrawImage(img image.Image, x, y, w, h float64) {
	r.rec("image", "%g,%g,%g,%g", x, y, w, h)
}
