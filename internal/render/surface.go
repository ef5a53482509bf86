package render

import (
	"image"
	"image/color"
)

// FontSpec selects a face for text painting.
type FontSpec struct {
	Family string
	Size   float64
	Bold   bool
	Italic bool
}

// ShadowSpec is a drop shadow applied to subsequent fills, strokes, text and
// images until cleared with a nil shadow.
type ShadowSpec struct {
	Color   color.NRGBA
	Blur    float64
	OffsetX float64
	OffsetY float64
}

// Surface is the drawing capability the renderer paints on. Coordinates
// passed to painting calls are in the current user space, which Translate,
// Rotate and Scale modify. Save and Restore push and pop the transform,
// alpha and shadow together.
type Surface interface {
	Size() (w, h int)
	Clear(c color.NRGBA)

	Save()
	Restore()
	Translate(dx, dy float64)
	// Rotate turns the user space clockwise by deg degrees.
	Rotate(deg float64)
	Scale(sx, sy float64)

	SetAlpha(a float64)
	SetShadow(s *ShadowSpec)
	// BeginLayer redirects painting to an offscreen layer that EndLayer
	// composites back once at alpha, so overlapping primitives inside the
	// layer do not blend with each other.
	BeginLayer(alpha float64)
	EndLayer()

	Fill(p *Path, c color.NRGBA)
	// Stroke draws p with the given width. dashes, when set, alternate
	// on and off lengths in user space units.
	Stroke(p *Path, c color.NRGBA, width float64, dashes []float64)
	// DrawText paints a single line with its top-left corner at (x, y).
	DrawText(line string, x, y float64, f FontSpec, c color.NRGBA)
	MeasureText(line string, f FontSpec) float64
	DrawImage(img image.Image, x, y, w, h float64)
}
