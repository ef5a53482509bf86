package render

import (
	"image/color"
	"log"
	"strconv"
	"strings"

	"designer/internal/domain"
)

// LineHeight is the text line advance relative to the font size.
const LineHeight = 1.2

var (
	selectionColor   = color.NRGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 0xff}
	gridColor        = color.NRGBA{R: 0xe5, G: 0xe7, B: 0xeb, A: 0xff}
	placeholderFill  = color.NRGBA{R: 0xf3, G: 0xf4, B: 0xf6, A: 0xff}
	placeholderInk   = color.NRGBA{R: 0x9c, G: 0xa3, B: 0xaf, A: 0xff}
	defaultTextColor = color.NRGBA{A: 0xff}
	white            = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// ViewState carries the editor view parameters that affect painting.
type ViewState struct {
	Zoom     float64
	ShowGrid bool
	GridSize float64
	ReadOnly bool
}

func DefaultViewState() ViewState {
	return ViewState{Zoom: 1, GridSize: 20}
}

// Renderer paints scenes onto a Surface. Output depends only on the scene,
// the selection, the view state and which bitmaps Images has resolved.
type Renderer struct {
	Images ImageSource
}

func NewRenderer(images ImageSource) *Renderer {
	return &Renderer{Images: images}
}

// Render paints the editor view: background, optional grid, then each
// element in paint order followed by its selection outline, so elements
// above a selected one cover its outline.
func (r *Renderer) Render(s Surface, scene *domain.Scene, selected map[string]bool, view ViewState) {
	zoom := view.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	s.Clear(color.NRGBA{})
	s.Save()
	s.Scale(zoom, zoom)
	r.paintBackground(s, scene)
	if view.ShowGrid && view.GridSize > 0 {
		paintGrid(s, scene.CanvasSize, view.GridSize, zoom)
	}
	for _, el := range domain.PaintOrder(scene.Elements) {
		r.PaintElement(s, el, zoom)
		if !view.ReadOnly && selected[el.ID] {
			paintSelection(s, el, zoom)
		}
	}
	s.Restore()
}

// PaintScene paints the scene for output at scale: no grid, no selection.
func (r *Renderer) PaintScene(s Surface, scene *domain.Scene, scale float64, background bool) {
	s.Clear(color.NRGBA{})
	s.Save()
	s.Scale(scale, scale)
	if background {
		r.paintBackground(s, scene)
	}
	for _, el := range domain.PaintOrder(scene.Elements) {
		r.PaintElement(s, el, scale)
	}
	s.Restore()
}

func (r *Renderer) paintBackground(s Surface, scene *domain.Scene) {
	bg := ParseColor(scene.Background, white)
	s.Fill(RectPath(0, 0, scene.CanvasSize.Width, scene.CanvasSize.Height), bg)
}

func paintGrid(s Surface, size domain.Size, cell, zoom float64) {
	p := &Path{}
	for x := cell; x < size.Width; x += cell {
		p.MoveTo(x, 0).LineTo(x, size.Height)
	}
	for y := cell; y < size.Height; y += cell {
		p.MoveTo(0, y).LineTo(size.Width, y)
	}
	if !p.Empty() {
		s.Stroke(p, gridColor, 1/zoom, nil)
	}
}

func paintSelection(s Surface, el *domain.Element, zoom float64) {
	pad := 2 / zoom
	box := RectPath(el.X-pad, el.Y-pad, el.Width+2*pad, el.Height+2*pad)
	s.Stroke(box, selectionColor, 2/zoom, []float64{5 / zoom, 5 / zoom})
}

// PaintElement paints one element in its own state scope. scale is the
// device scale of the current user space. Shadow blur and offsets are scene
// units; the surface applies them in device space, so they are multiplied by
// scale here. A panic in a type painter is logged and the element skipped.
func (r *Renderer) PaintElement(s Surface, el *domain.Element, scale float64) {
	s.Save()
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[RENDER] skip element %s: %v", el.ID, rec)
		}
		s.Restore()
	}()

	w, h := el.Width, el.Height
	s.Translate(el.X+w/2, el.Y+h/2)
	if el.Rotation != 0 {
		s.Rotate(el.Rotation)
	}
	if sx, sy := el.Flip(); sx != 1 || sy != 1 {
		s.Scale(sx, sy)
	}
	s.Translate(-w/2, -h/2)

	if sh := el.Shadow; sh != nil {
		s.SetShadow(&ShadowSpec{
			Color:   ParseColor(sh.Color, color.NRGBA{A: 0x40}),
			Blur:    sh.Blur * scale,
			OffsetX: sh.OffsetX * scale,
			OffsetY: sh.OffsetY * scale,
		})
	}
	switch el.Type {
	case domain.ElementText:
		s.SetAlpha(el.Alpha())
		paintText(s, el)
	case domain.ElementImage:
		s.SetAlpha(el.Alpha())
		r.paintImage(s, el)
	case domain.ElementShape:
		// Fill and stroke share one opacity pass.
		s.BeginLayer(el.Alpha())
		defer s.EndLayer()
		paintShape(s, el)
	}
}

// Font returns the face spec for a text element.
func Font(t *domain.TextProps) FontSpec {
	return FontSpec{
		Family: t.FontFamily,
		Size:   t.FontSize,
		Bold:   isBold(t.FontWeight),
		Italic: strings.EqualFold(t.FontStyle, "italic") || strings.EqualFold(t.FontStyle, "oblique"),
	}
}

func isBold(weight string) bool {
	switch strings.ToLower(weight) {
	case "bold", "bolder":
		return true
	}
	n, err := strconv.Atoi(weight)
	return err == nil && n >= 600
}

// Lines splits element text into painted lines.
func Lines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}

func paintText(s Surface, el *domain.Element) {
	t := el.Text
	if t == nil || t.FontSize <= 0 {
		return
	}
	f := Font(t)
	c := ParseColor(t.Color, defaultTextColor)
	for i, line := range Lines(t.Text) {
		if line == "" {
			continue
		}
		x := 0.0
		switch t.TextAlign {
		case "center":
			x = (el.Width - s.MeasureText(line, f)) / 2
		case "right":
			x = el.Width - s.MeasureText(line, f)
		}
		s.DrawText(line, x, float64(i)*t.FontSize*LineHeight, f, c)
	}
}

func (r *Renderer) paintImage(s Surface, el *domain.Element) {
	if r.Images != nil && el.Image != nil {
		if img, ok := r.Images.Image(el.ID, el.Image.Src); ok {
			s.DrawImage(img, 0, 0, el.Width, el.Height)
			return
		}
	}
	paintPlaceholder(s, el.Width, el.Height)
}

// paintPlaceholder draws a grey box with a picture icon in the middle.
func paintPlaceholder(s Surface, w, h float64) {
	s.Fill(RectPath(0, 0, w, h), placeholderFill)
	s.Stroke(RectPath(0, 0, w, h), placeholderInk, 1, []float64{4, 4})

	icon := min(w, h) * 0.3
	if icon < 4 {
		return
	}
	x, y := (w-icon)/2, (h-icon)/2
	s.Stroke(RoundedRectPath(x, y, icon, icon, icon*0.1), placeholderInk, max(1, icon/16), nil)
	s.Fill(EllipsePath(x+icon*0.6, y+icon*0.2, icon*0.2, icon*0.2), placeholderInk)
	s.Fill(PolygonPath([][2]float64{
		{x + icon*0.1, y + icon*0.85},
		{x + icon*0.4, y + icon*0.45},
		{x + icon*0.6, y + icon*0.7},
		{x + icon*0.7, y + icon*0.6},
		{x + icon*0.9, y + icon*0.85},
	}), placeholderInk)
}

func paintShape(s Surface, el *domain.Element) {
	sp := el.Shape
	if sp == nil {
		return
	}
	o := ShapeOutline(sp.ShapeType, el.Width, el.Height)
	if !o.Line {
		s.Fill(o.Path, ParseColor(sp.FillColor, color.NRGBA{}))
	}
	if sp.StrokeWidth <= 0 {
		return
	}
	stroke := sp.StrokeColor
	if o.Line && stroke == "" {
		stroke = sp.FillColor
	}
	var dashes []float64
	for _, d := range o.Dashes {
		dashes = append(dashes, d*sp.StrokeWidth)
	}
	s.Stroke(o.Path, ParseColor(stroke, color.NRGBA{}), sp.StrokeWidth, dashes)
}
