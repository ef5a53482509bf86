package render_test

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"

	"designer/internal/domain"
	"designer/internal/render"
)

func rect(id string, x, y, w, h float64, z int, fill string) domain.Element {
	return domain.Element{
		ID:       id,
		Type:     domain.ElementShape,
		Geometry: domain.Geometry{X: x, Y: y, Width: w, Height: h, ScaleX: 1, ScaleY: 1, ZIndex: z},
		Shape:    &domain.ShapeProps{ShapeType: domain.ShapeRectangle, FillColor: fill},
	}
}

func text(id, s string, z int) domain.Element {
	return domain.Element{
		ID:       id,
		Type:     domain.ElementText,
		Geometry: domain.Geometry{X: 10, Y: 10, Width: 200, Height: 50, ZIndex: z},
		Text:     &domain.TextProps{Text: s, FontSize: 20, FontFamily: "Arial", Color: "#000000"},
	}
}

func scene(els ...domain.Element) *domain.Scene {
	sc := domain.NewScene()
	sc.CanvasSize = domain.Size{Width: 100, Height: 100}
	sc.Elements = els
	return sc
}

func rgbaAt(s *render.GGSurface, x, y int) color.RGBA {
	return s.Image().RGBAAt(x, y)
}

func TestHigherZIndexPaintsOnTop(t *testing.T) {
	// Insertion order is the reverse of z order.
	sc := scene(
		rect("blue", 0, 0, 20, 20, 1, "#0000ff"),
		rect("red", 0, 0, 20, 20, 0, "#ff0000"),
	)
	s := render.NewGGSurface(100, 100)
	render.NewRenderer(nil).PaintScene(s, sc, 1, true)

	if got := rgbaAt(s, 10, 10); got != (color.RGBA{B: 255, A: 255}) {
		t.Errorf("overlap pixel = %v, want blue", got)
	}
	if got := rgbaAt(s, 50, 50); got != (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("background pixel = %v, want white", got)
	}
}

func TestEqualZIndexKeepsInsertionOrder(t *testing.T) {
	sc := scene(
		rect("first", 0, 0, 20, 20, 0, "#ff0000"),
		rect("second", 0, 0, 20, 20, 0, "#00ff00"),
	)
	s := render.NewGGSurface(100, 100)
	render.NewRenderer(nil).PaintScene(s, sc, 1, false)
	if got := rgbaAt(s, 10, 10); got != (color.RGBA{G: 255, A: 255}) {
		t.Errorf("pixel = %v, want the later element", got)
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	sc := scene(
		rect("a", 5, 5, 40, 30, 0, "#ff8800"),
		text("t", "hello\nworld", 1),
	)
	sc.Elements[0].Rotation = 30
	sc.Elements[0].Shadow = &domain.Shadow{Color: "rgba(0,0,0,0.5)", Blur: 4, OffsetX: 3, OffsetY: 3}
	view := render.DefaultViewState()
	view.ShowGrid = true

	paint := func() []byte {
		s := render.NewGGSurface(100, 100)
		render.NewRenderer(nil).Render(s, sc, map[string]bool{"a": true}, view)
		return s.Image().Pix
	}
	if !bytes.Equal(paint(), paint()) {
		t.Error("two renders of the same state differ")
	}
}

func TestRecorderCallOrder(t *testing.T) {
	sc := scene(
		text("top", "one\ntwo", 2),
		rect("bottom", 0, 0, 10, 10, 0, "#ff0000"),
	)
	rec := render.NewRecorder(100, 100)
	render.NewRenderer(nil).Render(rec, sc, nil, render.DefaultViewState())

	trace := rec.Trace()
	fillAt := strings.Index(trace, "fill(#ff0000")
	textAt := strings.Index(trace, "text(one@")
	if fillAt < 0 || textAt < 0 || fillAt > textAt {
		t.Fatalf("unexpected call order:\n%s", trace)
	}
	if got := strings.Join(rec.Texts(), "|"); got != "one|two" {
		t.Errorf("texts = %q", got)
	}
	if !strings.Contains(trace, "text(two@0,24)") {
		t.Errorf("second line should sit at 1.2 line height:\n%s", trace)
	}
}

func TestSaveRestoreBalanced(t *testing.T) {
	sc := scene(rect("a", 0, 0, 10, 10, 0, "#ff0000"), text("b", "x", 1))
	rec := render.NewRecorder(100, 100)
	render.NewRenderer(nil).Render(rec, sc, map[string]bool{"a": true}, render.DefaultViewState())
	depth := 0
	for _, op := range rec.Ops() {
		switch op {
		case "save":
			depth++
		case "restore":
			depth--
		}
		if depth < 0 {
			t.Fatal("restore without save")
		}
	}
	if depth != 0 {
		t.Errorf("unbalanced save/restore: %d", depth)
	}
}

func TestSelectionOutlineHiddenWhenReadOnly(t *testing.T) {
	sc := scene(rect("a", 0, 0, 10, 10, 0, "#ff0000"))
	sel := map[string]bool{"a": true}

	rec := render.NewRecorder(100, 100)
	render.NewRenderer(nil).Render(rec, sc, sel, render.DefaultViewState())
	if !strings.Contains(rec.Trace(), "stroke(#3b82f6") {
		t.Error("selected element should get an outline")
	}

	rec = render.NewRecorder(100, 100)
	view := render.DefaultViewState()
	view.ReadOnly = true
	render.NewRenderer(nil).Render(rec, sc, sel, view)
	if strings.Contains(rec.Trace(), "stroke(#3b82f6") {
		t.Error("read-only view must not paint selection")
	}
}

func TestImagePlaceholderUntilLoaded(t *testing.T) {
	el := domain.Element{
		ID:       "img",
		Type:     domain.ElementImage,
		Geometry: domain.Geometry{Width: 50, Height: 40},
		Image:    &domain.ImageProps{Src: "https://example.invalid/a.png"},
	}
	sc := scene(el)

	rec := render.NewRecorder(100, 100)
	render.NewRenderer(render.StaticImages{}).Render(rec, sc, nil, render.DefaultViewState())
	if strings.Contains(rec.Trace(), "image(") {
		t.Error("unloaded image should paint a placeholder")
	}

	rec = render.NewRecorder(100, 100)
	images := render.StaticImages{"img": image.NewRGBA(image.Rect(0, 0, 4, 4))}
	render.NewRenderer(images).Render(rec, sc, nil, render.DefaultViewState())
	if !strings.Contains(rec.Trace(), "image(0,0,50,40)") {
		t.Errorf("loaded image not drawn:\n%s", rec.Trace())
	}
}

type panicImages struct{}

func (panicImages) Image(string, string) (image.Image, bool) { panic("boom") }

func TestPainterPanicSkipsElement(t *testing.T) {
	sc := scene(
		domain.Element{
			ID: "bad", Type: domain.ElementImage,
			Geometry: domain.Geometry{Width: 10, Height: 10},
			Image:    &domain.ImageProps{Src: "x"},
		},
		rect("good", 0, 0, 10, 10, 1, "#ff0000"),
	)
	rec := render.NewRecorder(100, 100)
	render.NewRenderer(panicImages{}).Render(rec, sc, nil, render.DefaultViewState())
	if !strings.Contains(rec.Trace(), "fill(#ff0000") {
		t.Error("elements after a panicking painter should still paint")
	}
}

func TestEveryShapeHasAnOutline(t *testing.T) {
	for _, st := range domain.ShapeTypes {
		o := render.ShapeOutline(st, 100, 80)
		if o.Path == nil || o.Path.Empty() {
			t.Errorf("%s: empty outline", st)
		}
		if o.Line != st.IsLine() {
			t.Errorf("%s: line = %v", st, o.Line)
		}
	}
}

func TestRotatedTextStaysInBounds(t *testing.T) {
	el := text("t", "Hi", 0)
	el.X, el.Y, el.Width, el.Height = 30, 30, 40, 30
	el.Rotation = 90
	s := render.NewGGSurface(100, 100)
	render.NewRenderer(nil).PaintScene(s, scene(el), 1, false)

	ink := 0
	b := s.Image().Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if s.Image().RGBAAt(x, y).A > 0 {
				ink++
			}
		}
	}
	if ink == 0 {
		t.Error("rotated text painted nothing")
	}
}

func TestThreeElementPaintOrder(t *testing.T) {
	sc := scene(
		rect("z3", 0, 0, 30, 30, 3, "#0000ff"),
		rect("z1", 0, 0, 30, 30, 1, "#ff0000"),
		rect("z2", 0, 0, 30, 30, 2, "#00ff00"),
	)

	rec := render.NewRecorder(100, 100)
	render.NewRenderer(nil).PaintScene(rec, sc, 1, false)
	trace := rec.Trace()
	red := strings.Index(trace, "fill(#ff0000")
	green := strings.Index(trace, "fill(#00ff00")
	blue := strings.Index(trace, "fill(#0000ff")
	if red < 0 || green < 0 || blue < 0 || !(red < green && green < blue) {
		t.Fatalf("paint order should be z1, z2, z3:\n%s", trace)
	}

	s := render.NewGGSurface(100, 100)
	render.NewRenderer(nil).PaintScene(s, sc, 1, true)
	if got := rgbaAt(s, 15, 15); got != (color.RGBA{B: 255, A: 255}) {
		t.Errorf("overlap pixel = %v, want the zIndex 3 fill", got)
	}
}

func TestSelectionOutlineFollowsItsElement(t *testing.T) {
	sc := scene(
		rect("under", 10, 10, 20, 20, 0, "#ff0000"),
		rect("over", 0, 0, 60, 60, 1, "#00ff00"),
	)
	rec := render.NewRecorder(100, 100)
	render.NewRenderer(nil).Render(rec, sc, map[string]bool{"under": true}, render.DefaultViewState())
	trace := rec.Trace()
	outline := strings.Index(trace, "stroke(#3b82f6")
	over := strings.Index(trace, "fill(#00ff00")
	if outline < 0 || over < 0 || outline > over {
		t.Fatalf("outline of a covered element should be painted before the element above it:\n%s", trace)
	}

	s := render.NewGGSurface(100, 100)
	render.NewRenderer(nil).Render(s, sc, map[string]bool{"under": true}, render.DefaultViewState())
	for y := 8; y <= 32; y++ {
		if got := rgbaAt(s, 31, y); got != (color.RGBA{G: 255, A: 255}) {
			t.Fatalf("pixel (31,%d) = %v, want the covering fill", y, got)
		}
	}
}

func TestShapeOpacityAppliedOnce(t *testing.T) {
	half := 0.5
	el := domain.Element{
		ID:       "a",
		Type:     domain.ElementShape,
		Geometry: domain.Geometry{X: 10, Y: 10, Width: 40, Height: 40, ScaleX: 1, ScaleY: 1},
		Opacity:  &half,
		Shape: &domain.ShapeProps{
			ShapeType:   domain.ShapeRectangle,
			FillColor:   "#ff0000",
			StrokeColor: "#ff0000",
			StrokeWidth: 10,
		},
	}
	s := render.NewGGSurface(100, 100)
	render.NewRenderer(nil).PaintScene(s, scene(el), 1, true)

	overlap := rgbaAt(s, 12, 30) // fill and stroke
	fillOnly := rgbaAt(s, 30, 30)
	if overlap != fillOnly {
		t.Errorf("overlap %v differs from fill-only %v; opacity applied per primitive", overlap, fillOnly)
	}
	if fillOnly.R != 255 || fillOnly.G < 120 || fillOnly.G > 135 {
		t.Errorf("fill-only pixel = %v, want red at half opacity over white", fillOnly)
	}

	rec := render.NewRecorder(100, 100)
	render.NewRenderer(nil).PaintScene(rec, scene(el), 1, true)
	ops := strings.Join(rec.Ops(), " ")
	if !strings.Contains(ops, "layer fill stroke endlayer") {
		t.Errorf("shape should paint inside one layer: %s", ops)
	}
}
