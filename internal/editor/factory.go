package editor

import (
	"github.com/google/uuid"

	"designer/internal/domain"
)

// DuplicateOffset is how far a duplicate is shifted from its source.
const DuplicateOffset = 20.0

// ToolSettings are the currently configured defaults applied to new elements.
type ToolSettings struct {
	Text  domain.TextProps  `json:"text"`
	Shape domain.ShapeProps `json:"shape"`
}

// DefaultToolSettings mirrors the editor's initial toolbar state.
func DefaultToolSettings() ToolSettings {
	return ToolSettings{
		Text: domain.TextProps{
			Text:       "Your text",
			FontSize:   24,
			FontFamily: "Arial",
			FontWeight: "normal",
			FontStyle:  "normal",
			TextAlign:  "left",
			Color:      "#000000",
		},
		Shape: domain.ShapeProps{
			ShapeType:   domain.ShapeRectangle,
			FillColor:   "#3b82f6",
			StrokeColor: "#1e40af",
			StrokeWidth: 2,
		},
	}
}

// DefaultSize returns the initial width and height for a new element.
func DefaultSize(t domain.ElementType, shape domain.ShapeType) (float64, float64) {
	switch t {
	case domain.ElementText:
		return 200, 50
	case domain.ElementImage:
		return 200, 200
	}
	if shape.IsLine() {
		return 150, 4
	}
	return 100, 100
}

func newID() string {
	return uuid.New().String()
}

// NewElement builds a well-formed element of type t at (x, y) with the
// payload taken from settings. The caller assigns ZIndex.
func NewElement(t domain.ElementType, x, y float64, settings ToolSettings) (domain.Element, error) {
	if !t.Valid() {
		return domain.Element{}, domain.ErrInvalidElement
	}
	w, h := DefaultSize(t, settings.Shape.ShapeType)
	el := domain.Element{
		ID:       newID(),
		Type:     t,
		Geometry: domain.Geometry{X: x, Y: y, Width: w, Height: h, ScaleX: 1, ScaleY: 1},
	}
	switch t {
	case domain.ElementText:
		tp := settings.Text
		el.Text = &tp
	case domain.ElementImage:
		el.Image = &domain.ImageProps{}
	case domain.ElementShape:
		sp := settings.Shape
		if !sp.ShapeType.Valid() {
			sp.ShapeType = domain.ShapeRectangle
		}
		el.Shape = &sp
	}
	return el, nil
}
