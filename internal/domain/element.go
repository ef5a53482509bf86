package domain

import "math"

// MaxFontSize is the largest text size, in points, an element may carry.
const MaxFontSize = 1000.0

type ElementType string

const (
	ElementText  ElementType = "text"
	ElementImage ElementType = "image"
	ElementShape ElementType = "shape"
)

// Valid reports whether t is one of the known element types.
func (t ElementType) Valid() bool {
	switch t {
	case ElementText, ElementImage, ElementShape:
		return true
	}
	return false
}

type ShapeType string

const (
	ShapeRectangle        ShapeType = "rectangle"
	ShapeSquare           ShapeType = "square"
	ShapeRoundedRectangle ShapeType = "rounded-rectangle"
	ShapeCircle           ShapeType = "circle"
	ShapeEllipse          ShapeType = "ellipse"
	ShapeTriangle         ShapeType = "triangle"
	ShapeRightTriangle    ShapeType = "right-triangle"
	ShapeInvertedTriangle ShapeType = "inverted-triangle"
	ShapePentagon         ShapeType = "pentagon"
	ShapeHexagon          ShapeType = "hexagon"
	ShapeOctagon          ShapeType = "octagon"
	ShapeArrowRight       ShapeType = "arrow-right"
	ShapeArrowLeft        ShapeType = "arrow-left"
	ShapeArrowUp          ShapeType = "arrow-up"
	ShapeArrowDown        ShapeType = "arrow-down"
	ShapeStar             ShapeType = "star"
	ShapeHeart            ShapeType = "heart"
	ShapeDiamond          ShapeType = "diamond"
	ShapeLine             ShapeType = "line"
	ShapeDashedLine       ShapeType = "dashed-line"
	ShapeDottedLine       ShapeType = "dotted-line"
)

// ShapeTypes lists every supported shape in catalogue order.
var ShapeTypes = []ShapeType{
	ShapeRectangle, ShapeSquare, ShapeRoundedRectangle,
	ShapeCircle, ShapeEllipse,
	ShapeTriangle, ShapeRightTriangle, ShapeInvertedTriangle,
	ShapePentagon, ShapeHexagon, ShapeOctagon,
	ShapeArrowRight, ShapeArrowLeft, ShapeArrowUp, ShapeArrowDown,
	ShapeStar, ShapeHeart, ShapeDiamond,
	ShapeLine, ShapeDashedLine, ShapeDottedLine,
}

func (s ShapeType) Valid() bool {
	for _, t := range ShapeTypes {
		if t == s {
			return true
		}
	}
	return false
}

// IsLine reports whether the shape is drawn as a stroke only.
func (s ShapeType) IsLine() bool {
	return s == ShapeLine || s == ShapeDashedLine || s == ShapeDottedLine
}

// Geometry is the envelope shared by every element type.
// Rotation is in degrees, clockwise, about the element's own centre.
type Geometry struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
	ScaleX   float64 `json:"scaleX,omitempty"`
	ScaleY   float64 `json:"scaleY,omitempty"`
	ZIndex   int     `json:"zIndex"`
}

// Bounds returns the axis-aligned bounding box, ignoring rotation.
func (g Geometry) Bounds() Rect {
	return Rect{X: g.X, Y: g.Y, W: g.Width, H: g.Height}
}

// Flip returns the effective per-axis scale; zero means unset and reads as 1.
func (g Geometry) Flip() (sx, sy float64) {
	sx, sy = g.ScaleX, g.ScaleY
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	return sx, sy
}

type Shadow struct {
	Color   string  `json:"color"`
	Blur    float64 `json:"blur"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

type TextProps struct {
	Text       string  `json:"text"`
	FontSize   float64 `json:"fontSize"`
	FontFamily string  `json:"fontFamily"`
	FontWeight string  `json:"fontWeight"`
	FontStyle  string  `json:"fontStyle"`
	TextAlign  string  `json:"textAlign"`
	Color      string  `json:"color"`
}

type ImageProps struct {
	Src string `json:"imageData"`
}

type ShapeProps struct {
	ShapeType   ShapeType `json:"shapeType"`
	FillColor   string    `json:"fillColor"`
	StrokeColor string    `json:"strokeColor"`
	StrokeWidth float64   `json:"strokeWidth"`
}

// Element is a single visual object on a scene. Exactly one of Text, Image
// or Shape is set, matching Type.
type Element struct {
	ID   string      `json:"id"`
	Type ElementType `json:"type"`
	Geometry
	Opacity *float64 `json:"opacity,omitempty"`
	Shadow  *Shadow  `json:"shadow,omitempty"`

	Text  *TextProps  `json:"textProps,omitempty"`
	Image *ImageProps `json:"imageProps,omitempty"`
	Shape *ShapeProps `json:"shapeProps,omitempty"`
}

// Alpha returns the element opacity, defaulting to 1.
func (e *Element) Alpha() float64 {
	if e.Opacity == nil {
		return 1
	}
	return clamp01(*e.Opacity)
}

// Validate checks the tagged-union invariant.
func (e *Element) Validate() error {
	if e.ID == "" {
		return invalid("missing id")
	}
	switch e.Type {
	case ElementText:
		if e.Text == nil {
			return invalid("text element %s has no text props", e.ID)
		}
		if fs := e.Text.FontSize; math.IsNaN(fs) || fs > MaxFontSize {
			return invalid("text element %s has font size %v above %v", e.ID, fs, MaxFontSize)
		}
	case ElementImage:
		if e.Image == nil {
			return invalid("image element %s has no image props", e.ID)
		}
	case ElementShape:
		if e.Shape == nil {
			return invalid("shape element %s has no shape props", e.ID)
		}
		if !e.Shape.ShapeType.Valid() {
			return invalid("shape element %s has unknown shape %q", e.ID, e.Shape.ShapeType)
		}
	default:
		return invalid("element %s has unknown type %q", e.ID, e.Type)
	}
	if e.Width < 0 || e.Height < 0 {
		return invalid("element %s has negative size", e.ID)
	}
	return nil
}

// Clone returns a deep copy; payload pointers are never shared.
func (e Element) Clone() Element {
	c := e
	if e.Opacity != nil {
		o := *e.Opacity
		c.Opacity = &o
	}
	if e.Shadow != nil {
		s := *e.Shadow
		c.Shadow = &s
	}
	if e.Text != nil {
		t := *e.Text
		c.Text = &t
	}
	if e.Image != nil {
		i := *e.Image
		c.Image = &i
	}
	if e.Shape != nil {
		s := *e.Shape
		c.Shape = &s
	}
	return c
}

// CloneElements deep-copies a slice of elements.
func CloneElements(in []Element) []Element {
	if in == nil {
		return nil
	}
	out := make([]Element, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
