package editor

import (
	"math"

	"designer/internal/domain"
)

// Patch is a partial set of element attributes. Nil fields are left alone.
// Fields that belong to another element type are ignored.
type Patch struct {
	X        *float64 `json:"x,omitempty"`
	Y        *float64 `json:"y,omitempty"`
	Width    *float64 `json:"width,omitempty"`
	Height   *float64 `json:"height,omitempty"`
	Rotation *float64 `json:"rotation,omitempty"`
	ScaleX   *float64 `json:"scaleX,omitempty"`
	ScaleY   *float64 `json:"scaleY,omitempty"`
	ZIndex   *int     `json:"zIndex,omitempty"`

	Opacity     *float64       `json:"opacity,omitempty"`
	Shadow      *domain.Shadow `json:"shadow,omitempty"`
	ClearShadow bool           `json:"clearShadow,omitempty"`

	Text       *string  `json:"text,omitempty"`
	FontSize   *float64 `json:"fontSize,omitempty"`
	FontFamily *string  `json:"fontFamily,omitempty"`
	FontWeight *string  `json:"fontWeight,omitempty"`
	FontStyle  *string  `json:"fontStyle,omitempty"`
	TextAlign  *string  `json:"textAlign,omitempty"`
	Color      *string  `json:"color,omitempty"`

	Src *string `json:"imageData,omitempty"`

	ShapeType   *domain.ShapeType `json:"shapeType,omitempty"`
	FillColor   *string           `json:"fillColor,omitempty"`
	StrokeColor *string           `json:"strokeColor,omitempty"`
	StrokeWidth *float64          `json:"strokeWidth,omitempty"`
}

// Update targets one element with a patch.
type Update struct {
	ID    string `json:"id"`
	Patch Patch  `json:"patch"`
}

// F and I build pointer values for patches.
func F(v float64) *float64 { return &v }
func I(v int) *int         { return &v }
func S(v string) *string   { return &v }

// Apply merges p into e. Malformed numbers (NaN, Inf) are dropped and sizes
// are clamped, so Apply never fails. The id and type are never touched.
func (p Patch) Apply(e *domain.Element) {
	setFinite(&e.X, p.X)
	setFinite(&e.Y, p.Y)
	if setFinite(&e.Width, p.Width) && e.Width < 0 {
		e.Width = 0
	}
	if setFinite(&e.Height, p.Height) && e.Height < 0 {
		e.Height = 0
	}
	setFinite(&e.Rotation, p.Rotation)
	setFinite(&e.ScaleX, p.ScaleX)
	setFinite(&e.ScaleY, p.ScaleY)
	if p.ZIndex != nil {
		e.ZIndex = *p.ZIndex
	}
	if p.Opacity != nil && finite(*p.Opacity) {
		o := math.Max(0, math.Min(1, *p.Opacity))
		e.Opacity = &o
	}
	if p.ClearShadow {
		e.Shadow = nil
	} else if p.Shadow != nil {
		s := *p.Shadow
		e.Shadow = &s
	}

	switch e.Type {
	case domain.ElementText:
		if e.Text == nil {
			e.Text = &domain.TextProps{}
		}
		setString(&e.Text.Text, p.Text)
		if p.FontSize != nil && finite(*p.FontSize) && *p.FontSize > 0 {
			e.Text.FontSize = math.Min(*p.FontSize, domain.MaxFontSize)
		}
		setString(&e.Text.FontFamily, p.FontFamily)
		setString(&e.Text.FontWeight, p.FontWeight)
		setString(&e.Text.FontStyle, p.FontStyle)
		setString(&e.Text.TextAlign, p.TextAlign)
		setString(&e.Text.Color, p.Color)
	case domain.ElementImage:
		if e.Image == nil {
			e.Image = &domain.ImageProps{}
		}
		setString(&e.Image.Src, p.Src)
	case domain.ElementShape:
		if e.Shape == nil {
			e.Shape = &domain.ShapeProps{ShapeType: domain.ShapeRectangle}
		}
		if p.ShapeType != nil && p.ShapeType.Valid() {
			e.Shape.ShapeType = *p.ShapeType
		}
		setString(&e.Shape.FillColor, p.FillColor)
		setString(&e.Shape.StrokeColor, p.StrokeColor)
		if p.StrokeWidth != nil && finite(*p.StrokeWidth) && *p.StrokeWidth >= 0 {
			e.Shape.StrokeWidth = *p.StrokeWidth
		}
	}
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p == Patch{}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func setFinite(dst *float64, v *float64) bool {
	if v == nil || !finite(*v) {
		return false
	}
	*dst = *v
	return true
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
