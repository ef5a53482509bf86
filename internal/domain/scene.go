package domain

import (
	"fmt"
	"math"
	"sort"
)

const (
	DefaultCanvasWidth  = 800
	DefaultCanvasHeight = 600
	DefaultBackground   = "#ffffff"

	// MaxCanvasSide and MaxCanvasPixels bound the canvas in scene units. The
	// pixel budget is shared with raster export and the live canvas.
	MaxCanvasSide   = 16384
	MaxCanvasPixels = 128 << 20
)

// Fits reports whether s is a finite canvas size within the canvas bounds.
// Zero sizes fit; callers substitute defaults for them.
func (s Size) Fits() bool {
	if math.IsNaN(s.Width) || math.IsNaN(s.Height) || s.Width < 0 || s.Height < 0 {
		return false
	}
	return s.Width <= MaxCanvasSide && s.Height <= MaxCanvasSide &&
		s.Width*s.Height <= MaxCanvasPixels
}

// Scene is the aggregate being edited: the element collection plus
// canvas-level settings. Order in Elements is insertion order; ZIndex
// governs paint order.
type Scene struct {
	Elements   []Element `json:"elements"`
	CanvasSize Size      `json:"canvasSize"`
	Background string    `json:"canvasBackground"`

	// Linkage metadata, passed through to persistence untouched.
	ProductID  string `json:"productId,omitempty"`
	VariantID  string `json:"variantId,omitempty"`
	TemplateID string `json:"templateId,omitempty"`
}

// NewScene returns an empty scene with the default canvas.
func NewScene() *Scene {
	return &Scene{
		Elements:   []Element{},
		CanvasSize: Size{Width: DefaultCanvasWidth, Height: DefaultCanvasHeight},
		Background: DefaultBackground,
	}
}

// Clone deep-copies the scene.
func (s *Scene) Clone() *Scene {
	c := *s
	c.Elements = CloneElements(s.Elements)
	if c.Elements == nil {
		c.Elements = []Element{}
	}
	return &c
}

// Find returns the index of the element with id, or -1.
func (s *Scene) Find(id string) int {
	for i := range s.Elements {
		if s.Elements[i].ID == id {
			return i
		}
	}
	return -1
}

// Get returns a pointer into Elements for id, or nil.
func (s *Scene) Get(id string) *Element {
	if i := s.Find(id); i >= 0 {
		return &s.Elements[i]
	}
	return nil
}

// MaxZIndex returns the highest zIndex, or -1 for an empty scene.
func (s *Scene) MaxZIndex() int {
	hi := -1
	for i := range s.Elements {
		if i == 0 || s.Elements[i].ZIndex > hi {
			hi = s.Elements[i].ZIndex
		}
	}
	return hi
}

// MinZIndex returns the lowest zIndex, or 0 for an empty scene.
func (s *Scene) MinZIndex() int {
	lo := 0
	for i := range s.Elements {
		if i == 0 || s.Elements[i].ZIndex < lo {
			lo = s.Elements[i].ZIndex
		}
	}
	return lo
}

// PaintOrder returns the elements sorted bottom to top. Ties keep insertion order.
func PaintOrder(elements []Element) []*Element {
	out := make([]*Element, len(elements))
	for i := range elements {
		out[i] = &elements[i]
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].ZIndex < out[b].ZIndex
	})
	return out
}

// Validate checks the canvas bounds and every element, and rejects
// duplicate ids.
func (s *Scene) Validate() error {
	if !s.CanvasSize.Fits() {
		return fmt.Errorf("%w: %vx%v", ErrCanvasTooLarge, s.CanvasSize.Width, s.CanvasSize.Height)
	}
	seen := make(map[string]bool, len(s.Elements))
	for i := range s.Elements {
		if err := s.Elements[i].Validate(); err != nil {
			return err
		}
		if seen[s.Elements[i].ID] {
			return invalid("duplicate element id %s", s.Elements[i].ID)
		}
		seen[s.Elements[i].ID] = true
	}
	return nil
}
