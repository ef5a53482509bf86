package render

import (
	"image/color"
	"testing"
)

func TestParseColor(t *testing.T) {
	fallback := color.NRGBA{R: 1, G: 2, B: 3, A: 4}
	tests := []struct {
		in   string
		want color.NRGBA
	}{
		{"#ff0000", color.NRGBA{R: 255, A: 255}},
		{"#0f0", color.NRGBA{G: 255, A: 255}},
		{"#0000ff80", color.NRGBA{B: 255, A: 128}},
		{"rgb(10, 20, 30)", color.NRGBA{R: 10, G: 20, B: 30, A: 255}},
		{"rgba(0,0,0,0.5)", color.NRGBA{A: 128}},
		{"transparent", color.NRGBA{}},
		{"  #FFFFFF ", color.NRGBA{R: 255, G: 255, B: 255, A: 255}},
		{"", fallback},
		{"#12", fallback},
		{"hsl(1,2,3)", fallback},
	}
	for _, tt := range tests {
		if got := ParseColor(tt.in, fallback); got != tt.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestHex(t *testing.T) {
	if got := Hex(color.NRGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 0xff}); got != "#3b82f6" {
		t.Errorf("Hex = %s", got)
	}
	if got := Hex(color.NRGBA{A: 0x80}); got != "#00000080" {
		t.Errorf("Hex = %s", got)
	}
}

func TestAffineRotateThenTranslate(t *testing.T) {
	s := NewGGSurface(10, 10)
	s.Translate(5, 5)
	s.Rotate(90)
	x, y := s.st.m.apply(1, 0)
	if abs(x-5) > 1e-9 || abs(y-6) > 1e-9 {
		t.Errorf("apply(1,0) = (%g,%g), want (5,6)", x, y)
	}
	s.Save()
	s.Scale(2, 2)
	if k := s.st.m.scale(); abs(k-2) > 1e-9 {
		t.Errorf("scale = %g", k)
	}
	s.Restore()
	if k := s.st.m.scale(); abs(k-1) > 1e-9 {
		t.Errorf("scale after restore = %g", k)
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
