package render

import (
	"image/color"
	"strconv"
	"strings"
)

// ParseColor accepts #rgb, #rgba, #rrggbb, #rrggbbaa, rgb(), rgba() and
// "transparent". Anything else yields fallback.
func ParseColor(s string, fallback color.NRGBA) color.NRGBA {
	c, ok := parseColor(s)
	if !ok {
		return fallback
	}
	return c
}

func parseColor(s string) (color.NRGBA, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch {
	case s == "":
		return color.NRGBA{}, false
	case s == "transparent" || s == "none":
		return color.NRGBA{}, true
	case s == "black":
		return color.NRGBA{A: 255}, true
	case s == "white":
		return color.NRGBA{R: 255, G: 255, B: 255, A: 255}, true
	case strings.HasPrefix(s, "#"):
		return parseHex(s[1:])
	case strings.HasPrefix(s, "rgb"):
		return parseFunc(s)
	}
	return color.NRGBA{}, false
}

func parseHex(h string) (color.NRGBA, bool) {
	if len(h) == 3 || len(h) == 4 {
		var b strings.Builder
		for _, r := range h {
			b.WriteRune(r)
			b.WriteRune(r)
		}
		h = b.String()
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return color.NRGBA{}, false
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, false
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, true
}

func parseFunc(s string) (color.NRGBA, bool) {
	open, end := strings.IndexByte(s, '('), strings.LastIndexByte(s, ')')
	if open < 0 || end < open {
		return color.NRGBA{}, false
	}
	parts := strings.Split(s[open+1:end], ",")
	if len(parts) != 3 && len(parts) != 4 {
		return color.NRGBA{}, false
	}
	var ch [3]uint8
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			return color.NRGBA{}, false
		}
		ch[i] = uint8(clampF(v, 0, 255) + 0.5)
	}
	a := 1.0
	if len(parts) == 4 {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil {
			return color.NRGBA{}, false
		}
		a = clampF(v, 0, 1)
	}
	return color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: uint8(a*255 + 0.5)}, true
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Hex formats c as #rrggbb, or #rrggbbaa when not opaque.
func Hex(c color.NRGBA) string {
	if c.A == 255 {
		return "#" + hex2(c.R) + hex2(c.G) + hex2(c.B)
	}
	return "#" + hex2(c.R) + hex2(c.G) + hex2(c.B) + hex2(c.A)
}

func hex2(v uint8) string {
	const digits = "0123456789abcdef"
	return string([]byte{digits[v>>4], digits[v&0x0f]})
}
