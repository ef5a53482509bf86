package export

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"strconv"
	"strings"

	"designer/internal/domain"
	"designer/internal/render"
)

// RenderSVG writes scene as an SVG document. Shapes without an SVG
// primitive (heart) are left out.
func RenderSVG(scene *domain.Scene, opts Options) []byte {
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}
	cw, ch := scene.CanvasSize.Width, scene.CanvasSize.Height

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="%s" height="%s" viewBox="0 0 %s %s">`,
		formatFloat(cw*scale), formatFloat(ch*scale), formatFloat(cw), formatFloat(ch)))
	b.WriteString("\n")

	if opts.IncludeBackground {
		bg := scene.Background
		if bg == "" {
			bg = domain.DefaultBackground
		}
		b.WriteString(fmt.Sprintf(`  <rect x="0" y="0" width="%s" height="%s" fill="%s" />`,
			formatFloat(cw), formatFloat(ch), attr(bg)))
		b.WriteString("\n")
	}

	for _, el := range domain.PaintOrder(scene.Elements) {
		var elem string
		switch el.Type {
		case domain.ElementText:
			elem = svgText(el)
		case domain.ElementImage:
			elem = svgImage(el)
		case domain.ElementShape:
			elem = svgShape(el)
		}
		if elem == "" {
			continue
		}
		b.WriteString("  ")
		b.WriteString(elem)
		b.WriteString("\n")
	}

	b.WriteString(`</svg>`)
	b.WriteString("\n")
	return []byte(b.String())
}

// common renders the id, transform and opacity attributes shared by every
// element.
func common(el *domain.Element) string {
	var parts []string
	cx, cy := el.X+el.Width/2, el.Y+el.Height/2
	if el.Rotation != 0 {
		parts = append(parts, fmt.Sprintf("rotate(%s %s %s)", formatFloat(el.Rotation), formatFloat(cx), formatFloat(cy)))
	}
	if sx, sy := el.Flip(); sx != 1 || sy != 1 {
		parts = append(parts, fmt.Sprintf("translate(%s %s) scale(%s %s) translate(%s %s)",
			formatFloat(cx), formatFloat(cy), formatFloat(sx), formatFloat(sy), formatFloat(-cx), formatFloat(-cy)))
	}
	s := fmt.Sprintf(` id="%s"`, attr(el.ID))
	if len(parts) > 0 {
		s += fmt.Sprintf(` transform="%s"`, strings.Join(parts, " "))
	}
	if a := el.Alpha(); a < 1 {
		s += fmt.Sprintf(` opacity="%s"`, formatFloat(a))
	}
	return s
}

func svgText(el *domain.Element) string {
	t := el.Text
	if t == nil || t.FontSize <= 0 {
		return ""
	}
	x, anchor := el.X, "start"
	switch t.TextAlign {
	case "center":
		x, anchor = el.X+el.Width/2, "middle"
	case "right":
		x, anchor = el.X+el.Width, "end"
	}
	color := t.Color
	if color == "" {
		color = "#000000"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf(`<text%s font-family="%s" font-size="%s" fill="%s" text-anchor="%s"`,
		common(el), attr(t.FontFamily), formatFloat(t.FontSize), attr(color), anchor))
	if t.FontWeight != "" && t.FontWeight != "normal" {
		b.WriteString(fmt.Sprintf(` font-weight="%s"`, attr(t.FontWeight)))
	}
	if t.FontStyle != "" && t.FontStyle != "normal" {
		b.WriteString(fmt.Sprintf(` font-style="%s"`, attr(t.FontStyle)))
	}
	b.WriteString(">")
	for i, line := range render.Lines(t.Text) {
		y := el.Y + t.FontSize + float64(i)*t.FontSize*render.LineHeight
		b.WriteString(fmt.Sprintf(`<tspan x="%s" y="%s">%s</tspan>`, formatFloat(x), formatFloat(y), attr(line)))
	}
	b.WriteString("</text>")
	return b.String()
}

func svgImage(el *domain.Element) string {
	if el.Image == nil || el.Image.Src == "" {
		return ""
	}
	return fmt.Sprintf(`<image%s x="%s" y="%s" width="%s" height="%s" preserveAspectRatio="none" href="%s" xlink:href="%s" />`,
		common(el), formatFloat(el.X), formatFloat(el.Y), formatFloat(el.Width), formatFloat(el.Height),
		attr(el.Image.Src), attr(el.Image.Src))
}

func svgShape(el *domain.Element) string {
	sp := el.Shape
	if sp == nil {
		return ""
	}
	paint := func(line bool) string {
		fill := sp.FillColor
		if fill == "" || line {
			fill = "none"
		}
		s := fmt.Sprintf(` fill="%s"`, attr(fill))
		stroke := sp.StrokeColor
		if line && stroke == "" {
			stroke = sp.FillColor
		}
		if sp.StrokeWidth > 0 && stroke != "" {
			s += fmt.Sprintf(` stroke="%s" stroke-width="%s"`, attr(stroke), formatFloat(sp.StrokeWidth))
		}
		return s
	}

	x, y, w, h := el.X, el.Y, el.Width, el.Height
	switch sp.ShapeType {
	case domain.ShapeRectangle, domain.ShapeSquare:
		return fmt.Sprintf(`<rect%s x="%s" y="%s" width="%s" height="%s"%s />`,
			common(el), formatFloat(x), formatFloat(y), formatFloat(w), formatFloat(h), paint(false))
	case domain.ShapeRoundedRectangle:
		r := math.Min(w, h) * render.RoundedCornerRatio
		return fmt.Sprintf(`<rect%s x="%s" y="%s" width="%s" height="%s" rx="%s"%s />`,
			common(el), formatFloat(x), formatFloat(y), formatFloat(w), formatFloat(h), formatFloat(r), paint(false))
	case domain.ShapeCircle, domain.ShapeEllipse:
		return fmt.Sprintf(`<ellipse%s cx="%s" cy="%s" rx="%s" ry="%s"%s />`,
			common(el), formatFloat(x+w/2), formatFloat(y+h/2), formatFloat(w/2), formatFloat(h/2), paint(false))
	case domain.ShapeLine, domain.ShapeDashedLine, domain.ShapeDottedLine:
		o := render.ShapeOutline(sp.ShapeType, w, h)
		s := fmt.Sprintf(`<line%s x1="%s" y1="%s" x2="%s" y2="%s"%s`,
			common(el), formatFloat(x), formatFloat(y+h/2), formatFloat(x+w), formatFloat(y+h/2), paint(true))
		if len(o.Dashes) > 0 {
			dash := make([]string, len(o.Dashes))
			for i, d := range o.Dashes {
				dash[i] = formatFloat(d * sp.StrokeWidth)
			}
			s += fmt.Sprintf(` stroke-dasharray="%s"`, strings.Join(dash, " "))
		}
		return s + " />"
	}
	pts, ok := render.PolygonPoints(sp.ShapeType, w, h)
	if !ok {
		return ""
	}
	coords := make([]string, len(pts))
	for i, p := range pts {
		coords[i] = formatFloat(x+p[0]) + "," + formatFloat(y+p[1])
	}
	return fmt.Sprintf(`<polygon%s points="%s"%s />`, common(el), strings.Join(coords, " "), paint(false))
}

func formatFloat(val float64) string {
	return strconv.FormatFloat(val, 'f', -1, 64)
}

func attr(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
