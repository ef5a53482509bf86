package assets

import (
	"context"
	"strings"

	"designer/internal/domain"
)

// ShapeCatalog is the static catalogue of every supported shape.
type ShapeCatalog struct{}

func (ShapeCatalog) Kind() Kind { return KindShape }

func (ShapeCatalog) List(_ context.Context, q Query) ([]Item, error) {
	items := make([]Item, 0, len(domain.ShapeTypes))
	for _, st := range domain.ShapeTypes {
		it := Item{
			ID:       string(st),
			Kind:     KindShape,
			Name:     shapeName(st),
			Category: ShapeCategory(st),
			Shape:    st,
		}
		if q.matches(it) {
			items = append(items, it)
		}
	}
	sortItems(items, q.Sort)
	return items, nil
}

// ShapeCategory groups shapes the way the picker shows them.
func ShapeCategory(st domain.ShapeType) string {
	switch st {
	case domain.ShapeRectangle, domain.ShapeSquare, domain.ShapeRoundedRectangle,
		domain.ShapeCircle, domain.ShapeEllipse:
		return "basic"
	case domain.ShapeTriangle, domain.ShapeRightTriangle, domain.ShapeInvertedTriangle,
		domain.ShapePentagon, domain.ShapeHexagon, domain.ShapeOctagon, domain.ShapeDiamond:
		return "polygons"
	case domain.ShapeArrowRight, domain.ShapeArrowLeft, domain.ShapeArrowUp, domain.ShapeArrowDown:
		return "arrows"
	case domain.ShapeStar, domain.ShapeHeart:
		return "symbols"
	}
	if st.IsLine() {
		return "lines"
	}
	return "other"
}

// shapeName turns "rounded-rectangle" into "Rounded rectangle".
func shapeName(st domain.ShapeType) string {
	s := strings.ReplaceAll(string(st), "-", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
