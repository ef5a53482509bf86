package editor

import "designer/internal/domain"

// HitTest returns the id of the topmost element whose un-rotated bounding box
// contains p, or "" when nothing is hit. Rotation is deliberately ignored.
func HitTest(elements []domain.Element, p domain.Point) string {
	order := domain.PaintOrder(elements)
	for i := len(order) - 1; i >= 0; i-- {
		if order[i].Bounds().Contains(p) {
			return order[i].ID
		}
	}
	return ""
}

// HitTestRect returns ids of elements whose bounding box intersects r, in
// paint order. Used for marquee selection.
func HitTestRect(elements []domain.Element, r domain.Rect) []string {
	var ids []string
	for _, el := range domain.PaintOrder(elements) {
		if el.Bounds().Intersects(r) {
			ids = append(ids, el.ID)
		}
	}
	return ids
}
