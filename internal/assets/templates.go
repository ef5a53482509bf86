package assets

import (
	"context"
	"fmt"

	"designer/internal/domain"
)

// TemplateLibrary lists designs flagged as templates in the design store.
type TemplateLibrary struct {
	Store domain.DesignStore
}

func (l *TemplateLibrary) Kind() Kind { return KindTemplate }

func (l *TemplateLibrary) List(_ context.Context, q Query) ([]Item, error) {
	designs, err := l.Store.ListDesigns(domain.DesignQuery{
		Search:    q.Search,
		Category:  q.Category,
		Sort:      q.Sort,
		Templates: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	items := make([]Item, 0, len(designs))
	for i := range designs {
		items = append(items, TemplateItem(&designs[i]))
	}
	return items, nil
}

// TemplateItem wraps a design as a template item.
func TemplateItem(d *domain.Design) Item {
	sc := d.Scene
	return Item{
		ID:        d.ID,
		Kind:      KindTemplate,
		Name:      d.Name,
		Category:  d.Category,
		Thumbnail: d.ThumbnailURL,
		scene:     &sc,
	}
}
