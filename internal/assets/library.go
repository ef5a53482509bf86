// Package assets provides the pickers an editor inserts content from: the
// shape catalogue, uploaded images and design templates.
package assets

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"designer/internal/domain"
	"designer/internal/editor"
)

type Kind string

const (
	KindShape    Kind = "shape"
	KindImage    Kind = "image"
	KindTemplate Kind = "template"
)

// Item is one entry of a library. Shape and image items become a single
// element; template items carry a whole scene.
type Item struct {
	ID        string           `json:"id"`
	Kind      Kind             `json:"kind"`
	Name      string           `json:"name"`
	Category  string           `json:"category,omitempty"`
	Thumbnail string           `json:"thumbnail,omitempty"`
	Shape     domain.ShapeType `json:"shapeType,omitempty"`
	Src       string           `json:"src,omitempty"`

	scene *domain.Scene
}

// Element builds the element the item inserts, using settings for any
// attribute the item does not fix itself.
func (it Item) Element(settings editor.ToolSettings) (domain.Element, error) {
	switch it.Kind {
	case KindShape:
		settings.Shape.ShapeType = it.Shape
		return editor.NewElement(domain.ElementShape, 0, 0, settings)
	case KindImage:
		el, err := editor.NewElement(domain.ElementImage, 0, 0, settings)
		if err != nil {
			return el, err
		}
		el.Image.Src = it.Src
		return el, nil
	}
	return domain.Element{}, fmt.Errorf("%s item %q does not insert an element", it.Kind, it.ID)
}

// Scene returns a copy of the template scene, or false for non-templates.
func (it Item) Scene() (*domain.Scene, bool) {
	if it.Kind != KindTemplate || it.scene == nil {
		return nil, false
	}
	return it.scene.Clone(), true
}

// Query narrows a listing. Empty fields match everything.
type Query struct {
	Search   string
	Category string
	Sort     domain.DesignSort
}

func (q Query) matches(it Item) bool {
	if q.Category != "" && !strings.EqualFold(q.Category, it.Category) {
		return false
	}
	if q.Search != "" && !strings.Contains(strings.ToLower(it.Name), strings.ToLower(q.Search)) {
		return false
	}
	return true
}

// Library is the narrow contract every picker implements.
type Library interface {
	Kind() Kind
	List(ctx context.Context, q Query) ([]Item, error)
}

// Find returns the item with id from lib.
func Find(ctx context.Context, lib Library, id string) (Item, error) {
	items, err := lib.List(ctx, Query{})
	if err != nil {
		return Item{}, err
	}
	for _, it := range items {
		if it.ID == id {
			return it, nil
		}
	}
	return Item{}, fmt.Errorf("%s %s: %w", lib.Kind(), id, domain.ErrNotFound)
}

// Merged lists several libraries of the same kind as one. A failing source
// is skipped so one unreachable source does not hide the others.
type Merged struct {
	kind    Kind
	sources []Library
	OnError func(error)
}

func Merge(kind Kind, sources ...Library) *Merged {
	return &Merged{kind: kind, sources: sources}
}

func (m *Merged) Kind() Kind { return m.kind }

func (m *Merged) List(ctx context.Context, q Query) ([]Item, error) {
	var out []Item
	seen := map[string]bool{}
	for _, src := range m.sources {
		items, err := src.List(ctx, q)
		if err != nil {
			if m.OnError != nil {
				m.OnError(err)
			}
			continue
		}
		for _, it := range items {
			if !seen[it.ID] {
				seen[it.ID] = true
				out = append(out, it)
			}
		}
	}
	return out, nil
}

func sortItems(items []Item, by domain.DesignSort) {
	if by == domain.SortName {
		sort.SliceStable(items, func(i, j int) bool {
			return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
		})
	}
}
