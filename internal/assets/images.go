package assets

import (
	"context"
	"fmt"

	"designer/internal/domain"
)

// ImageLibrary lists uploaded images. Folder limits it to one upload
// folder; empty lists every folder.
type ImageLibrary struct {
	Store  domain.UploadStore
	Folder string
}

func (l *ImageLibrary) Kind() Kind { return KindImage }

func (l *ImageLibrary) List(_ context.Context, q Query) ([]Item, error) {
	uploads, err := l.Store.ListUploads(l.Folder)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	items := make([]Item, 0, len(uploads))
	for _, u := range uploads {
		it := Item{
			ID:        u.ID,
			Kind:      KindImage,
			Name:      u.Filename,
			Category:  u.Folder,
			Thumbnail: u.URL,
			Src:       u.URL,
		}
		if q.matches(it) {
			items = append(items, it)
		}
	}
	if q.Sort == domain.SortOldest {
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
	}
	sortItems(items, q.Sort)
	return items, nil
}
