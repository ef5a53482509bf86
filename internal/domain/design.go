package domain

import "time"

// Design is the persisted form of a scene. Templates are designs that
// asset-library pickers offer as starting scenes.
type Design struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	IsTemplate   bool      `json:"isTemplate"`
	Scene        Scene     `json:"scene"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type DesignSort string

const (
	SortNewest DesignSort = "newest"
	SortOldest DesignSort = "oldest"
	SortName   DesignSort = "name"
)

// DesignQuery filters design listings.
type DesignQuery struct {
	Search    string
	Category  string
	Sort      DesignSort
	Templates bool
	Limit     int
}

type DesignStore interface {
	CreateDesign(d *Design) error
	GetDesign(id string) (*Design, error)
	ListDesigns(q DesignQuery) ([]Design, error)
	UpdateDesign(d *Design) error
	DeleteDesign(id string) error
}

// Upload is a stored asset file reachable under URL.
type Upload struct {
	ID        string    `json:"id"`
	Folder    string    `json:"folder"`
	Filename  string    `json:"filename"`
	Path      string    `json:"path"`
	URL       string    `json:"url"`
	MIME      string    `json:"mime"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

type UploadStore interface {
	CreateUpload(u *Upload) error
	GetUpload(id string) (*Upload, error)
	ListUploads(folder string) ([]Upload, error)
	DeleteUpload(id string) error
}
