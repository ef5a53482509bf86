package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"designer/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Design Service — persisted scenes and templates
// ─────────────────────────────────────────────────────────────

// DesignService manages saved designs. Templates are designs with
// IsTemplate set and are offered by the template library.
type DesignService struct {
	store   domain.DesignStore
	emitter EventEmitter
}

// NewDesignService creates a DesignService.
func NewDesignService(store domain.DesignStore, emitter EventEmitter) *DesignService {
	return &DesignService{store: store, emitter: emitter}
}

// CreateDesignInput is the body accepted by POST /api/designs.
type CreateDesignInput struct {
	Name             string           `json:"name"`
	Category         string           `json:"category"`
	IsTemplate       bool             `json:"isTemplate"`
	Elements         []domain.Element `json:"elements"`
	CanvasSize       *domain.Size     `json:"canvasSize"`
	CanvasBackground string           `json:"canvasBackground"`
	ProductID        string           `json:"productId"`
	VariantID        string           `json:"variantId"`
	TemplateID       string           `json:"templateId"`
	ThumbnailURL     string           `json:"thumbnailUrl"`
}

// Scene builds the scene described by the input, filling canvas defaults.
func (in CreateDesignInput) Scene() domain.Scene {
	sc := domain.NewScene()
	if in.Elements != nil {
		sc.Elements = domain.CloneElements(in.Elements)
	}
	if in.CanvasSize != nil && in.CanvasSize.Width > 0 && in.CanvasSize.Height > 0 {
		sc.CanvasSize = *in.CanvasSize
	}
	if in.CanvasBackground != "" {
		sc.Background = in.CanvasBackground
	}
	sc.ProductID = in.ProductID
	sc.VariantID = in.VariantID
	sc.TemplateID = in.TemplateID
	return *sc
}

// CreateDesign validates and stores a new design.
func (s *DesignService) CreateDesign(ctx context.Context, in CreateDesignInput) (*domain.Design, error) {
	sc := in.Scene()
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = "Untitled design"
	}
	d := &domain.Design{
		ID:           uuid.New().String(),
		Name:         name,
		Category:     strings.TrimSpace(in.Category),
		IsTemplate:   in.IsTemplate,
		Scene:        sc,
		ThumbnailURL: in.ThumbnailURL,
	}
	if err := s.store.CreateDesign(d); err != nil {
		return nil, fmt.Errorf("create design: %w", err)
	}
	s.emitter.Emit(ctx, "design:created", d.ID)
	return d, nil
}

// GetDesign returns a design by ID.
func (s *DesignService) GetDesign(id string) (*domain.Design, error) {
	return s.store.GetDesign(id)
}

// ListDesigns returns designs matching q. An unknown sort falls back to newest.
func (s *DesignService) ListDesigns(q domain.DesignQuery) ([]domain.Design, error) {
	switch q.Sort {
	case domain.SortNewest, domain.SortOldest, domain.SortName:
	default:
		q.Sort = domain.SortNewest
	}
	return s.store.ListDesigns(q)
}

// SaveScene replaces the stored scene of design id.
func (s *DesignService) SaveScene(ctx context.Context, id string, sc *domain.Scene) error {
	if err := sc.Validate(); err != nil {
		return err
	}
	d, err := s.store.GetDesign(id)
	if err != nil {
		return err
	}
	d.Scene = *sc.Clone()
	if err := s.store.UpdateDesign(d); err != nil {
		return fmt.Errorf("save design %s: %w", id, err)
	}
	s.emitter.Emit(ctx, "design:saved", id)
	return nil
}

// RenameDesign changes the display name of a design.
func (s *DesignService) RenameDesign(id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("rename design: empty name: %w", domain.ErrInvalidInput)
	}
	d, err := s.store.GetDesign(id)
	if err != nil {
		return err
	}
	d.Name = name
	return s.store.UpdateDesign(d)
}

// DeleteDesign removes a design.
func (s *DesignService) DeleteDesign(ctx context.Context, id string) error {
	if err := s.store.DeleteDesign(id); err != nil {
		return fmt.Errorf("delete design: %w", err)
	}
	s.emitter.Emit(ctx, "design:deleted", id)
	return nil
}
