package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"designer/internal/domain"
	"designer/internal/service"
	"designer/internal/storage"
)

func openDB(t *testing.T) *storage.DB {
	t.Helper()
	dir := t.TempDir()
	db, err := storage.New(filepath.Join(dir, "designer.db"), dir)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func redSquare(id string) domain.Element {
	return domain.Element{
		ID:       id,
		Type:     domain.ElementShape,
		Geometry: domain.Geometry{X: 10, Y: 10, Width: 50, Height: 50, ScaleX: 1, ScaleY: 1},
		Shape:    &domain.ShapeProps{ShapeType: domain.ShapeRectangle, FillColor: "#ff0000"},
	}
}

// ─────────────────────────────────────────────────────────────
// DesignService tests
// ─────────────────────────────────────────────────────────────

func TestDesignService_CreateDefaults(t *testing.T) {
	emitter := &service.MockEmitter{}
	svc := service.NewDesignService(storage.NewDesignStore(openDB(t)), emitter)

	d, err := svc.CreateDesign(context.Background(), service.CreateDesignInput{Name: "  "})
	if err != nil {
		t.Fatalf("CreateDesign: %v", err)
	}
	if d.ID == "" || d.Name != "Untitled design" {
		t.Errorf("unexpected defaults: %+v", d)
	}
	if d.Scene.CanvasSize.Width != domain.DefaultCanvasWidth || d.Scene.Background != domain.DefaultBackground {
		t.Errorf("expected default canvas, got %+v", d.Scene)
	}
	if len(emitter.Named("design:created")) != 1 {
		t.Errorf("expected design:created, got %+v", emitter.Events)
	}

	got, err := svc.GetDesign(d.ID)
	if err != nil {
		t.Fatalf("GetDesign: %v", err)
	}
	if got.Name != d.Name {
		t.Errorf("round trip name = %q", got.Name)
	}
}

func TestDesignService_CreateKeepsScene(t *testing.T) {
	svc := service.NewDesignService(storage.NewDesignStore(openDB(t)), &service.MockEmitter{})

	in := service.CreateDesignInput{
		Name:             "Poster",
		Elements:         []domain.Element{redSquare("a")},
		CanvasSize:       &domain.Size{Width: 1080, Height: 1080},
		CanvasBackground: "#000000",
		ProductID:        "prod-1",
	}
	d, err := svc.CreateDesign(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateDesign: %v", err)
	}
	got, _ := svc.GetDesign(d.ID)
	if len(got.Scene.Elements) != 1 || got.Scene.Elements[0].ID != "a" {
		t.Errorf("elements not stored: %+v", got.Scene.Elements)
	}
	if got.Scene.CanvasSize.Width != 1080 || got.Scene.Background != "#000000" || got.Scene.ProductID != "prod-1" {
		t.Errorf("canvas settings not stored: %+v", got.Scene)
	}
}

func TestDesignService_CreateRejectsInvalidScene(t *testing.T) {
	svc := service.NewDesignService(storage.NewDesignStore(openDB(t)), &service.MockEmitter{})

	bad := redSquare("a")
	bad.Shape = nil
	_, err := svc.CreateDesign(context.Background(), service.CreateDesignInput{Elements: []domain.Element{bad}})
	if !errors.Is(err, domain.ErrInvalidElement) {
		t.Fatalf("expected ErrInvalidElement, got %v", err)
	}

	dup := []domain.Element{redSquare("a"), redSquare("a")}
	if _, err := svc.CreateDesign(context.Background(), service.CreateDesignInput{Elements: dup}); err == nil {
		t.Fatal("expected duplicate ids to be rejected")
	}
}

func TestDesignService_CreateRejectsOversizedInput(t *testing.T) {
	svc := service.NewDesignService(storage.NewDesignStore(openDB(t)), &service.MockEmitter{})
	ctx := context.Background()

	for _, size := range []domain.Size{
		{Width: 1e10, Height: 1e10},
		{Width: 60000, Height: 60000},
		{Width: 20000, Height: 10},
	} {
		_, err := svc.CreateDesign(ctx, service.CreateDesignInput{CanvasSize: &size})
		if !errors.Is(err, domain.ErrCanvasTooLarge) || !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("canvas %vx%v: got %v, want ErrCanvasTooLarge", size.Width, size.Height, err)
		}
	}

	huge := domain.Element{
		ID:       "t",
		Type:     domain.ElementText,
		Geometry: domain.Geometry{Width: 100, Height: 40, ScaleX: 1, ScaleY: 1},
		Text:     &domain.TextProps{Text: "Hi", FontSize: 4000},
	}
	if _, err := svc.CreateDesign(ctx, service.CreateDesignInput{Elements: []domain.Element{huge}}); !errors.Is(err, domain.ErrInvalidElement) {
		t.Errorf("font size 4000: got %v, want ErrInvalidElement", err)
	}

	ok := domain.Size{Width: 16384, Height: 8192}
	if _, err := svc.CreateDesign(ctx, service.CreateDesignInput{CanvasSize: &ok}); err != nil {
		t.Errorf("canvas at the bound rejected: %v", err)
	}
}

func TestDesignService_SaveSceneAndDelete(t *testing.T) {
	emitter := &service.MockEmitter{}
	svc := service.NewDesignService(storage.NewDesignStore(openDB(t)), emitter)
	ctx := context.Background()

	d, _ := svc.CreateDesign(ctx, service.CreateDesignInput{Name: "x"})
	sc := d.Scene.Clone()
	sc.Elements = append(sc.Elements, redSquare("b"))
	if err := svc.SaveScene(ctx, d.ID, sc); err != nil {
		t.Fatalf("SaveScene: %v", err)
	}
	got, _ := svc.GetDesign(d.ID)
	if len(got.Scene.Elements) != 1 {
		t.Errorf("expected saved element, got %d", len(got.Scene.Elements))
	}
	if len(emitter.Named("design:saved")) != 1 {
		t.Error("expected design:saved event")
	}

	if err := svc.SaveScene(ctx, "missing", sc); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing design, got %v", err)
	}

	if err := svc.DeleteDesign(ctx, d.ID); err != nil {
		t.Fatalf("DeleteDesign: %v", err)
	}
	if _, err := svc.GetDesign(d.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestDesignService_ListUnknownSortFallsBack(t *testing.T) {
	svc := service.NewDesignService(storage.NewDesignStore(openDB(t)), &service.MockEmitter{})
	ctx := context.Background()

	svc.CreateDesign(ctx, service.CreateDesignInput{Name: "b"})
	svc.CreateDesign(ctx, service.CreateDesignInput{Name: "a", IsTemplate: true})

	list, err := svc.ListDesigns(domain.DesignQuery{Sort: "sideways"})
	if err != nil {
		t.Fatalf("ListDesigns: %v", err)
	}
	if len(list) != 1 || list[0].Name != "b" {
		t.Errorf("expected only the non-template design, got %+v", list)
	}
	tpl, _ := svc.ListDesigns(domain.DesignQuery{Templates: true})
	if len(tpl) != 1 || tpl[0].Name != "a" {
		t.Errorf("expected the template, got %+v", tpl)
	}
}

func TestDesignService_Rename(t *testing.T) {
	svc := service.NewDesignService(storage.NewDesignStore(openDB(t)), &service.MockEmitter{})
	d, _ := svc.CreateDesign(context.Background(), service.CreateDesignInput{Name: "old"})

	if err := svc.RenameDesign(d.ID, ""); err == nil {
		t.Error("expected empty name to be rejected")
	}
	if err := svc.RenameDesign(d.ID, "new"); err != nil {
		t.Fatalf("RenameDesign: %v", err)
	}
	got, _ := svc.GetDesign(d.ID)
	if got.Name != "new" {
		t.Errorf("name = %q", got.Name)
	}
}
