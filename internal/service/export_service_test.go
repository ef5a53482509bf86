package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"designer/internal/domain"
	"designer/internal/export"
	"designer/internal/render"
	"designer/internal/service"
	"designer/internal/storage"
)

func newExportService(t *testing.T) (*service.ExportService, *service.DesignService, *service.MockEmitter, string) {
	t.Helper()
	db := openDB(t)
	emitter := &service.MockEmitter{}
	designs := service.NewDesignService(storage.NewDesignStore(db), emitter)
	dir := t.TempDir()
	exporter := export.New(render.NewLoader(t.TempDir()))
	return service.NewExportService(storage.NewDesignStore(db), exporter, dir, emitter), designs, emitter, dir
}

// ─────────────────────────────────────────────────────────────
// ExportService tests
// ─────────────────────────────────────────────────────────────

func TestExportService_ExportDesignUsesName(t *testing.T) {
	svc, designs, _, _ := newExportService(t)
	d, _ := designs.CreateDesign(context.Background(), service.CreateDesignInput{
		Name:     "Summer Sale",
		Elements: []domain.Element{redSquare("a")},
	})

	res, err := svc.ExportDesign(context.Background(), d.ID, export.Options{Format: export.PNG, Scale: 1})
	if err != nil {
		t.Fatalf("ExportDesign: %v", err)
	}
	if res.Filename != "Summer-Sale.png" || res.MIME != "image/png" {
		t.Errorf("unexpected result %s %s", res.Filename, res.MIME)
	}
	if res.Width != 800 || res.Height != 600 {
		t.Errorf("size = %dx%d", res.Width, res.Height)
	}
}

func TestExportService_FailureEmitsNotifyError(t *testing.T) {
	svc, designs, emitter, dir := newExportService(t)
	ctx := context.Background()

	if _, err := svc.ExportDesign(ctx, "missing", export.DefaultOptions()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	d, _ := designs.CreateDesign(ctx, service.CreateDesignInput{Name: "x"})
	if _, err := svc.SaveDesign(ctx, d.ID, export.Options{Format: "tiff"}); !errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}

	if n := len(emitter.Named("notify:error")); n != 2 {
		t.Errorf("expected 2 notify:error events, got %d", n)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("failed exports must write nothing, found %d entries", len(entries))
	}
}

func TestExportService_SaveDesignWritesFile(t *testing.T) {
	svc, designs, emitter, dir := newExportService(t)
	ctx := context.Background()
	d, _ := designs.CreateDesign(ctx, service.CreateDesignInput{Name: "card"})

	path, err := svc.SaveDesign(ctx, d.ID, export.Options{Format: export.SVG})
	if err != nil {
		t.Fatalf("SaveDesign: %v", err)
	}
	if path != filepath.Join(dir, "card.svg") {
		t.Errorf("path = %q", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("export not written: %v", err)
	}
	if len(emitter.Named("export:saved")) != 1 {
		t.Error("expected export:saved event")
	}
}

func TestExportService_Preview(t *testing.T) {
	svc, _, _, _ := newExportService(t)
	res, err := svc.Preview(context.Background(), domain.NewScene())
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if res.Width != 400 || res.Height != 300 {
		t.Errorf("preview size = %dx%d", res.Width, res.Height)
	}
}
