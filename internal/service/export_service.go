package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"designer/internal/domain"
	"designer/internal/export"
)

// exportTimeout bounds a single export, image fetches included.
const exportTimeout = 2 * time.Minute

// ─────────────────────────────────────────────────────────────
// Export Service — scene → file, with user-facing failure events
// ─────────────────────────────────────────────────────────────

// ExportService renders designs and scenes through export.Exporter. Every
// failure is reported once as a "notify:error" event and nothing is written.
type ExportService struct {
	designs  domain.DesignStore
	exporter *export.Exporter
	dir      string
	emitter  EventEmitter
	inflight Submissions
}

// NewExportService creates an ExportService saving files into dir.
func NewExportService(designs domain.DesignStore, exporter *export.Exporter, dir string, emitter EventEmitter) *ExportService {
	return &ExportService{designs: designs, exporter: exporter, dir: dir, emitter: emitter, inflight: Submissions{Kind: "export"}}
}

// Dir returns the directory SaveDesign writes into.
func (s *ExportService) Dir() string { return s.dir }

// ExportScene renders scene with opts.
func (s *ExportService) ExportScene(ctx context.Context, scene *domain.Scene, opts export.Options) (*export.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, exportTimeout)
	defer cancel()

	start := time.Now()
	res, err := s.exporter.Export(ctx, scene, opts)
	if err != nil {
		return nil, s.fail(ctx, "export", err)
	}
	log.Printf("[EXPORT] %s %dx%d (%d bytes) in %v", res.Filename, res.Width, res.Height, len(res.Data), time.Since(start))
	return res, nil
}

// ExportDesign loads design id and renders it. The design name is used as
// the file name unless opts names one.
func (s *ExportService) ExportDesign(ctx context.Context, id string, opts export.Options) (*export.Result, error) {
	d, err := s.designs.GetDesign(id)
	if err != nil {
		return nil, s.fail(ctx, "export", fmt.Errorf("load design %s: %w", id, err))
	}
	if opts.Name == "" {
		opts.Name = d.Name
	}
	return s.ExportScene(ctx, &d.Scene, opts)
}

// SaveDesign exports design id and writes the file into Dir. A second
// request for the same design and format is refused while one is running.
func (s *ExportService) SaveDesign(ctx context.Context, id string, opts export.Options) (string, error) {
	release, err := s.inflight.Begin(ExportKey(id, opts.Format))
	if err != nil {
		return "", s.fail(ctx, "export", err)
	}
	defer release()

	res, err := s.ExportDesign(ctx, id, opts)
	if err != nil {
		return "", err
	}
	return s.save(ctx, res)
}

// SaveScene exports scene and writes the file into Dir.
func (s *ExportService) SaveScene(ctx context.Context, scene *domain.Scene, opts export.Options) (string, error) {
	res, err := s.ExportScene(ctx, scene, opts)
	if err != nil {
		return "", err
	}
	return s.save(ctx, res)
}

// Preview renders a half-scale PNG of scene for thumbnails.
func (s *ExportService) Preview(ctx context.Context, scene *domain.Scene) (*export.Result, error) {
	res, err := s.exporter.Preview(ctx, scene)
	if err != nil {
		return nil, s.fail(ctx, "preview", err)
	}
	return res, nil
}

// WaitExports blocks until running exports finish or ctx is cancelled.
func (s *ExportService) WaitExports(ctx context.Context) {
	s.inflight.Wait(ctx)
}

func (s *ExportService) save(ctx context.Context, res *export.Result) (string, error) {
	path, err := res.Save(s.dir)
	if err != nil {
		return "", s.fail(ctx, "export", err)
	}
	s.emitter.Emit(ctx, "export:saved", path)
	return path, nil
}

func (s *ExportService) fail(ctx context.Context, op string, err error) error {
	log.Printf("[EXPORT] %s failed: %v", op, err)
	s.emitter.Emit(ctx, "notify:error", map[string]string{
		"op":      op,
		"message": err.Error(),
	})
	return err
}
