package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"designer/internal/assets"
	"designer/internal/config"
	"designer/internal/export"
	"designer/internal/render"
	"designer/internal/service"
	"designer/internal/storage"
)

// App wires storage, services and asset libraries for one process. The
// HTTP server, the standalone MCP server and the export command all start
// from it.
type App struct {
	cfg     *config.Config
	emitter service.EventEmitter

	db       *storage.DB
	designs  *service.DesignService
	uploads  *service.UploadService
	exports  *service.ExportService
	sessions *service.SessionService

	templates    assets.Library
	images       assets.Library
	dirTemplates *assets.DirTemplates
}

// New opens the database and builds the services.
func New(cfg *config.Config, emitter service.EventEmitter) (*App, error) {
	db, err := storage.New(cfg.DBPath(), cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	designStore := storage.NewDesignStore(db)
	uploadStore := storage.NewUploadStore(db)
	loader := render.NewLoader(cfg.UploadDir())

	a := &App{
		cfg:     cfg,
		emitter: emitter,
		db:      db,
		designs: service.NewDesignService(designStore, emitter),
		uploads: service.NewUploadService(uploadStore, cfg.UploadDir(), emitter),
		exports: service.NewExportService(designStore, export.New(loader), cfg.ExportDir, emitter),
		images:  &assets.ImageLibrary{Store: uploadStore},
	}
	a.sessions = service.NewSessionService(a.designs, storage.NewHistoryStore(db), loader, cfg.HistoryLimit, emitter)

	// Templates: stored designs first, then a template directory and a
	// remote designs API when configured.
	sources := []assets.Library{&assets.TemplateLibrary{Store: designStore}}
	if cfg.TemplateDir != "" {
		dt, err := assets.NewDirTemplates(cfg.TemplateDir)
		if err != nil {
			log.Printf("[ASSETS] template dir disabled: %v", err)
		} else {
			a.dirTemplates = dt
			sources = append(sources, dt)
		}
	}
	if cfg.DesignsAPIURL != "" {
		sources = append(sources, assets.NewRemoteTemplates(cfg.DesignsAPIURL))
	}
	merged := assets.Merge(assets.KindTemplate, sources...)
	merged.OnError = func(err error) {
		log.Printf("[ASSETS] template source failed: %v", err)
	}
	a.templates = merged

	return a, nil
}

// Startup starts the background work: autosave and template hot reload.
func (a *App) Startup(ctx context.Context) error {
	if err := a.sessions.StartAutosave(ctx, a.cfg.AutosaveSchedule); err != nil {
		return err
	}
	if a.dirTemplates != nil {
		if err := a.dirTemplates.Watch(ctx); err != nil {
			log.Printf("[ASSETS] %v", err)
		} else {
			a.dirTemplates.OnChange(func() {
				a.emitter.Emit(ctx, "templates:changed", a.cfg.TemplateDir)
			})
		}
	}
	return nil
}

// Shutdown waits for in-flight uploads and exports, saves and closes open
// sessions and releases the database.
func (a *App) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	a.uploads.WaitUploads(ctx)
	a.exports.WaitExports(ctx)
	a.sessions.Stop(ctx)
	if a.dirTemplates != nil {
		a.dirTemplates.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}

// ============================================================
// Export command
// ============================================================

// ExportRequest describes a one-off export from the command line.
type ExportRequest struct {
	DesignID string
	Format   string
	Scale    float64
	Quality  int
	OutDir   string
}

// ExportDesign writes one design to disk and returns the file path.
func ExportDesign(ctx context.Context, cfg *config.Config, req ExportRequest) (string, error) {
	a, err := New(cfg, service.LogEmitter{})
	if err != nil {
		return "", err
	}
	defer a.Shutdown(context.Background())

	format, err := export.ParseFormat(req.Format)
	if err != nil {
		return "", err
	}
	opts := export.DefaultOptions()
	opts.Format = format
	opts.Scale = cfg.ExportScale
	opts.Quality = cfg.JPEGQuality
	if req.Scale > 0 {
		opts.Scale = req.Scale
	}
	if req.Quality > 0 {
		opts.Quality = req.Quality
	}

	res, err := a.exports.ExportDesign(ctx, req.DesignID, opts)
	if err != nil {
		return "", err
	}
	outDir := req.OutDir
	if outDir == "" {
		outDir = cfg.ExportDir
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	return res.Save(outDir)
}
