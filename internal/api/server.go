// Package api exposes designs, uploads, exports and live editor sessions
// over HTTP.
package api

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"designer/internal/assets"
	"designer/internal/domain"
	"designer/internal/export"
	"designer/internal/service"
	"designer/internal/storage"
)

// ApprovalResolver lists and resolves pending MCP actions.
type ApprovalResolver interface {
	ListPending() ([]storage.Approval, error)
	Resolve(id string, approved bool) (bool, error)
}

// Deps are the services the HTTP API is built on. Templates and Approvals
// may be nil, which disables their routes.
type Deps struct {
	Designs   *service.DesignService
	Uploads   *service.UploadService
	Exports   *service.ExportService
	Sessions  *service.SessionService
	Templates assets.Library
	Approvals ApprovalResolver
	Defaults  export.Options

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Handler struct {
	d Deps
}

// New builds the fiber application with every route registered.
func New(d Deps) *fiber.App {
	if d.Defaults.Format == "" {
		d.Defaults = export.DefaultOptions()
	}
	h := &Handler{d: d}

	app := fiber.New(fiber.Config{
		ReadTimeout:  d.ReadTimeout,
		WriteTimeout: d.WriteTimeout,
		BodyLimit:    service.MaxUploadBytes + 1<<20,
		AppName:      "Designer",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(Logger())

	// ============================================================
	// Health Check Routes
	// ============================================================

	app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})

	// ============================================================
	// Asset Routes
	// ============================================================

	app.Post("/api/upload", h.Upload)
	app.Get("/api/uploads", h.ListUploads)
	app.Get("/uploads/:folder/:name", h.ServeUpload)
	app.Get("/api/shapes", h.ListShapes)
	if d.Templates != nil {
		app.Get("/api/templates", h.ListTemplates)
	}

	// ============================================================
	// Design Routes
	// ============================================================

	app.Post("/api/designs", h.CreateDesign)
	app.Get("/api/designs", h.ListDesigns)
	app.Get("/api/designs/:id", h.GetDesign)
	app.Delete("/api/designs/:id", h.DeleteDesign)
	app.Get("/api/designs/:id/export", h.ExportDesign)

	// ============================================================
	// Session Routes
	// ============================================================

	if d.Sessions != nil {
		app.Post("/api/sessions/:id", h.OpenSession)
		app.Post("/api/sessions/:id/save", h.SaveSession)
		app.Get("/api/sessions/:id/frame.png", h.SessionFrame)
		app.Delete("/api/sessions/:id", h.CloseSession)
	}

	// ============================================================
	// MCP Approval Routes
	// ============================================================

	if d.Approvals != nil {
		app.Get("/api/approvals", h.ListApprovals)
		app.Post("/api/approvals/:id/approve", h.Approve)
		app.Post("/api/approvals/:id/reject", h.Reject)
	}

	return app
}

// fail maps err to a status code and a JSON error body.
func fail(c fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, domain.ErrInvalidElement), errors.Is(err, domain.ErrUnsupportedFormat),
		errors.Is(err, domain.ErrInvalidInput):
		status = fiber.StatusBadRequest
	case errors.Is(err, domain.ErrBusy):
		status = fiber.StatusConflict
	}
	if status == fiber.StatusInternalServerError {
		log.Printf("[API] %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func badRequest(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
