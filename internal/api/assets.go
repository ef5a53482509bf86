package api

import (
	"fmt"
	"path/filepath"

	"github.com/gofiber/fiber/v3"

	"designer/internal/assets"
	"designer/internal/domain"
	"designer/internal/service"
)

// ============================================================
// Upload & Library Handlers
// ============================================================

// Upload stores a multipart "file" in "folder" and answers with its URL.
// The Idempotency-Key header (or "key" form field) identifies a submission.
func (h *Handler) Upload(c fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "file required in multipart/form-data")
	}
	f, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to open file"})
	}
	defer f.Close()

	key := c.Get("Idempotency-Key")
	if key == "" {
		key = c.FormValue("key")
	}
	u, err := h.d.Uploads.Upload(c.Context(), service.UploadInput{
		Folder:   c.FormValue("folder"),
		Filename: fileHeader.Filename,
		Key:      key,
		Body:     f,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":         u.ID,
		"url":        u.URL,
		"secure_url": u.URL,
	})
}

func (h *Handler) ListUploads(c fiber.Ctx) error {
	list, err := h.d.Uploads.ListUploads(c.Query("folder"))
	if err != nil {
		return fail(c, err)
	}
	if list == nil {
		list = []domain.Upload{}
	}
	return c.JSON(list)
}

func (h *Handler) ServeUpload(c fiber.Ctx) error {
	p, err := h.d.Uploads.Open(c.Params("folder"), c.Params("name"))
	if err != nil {
		return fail(c, err)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return fail(c, err)
	}
	return c.SendFile(abs)
}

func (h *Handler) ListShapes(c fiber.Ctx) error {
	return h.listLibrary(c, assets.ShapeCatalog{})
}

func (h *Handler) ListTemplates(c fiber.Ctx) error {
	return h.listLibrary(c, h.d.Templates)
}

func (h *Handler) listLibrary(c fiber.Ctx, lib assets.Library) error {
	items, err := lib.List(c.Context(), assets.Query{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Sort:     domain.DesignSort(c.Query("sort")),
	})
	if err != nil {
		return fail(c, err)
	}
	if items == nil {
		items = []assets.Item{}
	}
	return c.JSON(items)
}

func wrapInput(field, value string) error {
	return fmt.Errorf("%s %q: %w", field, value, domain.ErrInvalidInput)
}
