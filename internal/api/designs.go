package api

import (
	"strconv"

	"github.com/gofiber/fiber/v3"

	"designer/internal/domain"
	"designer/internal/export"
	"designer/internal/service"
)

// ============================================================
// Design Handlers
// ============================================================

func (h *Handler) CreateDesign(c fiber.Ctx) error {
	var in service.CreateDesignInput
	if err := c.Bind().JSON(&in); err != nil {
		return badRequest(c, "invalid JSON body")
	}
	d, err := h.d.Designs.CreateDesign(c.Context(), in)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": d.ID})
}

func (h *Handler) ListDesigns(c fiber.Ctx) error {
	q := domain.DesignQuery{
		Search:    c.Query("search"),
		Category:  c.Query("category"),
		Sort:      domain.DesignSort(c.Query("sort")),
		Templates: c.Query("templates") == "true",
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return badRequest(c, "invalid limit")
		}
		q.Limit = n
	}
	designs, err := h.d.Designs.ListDesigns(q)
	if err != nil {
		return fail(c, err)
	}
	if designs == nil {
		designs = []domain.Design{}
	}
	return c.JSON(designs)
}

func (h *Handler) GetDesign(c fiber.Ctx) error {
	d, err := h.d.Designs.GetDesign(c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(d)
}

func (h *Handler) DeleteDesign(c fiber.Ctx) error {
	id := c.Params("id")
	var err error
	if h.d.Sessions != nil {
		err = h.d.Sessions.Delete(c.Context(), id)
	} else {
		err = h.d.Designs.DeleteDesign(c.Context(), id)
	}
	if err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ExportDesign streams the design as a file download. An open session is
// exported from its live state, otherwise from the stored scene.
func (h *Handler) ExportDesign(c fiber.Ctx) error {
	opts, err := h.exportOptions(c)
	if err != nil {
		return fail(c, err)
	}
	id := c.Params("id")
	ctx := c.Context()

	var res *export.Result
	if h.d.Sessions != nil {
		if open, gerr := h.d.Sessions.Get(id); gerr == nil {
			if opts.Name == "" {
				if d, derr := h.d.Designs.GetDesign(id); derr == nil {
					opts.Name = d.Name
				}
			}
			sc, _ := open.Session.Snapshot()
			res, err = h.d.Exports.ExportScene(ctx, sc, opts)
		}
	}
	if res == nil && err == nil {
		res, err = h.d.Exports.ExportDesign(ctx, id, opts)
	}
	if err != nil {
		return fail(c, err)
	}
	c.Set(fiber.HeaderContentType, res.MIME)
	c.Attachment(res.Filename)
	return c.Send(res.Data)
}

func (h *Handler) exportOptions(c fiber.Ctx) (export.Options, error) {
	opts := h.d.Defaults
	if v := c.Query("format"); v != "" {
		f, err := export.ParseFormat(v)
		if err != nil {
			return opts, err
		}
		opts.Format = f
	}
	if v := c.Query("scale"); v != "" {
		s, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, wrapInput("scale", v)
		}
		opts.Scale = s
	}
	if v := c.Query("quality"); v != "" {
		q, err := strconv.Atoi(v)
		if err != nil {
			return opts, wrapInput("quality", v)
		}
		opts.Quality = q
	}
	if v := c.Query("background"); v != "" {
		opts.IncludeBackground = v != "false" && v != "0"
	}
	opts.Name = c.Query("name")
	return opts, nil
}
