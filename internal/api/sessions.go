package api

import (
	"bytes"
	"image/png"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Session Handlers
// ============================================================

func (h *Handler) OpenSession(c fiber.Ctx) error {
	open, err := h.d.Sessions.Open(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"id":        open.DesignID,
		"elements":  len(open.Session.Scene().Elements),
		"history":   open.Session.History(),
		"selection": open.Session.Selection(),
	})
}

func (h *Handler) SaveSession(c fiber.Ctx) error {
	if err := h.d.Sessions.Save(c.Context(), c.Params("id")); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"status": "saved"})
}

// SessionFrame returns the latest painted frame of an open session as PNG.
func (h *Handler) SessionFrame(c fiber.Ctx) error {
	open, err := h.d.Sessions.Get(c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	frame := open.Canvas.Last()
	if frame.Image == nil {
		frame = open.Canvas.Paint()
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, frame.Image); err != nil {
		return fail(c, err)
	}
	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(buf.Bytes())
}

func (h *Handler) CloseSession(c fiber.Ctx) error {
	if err := h.d.Sessions.Close(c.Context(), c.Params("id")); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
