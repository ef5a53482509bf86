package api

import (
	"github.com/gofiber/fiber/v3"

	"designer/internal/storage"
)

// ============================================================
// MCP Approval Handlers
// ============================================================

func (h *Handler) ListApprovals(c fiber.Ctx) error {
	list, err := h.d.Approvals.ListPending()
	if err != nil {
		return fail(c, err)
	}
	if list == nil {
		list = []storage.Approval{}
	}
	return c.JSON(list)
}

func (h *Handler) Approve(c fiber.Ctx) error { return h.resolve(c, true) }

func (h *Handler) Reject(c fiber.Ctx) error { return h.resolve(c, false) }

func (h *Handler) resolve(c fiber.Ctx, approved bool) error {
	ok, err := h.d.Approvals.Resolve(c.Params("id"), approved)
	if err != nil {
		return fail(c, err)
	}
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no pending approval with that id"})
	}
	status := storage.ApprovalRejected
	if approved {
		status = storage.ApprovalApproved
	}
	return c.JSON(fiber.Map{"status": status})
}
