package mcpserver

import (
	"context"
	"fmt"

	"designer/internal/editor"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerArrangeTools() {
	// ── Selection-based layout ────────────────────────────
	s.mcp.AddTool(mcp.NewTool("align_elements",
		mcp.WithDescription("Align the selected elements to each other (needs at least two). Edges use the extreme value, centres the mean."),
		mcp.WithString("designId", mcp.Description("Design ID (optional, defaults to active design)")),
		mcp.WithString("mode", mcp.Description("left, right, top, bottom, center-horizontal or center-vertical"), mcp.Required()),
		mcp.WithString("elementIds", mcp.Description("Comma-separated element IDs to select first (optional)")),
	), s.handleAlignElements)

	s.mcp.AddTool(mcp.NewTool("distribute_elements",
		mcp.WithDescription("Space the selected elements evenly between the outermost two (needs at least three)"),
		mcp.WithString("designId", mcp.Description("Design ID (optional, defaults to active design)")),
		mcp.WithString("axis", mcp.Description("horizontal or vertical"), mcp.Required()),
		mcp.WithString("elementIds", mcp.Description("Comma-separated element IDs to select first (optional)")),
	), s.handleDistributeElements)

	s.mcp.AddTool(mcp.NewTool("align_to_canvas",
		mcp.WithDescription("Align each selected element to the canvas edges or centre"),
		mcp.WithString("designId", mcp.Description("Design ID (optional, defaults to active design)")),
		mcp.WithString("mode", mcp.Description("left, right, top, bottom, center-horizontal, center-vertical or center-both"), mcp.Required()),
		mcp.WithString("elementIds", mcp.Description("Comma-separated element IDs to select first (optional)")),
	), s.handleAlignToCanvas)

	s.mcp.AddTool(mcp.NewTool("transform_elements",
		mcp.WithDescription("Flip or rotate the selected elements by 90 degrees"),
		mcp.WithString("designId", mcp.Description("Design ID (optional, defaults to active design)")),
		mcp.WithString("op", mcp.Description("flip-horizontal, flip-vertical, rotate-cw or rotate-ccw"), mcp.Required()),
		mcp.WithString("elementIds", mcp.Description("Comma-separated element IDs to select first (optional)")),
	), s.handleTransformElements)

	s.mcp.AddTool(mcp.NewTool("reorder_layer",
		mcp.WithDescription("Change the stacking order of one element"),
		mcp.WithString("designId", mcp.Description("Design ID (optional, defaults to active design)")),
		mcp.WithString("op", mcp.Description("front, back, forward or backward"), mcp.Required()),
		mcp.WithString("elementId", mcp.Description("Element to move (optional, defaults to the primary selection)")),
	), s.handleReorderLayer)

	// ── History ───────────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Undo the last committed change"),
		mcp.WithString("designId", mcp.Description("Design ID (optional, defaults to active design)")),
	), s.handleUndo)

	s.mcp.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Redo the last undone change"),
		mcp.WithString("designId", mcp.Description("Design ID (optional, defaults to active design)")),
	), s.handleRedo)

	s.mcp.AddTool(mcp.NewTool("commit_history",
		mcp.WithDescription("Record the current elements as one undo step"),
		mcp.WithString("designId", mcp.Description("Design ID (optional, defaults to active design)")),
		mcp.WithString("label", mcp.Description("Label for the step (optional)")),
	), s.handleCommitHistory)
}

// arrange runs op on the session's selection after optionally replacing it
// with elementIds, and reports how many elements moved.
func (s *Server) arrange(ctx context.Context, req mcp.CallToolRequest, what string, op func(*editor.Session) int) (*mcp.CallToolResult, error) {
	open, err := s.resolveSession(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	if ids := splitIDs(req.GetString("elementIds", "")); len(ids) > 0 {
		open.Session.SetSelection(ids)
	}
	n := op(open.Session)
	if n == 0 {
		return textResult(fmt.Sprintf("%s: nothing changed", what)), nil
	}
	s.emitSceneChanged(ctx, open.DesignID)
	return textResult(fmt.Sprintf("%s: %d elements changed", what, n)), nil
}

func (s *Server) handleAlignElements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mode := editor.AlignMode(req.GetString("mode", ""))
	switch mode {
	case editor.AlignLeft, editor.AlignRight, editor.AlignTop, editor.AlignBottom,
		editor.AlignCenterHorizontal, editor.AlignCenterVertical:
	default:
		return nil, fmt.Errorf("unknown align mode %q", mode)
	}
	return s.arrange(ctx, req, "align "+string(mode), func(sess *editor.Session) int {
		return sess.AlignSelection(mode)
	})
}

func (s *Server) handleDistributeElements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	axis := editor.Axis(req.GetString("axis", ""))
	if axis != editor.AxisHorizontal && axis != editor.AxisVertical {
		return nil, fmt.Errorf("unknown axis %q", axis)
	}
	return s.arrange(ctx, req, "distribute "+string(axis), func(sess *editor.Session) int {
		return sess.DistributeSelection(axis)
	})
}

func (s *Server) handleAlignToCanvas(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mode := editor.AlignMode(req.GetString("mode", ""))
	switch mode {
	case editor.AlignLeft, editor.AlignRight, editor.AlignTop, editor.AlignBottom,
		editor.AlignCenterHorizontal, editor.AlignCenterVertical, editor.AlignCenterBoth:
	default:
		return nil, fmt.Errorf("unknown align mode %q", mode)
	}
	return s.arrange(ctx, req, "align to canvas "+string(mode), func(sess *editor.Session) int {
		return sess.AlignSelectionToCanvas(mode)
	})
}

func (s *Server) handleTransformElements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	op := editor.TransformOp(req.GetString("op", ""))
	switch op {
	case editor.FlipHorizontal, editor.FlipVertical, editor.RotateCW, editor.RotateCCW:
	default:
		return nil, fmt.Errorf("unknown transform %q", op)
	}
	return s.arrange(ctx, req, string(op), func(sess *editor.Session) int {
		return sess.TransformSelection(op)
	})
}

func (s *Server) handleReorderLayer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	op := editor.LayerOp(req.GetString("op", ""))
	switch op {
	case editor.LayerFront, editor.LayerBack, editor.LayerForward, editor.LayerBackward:
	default:
		return nil, fmt.Errorf("unknown layer op %q", op)
	}
	open, err := s.resolveSession(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	if id := req.GetString("elementId", ""); id != "" {
		open.Session.Select(id, false)
	}
	if open.Session.Primary() == "" {
		return nil, fmt.Errorf("no element selected (pass elementId)")
	}
	n := open.Session.LayerPrimary(op)
	if n > 0 {
		s.emitSceneChanged(ctx, open.DesignID)
	}
	el, _ := open.Session.Element(open.Session.Primary())
	return jsonResult(summarizeElement(el, open.Session.SelectionSet()))
}

func (s *Server) handleUndo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	open, err := s.resolveSession(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	if !open.Session.Undo() {
		return textResult("Nothing to undo"), nil
	}
	s.emitSceneChanged(ctx, open.DesignID)
	return jsonResult(open.Session.History())
}

func (s *Server) handleRedo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	open, err := s.resolveSession(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	if !open.Session.Redo() {
		return textResult("Nothing to redo"), nil
	}
	s.emitSceneChanged(ctx, open.DesignID)
	return jsonResult(open.Session.History())
}

func (s *Server) handleCommitHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	open, err := s.resolveSession(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	open.Session.CommitHistory(req.GetString("label", "edit"))
	return jsonResult(open.Session.History())
}
