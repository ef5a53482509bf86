package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"designer/internal/domain"
	"designer/internal/editor"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerElementTools() {
	s.mcp.AddTool(mcp.NewTool("list_elements",
		mcp.WithDescription("List the elements of a design in paint order (bottom first) with their IDs, types, positions and selection state"),
		mcp.WithString("designId", mcp.Description("Design ID (optional, defaults to active design)")),
	), s.handleListElements)

	s.mcp.AddTool(mcp.NewTool("add_element",
		mcp.WithDescription("Add a text, image or shape element on top of the scene. Without x/y it is placed in the next free slot."),
		mcp.WithString("designId", mcp.Description("Design ID (optional, defaults to active design)")),
		mcp.WithString("type", mcp.Description("Element type: text, image, shape"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("X position (optional, needs y)")),
		mcp.WithNumber("y", mcp.Description("Y position (optional, needs x)")),
		mcp.WithString("shapeType", mcp.Description("Shape type for shape elements, e.g. rectangle, circle, star, arrow-right, line (optional)")),
		mcp.WithString("text", mcp.Description("Text content for text elements (optional)")),
		mcp.WithString("src", mcp.Description("Image URL or data URI for image elements (optional)")),
		mcp.WithString("patchJSON", mcp.Description("JSON object with further properties (width, height, rotation, opacity, fontSize, color, fillColor, strokeColor, strokeWidth, shadow...) (optional)")),
	), s.handleAddElement)

	s.mcp.AddTool(mcp.NewTool("update_element",
		mcp.WithDescription("Update properties of one element as a single undo step"),
		mcp.WithString("designId", mcp.Description("Design ID (optional, defaults to active design)")),
		mcp.WithString("elementId", mcp.Description("Element ID to update"), mcp.Required()),
		mcp.WithString("patchJSON", mcp.Description("JSON object with properties to update (x, y, width, height, rotation, scaleX, scaleY, zIndex, opacity, shadow, clearShadow, text, fontSize, fontFamily, fontWeight, fontStyle, textAlign, color, imageData, shapeType, fillColor, strokeColor, strokeWidth)"), mcp.Required()),
	), s.handleUpdateElement)

	s.mcp.AddTool(mcp.NewTool("update_elements",
		mcp.WithDescription("Update several elements at once as a single undo step. Pass a JSON array of {id, patch} objects."),
		mcp.WithString("designId", mcp.Description("Design ID (optional, defaults to active design)")),
		mcp.WithString("updates", mcp.Description("JSON array [{\"id\": \"...\", \"patch\": {...}}, ...]"), mcp.Required()),
	), s.handleUpdateElements)

	s.mcp.AddTool(mcp.NewTool("delete_element",
		mcp.WithDescription("🛑 DESTRUCTIVE: Remove one or more elements by ID. Requires user approval."),
		mcp.WithString("designId", mcp.Description("Design ID (optional, defaults to active design)")),
		mcp.WithString("elementIds", mcp.Description("Comma-separated element IDs to delete"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteElement)

	s.mcp.AddTool(mcp.NewTool("duplicate_element",
		mcp.WithDescription("Duplicate elements; the copies are offset by 20 units, placed on top and selected"),
		mcp.WithString("designId", mcp.Description("Design ID (optional, defaults to active design)")),
		mcp.WithString("elementIds", mcp.Description("Comma-separated element IDs (optional, defaults to the current selection)")),
	), s.handleDuplicateElement)

	s.mcp.AddTool(mcp.NewTool("select_elements",
		mcp.WithDescription("Set the selection used by align, distribute, transform and layer tools. Pass elementIds, all=true, or a region (x, y, width, height). With none of these the selection is cleared."),
		mcp.WithString("designId", mcp.Description("Design ID (optional, defaults to active design)")),
		mcp.WithString("elementIds", mcp.Description("Comma-separated element IDs; the last one becomes primary (optional)")),
		mcp.WithBoolean("all", mcp.Description("Select every element (optional)")),
		mcp.WithNumber("x", mcp.Description("Region X (optional)")),
		mcp.WithNumber("y", mcp.Description("Region Y (optional)")),
		mcp.WithNumber("width", mcp.Description("Region width (optional)")),
		mcp.WithNumber("height", mcp.Description("Region height (optional)")),
	), s.handleSelectElements)

	s.mcp.AddTool(mcp.NewTool("hit_test",
		mcp.WithDescription("Find the topmost element at a scene point"),
		mcp.WithString("designId", mcp.Description("Design ID (optional, defaults to active design)")),
		mcp.WithNumber("x", mcp.Description("X coordinate"), mcp.Required()),
		mcp.WithNumber("y", mcp.Description("Y coordinate"), mcp.Required()),
		mcp.WithBoolean("select", mcp.Description("Also select the hit element, clearing the selection on a miss (optional)")),
	), s.handleHitTest)
}

func (s *Server) handleListElements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	open, err := s.resolveSession(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	sc := open.Session.Scene()
	selected := open.Session.SelectionSet()

	ordered := domain.PaintOrder(sc.Elements)
	summaries := make([]elementSummary, len(ordered))
	for i, e := range ordered {
		summaries[i] = summarizeElement(*e, selected)
	}
	return jsonResult(summaries)
}

func (s *Server) handleAddElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	open, err := s.resolveSession(ctx, args)
	if err != nil {
		return nil, err
	}

	t := domain.ElementType(req.GetString("type", ""))
	settings := open.Session.Settings()
	if st := domain.ShapeType(req.GetString("shapeType", "")); st != "" {
		if !st.Valid() {
			return nil, fmt.Errorf("unknown shapeType %q", st)
		}
		settings.Shape.ShapeType = st
	}
	el, err := editor.NewElement(t, 0, 0, settings)
	if err != nil {
		return nil, fmt.Errorf("add element: type %q: %w", t, err)
	}

	var patch editor.Patch
	if raw := req.GetString("patchJSON", ""); raw != "" {
		if err := parseJSON(raw, &patch); err != nil {
			return nil, fmt.Errorf("parse patchJSON: %w", err)
		}
	}
	if text := req.GetString("text", ""); text != "" {
		patch.Text = &text
	}
	if src := req.GetString("src", ""); src != "" {
		patch.Src = &src
	}
	patch.Apply(&el)

	hint := pointArg(args)
	if hint == nil && patch.X != nil && patch.Y != nil {
		hint = &domain.Point{X: *patch.X, Y: *patch.Y}
	}
	added, err := open.Session.InsertFromLibrary(el, hint)
	if err != nil {
		return nil, err
	}
	s.emitSceneChanged(ctx, open.DesignID)
	return jsonResult(summarizeElement(added, map[string]bool{added.ID: true}))
}

func (s *Server) handleUpdateElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	open, err := s.resolveSession(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	id := req.GetString("elementId", "")
	if id == "" {
		return nil, fmt.Errorf("elementId is required")
	}
	var patch editor.Patch
	if err := parseJSON(req.GetString("patchJSON", ""), &patch); err != nil {
		return nil, fmt.Errorf("parse patchJSON: %w", err)
	}
	if patch.Empty() {
		return textResult("Nothing to update"), nil
	}
	if _, ok := open.Session.Element(id); !ok {
		return nil, fmt.Errorf("element %s: %w", id, domain.ErrNotFound)
	}
	open.Session.Apply("update", []editor.Update{{ID: id, Patch: patch}})
	s.emitSceneChanged(ctx, open.DesignID)

	el, _ := open.Session.Element(id)
	return jsonResult(summarizeElement(el, open.Session.SelectionSet()))
}

func (s *Server) handleUpdateElements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	open, err := s.resolveSession(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	var updates []editor.Update
	if err := parseJSON(req.GetString("updates", ""), &updates); err != nil {
		return nil, fmt.Errorf("parse updates: %w", err)
	}
	n := open.Session.Apply("update", updates)
	if n > 0 {
		s.emitSceneChanged(ctx, open.DesignID)
	}
	return textResult(fmt.Sprintf("Updated %d of %d elements", n, len(updates))), nil
}

func (s *Server) handleDeleteElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	open, err := s.resolveSession(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	ids := splitIDs(req.GetString("elementIds", ""))
	if len(ids) == 0 {
		return nil, fmt.Errorf("elementIds is required")
	}

	meta, _ := json.Marshal(map[string]any{"designId": open.DesignID, "elementIds": ids})
	approved, err := s.approval.Request("delete_element", "Delete "+describeIDs(ids), string(meta))
	if err != nil || !approved {
		return textResult("Action rejected by user"), nil
	}

	n := open.Session.Delete(ids...)
	if n > 0 {
		s.emitSceneChanged(ctx, open.DesignID)
	}
	return textResult(fmt.Sprintf("Deleted %d elements", n)), nil
}

func (s *Server) handleDuplicateElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	open, err := s.resolveSession(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	if ids := splitIDs(req.GetString("elementIds", "")); len(ids) > 0 {
		open.Session.SetSelection(ids)
	}
	dups := open.Session.DuplicateSelected()
	if len(dups) == 0 {
		return textResult("Nothing selected to duplicate"), nil
	}
	s.emitSceneChanged(ctx, open.DesignID)

	selected := open.Session.SelectionSet()
	summaries := make([]elementSummary, len(dups))
	for i, d := range dups {
		summaries[i] = summarizeElement(d, selected)
	}
	return jsonResult(summaries)
}

func (s *Server) handleSelectElements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	open, err := s.resolveSession(ctx, args)
	if err != nil {
		return nil, err
	}

	w, h := req.GetFloat("width", 0), req.GetFloat("height", 0)
	switch ids := splitIDs(req.GetString("elementIds", "")); {
	case req.GetBool("all", false):
		open.Session.SelectAll()
	case len(ids) > 0:
		open.Session.SetSelection(ids)
	case w > 0 && h > 0:
		r := domain.Rect{X: req.GetFloat("x", 0), Y: req.GetFloat("y", 0), W: w, H: h}
		open.Session.SetSelection(editor.HitTestRect(open.Session.Scene().Elements, r))
	default:
		open.Session.ClearSelection()
	}
	return jsonResult(map[string]any{
		"selection": open.Session.Selection(),
		"primary":   open.Session.Primary(),
	})
}

func (s *Server) handleHitTest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	open, err := s.resolveSession(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	p := domain.Point{X: req.GetFloat("x", 0), Y: req.GetFloat("y", 0)}

	var id string
	if req.GetBool("select", false) {
		id = open.Session.SelectAt(p, false)
	} else {
		id = open.Session.HitTest(p)
	}
	if id == "" {
		return textResult(fmt.Sprintf("No element at (%.0f, %.0f)", p.X, p.Y)), nil
	}
	el, _ := open.Session.Element(id)
	return jsonResult(summarizeElement(el, open.Session.SelectionSet()))
}
