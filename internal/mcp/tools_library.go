package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"designer/internal/assets"
	"designer/internal/domain"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerLibraryTools() {
	s.mcp.AddTool(mcp.NewTool("list_shapes",
		mcp.WithDescription("List the shape catalogue (basic, polygons, arrows, symbols, lines)"),
		mcp.WithString("search", mcp.Description("Substring to match in shape names (optional)")),
		mcp.WithString("category", mcp.Description("Category filter (optional)")),
	), s.handleListShapes)

	s.mcp.AddTool(mcp.NewTool("insert_shape",
		mcp.WithDescription("Insert a shape from the catalogue using the current shape colours"),
		mcp.WithString("designId", mcp.Description("Design ID (optional, defaults to active design)")),
		mcp.WithString("shapeType", mcp.Description("Shape ID from list_shapes, e.g. star"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("X position (optional, needs y)")),
		mcp.WithNumber("y", mcp.Description("Y position (optional, needs x)")),
	), s.handleInsertShape)

	s.mcp.AddTool(mcp.NewTool("list_images",
		mcp.WithDescription("List uploaded images that can be inserted"),
		mcp.WithString("search", mcp.Description("Substring to match in file names (optional)")),
		mcp.WithString("sort", mcp.Description("newest, oldest or name (optional)")),
	), s.handleListImages)

	s.mcp.AddTool(mcp.NewTool("insert_image",
		mcp.WithDescription("Insert an uploaded image as a 200x200 image element"),
		mcp.WithString("designId", mcp.Description("Design ID (optional, defaults to active design)")),
		mcp.WithString("imageId", mcp.Description("Image ID from list_images"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("X position (optional, needs y)")),
		mcp.WithNumber("y", mcp.Description("Y position (optional, needs x)")),
	), s.handleInsertImage)

	s.mcp.AddTool(mcp.NewTool("list_templates",
		mcp.WithDescription("List design templates"),
		mcp.WithString("search", mcp.Description("Substring to match in template names (optional)")),
		mcp.WithString("category", mcp.Description("Category filter (optional)")),
		mcp.WithString("sort", mcp.Description("newest, oldest or name (optional)")),
	), s.handleListTemplates)

	s.mcp.AddTool(mcp.NewTool("apply_template",
		mcp.WithDescription("🛑 DESTRUCTIVE: Replace every element and the canvas settings with a template. Requires user approval when the design is not empty. Undo restores the previous elements."),
		mcp.WithString("designId", mcp.Description("Design ID (optional, defaults to active design)")),
		mcp.WithString("templateId", mcp.Description("Template ID from list_templates"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleApplyTemplate)
}

func queryArgs(req mcp.CallToolRequest) assets.Query {
	return assets.Query{
		Search:   req.GetString("search", ""),
		Category: req.GetString("category", ""),
		Sort:     domain.DesignSort(req.GetString("sort", "")),
	}
}

func (s *Server) listLibrary(ctx context.Context, lib assets.Library, q assets.Query) (*mcp.CallToolResult, error) {
	if lib == nil {
		return textResult("Library not configured"), nil
	}
	items, err := lib.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list %s library: %w", lib.Kind(), err)
	}
	if items == nil {
		items = []assets.Item{}
	}
	return jsonResult(items)
}

// insertItem inserts the element an image or shape item builds.
func (s *Server) insertItem(ctx context.Context, req mcp.CallToolRequest, lib assets.Library, id string) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	open, err := s.resolveSession(ctx, args)
	if err != nil {
		return nil, err
	}
	item, err := assets.Find(ctx, lib, id)
	if err != nil {
		return nil, err
	}
	el, err := item.Element(open.Session.Settings())
	if err != nil {
		return nil, err
	}
	added, err := open.Session.InsertFromLibrary(el, pointArg(args))
	if err != nil {
		return nil, err
	}
	s.emitSceneChanged(ctx, open.DesignID)
	return jsonResult(summarizeElement(added, map[string]bool{added.ID: true}))
}

func (s *Server) handleListShapes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.listLibrary(ctx, s.shapes, queryArgs(req))
}

func (s *Server) handleInsertShape(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("shapeType", "")
	if id == "" {
		return nil, fmt.Errorf("shapeType is required")
	}
	return s.insertItem(ctx, req, s.shapes, id)
}

func (s *Server) handleListImages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.listLibrary(ctx, s.images, queryArgs(req))
}

func (s *Server) handleInsertImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.images == nil {
		return nil, fmt.Errorf("image library not configured")
	}
	id := req.GetString("imageId", "")
	if id == "" {
		return nil, fmt.Errorf("imageId is required")
	}
	return s.insertItem(ctx, req, s.images, id)
}

func (s *Server) handleListTemplates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.listLibrary(ctx, s.templates, queryArgs(req))
}

func (s *Server) handleApplyTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.templates == nil {
		return nil, fmt.Errorf("template library not configured")
	}
	open, err := s.resolveSession(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	id := req.GetString("templateId", "")
	if id == "" {
		return nil, fmt.Errorf("templateId is required")
	}
	item, err := assets.Find(ctx, s.templates, id)
	if err != nil {
		return nil, err
	}
	tpl, ok := item.Scene()
	if !ok {
		return nil, fmt.Errorf("%s is not a template", id)
	}

	if n := len(open.Session.Scene().Elements); n > 0 {
		meta, _ := json.Marshal(map[string]any{"designId": open.DesignID, "templateId": id})
		desc := fmt.Sprintf("Replace %d elements with template %q", n, item.Name)
		approved, err := s.approval.Request("apply_template", desc, string(meta))
		if err != nil || !approved {
			return textResult("Action rejected by user"), nil
		}
	}

	if err := open.Session.ApplyTemplate(tpl, id); err != nil {
		return nil, err
	}
	s.emitSceneChanged(ctx, open.DesignID)
	return textResult(fmt.Sprintf("Applied template %s (%d elements)", item.Name, len(tpl.Elements))), nil
}
