package mcpserver

import (
	"context"
	"encoding/base64"
	"fmt"

	"designer/internal/domain"
	"designer/internal/export"
	"designer/internal/service"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerDesignTools() {
	// ── list_designs ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_designs",
		mcp.WithDescription("List stored designs, newest first by default"),
		mcp.WithString("search", mcp.Description("Substring to match in design names (optional)")),
		mcp.WithString("category", mcp.Description("Category filter (optional)")),
		mcp.WithString("sort", mcp.Description("Sort order: newest, oldest or name (optional)")),
		mcp.WithBoolean("templates", mcp.Description("List templates instead of designs (optional)")),
	), s.handleListDesigns)

	// ── create_design ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_design",
		mcp.WithDescription("Create an empty design, open it and make it the active design"),
		mcp.WithString("name", mcp.Description("Design name (optional, defaults to 'Untitled design')")),
		mcp.WithString("category", mcp.Description("Category (optional)")),
		mcp.WithNumber("width", mcp.Description("Canvas width (optional, default 800)")),
		mcp.WithNumber("height", mcp.Description("Canvas height (optional, default 600)")),
		mcp.WithString("background", mcp.Description("Canvas background color hex (optional, default #ffffff)")),
		mcp.WithBoolean("isTemplate", mcp.Description("Store the design as a template (optional)")),
	), s.handleCreateDesign)

	// ── open_design ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("open_design",
		mcp.WithDescription("Open a design for editing and make it the active design. Tools that accept designId default to this."),
		mcp.WithString("designId", mcp.Description("ID of the design to open"), mcp.Required()),
	), s.handleOpenDesign)

	// ── save_design ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("save_design",
		mcp.WithDescription("Write the current scene of an open design to storage"),
		mcp.WithString("designId", mcp.Description("Design ID (optional, defaults to active design)")),
	), s.handleSaveDesign)

	// ── export_design ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("export_design",
		mcp.WithDescription("Export the live scene of a design to a PNG, JPEG or SVG file in the export directory"),
		mcp.WithString("designId", mcp.Description("Design ID (optional, defaults to active design)")),
		mcp.WithString("format", mcp.Description("png, jpeg or svg (optional, default png)")),
		mcp.WithNumber("scale", mcp.Description("Pixel ratio for raster formats (optional, default 2)")),
		mcp.WithNumber("quality", mcp.Description("JPEG quality 1-100 (optional, default 90)")),
		mcp.WithBoolean("background", mcp.Description("Paint the canvas background (optional, default true)")),
	), s.handleExportDesign)

	// ── preview_design ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("preview_design",
		mcp.WithDescription("Render a half-scale PNG preview of the live scene so you can see the result of your edits"),
		mcp.WithString("designId", mcp.Description("Design ID (optional, defaults to active design)")),
	), s.handlePreviewDesign)
}

func (s *Server) handleListDesigns(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	designs, err := s.designs.ListDesigns(domain.DesignQuery{
		Search:    req.GetString("search", ""),
		Category:  req.GetString("category", ""),
		Sort:      domain.DesignSort(req.GetString("sort", "")),
		Templates: req.GetBool("templates", false),
	})
	if err != nil {
		return nil, fmt.Errorf("list designs: %w", err)
	}

	type designSummary struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Category string `json:"category,omitempty"`
		Elements int    `json:"elements"`
		Updated  string `json:"updatedAt"`
	}
	summaries := make([]designSummary, len(designs))
	for i, d := range designs {
		summaries[i] = designSummary{
			ID:       d.ID,
			Name:     d.Name,
			Category: d.Category,
			Elements: len(d.Scene.Elements),
			Updated:  d.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		}
	}
	return jsonResult(summaries)
}

func (s *Server) handleCreateDesign(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in := service.CreateDesignInput{
		Name:             req.GetString("name", ""),
		Category:         req.GetString("category", ""),
		CanvasBackground: req.GetString("background", ""),
		IsTemplate:       req.GetBool("isTemplate", false),
	}
	w, h := req.GetFloat("width", 0), req.GetFloat("height", 0)
	if w > 0 && h > 0 {
		in.CanvasSize = &domain.Size{Width: w, Height: h}
	}
	d, err := s.designs.CreateDesign(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("create design: %w", err)
	}
	if _, err := s.sessions.Open(ctx, d.ID); err != nil {
		return nil, err
	}
	s.setActive(d.ID)
	return jsonResult(map[string]any{
		"id":         d.ID,
		"name":       d.Name,
		"canvasSize": d.Scene.CanvasSize,
	})
}

func (s *Server) handleOpenDesign(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("designId", "")
	if id == "" {
		return nil, fmt.Errorf("designId is required")
	}
	open, err := s.sessions.Open(ctx, id)
	if err != nil {
		return nil, err
	}
	s.setActive(id)

	sc := open.Session.Scene()
	return jsonResult(map[string]any{
		"id":               id,
		"canvasSize":       sc.CanvasSize,
		"canvasBackground": sc.Background,
		"elements":         len(sc.Elements),
		"history":          open.Session.History(),
	})
}

func (s *Server) handleSaveDesign(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	open, err := s.resolveSession(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, open.DesignID); err != nil {
		return nil, fmt.Errorf("save design: %w", err)
	}
	return textResult(fmt.Sprintf("Design %s saved", open.DesignID)), nil
}

func (s *Server) handleExportDesign(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	open, err := s.resolveSession(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	format, err := export.ParseFormat(req.GetString("format", "png"))
	if err != nil {
		return nil, err
	}
	opts := export.DefaultOptions()
	opts.Format = format
	opts.Scale = req.GetFloat("scale", opts.Scale)
	opts.Quality = req.GetInt("quality", opts.Quality)
	opts.IncludeBackground = req.GetBool("background", true)
	if d, err := s.designs.GetDesign(open.DesignID); err == nil {
		opts.Name = d.Name
	}

	sc, _ := open.Session.Snapshot()
	path, err := s.exports.SaveScene(ctx, sc, opts)
	if err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Exported %s", path)), nil
}

func (s *Server) handlePreviewDesign(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	open, err := s.resolveSession(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	sc, _ := open.Session.Snapshot()
	res, err := s.exports.Preview(ctx, sc)
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewImageContent(base64.StdEncoding.EncodeToString(res.Data), res.MIME),
			mcp.TextContent{Type: "text", Text: fmt.Sprintf("%dx%d preview", res.Width, res.Height)},
		},
	}, nil
}
