package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("social_post",
		mcp.WithPromptDescription("Guide through building a social media post design from scratch"),
		mcp.WithArgument("headline",
			mcp.ArgumentDescription("Headline text for the post"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("brandColor",
			mcp.ArgumentDescription("Main brand colour as hex, e.g. #e11d48"),
		),
	), s.handleSocialPostPrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("tidy_layout",
		mcp.WithPromptDescription("Clean up the active design: align, distribute and layer its elements"),
	), s.handleTidyLayoutPrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("from_template",
		mcp.WithPromptDescription("Start a design from a template and customise its text"),
		mcp.WithArgument("category",
			mcp.ArgumentDescription("Template category to pick from"),
		),
	), s.handleFromTemplatePrompt)
}

func (s *Server) handleSocialPostPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	headline := req.Params.Arguments["headline"]
	color := req.Params.Arguments["brandColor"]
	if color == "" {
		color = "#3b82f6"
	}
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Design a social post: %s", headline),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Design a 1080x1080 social media post with the headline "%s". Follow these steps:

1. create_design with width 1080, height 1080 and background #ffffff
2. insert_shape "rectangle" as a full-bleed band and update_element it to fillColor %s
3. add_element a text element with the headline, fontSize around 72 and color #ffffff
4. select the band and the headline, then align_to_canvas center-both
5. Add one or two accent shapes (insert_shape star or circle) and reorder_layer them behind the text
6. preview_design to check the result, then save_design and export_design as png

Keep everything inside the canvas and use a single undo step per change.`, headline, color),
				},
			},
		},
	}, nil
}

func (s *Server) handleTidyLayoutPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Tidy the active design",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: `Tidy the layout of the active design:

1. list_elements to see positions and stacking order
2. Group elements that belong in a row or column and select_elements each group
3. align_elements top (rows) or left (columns), then distribute_elements along the group's axis
4. Make sure text sits above shapes with reorder_layer
5. preview_design and compare with the original; undo any step that made it worse
6. save_design when done

Never delete elements while tidying.`,
				},
			},
		},
	}, nil
}

func (s *Server) handleFromTemplatePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	category := req.Params.Arguments["category"]
	filter := "any category"
	if category != "" {
		filter = fmt.Sprintf("the %q category", category)
	}
	return &mcp.GetPromptResult{
		Description: "Start from a template",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Start a new design from a template in %s:

1. list_templates and pick the best match
2. create_design, then apply_template with the chosen templateId
3. list_elements and update_element every text element with content that fits the request
4. preview_design, then save_design`, filter),
				},
			},
		},
	}, nil
}
