package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"designer/internal/domain"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerResources() {
	// ── designer://designs ─────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		"designer://designs",
		"All Designs",
		mcp.WithMIMEType("application/json"),
	), s.handleDesignsResource)

	// ── designer://design/{designId}/scene ─────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"designer://design/{designId}/scene",
			"Scene of a Design",
		),
		s.handleDesignSceneResource,
	)
}

func (s *Server) handleDesignsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	designs, err := s.designs.ListDesigns(domain.DesignQuery{})
	if err != nil {
		return nil, err
	}

	type designSummary struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	summaries := make([]designSummary, len(designs))
	for i, d := range designs {
		summaries[i] = designSummary{ID: d.ID, Name: d.Name}
	}

	data, _ := json.MarshalIndent(summaries, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "designer://designs",
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// handleDesignSceneResource serves the live scene of an open design, or the
// stored one otherwise.
func (s *Server) handleDesignSceneResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	designID := designIDFromURI(uri)
	if designID == "" {
		return nil, fmt.Errorf("could not extract designId from URI: %s", uri)
	}

	var scene *domain.Scene
	if open, err := s.sessions.Get(designID); err == nil {
		scene = open.Session.Scene()
	} else {
		d, err := s.designs.GetDesign(designID)
		if err != nil {
			return nil, err
		}
		scene = &d.Scene
	}

	data, _ := json.MarshalIndent(scene, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// designIDFromURI extracts the id from designer://design/{designId}/scene.
func designIDFromURI(uri string) string {
	rest, ok := strings.CutPrefix(uri, "designer://design/")
	if !ok {
		return ""
	}
	id, ok := strings.CutSuffix(rest, "/scene")
	if !ok || strings.Contains(id, "/") {
		return ""
	}
	return id
}
