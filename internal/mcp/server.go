package mcpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"designer/internal/assets"
	"designer/internal/service"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server is the MCP server for the designer.
// It exposes editor operations, resources and prompts so AI agents can edit designs.
type Server struct {
	mcp      *server.MCPServer
	emitter  EventEmitter
	approval *ApprovalQueue

	// Services (injected from app layer)
	designs   *service.DesignService
	sessions  *service.SessionService
	exports   *service.ExportService
	shapes    assets.Library
	templates assets.Library
	images    assets.Library

	// Active design context (set by open_design / create_design)
	mu             sync.Mutex
	activeDesignID string
}

// Deps holds all dependencies passed from the app layer to the MCP server.
type Deps struct {
	Emitter    EventEmitter
	Designs    *service.DesignService
	Sessions   *service.SessionService
	Exports    *service.ExportService
	Templates  assets.Library
	Images     assets.Library
	ApprovalDB *sql.DB // When set, use SQLite-based approval (standalone mode)
}

// New creates and configures a new MCP server with all tools and resources.
func New(ctx context.Context, deps Deps) *Server {
	approval := NewApprovalQueue(ctx, deps.Emitter)
	if deps.ApprovalDB != nil {
		approval.SetDB(deps.ApprovalDB)
	}
	s := &Server{
		emitter:   deps.Emitter,
		approval:  approval,
		designs:   deps.Designs,
		sessions:  deps.Sessions,
		exports:   deps.Exports,
		shapes:    assets.ShapeCatalog{},
		templates: deps.Templates,
		images:    deps.Images,
	}

	s.mcp = server.NewMCPServer(
		"designer-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerDesignTools()
	s.registerElementTools()
	s.registerArrangeTools()
	s.registerLibraryTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	log.Println("[MCP] Starting stdio server...")
	return server.ServeStdio(s.mcp)
}

// NewHTTPServer exposes the server over streamable HTTP, served at /mcp.
func (s *Server) NewHTTPServer() *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(s.mcp)
}

// Pending lists actions waiting for approval in the in-process queue.
func (s *Server) Pending() []PendingAction {
	return s.approval.Pending()
}

// Approve forwards a user approval to the approval queue.
func (s *Server) Approve(actionID string) bool {
	return s.approval.Approve(actionID)
}

// Reject forwards a user rejection to the approval queue.
func (s *Server) Reject(actionID string) bool {
	return s.approval.Reject(actionID)
}

// ── Helpers ────────────────────────────────────────────────

// emitSceneChanged notifies listeners that a design's scene was edited.
func (s *Server) emitSceneChanged(ctx context.Context, designID string) {
	s.emitter.Emit(ctx, "mcp:scene-changed", map[string]string{"designId": designID})
}

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

func (s *Server) setActive(designID string) {
	s.mu.Lock()
	s.activeDesignID = designID
	s.mu.Unlock()
}

func (s *Server) active() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeDesignID
}

// resolveDesignID returns the designId from tool args or falls back to the active design.
func (s *Server) resolveDesignID(args map[string]any) (string, error) {
	if id, ok := args["designId"].(string); ok && id != "" {
		return id, nil
	}
	if id := s.active(); id != "" {
		return id, nil
	}
	return "", fmt.Errorf("no designId provided and no active design set (use open_design first)")
}

// resolveSession opens (or reuses) the editor session for the resolved design.
func (s *Server) resolveSession(ctx context.Context, args map[string]any) (*service.OpenSession, error) {
	id, err := s.resolveDesignID(args)
	if err != nil {
		return nil, err
	}
	return s.sessions.Open(ctx, id)
}
