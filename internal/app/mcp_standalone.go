package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"designer/internal/config"
	mcpserver "designer/internal/mcp"
	"designer/internal/service"
)

// ServeMCP runs the designer as a standalone MCP server on stdin/stdout.
// Destructive tools wait for approval through the mcp_approvals table, which
// the HTTP server's approvals endpoints resolve.
func ServeMCP(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// stdout carries the MCP protocol, so logs go to stderr.
	log.SetOutput(os.Stderr)

	a, err := New(cfg, service.LogEmitter{})
	if err != nil {
		return err
	}
	defer a.Shutdown(context.Background())

	if err := a.Startup(ctx); err != nil {
		return err
	}

	mcpSrv := mcpserver.New(ctx, mcpserver.Deps{
		Emitter:    a.emitter,
		Designs:    a.designs,
		Sessions:   a.sessions,
		Exports:    a.exports,
		Templates:  a.templates,
		Images:     a.images,
		ApprovalDB: a.db.Conn(), // Enable SQLite-based approval IPC
	})

	log.Println("[MCP] Starting standalone stdio server...")
	if err := mcpSrv.ServeStdio(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
