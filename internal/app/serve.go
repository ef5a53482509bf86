package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"

	"designer/internal/api"
	"designer/internal/config"
	"designer/internal/export"
	mcpserver "designer/internal/mcp"
	"designer/internal/service"
	"designer/internal/storage"
)

// ============================================================
// HTTP server
// ============================================================

// ServeHTTP runs the REST API until interrupted, then shuts down gracefully.
func ServeHTTP(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := New(cfg, service.LogEmitter{})
	if err != nil {
		return err
	}
	defer a.Shutdown(context.Background())

	if err := a.Startup(ctx); err != nil {
		return err
	}

	// Surface approvals and edits made by a standalone MCP process.
	watcher := newDesignWatcher(ctx, a.db.Conn(), a.emitter)
	watcher.Start()
	defer watcher.Stop()

	defaults := export.DefaultOptions()
	defaults.Scale = cfg.ExportScale
	defaults.Quality = cfg.JPEGQuality

	approvals := &approvalRouter{store: storage.NewApprovalStore(a.db)}
	errCh := make(chan error, 2)

	// MCP in-process: approvals wait on channels resolved by the API below.
	if cfg.MCPPort != "" {
		mcpSrv := mcpserver.New(ctx, mcpserver.Deps{
			Emitter:   a.emitter,
			Designs:   a.designs,
			Sessions:  a.sessions,
			Exports:   a.exports,
			Templates: a.templates,
			Images:    a.images,
		})
		approvals.local = mcpSrv
		mcpHTTP := mcpSrv.NewHTTPServer()
		go func() {
			addr := fmt.Sprintf(":%s", cfg.MCPPort)
			log.Printf("[MCP] Starting streamable HTTP server on %s/mcp", addr)
			if err := mcpHTTP.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("mcp server: %w", err)
			}
		}()
		defer func() {
			shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			if err := mcpHTTP.Shutdown(shutdownCtx); err != nil {
				log.Printf("[MCP] shutdown: %v", err)
			}
		}()
	}

	srv := api.New(api.Deps{
		Designs:      a.designs,
		Uploads:      a.uploads,
		Exports:      a.exports,
		Sessions:     a.sessions,
		Templates:    a.templates,
		Approvals:    approvals,
		Defaults:     defaults,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
	})

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Printf("Starting Designer API on %s (data: %s)", addr, cfg.DataDir)
		if err := srv.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
			errCh <- fmt.Errorf("listen: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("[API] shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	return srv.ShutdownWithContext(shutdownCtx)
}
