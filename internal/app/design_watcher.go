package app

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"designer/internal/service"
)

// designWatcher polls the database for changes made by another process
// (a standalone MCP server sharing the same SQLite file) and emits events
// for them: new pending approvals and design list changes.
type designWatcher struct {
	ctx      context.Context
	db       *sql.DB
	emitter  service.EventEmitter
	interval time.Duration

	mu         sync.Mutex
	lastDesign string // designs fingerprint (count + max updated_at)
	stopCh     chan struct{}
	done       chan struct{}
	// Track emitted approval IDs to avoid re-emission
	emittedApprovals map[string]bool
}

func newDesignWatcher(ctx context.Context, db *sql.DB, emitter service.EventEmitter) *designWatcher {
	return &designWatcher{
		ctx:              ctx,
		db:               db,
		emitter:          emitter,
		interval:         2 * time.Second,
		emittedApprovals: map[string]bool{},
	}
}

// Start begins the polling loop.
func (w *designWatcher) Start() {
	w.stopCh = make(chan struct{})
	w.done = make(chan struct{})
	go w.pollLoop()
}

// Stop terminates the polling loop and waits for it to exit.
func (w *designWatcher) Stop() {
	if w.stopCh == nil {
		return
	}
	close(w.stopCh)
	<-w.done
	w.stopCh = nil
}

func (w *designWatcher) pollLoop() {
	defer close(w.done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.check()
		case <-w.stopCh:
			return
		case <-w.ctx.Done():
			return
		}
	}
}

func (w *designWatcher) check() {
	// ── Design list fingerprint ─────────────────────────
	var count int
	var maxUpdated string
	err := w.db.QueryRow(
		`SELECT COUNT(*), COALESCE(MAX(updated_at), '') FROM designs`,
	).Scan(&count, &maxUpdated)
	if err == nil {
		fingerprint := fmt.Sprintf("%d:%s", count, maxUpdated)
		w.mu.Lock()
		changed := w.lastDesign != "" && w.lastDesign != fingerprint
		w.lastDesign = fingerprint
		w.mu.Unlock()
		if changed {
			w.emitter.Emit(w.ctx, "designs:changed", map[string]any{"count": count})
		}
	}

	// ── Pending MCP approvals (cross-process IPC) ──────
	rows, err := w.db.Query(`SELECT id, tool, description, created_at, metadata FROM mcp_approvals WHERE status = 'pending'`)
	if err != nil {
		return
	}
	pending := map[string]bool{}
	for rows.Next() {
		var id, tool, desc, createdAt, metadata string
		if rows.Scan(&id, &tool, &desc, &createdAt, &metadata) != nil {
			continue
		}
		pending[id] = true
		w.mu.Lock()
		alreadySent := w.emittedApprovals[id]
		w.emittedApprovals[id] = true
		w.mu.Unlock()
		if !alreadySent {
			w.emitter.Emit(w.ctx, "mcp:approval-required", map[string]string{
				"id":          id,
				"tool":        tool,
				"description": desc,
				"createdAt":   createdAt,
				"metadata":    metadata,
			})
		}
	}
	rows.Close()

	// Forget approvals that were resolved or deleted
	w.mu.Lock()
	for id := range w.emittedApprovals {
		if !pending[id] {
			delete(w.emittedApprovals, id)
		}
	}
	w.mu.Unlock()
}
