package mcpserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventEmitter allows the approval queue to notify whoever is watching the editor.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// ErrRejected is returned when a destructive action is declined or times out.
var ErrRejected = errors.New("action rejected")

// PendingAction represents a destructive operation awaiting user approval.
type PendingAction struct {
	ID          string `json:"id"`
	Tool        string `json:"tool"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
	Metadata    string `json:"metadata"` // JSON with extra context (e.g. element IDs)
}

type actionResult struct {
	approved bool
}

type pendingEntry struct {
	action PendingAction
	ch     chan actionResult
}

// ApprovalQueue gates destructive MCP tool calls behind a human decision.
// It supports two modes:
//   - In-process (MCP inside the HTTP server): channels + emitted events
//   - DB-based (standalone `designer mcp`): rows in mcp_approvals, resolved
//     through the HTTP approvals endpoints and polled here
type ApprovalQueue struct {
	mu       sync.Mutex
	pending  map[string]*pendingEntry
	ctx      context.Context
	emitter  EventEmitter
	timeout  time.Duration
	interval time.Duration
	db       *sql.DB
}

func NewApprovalQueue(ctx context.Context, emitter EventEmitter) *ApprovalQueue {
	return &ApprovalQueue{
		pending:  make(map[string]*pendingEntry),
		ctx:      ctx,
		emitter:  emitter,
		timeout:  120 * time.Second,
		interval: 500 * time.Millisecond,
	}
}

// SetDB enables DB-based approval mode for standalone MCP.
func (q *ApprovalQueue) SetDB(db *sql.DB) {
	q.db = db
}

// SetTimeout changes how long a request waits before it is rejected.
func (q *ApprovalQueue) SetTimeout(d time.Duration) {
	q.timeout = d
}

// Request sends an approval request and blocks until approved, rejected or timed out.
func (q *ApprovalQueue) Request(tool, description string, metadata ...string) (bool, error) {
	id := uuid.New().String()
	meta := "{}"
	if len(metadata) > 0 && metadata[0] != "" {
		meta = metadata[0]
	}

	if q.db != nil {
		return q.requestViaDB(id, tool, description, meta)
	}
	return q.requestViaChannel(id, tool, description, meta)
}

func (q *ApprovalQueue) requestViaDB(id, tool, description, metadata string) (bool, error) {
	_, err := q.db.ExecContext(q.ctx,
		`INSERT INTO mcp_approvals (id, tool, description, status, metadata) VALUES (?, ?, ?, 'pending', ?)`,
		id, tool, description, metadata,
	)
	if err != nil {
		return false, fmt.Errorf("insert approval: %w", err)
	}
	defer q.db.Exec(`DELETE FROM mcp_approvals WHERE id = ?`, id)

	deadline := time.Now().Add(q.timeout)
	ticker := time.NewTicker(q.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if time.Now().After(deadline) {
				return false, fmt.Errorf("%w: %s timed out after %s", ErrRejected, tool, q.timeout)
			}
			var status string
			if err := q.db.QueryRow(`SELECT status FROM mcp_approvals WHERE id = ?`, id).Scan(&status); err != nil {
				continue
			}
			switch status {
			case "approved":
				return true, nil
			case "rejected":
				return false, fmt.Errorf("%w by user: %s", ErrRejected, tool)
			}
		case <-q.ctx.Done():
			return false, fmt.Errorf("approval %s: %w", tool, q.ctx.Err())
		}
	}
}

func (q *ApprovalQueue) requestViaChannel(id, tool, description, metadata string) (bool, error) {
	ch := make(chan actionResult, 1)
	action := PendingAction{
		ID:          id,
		Tool:        tool,
		Description: description,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339Nano),
		Metadata:    metadata,
	}

	q.mu.Lock()
	q.pending[id] = &pendingEntry{action: action, ch: ch}
	q.mu.Unlock()
	defer q.cleanup(id)

	q.emitter.Emit(q.ctx, "mcp:approval-required", action)

	select {
	case result := <-ch:
		if !result.approved {
			return false, fmt.Errorf("%w by user: %s", ErrRejected, tool)
		}
		return true, nil
	case <-time.After(q.timeout):
		q.emitter.Emit(q.ctx, "mcp:approval-dismissed", map[string]string{"id": id})
		return false, fmt.Errorf("%w: %s timed out after %s", ErrRejected, tool, q.timeout)
	case <-q.ctx.Done():
		return false, fmt.Errorf("approval %s: %w", tool, q.ctx.Err())
	}
}

// Pending lists the in-process actions still waiting for a decision, oldest
// first.
func (q *ApprovalQueue) Pending() []PendingAction {
	q.mu.Lock()
	out := make([]PendingAction, 0, len(q.pending))
	for _, e := range q.pending {
		out = append(out, e.action)
	}
	q.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out
}

// Approve marks a pending action as approved (in-process mode). It reports
// false when no such action is waiting.
func (q *ApprovalQueue) Approve(actionID string) bool {
	return q.resolve(actionID, true)
}

// Reject marks a pending action as rejected (in-process mode).
func (q *ApprovalQueue) Reject(actionID string) bool {
	return q.resolve(actionID, false)
}

func (q *ApprovalQueue) resolve(actionID string, approved bool) bool {
	q.mu.Lock()
	e, ok := q.pending[actionID]
	q.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case e.ch <- actionResult{approved: approved}:
		return true
	default:
		return false
	}
}

func (q *ApprovalQueue) cleanup(id string) {
	q.mu.Lock()
	delete(q.pending, id)
	q.mu.Unlock()
}
