package app

import (
	"time"

	mcpserver "designer/internal/mcp"
	"designer/internal/storage"
)

// inProcessApprovals is the approval side of an MCP server hosted in this
// process.
type inProcessApprovals interface {
	Pending() []mcpserver.PendingAction
	Approve(id string) bool
	Reject(id string) bool
}

// approvalRouter serves the HTTP approvals endpoints from both queues: the
// MCP server hosted by `serve` and the mcp_approvals rows written by
// standalone `designer mcp` processes.
type approvalRouter struct {
	local inProcessApprovals
	store *storage.ApprovalStore
}

func (r *approvalRouter) ListPending() ([]storage.Approval, error) {
	out := []storage.Approval{}
	if r.local != nil {
		for _, p := range r.local.Pending() {
			created, _ := time.Parse(time.RFC3339Nano, p.CreatedAt)
			out = append(out, storage.Approval{
				ID:          p.ID,
				Tool:        p.Tool,
				Description: p.Description,
				Status:      storage.ApprovalPending,
				Metadata:    p.Metadata,
				CreatedAt:   created,
			})
		}
	}
	stored, err := r.store.ListPending()
	if err != nil {
		return nil, err
	}
	return append(out, stored...), nil
}

func (r *approvalRouter) Resolve(id string, approved bool) (bool, error) {
	if r.local != nil {
		resolve := r.local.Reject
		if approved {
			resolve = r.local.Approve
		}
		if resolve(id) {
			return true, nil
		}
	}
	return r.store.Resolve(id, approved)
}
