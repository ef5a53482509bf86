package storage

import (
	"fmt"
	"time"
)

// Approval is a destructive MCP action waiting for a human decision.
type Approval struct {
	ID          string    `json:"id"`
	Tool        string    `json:"tool"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Metadata    string    `json:"metadata"`
	CreatedAt   time.Time `json:"createdAt"`
}

const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// ApprovalStore is the HTTP side of the mcp_approvals table: a standalone
// MCP process inserts pending rows and polls them, the server resolves them.
type ApprovalStore struct {
	db *DB
}

func NewApprovalStore(db *DB) *ApprovalStore {
	return &ApprovalStore{db: db}
}

func (s *ApprovalStore) ListPending() ([]Approval, error) {
	rows, err := s.db.Conn().Query(
		`SELECT id, tool, description, status, metadata, created_at FROM mcp_approvals
		 WHERE status = ? ORDER BY created_at ASC`, ApprovalPending,
	)
	if err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}
	defer rows.Close()

	out := []Approval{}
	for rows.Next() {
		var a Approval
		if err := rows.Scan(&a.ID, &a.Tool, &a.Description, &a.Status, &a.Metadata, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Resolve approves or rejects a pending action. It reports false when the
// action is unknown or already resolved.
func (s *ApprovalStore) Resolve(id string, approved bool) (bool, error) {
	status := ApprovalRejected
	if approved {
		status = ApprovalApproved
	}
	res, err := s.db.Conn().Exec(
		`UPDATE mcp_approvals SET status = ? WHERE id = ? AND status = ?`, status, id, ApprovalPending,
	)
	if err != nil {
		return false, fmt.Errorf("resolve approval: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
