package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"designer/internal/history"
)

// HistoryStore persists linear undo histories in SQLite. It implements
// history.Store; keys are design ids.
type HistoryStore struct {
	db *DB
}

func NewHistoryStore(db *DB) *HistoryStore {
	return &HistoryStore{db: db}
}

var _ history.Store = (*HistoryStore)(nil)

// Load returns all entries for key in order and the cursor seq.
func (s *HistoryStore) Load(key string) ([]history.Entry, int64, error) {
	rows, err := s.db.Conn().Query(
		`SELECT seq, label, elements_json FROM history_entries
		 WHERE history_key = ? ORDER BY seq ASC`, key,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("load history entries: %w", err)
	}
	defer rows.Close()

	var entries []history.Entry
	for rows.Next() {
		var e history.Entry
		var elementsJSON string
		if err := rows.Scan(&e.Seq, &e.Label, &elementsJSON); err != nil {
			return nil, 0, fmt.Errorf("scan history entry: %w", err)
		}
		if err := json.Unmarshal([]byte(elementsJSON), &e.Elements); err != nil {
			return nil, 0, fmt.Errorf("unmarshal history entry %d: %w", e.Seq, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if len(entries) == 0 {
		return nil, 0, nil // No history yet
	}

	var cursor int64
	err = s.db.Conn().QueryRow(
		`SELECT cursor_seq FROM history_state WHERE history_key = ?`, key,
	).Scan(&cursor)
	if errors.Is(err, sql.ErrNoRows) {
		cursor = entries[len(entries)-1].Seq // Fallback
	} else if err != nil {
		return nil, 0, fmt.Errorf("load history cursor: %w", err)
	}
	return entries, cursor, nil
}

// Push truncates entries after afterSeq, appends e, moves the cursor to it
// and prunes the oldest entries beyond limit, in one transaction.
func (s *HistoryStore) Push(key string, afterSeq int64, e history.Entry, limit int) error {
	elementsJSON, err := json.Marshal(e.Elements)
	if err != nil {
		return fmt.Errorf("marshal elements: %w", err)
	}

	tx, err := s.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	// Drop the redo branch
	if _, err := tx.Exec(
		`DELETE FROM history_entries WHERE history_key = ? AND seq > ?`, key, afterSeq,
	); err != nil {
		return fmt.Errorf("truncate history: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT INTO history_entries (history_key, seq, label, elements_json, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		key, e.Seq, e.Label, string(elementsJSON), time.Now(),
	); err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT INTO history_state (history_key, cursor_seq) VALUES (?, ?)
		 ON CONFLICT(history_key) DO UPDATE SET cursor_seq = excluded.cursor_seq`,
		key, e.Seq,
	); err != nil {
		return fmt.Errorf("update history cursor: %w", err)
	}
	if limit > 0 {
		// The new entry is the cursor and the newest, so keeping the newest
		// `limit` rows never drops it.
		if _, err := tx.Exec(
			`DELETE FROM history_entries WHERE history_key = ? AND seq NOT IN (
				SELECT seq FROM history_entries WHERE history_key = ? ORDER BY seq DESC LIMIT ?
			)`, key, key, limit,
		); err != nil {
			return fmt.Errorf("prune history: %w", err)
		}
	}
	return tx.Commit()
}

// Move updates the cursor position.
func (s *HistoryStore) Move(key string, seq int64) error {
	_, err := s.db.Conn().Exec(
		`INSERT INTO history_state (history_key, cursor_seq) VALUES (?, ?)
		 ON CONFLICT(history_key) DO UPDATE SET cursor_seq = excluded.cursor_seq`,
		key, seq,
	)
	return err
}

// Clear removes all history for key.
func (s *HistoryStore) Clear(key string) error {
	_, _ = s.db.Conn().Exec(`DELETE FROM history_state WHERE history_key = ?`, key)
	_, err := s.db.Conn().Exec(`DELETE FROM history_entries WHERE history_key = ?`, key)
	return err
}
