package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"designer/internal/domain"
)

// UploadStore implements domain.UploadStore using SQLite.
type UploadStore struct {
	db *DB
}

func NewUploadStore(db *DB) *UploadStore {
	return &UploadStore{db: db}
}

func (s *UploadStore) CreateUpload(u *domain.Upload) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	_, err := s.db.Conn().Exec(
		`INSERT INTO uploads (id, folder, filename, path, url, mime, size, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Folder, u.Filename, u.Path, u.URL, u.MIME, u.Size, u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert upload: %w", err)
	}
	return nil
}

func (s *UploadStore) GetUpload(id string) (*domain.Upload, error) {
	u := &domain.Upload{}
	err := s.db.Conn().QueryRow(
		`SELECT id, folder, filename, path, url, mime, size, created_at FROM uploads WHERE id = ?`, id,
	).Scan(&u.ID, &u.Folder, &u.Filename, &u.Path, &u.URL, &u.MIME, &u.Size, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get upload %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get upload: %w", err)
	}
	return u, nil
}

// ListUploads returns uploads newest first; an empty folder lists all.
func (s *UploadStore) ListUploads(folder string) ([]domain.Upload, error) {
	query := `SELECT id, folder, filename, path, url, mime, size, created_at FROM uploads`
	var args []any
	if folder != "" {
		query += ` WHERE folder = ?`
		args = append(args, folder)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := s.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	defer rows.Close()

	uploads := []domain.Upload{}
	for rows.Next() {
		var u domain.Upload
		if err := rows.Scan(&u.ID, &u.Folder, &u.Filename, &u.Path, &u.URL, &u.MIME, &u.Size, &u.CreatedAt); err != nil {
			return nil, err
		}
		uploads = append(uploads, u)
	}
	return uploads, rows.Err()
}

func (s *UploadStore) DeleteUpload(id string) error {
	_, err := s.db.Conn().Exec(`DELETE FROM uploads WHERE id = ?`, id)
	return err
}
