package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"designer/internal/domain"
)

// DesignStore implements domain.DesignStore using SQLite. The scene is kept
// as JSON in the same shape the HTTP API accepts.
type DesignStore struct {
	db *DB
}

func NewDesignStore(db *DB) *DesignStore {
	return &DesignStore{db: db}
}

const designColumns = `id, name, category, is_template, scene_json, thumbnail_url, created_at, updated_at`

func (s *DesignStore) CreateDesign(d *domain.Design) error {
	now := time.Now()
	d.CreatedAt = now
	d.UpdatedAt = now
	sceneJSON, err := json.Marshal(d.Scene)
	if err != nil {
		return fmt.Errorf("marshal scene: %w", err)
	}
	_, err = s.db.Conn().Exec(
		`INSERT INTO designs (`+designColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Name, d.Category, d.IsTemplate, string(sceneJSON), d.ThumbnailURL, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert design: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDesign(row scanner) (*domain.Design, error) {
	d := &domain.Design{}
	var sceneJSON string
	if err := row.Scan(&d.ID, &d.Name, &d.Category, &d.IsTemplate, &sceneJSON, &d.ThumbnailURL, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(sceneJSON), &d.Scene); err != nil {
		return nil, fmt.Errorf("unmarshal scene of %s: %w", d.ID, err)
	}
	if d.Scene.Elements == nil {
		d.Scene.Elements = []domain.Element{}
	}
	return d, nil
}

func (s *DesignStore) GetDesign(id string) (*domain.Design, error) {
	d, err := scanDesign(s.db.Conn().QueryRow(`SELECT `+designColumns+` FROM designs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get design %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get design: %w", err)
	}
	return d, nil
}

// ListDesigns returns designs (or templates when q.Templates) matching the
// search text and category.
func (s *DesignStore) ListDesigns(q domain.DesignQuery) ([]domain.Design, error) {
	where := []string{"is_template = ?"}
	args := []any{q.Templates}
	if q.Search != "" {
		where = append(where, `name LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(q.Search)+"%")
	}
	if q.Category != "" {
		where = append(where, "category = ?")
		args = append(args, q.Category)
	}

	order := "created_at DESC, rowid DESC"
	switch q.Sort {
	case domain.SortOldest:
		order = "created_at ASC, rowid ASC"
	case domain.SortName:
		order = "name COLLATE NOCASE ASC"
	}

	query := `SELECT ` + designColumns + ` FROM designs WHERE ` + strings.Join(where, " AND ") + ` ORDER BY ` + order
	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}

	rows, err := s.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list designs: %w", err)
	}
	defer rows.Close()

	designs := []domain.Design{}
	for rows.Next() {
		d, err := scanDesign(rows)
		if err != nil {
			return nil, err
		}
		designs = append(designs, *d)
	}
	return designs, rows.Err()
}

func (s *DesignStore) UpdateDesign(d *domain.Design) error {
	d.UpdatedAt = time.Now()
	sceneJSON, err := json.Marshal(d.Scene)
	if err != nil {
		return fmt.Errorf("marshal scene: %w", err)
	}
	res, err := s.db.Conn().Exec(
		`UPDATE designs SET name = ?, category = ?, is_template = ?, scene_json = ?, thumbnail_url = ?, updated_at = ? WHERE id = ?`,
		d.Name, d.Category, d.IsTemplate, string(sceneJSON), d.ThumbnailURL, d.UpdatedAt, d.ID,
	)
	if err != nil {
		return fmt.Errorf("update design: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update design %s: %w", d.ID, domain.ErrNotFound)
	}
	return nil
}

func (s *DesignStore) DeleteDesign(id string) error {
	_, err := s.db.Conn().Exec(`DELETE FROM designs WHERE id = ?`, id)
	return err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
