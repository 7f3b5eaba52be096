package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Project is the cached view of a backend project. Payload holds the last
// resume state seen for it, verbatim.
type Project struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Status    string          `json:"status"`
	Stage     string          `json:"stage"`
	JobID     string          `json:"jobId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// UpsertProject inserts or replaces a cached project.
func (s *Store) UpsertProject(ctx context.Context, p Project) error {
	p.ID = strings.TrimSpace(p.ID)
	if p.ID == "" {
		return errors.New("store: project id is required")
	}
	if p.Status == "" {
		p.Status = "active"
	}
	if p.Stage == "" {
		p.Stage = "upload"
	}
	payload := "{}"
	if len(p.Payload) > 0 {
		payload = string(p.Payload)
	}
	updated := p.UpdatedAt
	if updated.IsZero() {
		updated = s.now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects(id, name, status, stage, job_id, payload_json, updated_at_unixms)
		VALUES(?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			status = excluded.status,
			stage = excluded.stage,
			job_id = CASE WHEN excluded.job_id = '' THEN projects.job_id ELSE excluded.job_id END,
			payload_json = excluded.payload_json,
			updated_at_unixms = excluded.updated_at_unixms`,
		p.ID, p.Name, p.Status, p.Stage, p.JobID, payload, updated.UnixMilli())
	return err
}

// EnsureProject creates a minimal row so history can reference the project.
func (s *Store) EnsureProject(ctx context.Context, id, name string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects(id, name, updated_at_unixms) VALUES(?, ?, ?)
		ON CONFLICT(id) DO NOTHING`, id, name, s.now().UnixMilli())
	return err
}

func scanProject(row interface{ Scan(...any) error }) (Project, error) {
	var (
		p       Project
		payload string
		updated int64
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Status, &p.Stage, &p.JobID, &payload, &updated); err != nil {
		return Project{}, err
	}
	if payload != "" && payload != "{}" {
		p.Payload = json.RawMessage(payload)
	}
	p.UpdatedAt = fromUnixMS(updated)
	return p, nil
}

const projectColumns = `id, name, status, stage, job_id, payload_json, updated_at_unixms`

func (s *Store) GetProject(ctx context.Context, id string) (Project, error) {
	p, err := scanProject(s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Project{}, ErrNotFound
	}
	return p, err
}

// FindProject resolves a project by id, then by exact name.
func (s *Store) FindProject(ctx context.Context, idOrName string) (Project, error) {
	p, err := s.GetProject(ctx, idOrName)
	if !errors.Is(err, ErrNotFound) {
		return p, err
	}
	p, err = scanProject(s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE name = ? ORDER BY updated_at_unixms DESC LIMIT 1`, idOrName))
	if errors.Is(err, sql.ErrNoRows) {
		return Project{}, ErrNotFound
	}
	return p, err
}

// ListProjects returns cached projects, most recently updated first.
func (s *Store) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects ORDER BY updated_at_unixms DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeleteProject removes a project together with its outline history,
// feedback and drafts.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
