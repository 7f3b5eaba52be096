package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"quibo-cli/internal/outline"
)

// Version sources.
const (
	SourceGenerated   = "generated"
	SourceEdited      = "edited"
	SourceRegenerated = "regenerated"
)

// Feedback sources.
const (
	FeedbackUser = "user"
	FeedbackAuto = "auto"
)

type OutlineVersion struct {
	ID            string           `json:"id"`
	ProjectID     string           `json:"projectId"`
	VersionNumber int              `json:"versionNumber"`
	Outline       outline.Document `json:"outline"`
	Source        string           `json:"source"`
	FeedbackID    string           `json:"feedbackId,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
}

type Feedback struct {
	ID               string    `json:"id"`
	ProjectID        string    `json:"projectId"`
	OutlineVersionID string    `json:"outlineVersionId,omitempty"`
	Content          string    `json:"content"`
	FocusArea        string    `json:"focusArea,omitempty"`
	Source           string    `json:"source"`
	Addressed        bool      `json:"addressed"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Draft is an autosaved outline that has not been sent to the backend.
type Draft struct {
	ProjectID string           `json:"projectId"`
	Outline   outline.Document `json:"outline"`
	SavedAt   time.Time        `json:"savedAt"`
}

func nullable(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}

// SaveOutlineVersion appends doc as the project's next version. feedbackID
// links the feedback that produced it, if any.
func (s *Store) SaveOutlineVersion(ctx context.Context, projectID string, doc outline.Document, source, feedbackID string) (OutlineVersion, error) {
	if strings.TrimSpace(projectID) == "" {
		return OutlineVersion{}, errors.New("store: project id is required")
	}
	if source == "" {
		source = SourceGenerated
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return OutlineVersion{}, err
	}
	v := OutlineVersion{
		ID:         uuid.NewString(),
		ProjectID:  projectID,
		Outline:    doc,
		Source:     source,
		FeedbackID: strings.TrimSpace(feedbackID),
		CreatedAt:  s.now().UTC(),
	}
	err = s.tx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(version_number), 0) + 1 FROM outline_versions WHERE project_id = ?`,
			projectID).Scan(&v.VersionNumber); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO outline_versions(id, project_id, version_number, outline_json, source, feedback_id, created_at_unixms)
			VALUES(?, ?, ?, ?, ?, ?, ?)`,
			v.ID, projectID, v.VersionNumber, string(b), source, nullable(v.FeedbackID), v.CreatedAt.UnixMilli())
		return err
	})
	if err != nil {
		return OutlineVersion{}, err
	}
	return v, nil
}

func scanVersion(row interface{ Scan(...any) error }) (OutlineVersion, error) {
	var (
		v        OutlineVersion
		raw      string
		feedback sql.NullString
		created  int64
	)
	if err := row.Scan(&v.ID, &v.ProjectID, &v.VersionNumber, &raw, &v.Source, &feedback, &created); err != nil {
		return OutlineVersion{}, err
	}
	if err := json.Unmarshal([]byte(raw), &v.Outline); err != nil {
		return OutlineVersion{}, err
	}
	v.FeedbackID = feedback.String
	v.CreatedAt = fromUnixMS(created)
	return v, nil
}

const versionColumns = `id, project_id, version_number, outline_json, source, feedback_id, created_at_unixms`

// OutlineVersions lists a project's versions, newest first.
func (s *Store) OutlineVersions(ctx context.Context, projectID string) ([]OutlineVersion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+versionColumns+` FROM outline_versions WHERE project_id = ? ORDER BY version_number DESC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []OutlineVersion
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) LatestOutlineVersion(ctx context.Context, projectID string) (OutlineVersion, error) {
	v, err := scanVersion(s.db.QueryRowContext(ctx,
		`SELECT `+versionColumns+` FROM outline_versions WHERE project_id = ? ORDER BY version_number DESC LIMIT 1`, projectID))
	if errors.Is(err, sql.ErrNoRows) {
		return OutlineVersion{}, ErrNotFound
	}
	return v, err
}

func (s *Store) OutlineVersion(ctx context.Context, projectID string, number int) (OutlineVersion, error) {
	v, err := scanVersion(s.db.QueryRowContext(ctx,
		`SELECT `+versionColumns+` FROM outline_versions WHERE project_id = ? AND version_number = ?`, projectID, number))
	if errors.Is(err, sql.ErrNoRows) {
		return OutlineVersion{}, ErrNotFound
	}
	return v, err
}

// DeleteOutlineVersion removes one version; feedback that referenced it is kept
// with its version link cleared.
func (s *Store) DeleteOutlineVersion(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM outline_versions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddFeedback records feedback against a project and, optionally, the
// outline version it was given on.
func (s *Store) AddFeedback(ctx context.Context, f Feedback) (Feedback, error) {
	if strings.TrimSpace(f.ProjectID) == "" {
		return Feedback{}, errors.New("store: project id is required")
	}
	if strings.TrimSpace(f.Content) == "" {
		return Feedback{}, errors.New("store: feedback content is required")
	}
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.Source == "" {
		f.Source = FeedbackUser
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = s.now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO outline_feedback(id, project_id, outline_version_id, content, focus_area, source, addressed, created_at_unixms)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.ProjectID, nullable(f.OutlineVersionID), f.Content, f.FocusArea, f.Source, f.Addressed, f.CreatedAt.UnixMilli())
	if err != nil {
		return Feedback{}, err
	}
	return f, nil
}

// ListFeedback returns a project's feedback, oldest first.
func (s *Store) ListFeedback(ctx context.Context, projectID string) ([]Feedback, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, outline_version_id, content, focus_area, source, addressed, created_at_unixms
		FROM outline_feedback WHERE project_id = ? ORDER BY created_at_unixms, id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Feedback
	for rows.Next() {
		var (
			f       Feedback
			version sql.NullString
			created int64
		)
		if err := rows.Scan(&f.ID, &f.ProjectID, &version, &f.Content, &f.FocusArea, &f.Source, &f.Addressed, &created); err != nil {
			return nil, err
		}
		f.OutlineVersionID = version.String
		f.CreatedAt = fromUnixMS(created)
		out = append(out, f)
	}
	return out, rows.Err()
}

// MarkFeedbackAddressed flags feedback as consumed by a regeneration.
func (s *Store) MarkFeedbackAddressed(ctx context.Context, ids ...string) error {
	return s.tx(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			if _, err := tx.ExecContext(ctx, `UPDATE outline_feedback SET addressed = 1 WHERE id = ?`, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveDraft replaces the project's autosaved outline.
func (s *Store) SaveDraft(ctx context.Context, projectID string, doc outline.Document) (Draft, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return Draft{}, err
	}
	d := Draft{ProjectID: projectID, Outline: doc, SavedAt: s.now().UTC()}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO outline_drafts(project_id, outline_json, saved_at_unixms) VALUES(?, ?, ?)
		ON CONFLICT(project_id) DO UPDATE SET
			outline_json = excluded.outline_json,
			saved_at_unixms = excluded.saved_at_unixms`,
		projectID, string(b), d.SavedAt.UnixMilli())
	if err != nil {
		return Draft{}, err
	}
	return d, nil
}

func (s *Store) LoadDraft(ctx context.Context, projectID string) (Draft, error) {
	var (
		raw   string
		saved int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT outline_json, saved_at_unixms FROM outline_drafts WHERE project_id = ?`, projectID).Scan(&raw, &saved)
	if errors.Is(err, sql.ErrNoRows) {
		return Draft{}, ErrNotFound
	}
	if err != nil {
		return Draft{}, err
	}
	d := Draft{ProjectID: projectID, SavedAt: fromUnixMS(saved)}
	if err := json.Unmarshal([]byte(raw), &d.Outline); err != nil {
		return Draft{}, err
	}
	return d, nil
}

func (s *Store) ClearDraft(ctx context.Context, projectID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM outline_drafts WHERE project_id = ?`, projectID)
	return err
}
