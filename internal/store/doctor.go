package store

import (
	"context"
	"fmt"
)

type DoctorIssueLevel string

const (
	DoctorIssueLevelError DoctorIssueLevel = "error"
	DoctorIssueLevelWarn  DoctorIssueLevel = "warn"
)

type DoctorIssue struct {
	Level   DoctorIssueLevel `json:"level"`
	Code    string           `json:"code"`
	Message string           `json:"message"`
	Table   string           `json:"table,omitempty"`
}

type DoctorReport struct {
	Path          string        `json:"path"`
	SchemaVersion int           `json:"schemaVersion"`
	Projects      int           `json:"projects"`
	Versions      int           `json:"versions"`
	Feedback      int           `json:"feedback"`
	Drafts        int           `json:"drafts"`
	Issues        []DoctorIssue `json:"issues"`
}

func (r DoctorReport) HasErrors() bool {
	for _, it := range r.Issues {
		if it.Level == DoctorIssueLevelError {
			return true
		}
	}
	return false
}

// Doctor runs SQLite's integrity and foreign key checks and counts cached rows.
func (s *Store) Doctor(ctx context.Context) (DoctorReport, error) {
	r := DoctorReport{Path: s.path, Issues: []DoctorIssue{}}

	v, err := s.SchemaVersion(ctx)
	if err != nil {
		return r, err
	}
	r.SchemaVersion = v

	rows, err := s.db.QueryContext(ctx, `PRAGMA integrity_check`)
	if err != nil {
		return r, err
	}
	for rows.Next() {
		var msg string
		if err := rows.Scan(&msg); err != nil {
			rows.Close()
			return r, err
		}
		if msg != "ok" {
			r.Issues = append(r.Issues, DoctorIssue{Level: DoctorIssueLevelError, Code: "integrity", Message: msg})
		}
	}
	rows.Close()

	fk, err := s.db.QueryContext(ctx, `PRAGMA foreign_key_check`)
	if err != nil {
		return r, err
	}
	for fk.Next() {
		var (
			table, parent string
			rowid         any
			fkid          int
		)
		if err := fk.Scan(&table, &rowid, &parent, &fkid); err != nil {
			fk.Close()
			return r, err
		}
		r.Issues = append(r.Issues, DoctorIssue{
			Level:   DoctorIssueLevelError,
			Code:    "foreign_key",
			Table:   table,
			Message: fmt.Sprintf("row %v references a missing %s row", rowid, parent),
		})
	}
	fk.Close()

	counts := []struct {
		table string
		dst   *int
	}{
		{"projects", &r.Projects},
		{"outline_versions", &r.Versions},
		{"outline_feedback", &r.Feedback},
		{"outline_drafts", &r.Drafts},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM `+c.table).Scan(c.dst); err != nil {
			return r, err
		}
	}

	var stale int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM outline_drafts d
		WHERE EXISTS (
			SELECT 1 FROM outline_versions v
			WHERE v.project_id = d.project_id AND v.created_at_unixms > d.saved_at_unixms
		)`).Scan(&stale); err != nil {
		return r, err
	}
	if stale > 0 {
		r.Issues = append(r.Issues, DoctorIssue{
			Level:   DoctorIssueLevelWarn,
			Code:    "stale_draft",
			Table:   "outline_drafts",
			Message: fmt.Sprintf("%d autosaved outline(s) older than the latest saved version", stale),
		})
	}
	return r, nil
}
