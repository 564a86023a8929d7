// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history keeps a local SQLite record of upload outcomes so that
// paper IDs returned by the service can be reused in later extract queries.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/oshima-client/pkg/types"
)

// DefaultLimit is the number of entries List returns when limit is not
// positive.
const DefaultLimit = 20

// Entry is one recorded upload attempt.
type Entry struct {
	ID          int64               `json:"id" yaml:"id"`
	Path        string              `json:"path" yaml:"path"`
	Filename    string              `json:"filename" yaml:"filename"`
	PaperID     string              `json:"paper_id,omitempty" yaml:"paper_id,omitempty"`
	Status      types.OutcomeStatus `json:"status" yaml:"status"`
	PaperStatus string              `json:"paper_status,omitempty" yaml:"paper_status,omitempty"`
	Error       string              `json:"error,omitempty" yaml:"error,omitempty"`
	UploadedAt  time.Time           `json:"uploaded_at" yaml:"uploaded_at"`
}

// Store manages the history database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the history database at path, creating parent
// directories and the schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS uploads (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT NOT NULL,
			filename TEXT NOT NULL,
			paper_id TEXT,
			status TEXT NOT NULL,
			paper_status TEXT,
			error TEXT,
			uploaded_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_uploads_paper_id ON uploads(paper_id)`,
		`CREATE INDEX IF NOT EXISTS idx_uploads_status ON uploads(status)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RecordUpload stores one upload outcome. It satisfies upload.Recorder.
func (s *Store) RecordUpload(ctx context.Context, path string, outcome types.UploadOutcome) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO uploads (path, filename, paper_id, status, paper_status, error, uploaded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		path, outcome.Filename, nullString(outcome.PaperID), string(outcome.Status),
		nullString(outcome.PaperStatus), nullString(outcome.Error),
		s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording upload of %s: %w", outcome.Filename, err)
	}
	return nil
}

// List returns up to limit entries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, path, filename, paper_id, status, paper_status, error, uploaded_at
		 FROM uploads ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                             Entry
			paperID, paperStatus, errText sql.NullString
			status, uploadedAt            string
		)
		if err := rows.Scan(&e.ID, &e.Path, &e.Filename, &paperID, &status, &paperStatus, &errText, &uploadedAt); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		e.PaperID = paperID.String
		e.Status = types.OutcomeStatus(status)
		e.PaperStatus = paperStatus.String
		e.Error = errText.String
		if t, err := time.Parse(time.RFC3339Nano, uploadedAt); err == nil {
			e.UploadedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// RecentPaperIDs returns up to n distinct paper IDs from successful
// uploads, most recent first.
func (s *Store) RecentPaperIDs(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT paper_id FROM uploads
		 WHERE status = ? AND paper_id IS NOT NULL AND paper_id != ''
		 GROUP BY paper_id
		 ORDER BY MAX(id) DESC
		 LIMIT ?`, string(types.OutcomeSuccess), n)
	if err != nil {
		return nil, fmt.Errorf("querying recent papers: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning paper id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// WriteYAML encodes entries as a YAML list.
func WriteYAML(w io.Writer, entries []Entry) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// WriteJSON encodes entries as an indented JSON array.
func WriteJSON(w io.Writer, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
