package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dhabedank/stageprompt/internal/core"
)

// SQLiteStore persists prompt records and documents in a SQLite database.
// It implements core.RecordStore and core.DocumentStore.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

var (
	_ core.RecordStore   = (*SQLiteStore)(nil)
	_ core.DocumentStore = (*SQLiteStore)(nil)
)

// NewSQLiteStore opens (or creates) the database at path. ":memory:" opens
// a private in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps :memory: databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// initialize creates the required tables.
func (s *SQLiteStore) initialize() error {
	promptsTable := `
	CREATE TABLE IF NOT EXISTS prompts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id TEXT NOT NULL,
		stage INTEGER NOT NULL,
		version INTEGER,
		prompt_number INTEGER,
		global_number INTEGER,
		ordinal INTEGER,
		title TEXT NOT NULL DEFAULT '',
		objective TEXT NOT NULL DEFAULT '',
		body TEXT NOT NULL DEFAULT '',
		outcome TEXT NOT NULL DEFAULT '',
		category TEXT,
		created_at TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_prompts_project_stage ON prompts(project_id, stage);
	`

	documentsTable := `
	CREATE TABLE IF NOT EXISTS documents (
		project_id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		content_type TEXT NOT NULL DEFAULT '',
		uploaded_at TEXT NOT NULL
	);
	`

	for _, table := range []string{promptsTable, documentsTable} {
		if _, err := s.db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// Path returns the database location.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ReplaceStagePrompts deletes a stage's rows and inserts records in one
// transaction.
func (s *SQLiteStore) ReplaceStagePrompts(ctx context.Context, projectID string, stage int, records []core.PromptRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM prompts WHERE project_id = ? AND stage = ?`, projectID, stage); err != nil {
		return fmt.Errorf("failed to delete stage prompts: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO prompts (project_id, stage, version, prompt_number, global_number, ordinal,
			title, objective, body, outcome, category, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			projectID, stage, r.Version, r.PromptNumberInStage, r.GlobalPromptNumber, r.Ordinal,
			r.Title, r.Objective, r.Body, r.Outcome, string(r.Category),
			r.CreatedAt.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("failed to insert prompt %d: %w", r.PromptNumberInStage, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit stage prompts: %w", err)
	}
	return nil
}

// ReadStagePrompts returns a stage's rows in insertion order. Columns that
// legacy rows lack come back as zero values.
func (s *SQLiteStore) ReadStagePrompts(ctx context.Context, projectID string, stage int) ([]core.PromptRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT version, prompt_number, global_number, ordinal,
			title, objective, body, outcome, category, created_at
		FROM prompts
		WHERE project_id = ? AND stage = ?
		ORDER BY id`, projectID, stage)
	if err != nil {
		return nil, fmt.Errorf("failed to query prompts: %w", err)
	}
	defer rows.Close()

	var records []core.PromptRecord
	for rows.Next() {
		var (
			version, number, global, ordinal sql.NullInt64
			category, createdAt              sql.NullString
			r                                core.PromptRecord
		)
		if err := rows.Scan(&version, &number, &global, &ordinal,
			&r.Title, &r.Objective, &r.Body, &r.Outcome, &category, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan prompt: %w", err)
		}
		r.ProjectID = projectID
		r.Stage = stage
		r.Version = int(version.Int64)
		r.PromptNumberInStage = int(number.Int64)
		r.GlobalPromptNumber = int(global.Int64)
		r.Ordinal = int(ordinal.Int64)
		r.Category = core.Category(category.String)
		if createdAt.Valid {
			if t, err := time.Parse(time.RFC3339Nano, createdAt.String); err == nil {
				r.CreatedAt = t
			}
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read prompts: %w", err)
	}
	return records, nil
}

// ClearProject deletes every prompt row of a project.
func (s *SQLiteStore) ClearProject(ctx context.Context, projectID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM prompts WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("failed to clear prompts: %w", err)
	}
	return nil
}

// SaveDocument inserts or replaces a project's document.
func (s *SQLiteStore) SaveDocument(ctx context.Context, doc core.Document) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (project_id, name, content, content_type, uploaded_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(project_id) DO UPDATE SET
			name = excluded.name,
			content = excluded.content,
			content_type = excluded.content_type,
			uploaded_at = excluded.uploaded_at`,
		doc.ProjectID, doc.Name, doc.Content, doc.ContentType, doc.UploadedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

// GetDocument returns a project's document, or nil when there is none.
func (s *SQLiteStore) GetDocument(ctx context.Context, projectID string) (*core.Document, error) {
	var (
		doc        core.Document
		uploadedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT project_id, name, content, content_type, uploaded_at
		FROM documents WHERE project_id = ?`, projectID).
		Scan(&doc.ProjectID, &doc.Name, &doc.Content, &doc.ContentType, &uploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	if t, err := time.Parse(time.RFC3339Nano, uploadedAt); err == nil {
		doc.UploadedAt = t
	}
	return &doc, nil
}

// Projects lists the project IDs that have prompts or a document.
func (s *SQLiteStore) Projects(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT project_id FROM prompts
		UNION
		SELECT project_id FROM documents
		ORDER BY project_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
