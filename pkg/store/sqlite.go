package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/chartscribe/pkg/model"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL DEFAULT '',
	title       TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	patient_age TEXT NOT NULL DEFAULT '',
	visit_date  TEXT NOT NULL DEFAULT '',
	summary     TEXT NOT NULL DEFAULT '',
	transcript  TEXT NOT NULL DEFAULT '',
	audio_url   TEXT NOT NULL DEFAULT '',
	user_id     TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_records_user ON records(user_id);
`

// SQLiteStore persists patient records in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and ensures the schema.
func Open(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Create inserts rec, assigning the id and timestamps. The assigned id is
// returned and also set on rec.
func (s *SQLiteStore) Create(ctx context.Context, rec *model.PatientRecord) (string, error) {
	id := uuid.NewString()
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = rec.CreatedAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO records
			(id, name, title, description, patient_age, visit_date, summary, transcript, audio_url, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, rec.Name, rec.Title, rec.Description, rec.PatientAge, rec.VisitDate,
		rec.Summary, rec.Transcript, rec.AudioURL, rec.UserID,
		rec.CreatedAt.Format(time.RFC3339Nano), rec.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("insert record: %w", err)
	}

	rec.ID = id
	return id, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.PatientRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, title, description, patient_age, visit_date, summary, transcript, audio_url, user_id, created_at, updated_at
		FROM records
		WHERE id = ?
	`, id)

	rec, err := scanRecord(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan record: %w", err)
	}
	return rec, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]model.PatientRecord, error) {
	return s.list(ctx, `
		SELECT id, name, title, description, patient_age, visit_date, summary, transcript, audio_url, user_id, created_at, updated_at
		FROM records
		ORDER BY created_at DESC
	`)
}

func (s *SQLiteStore) ListByUser(ctx context.Context, userID string) ([]model.PatientRecord, error) {
	return s.list(ctx, `
		SELECT id, name, title, description, patient_age, visit_date, summary, transcript, audio_url, user_id, created_at, updated_at
		FROM records
		WHERE user_id = ?
		ORDER BY created_at DESC
	`, userID)
}

func (s *SQLiteStore) list(ctx context.Context, query string, args ...any) ([]model.PatientRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []model.PatientRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// Update applies a partial merge: only non-nil patch fields are written.
func (s *SQLiteStore) Update(ctx context.Context, id string, patch RecordPatch) error {
	sets := make([]string, 0, 9)
	args := make([]any, 0, 10)

	appendSet := func(column string, value *string) {
		if value != nil {
			sets = append(sets, column+" = ?")
			args = append(args, *value)
		}
	}
	appendSet("name", patch.Name)
	appendSet("title", patch.Title)
	appendSet("description", patch.Description)
	appendSet("patient_age", patch.PatientAge)
	appendSet("visit_date", patch.VisitDate)
	appendSet("summary", patch.Summary)
	appendSet("transcript", patch.Transcript)
	appendSet("audio_url", patch.AudioURL)

	updatedAt := patch.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, updatedAt.Format(time.RFC3339Nano))
	args = append(args, id)

	result, err := s.db.ExecContext(ctx,
		"UPDATE records SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM records WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*model.PatientRecord, error) {
	var rec model.PatientRecord
	var createdAt, updatedAt string

	if err := row.Scan(&rec.ID, &rec.Name, &rec.Title, &rec.Description,
		&rec.PatientAge, &rec.VisitDate, &rec.Summary, &rec.Transcript,
		&rec.AudioURL, &rec.UserID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	rec.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &rec, nil
}
