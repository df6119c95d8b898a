package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Fixed-width so created_at sorts correctly as text.
const sqliteTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS interviews (
		id             TEXT PRIMARY KEY,
		call_id        TEXT NOT NULL UNIQUE,
		participant_id TEXT,
		transcript     TEXT NOT NULL DEFAULT '[]',
		duration       INTEGER NOT NULL DEFAULT 0,
		completed      INTEGER NOT NULL DEFAULT 0,
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS interviews_created_at_idx ON interviews (created_at DESC)`,
}

// SQLiteStore is a DataStore over a local SQLite file, for single-node and
// development deployments.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens (creating if needed) the database at path and applies the
// schema.
func NewSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) Close() {
	s.db.Close()
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	for _, stmt := range sqliteSchema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) FindByCallID(ctx context.Context, callID string) (*Interview, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, call_id, participant_id, transcript, duration, completed, created_at, updated_at
		FROM interviews
		WHERE call_id = ?
	`, callID)

	iv, err := scanSQLiteInterview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find interview %s: %w", callID, err)
	}
	return iv, nil
}

func (s *SQLiteStore) InsertInterview(ctx context.Context, iv *Interview) error {
	if iv.ID == "" {
		iv.ID = uuid.New().String()
	}
	tr, err := encodeTranscript(iv.Transcript)
	if err != nil {
		return err
	}
	now := s.now()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO interviews (id, call_id, participant_id, transcript, duration, completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, iv.ID, iv.CallID, iv.ParticipantID, tr, iv.DurationSeconds, iv.Completed, now.Format(sqliteTimeFormat), now.Format(sqliteTimeFormat))
	if err != nil {
		var se *sqlite.Error
		if errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
			return ErrDuplicateCallID
		}
		return fmt.Errorf("insert interview %s: %w", iv.CallID, err)
	}

	iv.CreatedAt = now
	iv.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) UpdateInterview(ctx context.Context, callID string, u InterviewUpdate) error {
	var tr any
	if u.Transcript != nil {
		enc, err := encodeTranscript(u.Transcript)
		if err != nil {
			return err
		}
		tr = enc
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE interviews
		SET duration = ?, completed = ?, transcript = COALESCE(?, transcript), updated_at = ?
		WHERE call_id = ?
	`, u.DurationSeconds, u.Completed, tr, s.now().Format(sqliteTimeFormat), callID)
	if err != nil {
		return fmt.Errorf("update interview %s: %w", callID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update interview %s: %w", callID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) ListInterviews(ctx context.Context, limit int) ([]Interview, error) {
	q := `SELECT id, call_id, participant_id, transcript, duration, completed, created_at, updated_at
		FROM interviews ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list interviews: %w", err)
	}
	defer rows.Close()

	var results []Interview
	for rows.Next() {
		iv, err := scanSQLiteInterview(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *iv)
	}
	return results, rows.Err()
}

func scanSQLiteInterview(row rowScanner) (*Interview, error) {
	var (
		iv                   Interview
		participant          sql.NullString
		raw                  string
		createdAt, updatedAt string
	)
	if err := row.Scan(&iv.ID, &iv.CallID, &participant, &raw, &iv.DurationSeconds, &iv.Completed, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if participant.Valid {
		p := participant.String
		iv.ParticipantID = &p
	}

	utts, err := decodeTranscript([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("interview %s: %w", iv.CallID, err)
	}
	iv.Transcript = utts

	if iv.CreatedAt, err = time.Parse(sqliteTimeFormat, createdAt); err != nil {
		return nil, fmt.Errorf("interview %s: parse created_at: %w", iv.CallID, err)
	}
	if iv.UpdatedAt, err = time.Parse(sqliteTimeFormat, updatedAt); err != nil {
		return nil, fmt.Errorf("interview %s: parse updated_at: %w", iv.CallID, err)
	}
	return &iv, nil
}
