package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

var pgSchema = []string{
	`CREATE TABLE IF NOT EXISTS interviews (
		id             text PRIMARY KEY,
		call_id        text NOT NULL UNIQUE,
		participant_id text,
		transcript     jsonb NOT NULL DEFAULT '[]'::jsonb,
		duration       integer NOT NULL DEFAULT 0,
		completed      boolean NOT NULL DEFAULT false,
		created_at     timestamptz NOT NULL DEFAULT now(),
		updated_at     timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS interviews_created_at_idx ON interviews (created_at DESC)`,
}

// Store is the Postgres-backed DataStore.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to Postgres. The first ping is retried with exponential
// backoff for up to connectTimeout, so the service can start before the
// database is reachable.
func New(ctx context.Context, databaseURL string, connectTimeout time.Duration) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = connectTimeout
	ping := func() error {
		if err := pool.Ping(ctx); err != nil {
			slog.Warn("database not ready, retrying", "error", err)
			return err
		}
		return nil
	}
	if err := backoff.Retry(ping, backoff.WithContext(b, ctx)); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// Migrate creates the interviews table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range pgSchema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// FindByCallID returns the interview for callID or ErrNotFound.
func (s *Store) FindByCallID(ctx context.Context, callID string) (*Interview, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, call_id, participant_id, transcript, duration, completed, created_at, updated_at
		FROM interviews
		WHERE call_id = $1
		LIMIT 1
	`, callID)

	iv, err := scanInterview(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find interview %s: %w", callID, err)
	}
	return iv, nil
}

// InsertInterview creates a row. ID, CreatedAt and UpdatedAt are filled in on
// success.
func (s *Store) InsertInterview(ctx context.Context, iv *Interview) error {
	if iv.ID == "" {
		iv.ID = uuid.New().String()
	}
	tr, err := encodeTranscript(iv.Transcript)
	if err != nil {
		return err
	}

	err = s.pool.QueryRow(ctx, `
		INSERT INTO interviews (id, call_id, participant_id, transcript, duration, completed)
		VALUES ($1, $2, $3, $4::jsonb, $5, $6)
		RETURNING created_at, updated_at
	`, iv.ID, iv.CallID, iv.ParticipantID, tr, iv.DurationSeconds, iv.Completed).Scan(&iv.CreatedAt, &iv.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDuplicateCallID
		}
		return fmt.Errorf("insert interview %s: %w", iv.CallID, err)
	}

	slog.Debug("inserted interview", "call_id", iv.CallID, "id", iv.ID)
	return nil
}

// UpdateInterview rewrites the mutable fields in a single statement.
func (s *Store) UpdateInterview(ctx context.Context, callID string, u InterviewUpdate) error {
	var tr any
	if u.Transcript != nil {
		enc, err := encodeTranscript(u.Transcript)
		if err != nil {
			return err
		}
		tr = enc
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE interviews
		SET duration = $2,
		    completed = $3,
		    transcript = COALESCE($4::jsonb, transcript),
		    updated_at = now()
		WHERE call_id = $1
	`, callID, u.DurationSeconds, u.Completed, tr)
	if err != nil {
		return fmt.Errorf("update interview %s: %w", callID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListInterviews returns interviews newest first. limit <= 0 means no limit.
func (s *Store) ListInterviews(ctx context.Context, limit int) ([]Interview, error) {
	q := `SELECT id, call_id, participant_id, transcript, duration, completed, created_at, updated_at
		FROM interviews ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list interviews: %w", err)
	}
	defer rows.Close()

	var results []Interview
	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *iv)
	}
	return results, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInterview(row rowScanner) (*Interview, error) {
	var (
		iv  Interview
		raw []byte
	)
	if err := row.Scan(&iv.ID, &iv.CallID, &iv.ParticipantID, &raw, &iv.DurationSeconds, &iv.Completed, &iv.CreatedAt, &iv.UpdatedAt); err != nil {
		return nil, err
	}
	utts, err := decodeTranscript(raw)
	if err != nil {
		return nil, fmt.Errorf("interview %s: %w", iv.CallID, err)
	}
	iv.Transcript = utts
	return &iv, nil
}
