// Package audit records cleanup runs to PostgreSQL for later inspection.
//
// The audit trail is optional service plumbing: the library core never
// touches the database, and a failure to record a run must never fail the
// cleanup response it describes.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Entry is one recorded cleanup run.
type Entry struct {
	ID         uuid.UUID     `json:"id"`
	Source     string        `json:"source,omitempty"`
	Year       int           `json:"year"`
	Language   string        `json:"language"`
	Columns    int           `json:"columns"`
	Renamed    int           `json:"renamed"`
	Translated int           `json:"translated"`
	Warnings   int           `json:"warnings"`
	Duration   time.Duration `json:"duration"`
	CreatedAt  time.Time     `json:"createdAt"`
}

// Recorder writes and reads cleanup run entries.
type Recorder struct {
	db DBTX
}

// New creates a Recorder over the given connection.
func New(db DBTX) *Recorder { return &Recorder{db: db} }

const schemaSQL = `
CREATE TABLE IF NOT EXISTS cleanup_runs (
	id          UUID PRIMARY KEY,
	source      TEXT,
	year        INT NOT NULL,
	language    TEXT NOT NULL,
	columns     INT NOT NULL,
	renamed     INT NOT NULL,
	translated  INT NOT NULL,
	warnings    INT NOT NULL,
	duration_ms BIGINT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// EnsureSchema creates the audit table when it does not exist yet.
func (r *Recorder) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, schemaSQL)
	return err
}

// Record inserts one entry, generating its ID when unset, and returns the
// ID under which the run was stored.
func (r *Recorder) Record(ctx context.Context, e Entry) (uuid.UUID, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO cleanup_runs
			(id, source, year, language, columns, renamed, translated, warnings, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		pgtype.UUID{Bytes: e.ID, Valid: true},
		toPgText(e.Source),
		e.Year,
		e.Language,
		e.Columns,
		e.Renamed,
		e.Translated,
		e.Warnings,
		e.Duration.Milliseconds(),
	)
	return e.ID, err
}

// Recent returns the most recent entries, newest first.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, COALESCE(source, ''), year, language, columns, renamed,
		       translated, warnings, duration_ms, created_at
		FROM cleanup_runs
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e  Entry
			id pgtype.UUID
			ms int64
		)
		if err := rows.Scan(&id, &e.Source, &e.Year, &e.Language, &e.Columns,
			&e.Renamed, &e.Translated, &e.Warnings, &ms, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.ID = uuid.UUID(id.Bytes)
		e.Duration = time.Duration(ms) * time.Millisecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// toPgText converts a string to pgtype.Text, invalid (NULL) when empty.
func toPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
