// Package history records completed extractions in PostgreSQL.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Status values stored with each entry.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// DefaultRecentLimit is used when Recent is called with a non-positive limit.
const DefaultRecentLimit = 20

// MaxRecentLimit caps the number of entries Recent returns.
const MaxRecentLimit = 200

// Entry is one extraction attempt.
type Entry struct {
	ID         string    `json:"id"`
	FileName   string    `json:"file_name"`
	TableCount int       `json:"table_count"`
	RowCount   int       `json:"row_count"`
	Message    string    `json:"message,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// Recorder persists entries. Store and Nop implement it.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS extraction_history (
    id          UUID PRIMARY KEY,
    file_name   TEXT NOT NULL,
    table_count INTEGER NOT NULL DEFAULT 0,
    row_count   INTEGER NOT NULL DEFAULT 0,
    message     TEXT NOT NULL DEFAULT '',
    status      TEXT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS extraction_history_created_at_idx
    ON extraction_history (created_at DESC);
`

const insertSQL = `
INSERT INTO extraction_history (id, file_name, table_count, row_count, message, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

const recentSQL = `
SELECT id, file_name, table_count, row_count, message, status, created_at
FROM extraction_history
ORDER BY created_at DESC
LIMIT $1`

// Store is a Recorder backed by a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps an open pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the history table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("creating extraction_history: %w", err)
	}
	return nil
}

// Record inserts e. A missing ID or timestamp is filled in.
func (s *Store) Record(ctx context.Context, e Entry) error {
	e = prepare(e)

	var id pgtype.UUID
	if err := id.Scan(e.ID); err != nil {
		return fmt.Errorf("invalid extraction ID %q: %w", e.ID, err)
	}

	_, err := s.pool.Exec(ctx, insertSQL,
		id,
		e.FileName,
		int32(e.TableCount),
		int32(e.RowCount),
		e.Message,
		e.Status,
		pgtype.Timestamptz{Time: e.CreatedAt, Valid: true},
	)
	if err != nil {
		return fmt.Errorf("recording extraction: %w", err)
	}
	return nil
}

// Recent returns the newest entries first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.pool.Query(ctx, recentSQL, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying extraction history: %w", err)
	}

	entries, err := pgx.CollectRows(rows, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("reading extraction history: %w", err)
	}
	return entries, nil
}

func scanEntry(row pgx.CollectableRow) (Entry, error) {
	var (
		id        pgtype.UUID
		e         Entry
		tables    int32
		rowCount  int32
		createdAt pgtype.Timestamptz
	)
	if err := row.Scan(&id, &e.FileName, &tables, &rowCount, &e.Message, &e.Status, &createdAt); err != nil {
		return Entry{}, err
	}
	if id.Valid {
		e.ID = uuid.UUID(id.Bytes).String()
	}
	e.TableCount = int(tables)
	e.RowCount = int(rowCount)
	e.CreatedAt = createdAt.Time
	return e, nil
}

func prepare(e Entry) Entry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.Status == "" {
		e.Status = StatusSucceeded
	}
	return e
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultRecentLimit
	case limit > MaxRecentLimit:
		return MaxRecentLimit
	default:
		return limit
	}
}

// ErrDisabled is returned by Nop.Recent when no database is configured.
var ErrDisabled = errors.New("extraction history is not enabled")

// Nop discards entries. It is used when no database is configured.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error { return nil }

func (Nop) Recent(context.Context, int) ([]Entry, error) { return nil, ErrDisabled }
