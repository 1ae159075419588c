// Package pgstore provides the PostgreSQL-backed completion ledger.
//
// It keeps the same constraints as the SQLite store: UNIQUE(user_id,
// sequence_id, item_number) guards duplicates and a unique index on
// (user_id, idempotency_key), plus one on non-empty (user_id, request_key),
// back the key check.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/roach88/pathway/internal/calendar"
	"github.com/roach88/pathway/internal/ledger"
	"github.com/roach88/pathway/internal/progress"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS completions (
    id              TEXT PRIMARY KEY,
    user_id         TEXT NOT NULL,
    sequence_id     TEXT NOT NULL,
    item_number     INTEGER NOT NULL CHECK (item_number >= 1),
    completed_on    DATE NOT NULL,
    completed_at    TIMESTAMPTZ NOT NULL,
    idempotency_key TEXT NOT NULL,
    request_key     TEXT NOT NULL DEFAULT '',
    UNIQUE (user_id, sequence_id, item_number)
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_completions_user_key ON completions(user_id, idempotency_key);
CREATE INDEX IF NOT EXISTS idx_completions_user_date ON completions(user_id, completed_on);
DROP INDEX IF EXISTS idx_completions_user_request_key;
CREATE UNIQUE INDEX IF NOT EXISTS idx_completions_user_request_key_set
    ON completions(user_id, request_key) WHERE request_key <> '';
`

const columns = `id, user_id, sequence_id, item_number, completed_on, completed_at, idempotency_key, request_key`

// Store is a ledger.Ledger backed by a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

var _ ledger.Ledger = (*Store)(nil)

// Open connects to databaseURL, verifies the connection and applies the
// schema.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close releases every pooled connection.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Append inserts rec unless its triple already exists. On conflict the
// surviving row is read back, so racing duplicates all see the first record.
func (s *Store) Append(ctx context.Context, rec progress.CompletionRecord) (progress.CompletionRecord, bool, error) {
	if err := ledger.Validate(rec); err != nil {
		return progress.CompletionRecord{}, false, err
	}

	stored, err := scanCompletion(s.pool.QueryRow(ctx, `
		INSERT INTO completions (`+columns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT DO NOTHING
		RETURNING `+columns,
		rec.ID,
		rec.UserID,
		rec.SequenceID,
		rec.ItemNumber,
		rec.CompletedOn.StartIn(time.UTC),
		rec.CompletedAt.UTC(),
		rec.IdempotencyKey,
		rec.RequestKey,
	))
	if err == nil {
		return stored, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return progress.CompletionRecord{}, false, fmt.Errorf("append completion: insert: %w", err)
	}

	existing, ok, err := s.Get(ctx, rec.Triple())
	if err != nil {
		return progress.CompletionRecord{}, false, fmt.Errorf("append completion: %w", err)
	}
	if ok {
		return existing, false, nil
	}
	// Nothing for this triple, so the conflict was on the id or a key.
	var one int
	err = s.pool.QueryRow(ctx, `SELECT 1 FROM completions WHERE id = $1`, rec.ID).Scan(&one)
	switch {
	case err == nil:
		return progress.CompletionRecord{}, false, ledger.ErrIDConflict
	case errors.Is(err, pgx.ErrNoRows):
		return progress.CompletionRecord{}, false, ledger.ErrKeyConflict
	default:
		return progress.CompletionRecord{}, false, fmt.Errorf("append completion: select id: %w", err)
	}
}

func (s *Store) Get(ctx context.Context, t progress.Triple) (progress.CompletionRecord, bool, error) {
	rec, err := scanCompletion(s.pool.QueryRow(ctx, `
		SELECT `+columns+` FROM completions
		WHERE user_id = $1 AND sequence_id = $2 AND item_number = $3
	`, t.UserID, t.SequenceID, t.ItemNumber))
	if errors.Is(err, pgx.ErrNoRows) {
		return progress.CompletionRecord{}, false, nil
	}
	if err != nil {
		return progress.CompletionRecord{}, false, fmt.Errorf("get completion: %w", err)
	}
	return rec, true, nil
}

func (s *Store) GetByKey(ctx context.Context, userID, key string) (progress.CompletionRecord, bool, error) {
	if key == "" {
		return progress.CompletionRecord{}, false, nil
	}
	rec, err := scanCompletion(s.pool.QueryRow(ctx, `
		SELECT `+columns+` FROM completions
		WHERE user_id = $1 AND (idempotency_key = $2 OR request_key = $2)
		ORDER BY completed_on ASC, sequence_id COLLATE "C" ASC, item_number ASC
		LIMIT 1
	`, userID, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return progress.CompletionRecord{}, false, nil
	}
	if err != nil {
		return progress.CompletionRecord{}, false, fmt.Errorf("get completion by key: %w", err)
	}
	return rec, true, nil
}

func (s *Store) List(ctx context.Context, userID, sequenceID string) ([]progress.CompletionRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+columns+` FROM completions
		WHERE user_id = $1 AND sequence_id = $2
		ORDER BY item_number ASC
	`, userID, sequenceID)
	if err != nil {
		return nil, fmt.Errorf("query completions: %w", err)
	}
	return collect(rows)
}

func (s *Store) ListByUser(ctx context.Context, userID string) ([]progress.CompletionRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+columns+` FROM completions
		WHERE user_id = $1
		ORDER BY completed_on ASC, sequence_id COLLATE "C" ASC, item_number ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query user completions: %w", err)
	}
	return collect(rows)
}

func collect(rows pgx.Rows) ([]progress.CompletionRecord, error) {
	defer rows.Close()

	records := []progress.CompletionRecord{}
	for rows.Next() {
		rec, err := scanCompletion(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completions: %w", err)
	}
	return records, nil
}

func scanCompletion(row pgx.Row) (progress.CompletionRecord, error) {
	var (
		rec         progress.CompletionRecord
		completedOn time.Time
	)
	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.SequenceID,
		&rec.ItemNumber,
		&completedOn,
		&rec.CompletedAt,
		&rec.IdempotencyKey,
		&rec.RequestKey,
	)
	if err != nil {
		return progress.CompletionRecord{}, err
	}
	rec.CompletedOn = calendar.DateOf(completedOn)
	rec.CompletedAt = rec.CompletedAt.UTC()
	return rec, nil
}
