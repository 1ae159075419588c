package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/pathway/internal/progress"
)

const selectCompletion = `
	SELECT id, user_id, sequence_id, item_number, completed_on, completed_at, idempotency_key, request_key
	FROM completions
`

// Get returns the record for one (user, sequence, item) triple.
func (s *Store) Get(ctx context.Context, t progress.Triple) (progress.CompletionRecord, bool, error) {
	rec, err := scanCompletion(s.db.QueryRowContext(ctx, selectCompletion+`
		WHERE user_id = ? AND sequence_id = ? AND item_number = ?
	`, t.UserID, t.SequenceID, t.ItemNumber))
	if errors.Is(err, sql.ErrNoRows) {
		return progress.CompletionRecord{}, false, nil
	}
	if err != nil {
		return progress.CompletionRecord{}, false, fmt.Errorf("get completion: %w", err)
	}
	return rec, true, nil
}

// GetByKey returns the user's record whose idempotency key or request key is key.
// When several records carry the same request key the earliest by
// (completed_on, sequence_id, item_number) wins.
func (s *Store) GetByKey(ctx context.Context, userID, key string) (progress.CompletionRecord, bool, error) {
	if key == "" {
		return progress.CompletionRecord{}, false, nil
	}
	rec, err := scanCompletion(s.db.QueryRowContext(ctx, selectCompletion+`
		WHERE user_id = ? AND (idempotency_key = ? OR request_key = ?)
		ORDER BY completed_on ASC, sequence_id COLLATE BINARY ASC, item_number ASC
		LIMIT 1
	`, userID, key, key))
	if errors.Is(err, sql.ErrNoRows) {
		return progress.CompletionRecord{}, false, nil
	}
	if err != nil {
		return progress.CompletionRecord{}, false, fmt.Errorf("get completion by key: %w", err)
	}
	return rec, true, nil
}

// List returns the user's records for one sequence ordered by item number.
// Returns an empty slice (not nil) when there are none.
func (s *Store) List(ctx context.Context, userID, sequenceID string) ([]progress.CompletionRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectCompletion+`
		WHERE user_id = ? AND sequence_id = ?
		ORDER BY item_number ASC
	`, userID, sequenceID)
	if err != nil {
		return nil, fmt.Errorf("query completions: %w", err)
	}
	return collect(rows)
}

// ListByUser returns all of a user's records ordered by
// (completed_on, sequence_id, item_number).
func (s *Store) ListByUser(ctx context.Context, userID string) ([]progress.CompletionRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectCompletion+`
		WHERE user_id = ?
		ORDER BY completed_on ASC, sequence_id COLLATE BINARY ASC, item_number ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query user completions: %w", err)
	}
	return collect(rows)
}

func collect(rows *sql.Rows) ([]progress.CompletionRecord, error) {
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
