package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/pathway/internal/ledger"
	"github.com/roach88/pathway/internal/progress"
)

// Append inserts rec unless its (user, sequence, item) triple already exists.
// Returns the stored record and whether a new row was inserted.
//
// Uses ON CONFLICT DO NOTHING followed by a read of the surviving row in the
// same transaction, so racing duplicates all observe the first writer's
// record. A conflict on a key alone (different triple) yields
// ledger.ErrKeyConflict, one on the record id ledger.ErrIDConflict.
func (s *Store) Append(ctx context.Context, rec progress.CompletionRecord) (progress.CompletionRecord, bool, error) {
	if err := ledger.Validate(rec); err != nil {
		return progress.CompletionRecord{}, false, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return progress.CompletionRecord{}, false, fmt.Errorf("append completion: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO completions
		(id, user_id, sequence_id, item_number, completed_on, completed_at, idempotency_key, request_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		rec.ID,
		rec.UserID,
		rec.SequenceID,
		rec.ItemNumber,
		rec.CompletedOn.String(),
		formatInstant(rec.CompletedAt),
		rec.IdempotencyKey,
		rec.RequestKey,
	)
	if err != nil {
		return progress.CompletionRecord{}, false, fmt.Errorf("append completion: insert: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return progress.CompletionRecord{}, false, fmt.Errorf("append completion: rows affected: %w", err)
	}

	stored, err := scanCompletion(tx.QueryRowContext(ctx, selectCompletion+`
		WHERE user_id = ? AND sequence_id = ? AND item_number = ?
	`, rec.UserID, rec.SequenceID, rec.ItemNumber))
	if errors.Is(err, sql.ErrNoRows) {
		// Nothing for this triple, so the conflict was on the id or a key.
		var one int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM completions WHERE id = ?`, rec.ID).Scan(&one)
		switch {
		case err == nil:
			return progress.CompletionRecord{}, false, ledger.ErrIDConflict
		case errors.Is(err, sql.ErrNoRows):
			return progress.CompletionRecord{}, false, ledger.ErrKeyConflict
		default:
			return progress.CompletionRecord{}, false, fmt.Errorf("append completion: select id: %w", err)
		}
	}
	if err != nil {
		return progress.CompletionRecord{}, false, fmt.Errorf("append completion: select existing: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return progress.CompletionRecord{}, false, fmt.Errorf("append completion: commit: %w", err)
	}

	return stored, rowsAffected > 0, nil
}
