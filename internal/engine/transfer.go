package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/pathway/internal/ledger"
	"github.com/roach88/pathway/internal/progress"
)

// Export returns every completion record of a user, ordered by
// (completed_on, sequence_id, item_number). The slice is never nil.
func (s *Service) Export(ctx context.Context, userID string) ([]progress.CompletionRecord, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	records, err := s.ledger.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("export completions: %w", err)
	}
	return records, nil
}

// ImportResult counts what Import did.
type ImportResult struct {
	Inserted int `json:"inserted"`
	Existing int `json:"existing"`
}

// Import appends one user's exported records as they are. Records must
// belong to userID, name a catalog sequence and lie within its bounds, and
// together with the user's existing completions must leave no gap before any
// imported item. Windows are not consulted: the records are history, not
// commands. Nothing is written unless every record passes these checks. Records whose
// triple already exists are counted and left unchanged.
func (s *Service) Import(ctx context.Context, userID string, records []progress.CompletionRecord) (ImportResult, error) {
	var res ImportResult
	if err := requireUser(userID); err != nil {
		return res, err
	}
	if err := s.checkImport(ctx, userID, records); err != nil {
		return res, err
	}

	for i, rec := range records {
		_, inserted, err := s.ledger.Append(ctx, rec)
		switch {
		case errors.Is(err, ledger.ErrKeyConflict):
			return res, fmt.Errorf("record %d: %w", i, progress.NewInvalidArgumentError("idempotency key %q is already used for a different item", rec.IdempotencyKey))
		case errors.Is(err, ledger.ErrIDConflict):
			return res, fmt.Errorf("record %d: %w", i, progress.NewInvalidArgumentError("record id %q is already used for a different item", rec.ID))
		case err != nil:
			return res, fmt.Errorf("record %d (%s): %w", i, rec.ID, err)
		}
		if inserted {
			res.Inserted++
		} else {
			res.Existing++
		}
	}
	s.log.Info("completions imported", "user_id", userID, "inserted", res.Inserted, "existing", res.Existing)
	return res, nil
}

// checkImport validates every record before anything is written.
func (s *Service) checkImport(ctx context.Context, userID string, records []progress.CompletionRecord) error {
	items := map[string]map[int]bool{}
	for i, rec := range records {
		if err := ledger.Validate(rec); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if rec.UserID != userID {
			return fmt.Errorf("record %d: %w", i, progress.NewInvalidArgumentError("record belongs to another user"))
		}
		if _, err := s.sequence(rec.SequenceID, rec.ItemNumber); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if items[rec.SequenceID] == nil {
			existing, err := s.ledger.List(ctx, userID, rec.SequenceID)
			if err != nil {
				return fmt.Errorf("list completions: %w", err)
			}
			items[rec.SequenceID] = map[int]bool{}
			for _, n := range ledger.ItemNumbers(existing) {
				items[rec.SequenceID][n] = true
			}
		}
	}
	for _, rec := range records {
		items[rec.SequenceID][rec.ItemNumber] = true
	}

	for i, rec := range records {
		if n := rec.ItemNumber; n > 1 && !items[rec.SequenceID][n-1] {
			return fmt.Errorf("record %d: %w", i, progress.NewItemLockedError(rec.SequenceID, n, n-1))
		}
	}
	return nil
}
