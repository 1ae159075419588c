// Package ledger is the completion ledger: the single source of truth for
// which items a user has completed.
//
// Records are keyed by the triple (user, sequence, item). Every
// implementation must make Append an atomic insert-if-absent on that triple,
// so concurrent duplicate submissions (double click, retried request, several
// tabs) produce exactly one stored record and every caller gets that record
// back. The idempotency key is checked as well, but it is never the only
// guard.
//
// Unlock state and streaks are never stored here; they are recomputed from
// the ledger on every read.
package ledger

import (
	"context"
	"errors"

	"github.com/roach88/pathway/internal/progress"
)

// ErrKeyConflict is returned when an idempotency key is already bound to a
// different (user, sequence, item) triple.
var ErrKeyConflict = errors.New("ledger: idempotency key already bound to a different item")

// ErrIDConflict is returned when a record id is already used by a different
// (user, sequence, item) triple.
var ErrIDConflict = errors.New("ledger: record id already used by a different item")

// Ledger stores completion records.
type Ledger interface {
	// Append stores rec unless a record for rec.Triple() already exists.
	// It returns the stored record and whether this call inserted it. When the
	// triple already exists the original record is returned unchanged.
	// Otherwise a user's idempotency key or non-empty request key already
	// held by another record yields ErrKeyConflict, and an id held by another
	// record yields ErrIDConflict.
	Append(ctx context.Context, rec progress.CompletionRecord) (progress.CompletionRecord, bool, error)

	// Get returns the record for one triple.
	Get(ctx context.Context, t progress.Triple) (progress.CompletionRecord, bool, error)

	// GetByKey returns the user's record whose idempotency key or request key
	// equals key.
	GetByKey(ctx context.Context, userID, key string) (progress.CompletionRecord, bool, error)

	// List returns the user's records for one sequence ordered by item number.
	List(ctx context.Context, userID, sequenceID string) ([]progress.CompletionRecord, error)

	// ListByUser returns all of the user's records ordered by
	// (completed_on, sequence_id, item_number).
	ListByUser(ctx context.Context, userID string) ([]progress.CompletionRecord, error)

	Close() error
}

// Validate checks the fields every stored record must carry.
func Validate(rec progress.CompletionRecord) error {
	switch {
	case rec.ID == "":
		return progress.NewInvalidArgumentError("completion record id is required")
	case rec.UserID == "":
		return progress.NewInvalidArgumentError("user id is required")
	case rec.SequenceID == "":
		return progress.NewInvalidArgumentError("sequence id is required")
	case rec.ItemNumber < 1:
		return progress.NewInvalidArgumentError("item number must be >= 1, got %d", rec.ItemNumber)
	case rec.CompletedOn.IsZero():
		return progress.NewInvalidArgumentError("completed_on is required")
	case rec.CompletedAt.IsZero():
		return progress.NewInvalidArgumentError("completed_at is required")
	case rec.IdempotencyKey == "":
		return progress.NewInvalidArgumentError("idempotency key is required")
	}
	return nil
}

// ItemNumbers returns the item numbers of records, in order.
func ItemNumbers(records []progress.CompletionRecord) []int {
	out := make([]int, len(records))
	for i, r := range records {
		out[i] = r.ItemNumber
	}
	return out
}
