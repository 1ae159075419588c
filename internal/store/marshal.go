package store

import (
	"fmt"
	"time"

	"github.com/roach88/pathway/internal/calendar"
	"github.com/roach88/pathway/internal/progress"
)

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanCompletion reads one completions row. sql.ErrNoRows is returned
// unwrapped so callers can test for it.
func scanCompletion(row scanner) (progress.CompletionRecord, error) {
	var (
		rec         progress.CompletionRecord
		completedOn string
		completedAt string
	)
	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.SequenceID,
		&rec.ItemNumber,
		&completedOn,
		&completedAt,
		&rec.IdempotencyKey,
		&rec.RequestKey,
	)
	if err != nil {
		return progress.CompletionRecord{}, err
	}

	if rec.CompletedOn, err = calendar.ParseDate(completedOn); err != nil {
		return progress.CompletionRecord{}, fmt.Errorf("scan completion %s: completed_on: %w", rec.ID, err)
	}
	if rec.CompletedAt, err = parseInstant(completedAt); err != nil {
		return progress.CompletionRecord{}, fmt.Errorf("scan completion %s: completed_at: %w", rec.ID, err)
	}
	return rec, nil
}

// formatInstant stores instants as RFC 3339 in UTC with full precision.
func formatInstant(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseInstant(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
