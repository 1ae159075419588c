// Package ledgertest holds the behaviour every ledger.Ledger implementation
// must share. Each implementation's tests call Run with a factory.
package ledgertest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pathway/internal/calendar"
	"github.com/roach88/pathway/internal/ledger"
	"github.com/roach88/pathway/internal/progress"
)

// Factory returns a fresh, empty ledger. Cleanup is the factory's job.
type Factory func(t *testing.T) ledger.Ledger

var baseTime = time.Date(2026, 3, 1, 14, 30, 0, 123456000, time.UTC)

// Record builds a valid record for tests.
func Record(id, user, seq string, item int, on calendar.Date) progress.CompletionRecord {
	return progress.CompletionRecord{
		ID:             id,
		UserID:         user,
		SequenceID:     seq,
		ItemNumber:     item,
		CompletedOn:    on,
		CompletedAt:    baseTime.AddDate(0, 0, item),
		IdempotencyKey: ledger.Key(seq, item, on),
	}
}

// Run executes the conformance suite against ledgers built by newLedger.
func Run(t *testing.T, newLedger Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, l ledger.Ledger)
	}{
		{"append_then_get", testAppendThenGet},
		{"duplicate_triple_returns_original", testDuplicateTriple},
		{"get_by_key", testGetByKey},
		{"key_bound_to_other_item", testKeyConflict},
		{"request_key_bound_to_other_item", testRequestKeyConflict},
		{"id_bound_to_other_item", testIDConflict},
		{"list_ordered_by_item", testListOrdered},
		{"list_by_user_ordered", testListByUserOrdered},
		{"empty_reads", testEmptyReads},
		{"rejects_invalid_records", testRejectsInvalid},
		{"concurrent_duplicates", testConcurrentDuplicates},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newLedger(t))
		})
	}
}

// AssertSameRecord compares records field by field, using time.Equal for
// CompletedAt so storage round trips through text are accepted.
func AssertSameRecord(t *testing.T, want, got progress.CompletionRecord) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID, "id")
	assert.Equal(t, want.UserID, got.UserID, "user_id")
	assert.Equal(t, want.SequenceID, got.SequenceID, "sequence_id")
	assert.Equal(t, want.ItemNumber, got.ItemNumber, "item_number")
	assert.Equal(t, want.CompletedOn, got.CompletedOn, "completed_on")
	assert.True(t, want.CompletedAt.Equal(got.CompletedAt), "completed_at: want %s, got %s", want.CompletedAt, got.CompletedAt)
	assert.Equal(t, want.IdempotencyKey, got.IdempotencyKey, "idempotency_key")
	assert.Equal(t, want.RequestKey, got.RequestKey, "request_key")
}

func testAppendThenGet(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	rec := Record("rec-1", "user-1", "plan", 1, calendar.MustParseDate("2026-03-01"))
	rec.RequestKey = "client-key-1"

	stored, inserted, err := l.Append(ctx, rec)
	require.NoError(t, err)
	assert.True(t, inserted)
	AssertSameRecord(t, rec, stored)

	got, ok, err := l.Get(ctx, rec.Triple())
	require.NoError(t, err)
	require.True(t, ok)
	AssertSameRecord(t, rec, got)
}

func testDuplicateTriple(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	first := Record("rec-1", "user-1", "plan", 1, calendar.MustParseDate("2026-03-01"))
	_, _, err := l.Append(ctx, first)
	require.NoError(t, err)

	// Same logical fact, next day, different key and id.
	retry := Record("rec-2", "user-1", "plan", 1, calendar.MustParseDate("2026-03-02"))
	got, inserted, err := l.Append(ctx, retry)
	require.NoError(t, err)
	assert.False(t, inserted)
	AssertSameRecord(t, first, got)

	all, err := l.List(ctx, "user-1", "plan")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func testGetByKey(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	rec := Record("rec-1", "user-1", "plan", 1, calendar.MustParseDate("2026-03-01"))
	rec.RequestKey = "client-key-1"
	_, _, err := l.Append(ctx, rec)
	require.NoError(t, err)

	got, ok, err := l.GetByKey(ctx, "user-1", rec.IdempotencyKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "rec-1", got.ID)

	got, ok, err = l.GetByKey(ctx, "user-1", "client-key-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "rec-1", got.ID)

	_, ok, err = l.GetByKey(ctx, "user-2", rec.IdempotencyKey)
	require.NoError(t, err)
	assert.False(t, ok, "keys are scoped per user")

	_, ok, err = l.GetByKey(ctx, "user-1", "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func testKeyConflict(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	on := calendar.MustParseDate("2026-03-01")
	_, _, err := l.Append(ctx, Record("rec-1", "user-1", "plan", 1, on))
	require.NoError(t, err)

	other := Record("rec-2", "user-1", "plan", 2, on)
	other.IdempotencyKey = ledger.Key("plan", 1, on)
	_, _, err = l.Append(ctx, other)
	assert.ErrorIs(t, err, ledger.ErrKeyConflict)

	_, ok, err := l.Get(ctx, other.Triple())
	require.NoError(t, err)
	assert.False(t, ok)
}

func testRequestKeyConflict(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	on := calendar.MustParseDate("2026-03-01")
	first := Record("rec-1", "user-1", "plan", 1, on)
	first.RequestKey = "client-key-1"
	_, _, err := l.Append(ctx, first)
	require.NoError(t, err)

	reused := Record("rec-2", "user-1", "plan", 2, on)
	reused.RequestKey = "client-key-1"
	_, _, err = l.Append(ctx, reused)
	assert.ErrorIs(t, err, ledger.ErrKeyConflict)

	_, ok, err := l.Get(ctx, reused.Triple())
	require.NoError(t, err)
	assert.False(t, ok)

	// Request keys are scoped per user, and empty ones never collide.
	stranger := Record("rec-3", "user-2", "plan", 1, on)
	stranger.RequestKey = "client-key-1"
	_, inserted, err := l.Append(ctx, stranger)
	require.NoError(t, err)
	assert.True(t, inserted)

	for item := 3; item <= 4; item++ {
		_, inserted, err := l.Append(ctx, Record(fmt.Sprintf("rec-%d", item+1), "user-1", "plan", item, on))
		require.NoError(t, err)
		assert.True(t, inserted)
	}
}

func testIDConflict(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	on := calendar.MustParseDate("2026-03-01")
	_, _, err := l.Append(ctx, Record("rec-1", "user-1", "plan", 1, on))
	require.NoError(t, err)

	clash := Record("rec-1", "user-1", "plan", 2, on)
	_, _, err = l.Append(ctx, clash)
	assert.ErrorIs(t, err, ledger.ErrIDConflict)
	assert.NotErrorIs(t, err, ledger.ErrKeyConflict)

	_, ok, err := l.Get(ctx, clash.Triple())
	require.NoError(t, err)
	assert.False(t, ok)
}

func testListOrdered(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	d := calendar.MustParseDate("2026-03-01")
	for _, item := range []int{3, 1, 2} {
		_, _, err := l.Append(ctx, Record(fmt.Sprintf("rec-%d", item), "user-1", "plan", item, d.AddDays(item)))
		require.NoError(t, err)
	}
	_, _, err := l.Append(ctx, Record("other", "user-1", "journey", 1, d))
	require.NoError(t, err)
	_, _, err = l.Append(ctx, Record("stranger", "user-2", "plan", 1, d))
	require.NoError(t, err)

	got, err := l.List(ctx, "user-1", "plan")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, ledger.ItemNumbers(got))
}

func testListByUserOrdered(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	d1 := calendar.MustParseDate("2026-03-01")
	d2 := calendar.MustParseDate("2026-03-02")

	for _, r := range []progress.CompletionRecord{
		Record("c", "user-1", "plan", 2, d2),
		Record("b", "user-1", "plan", 1, d1),
		Record("a", "user-1", "journey", 1, d1),
		Record("z", "user-2", "plan", 1, d1),
	} {
		_, _, err := l.Append(ctx, r)
		require.NoError(t, err)
	}

	got, err := l.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	ids := make([]string, len(got))
	for i, r := range got {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func testEmptyReads(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()

	list, err := l.List(ctx, "nobody", "plan")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	all, err := l.ListByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)

	_, ok, err := l.Get(ctx, progress.Triple{UserID: "nobody", SequenceID: "plan", ItemNumber: 1})
	require.NoError(t, err)
	assert.False(t, ok)
}

func testRejectsInvalid(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	valid := Record("rec-1", "user-1", "plan", 1, calendar.MustParseDate("2026-03-01"))

	mutations := map[string]func(r *progress.CompletionRecord){
		"no id":       func(r *progress.CompletionRecord) { r.ID = "" },
		"no user":     func(r *progress.CompletionRecord) { r.UserID = "" },
		"no sequence": func(r *progress.CompletionRecord) { r.SequenceID = "" },
		"item zero":   func(r *progress.CompletionRecord) { r.ItemNumber = 0 },
		"no date":     func(r *progress.CompletionRecord) { r.CompletedOn = calendar.Date{} },
		"no instant":  func(r *progress.CompletionRecord) { r.CompletedAt = time.Time{} },
		"no key":      func(r *progress.CompletionRecord) { r.IdempotencyKey = "" },
	}
	for name, mutate := range mutations {
		rec := valid
		mutate(&rec)
		_, _, err := l.Append(ctx, rec)
		assert.True(t, progress.IsInvalidArgument(err), "%s: got %v", name, err)
	}
}

func testConcurrentDuplicates(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	const writers = 16
	on := calendar.MustParseDate("2026-03-01")

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		inserted int
		ids      = map[string]bool{}
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := Record(fmt.Sprintf("rec-%d", i), "user-1", "plan", 1, on)
			got, ins, err := l.Append(ctx, rec)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if ins {
				inserted++
			}
			ids[got.ID] = true
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, inserted, "exactly one writer inserts")
	assert.Len(t, ids, 1, "every writer sees the same record")

	all, err := l.List(ctx, "user-1", "plan")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
