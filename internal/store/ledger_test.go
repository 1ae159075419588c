package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/pathway/internal/calendar"
	"github.com/roach88/pathway/internal/ledger"
	"github.com/roach88/pathway/internal/ledger/ledgertest"
)

func TestStoreLedger(t *testing.T) {
	ledgertest.Run(t, func(t *testing.T) ledger.Ledger {
		return createTestStore(t)
	})
}

func TestAppend_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	rec := ledgertest.Record("rec-1", "user-1", "plan", 1, calendar.MustParseDate("2026-03-01"))
	if _, _, err := s.Append(ctx, rec); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	got, ok, err := s.Get(ctx, rec.Triple())
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v; want record", ok, err)
	}
	ledgertest.AssertSameRecord(t, rec, got)
}

func TestAppend_StoresUTC(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	rec := ledgertest.Record("rec-1", "user-1", "plan", 1, calendar.MustParseDate("2026-03-08"))
	rec.CompletedAt = time.Date(2026, 3, 8, 23, 30, 0, 0, ny)

	if _, _, err := s.Append(ctx, rec); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}

	var raw string
	if err := s.db.QueryRow("SELECT completed_at FROM completions WHERE id = 'rec-1'").Scan(&raw); err != nil {
		t.Fatalf("select: %v", err)
	}
	if raw != "2026-03-09T03:30:00Z" {
		t.Errorf("completed_at = %q, want UTC RFC 3339", raw)
	}
}
