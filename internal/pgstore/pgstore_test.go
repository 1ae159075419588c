package pgstore

import (
	"context"
	"os"
	"testing"

	"github.com/roach88/pathway/internal/ledger"
	"github.com/roach88/pathway/internal/ledger/ledgertest"
)

// Set PATHWAY_TEST_POSTGRES_URL to a disposable database to run these tests.
// The completions table is truncated before every case.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("PATHWAY_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("PATHWAY_TEST_POSTGRES_URL not set")
	}

	ctx := context.Background()
	s, err := Open(ctx, url)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if _, err := s.pool.Exec(ctx, "TRUNCATE completions"); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return s
}

func TestPostgresLedger(t *testing.T) {
	ledgertest.Run(t, func(t *testing.T) ledger.Ledger {
		return openTestStore(t)
	})
}

func TestOpen_BadURL(t *testing.T) {
	_, err := Open(context.Background(), "postgres://localhost:notaport/pathway")
	if err == nil {
		t.Error("expected error for malformed url")
	}
}
