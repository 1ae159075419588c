package ledger

import (
	"context"
	"sort"
	"sync"

	"github.com/roach88/pathway/internal/progress"
)

// Memory is an in-process ledger. A single mutex serialises writes, which
// makes Append's insert-if-absent atomic.
type Memory struct {
	mu      sync.RWMutex
	byTuple map[progress.Triple]progress.CompletionRecord
}

// NewMemory returns an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{byTuple: make(map[progress.Triple]progress.CompletionRecord)}
}

func (m *Memory) Append(_ context.Context, rec progress.CompletionRecord) (progress.CompletionRecord, bool, error) {
	if err := Validate(rec); err != nil {
		return progress.CompletionRecord{}, false, err
	}
	rec.CompletedAt = rec.CompletedAt.UTC()

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.byTuple[rec.Triple()]; ok {
		return existing, false, nil
	}
	for _, r := range m.byTuple {
		if r.ID == rec.ID {
			return progress.CompletionRecord{}, false, ErrIDConflict
		}
		if r.UserID != rec.UserID {
			continue
		}
		if r.IdempotencyKey == rec.IdempotencyKey || (rec.RequestKey != "" && r.RequestKey == rec.RequestKey) {
			return progress.CompletionRecord{}, false, ErrKeyConflict
		}
	}

	m.byTuple[rec.Triple()] = rec
	return rec, true, nil
}

func (m *Memory) Get(_ context.Context, t progress.Triple) (progress.CompletionRecord, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.byTuple[t]
	return rec, ok, nil
}

func (m *Memory) GetByKey(_ context.Context, userID, key string) (progress.CompletionRecord, bool, error) {
	if key == "" {
		return progress.CompletionRecord{}, false, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.sorted(userID) {
		if r.IdempotencyKey == key || r.RequestKey == key {
			return r, true, nil
		}
	}
	return progress.CompletionRecord{}, false, nil
}

func (m *Memory) List(_ context.Context, userID, sequenceID string) ([]progress.CompletionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []progress.CompletionRecord{}
	for _, r := range m.byTuple {
		if r.UserID == userID && r.SequenceID == sequenceID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemNumber < out[j].ItemNumber })
	return out, nil
}

func (m *Memory) ListByUser(_ context.Context, userID string) ([]progress.CompletionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sorted(userID), nil
}

func (m *Memory) Close() error { return nil }

// sorted returns the user's records in ListByUser order. Callers hold mu.
func (m *Memory) sorted(userID string) []progress.CompletionRecord {
	out := []progress.CompletionRecord{}
	for _, r := range m.byTuple {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if c := a.CompletedOn.Compare(b.CompletedOn); c != 0 {
			return c < 0
		}
		if a.SequenceID != b.SequenceID {
			return a.SequenceID < b.SequenceID
		}
		return a.ItemNumber < b.ItemNumber
	})
	return out
}

var _ Ledger = (*Memory)(nil)
