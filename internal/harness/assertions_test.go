package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pathway/internal/catalog"
	"github.com/roach88/pathway/internal/engine"
	"github.com/roach88/pathway/internal/ledger"
	"github.com/roach88/pathway/internal/progress"
)

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{Step: 1, Action: ActionComplete, Sequence: "s", Item: 1, Outcome: "recorded", Result: map[string]interface{}{"record_id": "rec-0001"}},
		{Step: 2, Action: ActionComplete, Sequence: "s", Item: 3, Outcome: "item_locked"},
		{Step: 3, Action: ActionUnlock, Sequence: "s", Outcome: OutcomeOK, Result: map[string]interface{}{"next_item": 2}},
		{Step: 4, Action: ActionComplete, Sequence: "s", Item: 1, Outcome: "replayed", Result: map[string]interface{}{"record_id": "rec-0001"}},
	}
}

func TestAssertTraceContains(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceContains(trace, Assertion{Action: ActionComplete, Outcome: "replayed"}))
	assert.NoError(t, assertTraceContains(trace, Assertion{Action: ActionUnlock, Result: map[string]interface{}{"next_item": 2}}))

	err := assertTraceContains(trace, Assertion{Action: ActionUnlock, Result: map[string]interface{}{"next_item": 3}})
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertTraceContains, ae.Type)
	assert.Contains(t, err.Error(), "Full trace:")
}

func TestAssertTraceOrder(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceOrder(trace, Assertion{Outcomes: []string{"recorded", "replayed"}}))
	assert.NoError(t, assertTraceOrder(trace, Assertion{Action: ActionComplete, Outcomes: []string{"recorded", "item_locked", "replayed"}}))
	assert.Error(t, assertTraceOrder(trace, Assertion{Outcomes: []string{"replayed", "recorded"}}))
	assert.Error(t, assertTraceOrder(trace, Assertion{Action: ActionUnlock, Outcomes: []string{"recorded"}}))
}

func TestAssertTraceCount(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceCount(trace, Assertion{Action: ActionComplete, Count: 3}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Action: ActionComplete, Outcome: "recorded", Count: 1}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Action: ActionStreak, Count: 0}))
	assert.Error(t, assertTraceCount(trace, Assertion{Action: ActionComplete, Count: 2}))
}

func TestAssertFinalState(t *testing.T) {
	cat := catalog.MustMemory(progress.SequenceDefinition{ID: "s", Kind: progress.KindJourney, TotalItems: 3})
	svc := engine.New(ledger.NewMemory(), cat)
	ctx := context.Background()
	_, err := svc.RecordCompletion(ctx, engine.CompleteRequest{UserID: "u1", SequenceID: "s", ItemNumber: 1})
	require.NoError(t, err)

	assert.NoError(t, assertFinalState(ctx, svc, Assertion{User: "u1", Sequence: "s", Expect: map[string]interface{}{
		"completed_count": 1, "next_item": 2, "total_items": 3,
	}}))
	assert.Error(t, assertFinalState(ctx, svc, Assertion{User: "u1", Sequence: "s", Expect: map[string]interface{}{"next_item": 3}}))
	assert.Error(t, assertFinalState(ctx, svc, Assertion{User: "u1", Sequence: "missing", Expect: map[string]interface{}{"next_item": 1}}))
}

func TestMatchSubset(t *testing.T) {
	actual := map[string]interface{}{"n": 2, "s": "x", "b": true, "nested": map[string]interface{}{"k": 1}}

	assert.True(t, matchSubset(actual, nil))
	assert.True(t, matchSubset(actual, map[string]interface{}{"n": 2}))
	assert.True(t, matchSubset(actual, map[string]interface{}{"n": 2.0, "b": true}))
	assert.True(t, matchSubset(actual, map[string]interface{}{"nested": map[string]interface{}{"k": 1}}))
	assert.False(t, matchSubset(actual, map[string]interface{}{"n": 3}))
	assert.False(t, matchSubset(actual, map[string]interface{}{"missing": 1}))
	assert.False(t, matchSubset(nil, map[string]interface{}{"n": 2}))
}

func TestEvaluateAssertions_UnknownType(t *testing.T) {
	errs := EvaluateAssertions(context.Background(), NewResult(), []Assertion{{Type: "vibes"}}, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "unknown assertion type")
}

func TestMarshalTrace(t *testing.T) {
	data, err := MarshalTrace("x", []TraceEvent{{Step: 1, Action: ActionAdvance, Today: "2026-03-02", Outcome: OutcomeOK}})
	require.NoError(t, err)
	want := `{
  "scenario_name": "x",
  "trace": [
    {
      "step": 1,
      "action": "advance",
      "today": "2026-03-02",
      "outcome": "ok"
    }
  ]
}
`
	assert.Equal(t, want, string(data))
}
