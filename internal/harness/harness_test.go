package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios_Golden(t *testing.T) {
	scenarios, err := LoadDir("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_Deterministic(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "experiment_window.yaml"))
	require.NoError(t, err)

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	a, err := MarshalTrace(s.Name, first.Trace)
	require.NoError(t, err)
	b, err := MarshalTrace(s.Name, second.Trace)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRun_ReportsExpectMismatch(t *testing.T) {
	s := &Scenario{
		Name:        "mismatch",
		Description: "wrong expectation",
		Catalog:     filepath.Join("testdata", "catalog"),
		Start:       "2026-03-02T12:00:00Z",
		Flow: []Step{
			{Action: ActionComplete, User: "u1", Sequence: "john-21", Item: 2, Expect: &Expect{Outcome: "recorded"}},
			{Action: ActionComplete, User: "u1", Sequence: "john-21", Item: 1, Expect: &Expect{
				Outcome: "recorded", Result: map[string]interface{}{"record_id": "rec-9999"},
			}},
		},
		Assertions: []Assertion{{Type: AssertTraceCount, Action: ActionComplete, Count: 5}},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "outcome = item_locked, want recorded")
	assert.Contains(t, result.Errors[1], "does not contain")
	assert.Contains(t, result.Errors[2], "trace_count")
}

func TestRun_UnknownSequenceIsAnOutcome(t *testing.T) {
	s := &Scenario{
		Name:        "unknown",
		Description: "unknown sequence",
		Catalog:     filepath.Join("testdata", "catalog"),
		Start:       "2026-03-02T12:00:00Z",
		Flow: []Step{
			{Action: ActionUnlock, User: "u1", Sequence: "nope", Expect: &Expect{Outcome: "unknown_sequence"}},
			{Action: ActionComplete, User: "u1", Sequence: "john-21", Item: 1, TimeZone: "Not/AZone", Expect: &Expect{Outcome: "invalid_argument"}},
		},
		Assertions: []Assertion{{Type: AssertTraceCount, Action: ActionComplete, Count: 1}},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "2026-03-02", result.Trace[1].Today)
}

func TestRun_BadCatalog(t *testing.T) {
	s := &Scenario{Catalog: t.TempDir(), Start: "2026-03-02T12:00:00Z"}
	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load catalog")
}
