package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "catalog"), 0o755))
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const minimalScenario = `
name: minimal
description: "one completion"
catalog: catalog
start: "2026-03-02T12:00:00Z"
flow:
  - action: complete
    user: u1
    sequence: john-21
    item: 1
assertions:
  - type: trace_count
    action: complete
    count: 1
`

func TestLoadScenario_Valid(t *testing.T) {
	path := writeScenario(t, minimalScenario)

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "minimal", s.Name)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "catalog"), s.Catalog)
	require.Len(t, s.Flow, 1)
	assert.Equal(t, ActionComplete, s.Flow[0].Action)
	assert.Equal(t, 1, s.Flow[0].Item)
}

func TestLoadScenario_RejectsUnknownFields(t *testing.T) {
	path := writeScenario(t, minimalScenario+"assertion: []\n")

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestValidateScenario(t *testing.T) {
	dir := t.TempDir()
	base := func() Scenario {
		return Scenario{
			Name:        "s",
			Description: "d",
			Catalog:     dir,
			Start:       "2026-03-02T12:00:00Z",
			Flow:        []Step{{Action: ActionUnlock, User: "u1", Sequence: "john-21"}},
			Assertions:  []Assertion{{Type: AssertTraceCount, Action: ActionUnlock, Count: 1}},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Scenario)
		errMsg string
	}{
		{"ok", func(*Scenario) {}, ""},
		{"no name", func(s *Scenario) { s.Name = "" }, "name is required"},
		{"no description", func(s *Scenario) { s.Description = "" }, "description is required"},
		{"no catalog", func(s *Scenario) { s.Catalog = "" }, "catalog is required"},
		{"missing catalog", func(s *Scenario) { s.Catalog = filepath.Join(dir, "missing") }, "catalog directory not found"},
		{"bad start", func(s *Scenario) { s.Start = "yesterday" }, "start must be an RFC 3339 instant"},
		{"bad zone", func(s *Scenario) { s.TimeZone = "Atlantis/Central" }, "timezone"},
		{"no flow", func(s *Scenario) { s.Flow = nil }, "flow list is required"},
		{"no assertions", func(s *Scenario) { s.Assertions = nil }, "assertions list is required"},
		{"unknown action", func(s *Scenario) { s.Flow[0].Action = "teleport" }, `unknown action "teleport"`},
		{"empty action", func(s *Scenario) { s.Flow[0].Action = "" }, "action is required"},
		{"complete without item", func(s *Scenario) { s.Flow[0].Action = ActionComplete }, "item is required for complete"},
		{"streak without user", func(s *Scenario) { s.Flow[0] = Step{Action: ActionStreak} }, "user is required for streak"},
		{"advance without amount", func(s *Scenario) { s.Flow[0] = Step{Action: ActionAdvance} }, "days or hours is required"},
		{"set_clock bad instant", func(s *Scenario) { s.Flow[0] = Step{Action: ActionSetClock, At: "noon"} }, "at must be an RFC 3339 instant"},
		{"expect without outcome", func(s *Scenario) { s.Flow[0].Expect = &Expect{} }, "outcome is required"},
		{"unknown assertion", func(s *Scenario) { s.Assertions[0].Type = "vibes" }, `unknown assertion type "vibes"`},
		{"order without outcomes", func(s *Scenario) { s.Assertions[0] = Assertion{Type: AssertTraceOrder} }, "outcomes list is required"},
		{"final_state without expect", func(s *Scenario) {
			s.Assertions[0] = Assertion{Type: AssertFinalState, User: "u1", Sequence: "john-21"}
		}, "expect is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base()
			tt.mutate(&s)
			err := validateScenario(&s)
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadDir(t *testing.T) {
	scenarios, err := LoadDir("testdata/scenarios")
	require.NoError(t, err)
	names := make([]string, len(scenarios))
	for i, s := range scenarios {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"experiment_window", "reading_plan", "streak_dst"}, names)
}
