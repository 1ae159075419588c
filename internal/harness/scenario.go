package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/pathway/internal/calendar"
)

// Scenario is one conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Catalog is a directory of CUE sequence files. Relative paths are
	// resolved against the scenario file's directory.
	Catalog string `yaml:"catalog"`

	// Start is the RFC 3339 instant the clock is frozen at.
	Start string `yaml:"start"`

	// TimeZone is the default zone for steps that do not name one.
	TimeZone string `yaml:"timezone,omitempty"`

	Flow       []Step      `yaml:"flow"`
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one action in the flow.
type Step struct {
	Action   string `yaml:"action"`
	User     string `yaml:"user,omitempty"`
	Sequence string `yaml:"sequence,omitempty"`
	Item     int    `yaml:"item,omitempty"`
	Key      string `yaml:"key,omitempty"`
	TimeZone string `yaml:"tz,omitempty"`
	Group    string `yaml:"group,omitempty"`

	// Days and Hours are used by advance.
	Days  int `yaml:"days,omitempty"`
	Hours int `yaml:"hours,omitempty"`

	// At is used by set_clock.
	At string `yaml:"at,omitempty"`

	// Expect, when present, is checked against the step's trace event.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect is the expected outcome of a step.
type Expect struct {
	// Outcome is recorded, replayed, ok, or a lower-case error code such as
	// item_locked or too_early.
	Outcome string `yaml:"outcome"`

	// Result is a subset match against the event's result.
	Result map[string]interface{} `yaml:"result,omitempty"`
}

// Assertion validates the trace or the final ledger state.
type Assertion struct {
	Type string `yaml:"type"`

	// Action and Outcome filter events (trace_contains, trace_count).
	Action  string `yaml:"action,omitempty"`
	Outcome string `yaml:"outcome,omitempty"`

	// Result is a subset match (trace_contains).
	Result map[string]interface{} `yaml:"result,omitempty"`

	// Count is the expected number of events (trace_count).
	Count int `yaml:"count,omitempty"`

	// Outcomes is the expected order (trace_order).
	Outcomes []string `yaml:"outcomes,omitempty"`

	// User, Sequence and Expect select and match unlock state (final_state).
	User     string                 `yaml:"user,omitempty"`
	Sequence string                 `yaml:"sequence,omitempty"`
	Expect   map[string]interface{} `yaml:"expect,omitempty"`
}

// Step actions.
const (
	ActionComplete   = "complete"
	ActionAccess     = "access"
	ActionUnlock     = "unlock"
	ActionStreak     = "streak"
	ActionExperiment = "experiment"
	ActionAdvance    = "advance"
	ActionSetClock   = "set_clock"
)

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Catalog != "" && !filepath.IsAbs(scenario.Catalog) {
		scenario.Catalog = filepath.Join(filepath.Dir(path), scenario.Catalog)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadDir loads every *.yaml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("scan scenario directory: %w", err)
	}
	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Catalog == "" {
		return fmt.Errorf("catalog is required")
	}
	if info, err := os.Stat(s.Catalog); err != nil || !info.IsDir() {
		return fmt.Errorf("catalog directory not found: %s", s.Catalog)
	}
	if _, err := time.Parse(time.RFC3339, s.Start); err != nil {
		return fmt.Errorf("start must be an RFC 3339 instant: %w", err)
	}
	if s.TimeZone != "" {
		if _, err := calendar.LoadLocation(s.TimeZone); err != nil {
			return fmt.Errorf("timezone: %w", err)
		}
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Flow {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, st Step) error {
	needs := func(ok bool, what string) error {
		if !ok {
			return fmt.Errorf("flow[%d]: %s is required for %s", index, what, st.Action)
		}
		return nil
	}

	var err error
	switch st.Action {
	case ActionComplete, ActionAccess:
		if err = needs(st.User != "", "user"); err == nil {
			if err = needs(st.Sequence != "", "sequence"); err == nil {
				err = needs(st.Item != 0, "item")
			}
		}
	case ActionUnlock, ActionExperiment:
		if err = needs(st.User != "", "user"); err == nil {
			err = needs(st.Sequence != "", "sequence")
		}
	case ActionStreak:
		err = needs(st.User != "", "user")
	case ActionAdvance:
		err = needs(st.Days != 0 || st.Hours != 0, "days or hours")
	case ActionSetClock:
		if _, perr := time.Parse(time.RFC3339, st.At); perr != nil {
			err = fmt.Errorf("flow[%d]: at must be an RFC 3339 instant: %w", index, perr)
		}
	case "":
		err = fmt.Errorf("flow[%d]: action is required", index)
	default:
		err = fmt.Errorf("flow[%d]: unknown action %q", index, st.Action)
	}
	if err != nil {
		return err
	}

	if st.Expect != nil && st.Expect.Outcome == "" {
		return fmt.Errorf("flow[%d].expect: outcome is required", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTraceContains:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Outcomes) == 0 {
			return fmt.Errorf("assertions[%d]: outcomes list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if a.User == "" || a.Sequence == "" {
			return fmt.Errorf("assertions[%d]: user and sequence are required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
