package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/pathway/internal/engine"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s/%d on %s -> %s\n", ev.Step, ev.Action, ev.Sequence, ev.Item, ev.Today, ev.Outcome)
		}
	}

	return buf.String()
}

func eventMatches(ev TraceEvent, action, outcome string) bool {
	return (action == "" || ev.Action == action) && (outcome == "" || ev.Outcome == outcome)
}

// assertTraceContains checks if the trace contains an event matching the
// action, outcome and result (subset match).
func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, ev := range trace {
		if eventMatches(ev, a.Action, a.Outcome) && matchSubset(ev.Result, a.Result) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("%s -> %s with result %v", a.Action, a.Outcome, a.Result),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the outcomes appear in order among events
// with the action. Events in between are allowed.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, ev := range trace {
		if next == len(a.Outcomes) {
			break
		}
		if eventMatches(ev, a.Action, a.Outcomes[next]) {
			next++
		}
	}
	if next < len(a.Outcomes) {
		return &AssertionError{
			Type:     AssertTraceOrder,
			Expected: fmt.Sprintf("outcomes in order: %v", a.Outcomes),
			Actual:   fmt.Sprintf("missing %s after %v", a.Outcomes[next], a.Outcomes[:next]),
			Trace:    trace,
		}
	}
	return nil
}

// assertTraceCount checks if matching events appear exactly Count times.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if eventMatches(ev, a.Action, a.Outcome) {
			count++
		}
	}

	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s -> %s", a.Count, a.Action, a.Outcome),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalState reads the user's unlock state for a sequence from the
// ledger and matches Expect against its JSON form.
func assertFinalState(ctx context.Context, svc *engine.Service, a Assertion) error {
	state, err := svc.GetUnlockState(ctx, a.User, a.Sequence)
	if err != nil {
		return fmt.Errorf("final_state: %w", err)
	}
	actual, err := toMap(state)
	if err != nil {
		return fmt.Errorf("final_state: %w", err)
	}
	if !matchSubset(actual, a.Expect) {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%s/%s state containing %v", a.User, a.Sequence, a.Expect),
			Actual:   fmt.Sprintf("%v", actual),
		}
	}
	return nil
}

// matchSubset reports whether every key in expected is present in actual
// with an equal value. Both sides are compared in their JSON form, so YAML
// ints match Go ints and nested values compare structurally.
func matchSubset(actual, expected map[string]interface{}) bool {
	if len(expected) == 0 {
		return true
	}
	a, err := normalize(actual)
	if err != nil {
		return false
	}
	e, err := normalize(expected)
	if err != nil {
		return false
	}
	am, _ := a.(map[string]interface{})
	em, _ := e.(map[string]interface{})
	for key, want := range em {
		got, ok := am[key]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

func normalize(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func toMap(v interface{}) (map[string]interface{}, error) {
	n, err := normalize(v)
	if err != nil {
		return nil, err
	}
	m, ok := n.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("expected an object, got %T", n)
	}
	return m, nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(ctx context.Context, result *Result, assertions []Assertion, svc *engine.Service) []string {
	var errs []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalState:
			if svc == nil {
				err = fmt.Errorf("assertion[%d]: final_state requires an engine", i)
			} else {
				err = assertFinalState(ctx, svc, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	return errs
}
