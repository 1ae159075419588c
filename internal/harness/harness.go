package harness

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/pathway/internal/calendar"
	"github.com/roach88/pathway/internal/catalog"
	"github.com/roach88/pathway/internal/engine"
	"github.com/roach88/pathway/internal/progress"
	"github.com/roach88/pathway/internal/store"
	"github.com/roach88/pathway/internal/testutil"
	"github.com/roach88/pathway/internal/unlock"
)

// Outcome of a step that is neither a completion nor an error.
const OutcomeOK = "ok"

// Harness executes one scenario.
type Harness struct {
	svc      *engine.Service
	clock    *testutil.FixedClock
	location *time.Location
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// A frozen clock and sequential ids make traces reproducible.
//
// Execution flow:
// 1. Load the scenario's CUE catalog
// 2. Open an in-memory SQLite ledger
// 3. Execute flow steps, checking expect clauses
// 4. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	cat, err := catalog.LoadDir(scenario.Catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	start, err := time.Parse(time.RFC3339, scenario.Start)
	if err != nil {
		return nil, fmt.Errorf("invalid start: %w", err)
	}
	loc, err := calendar.LoadLocation(scenario.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	clock := testutil.NewFixedClock(start)
	h := &Harness{
		svc: engine.New(st, cat,
			engine.WithClock(clock),
			engine.WithIDGenerator(testutil.NewSequentialIDs("rec")),
			engine.WithDefaultLocation(loc),
		),
		clock:    clock,
		location: loc,
	}

	ctx := context.Background()
	result := NewResult()
	for i, step := range scenario.Flow {
		ev, err := h.execute(ctx, i+1, step)
		if err != nil {
			return nil, fmt.Errorf("flow step %d: %w", i+1, err)
		}
		result.AddTrace(ev)
		if msg := checkExpect(ev, step.Expect); msg != "" {
			result.AddError(msg)
		}
	}

	for _, msg := range EvaluateAssertions(ctx, result, scenario.Assertions, h.svc) {
		result.AddError(msg)
	}
	return result, nil
}

// execute runs one step. Domain errors become the event's outcome; only
// infrastructure failures are returned.
func (h *Harness) execute(ctx context.Context, n int, st Step) (TraceEvent, error) {
	ev := TraceEvent{Step: n, Action: st.Action, User: st.User, Sequence: st.Sequence, Item: st.Item}

	var (
		res map[string]interface{}
		err error
	)
	switch st.Action {
	case ActionComplete:
		var r engine.CompleteResult
		r, err = h.svc.RecordCompletion(ctx, engine.CompleteRequest{
			UserID: st.User, SequenceID: st.Sequence, ItemNumber: st.Item,
			IdempotencyKey: st.Key, TimeZone: st.TimeZone,
		})
		if err == nil {
			ev.Outcome = "recorded"
			if r.Replayed {
				ev.Outcome = "replayed"
			}
			res = map[string]interface{}{
				"record_id":    r.Record.ID,
				"completed_on": r.Record.CompletedOn.String(),
			}
		}
	case ActionAccess:
		var state progress.ItemState
		err = h.svc.CheckAccess(ctx, unlock.Access{UserID: st.User, SequenceID: st.Sequence, ItemNumber: st.Item})
		if err == nil {
			var u progress.UnlockState
			u, err = h.svc.GetUnlockState(ctx, st.User, st.Sequence)
			state = u.State(st.Item)
		}
		if err == nil {
			res = map[string]interface{}{"state": string(state)}
		}
	case ActionUnlock:
		var u progress.UnlockState
		u, err = h.svc.GetUnlockState(ctx, st.User, st.Sequence)
		if err == nil {
			res = map[string]interface{}{
				"completed_count":   u.CompletedCount,
				"highest_completed": u.HighestCompleted,
				"next_item":         u.NextItem,
			}
		}
	case ActionStreak:
		var s progress.StreakSummary
		s, err = h.svc.GetStreakSummary(ctx, st.User, st.Group, st.TimeZone)
		if err == nil {
			res = map[string]interface{}{
				"current":         s.CurrentStreak,
				"longest":         s.LongestStreak,
				"completed_today": s.CompletedToday,
				"next_expected":   s.NextExpectedDate.String(),
			}
		}
	case ActionExperiment:
		status, serr := h.svc.GetExperimentStatus(ctx, st.User, st.Sequence, st.TimeZone)
		err = serr
		if err == nil {
			res = map[string]interface{}{
				"phase":               string(status.Phase),
				"completed_count":     status.CompletedCount,
				"reflection_unlocked": status.ReflectionUnlocked,
			}
		}
	case ActionAdvance:
		h.clock.Advance(time.Duration(st.Days)*24*time.Hour + time.Duration(st.Hours)*time.Hour)
		res = map[string]interface{}{"now": h.clock.Now().UTC().Format(time.RFC3339)}
	case ActionSetClock:
		at, perr := time.Parse(time.RFC3339, st.At)
		if perr != nil {
			return ev, perr
		}
		h.clock.Set(at)
		res = map[string]interface{}{"now": at.UTC().Format(time.RFC3339)}
	default:
		return ev, fmt.Errorf("unknown action %q", st.Action)
	}

	if err != nil {
		code := progress.CodeOf(err)
		if code == "" {
			return ev, err
		}
		ev.Outcome = strings.ToLower(string(code))
		res = errorResult(err)
	} else if ev.Outcome == "" {
		ev.Outcome = OutcomeOK
	}
	ev.Result = res

	ev.Today = h.today(st.TimeZone).String()
	return ev, nil
}

// today falls back to the default zone when tz does not load; the engine
// has already reported that as the step's outcome.
func (h *Harness) today(tz string) calendar.Date {
	if tz != "" {
		if loc, err := calendar.LoadLocation(tz); err == nil {
			return h.clock.Today(loc)
		}
	}
	return h.clock.Today(h.location)
}

func errorResult(err error) map[string]interface{} {
	var pe *progress.Error
	if !errors.As(err, &pe) || pe.AvailableOn == nil {
		return nil
	}
	return map[string]interface{}{"available_on": pe.AvailableOn.String()}
}

// checkExpect returns a failure message, or "" when the event matches.
func checkExpect(ev TraceEvent, want *Expect) string {
	if want == nil {
		return ""
	}
	if ev.Outcome != want.Outcome {
		return fmt.Sprintf("step %d (%s): outcome = %s, want %s", ev.Step, ev.Action, ev.Outcome, want.Outcome)
	}
	if !matchSubset(ev.Result, want.Result) {
		return fmt.Sprintf("step %d (%s): result %v does not contain %v", ev.Step, ev.Action, ev.Result, want.Result)
	}
	return ""
}
