package experiment

import (
	"github.com/roach88/pathway/internal/calendar"
	"github.com/roach88/pathway/internal/progress"
)

// DayStatus is the view of one day of the window.
type DayStatus struct {
	Number         int                `json:"number"`
	State          progress.ItemState `json:"state"`
	AvailableOn    calendar.Date      `json:"available_on"`
	CompletableNow bool               `json:"completable_now"`
}

// Status is the derived view of one user's experiment.
type Status struct {
	SequenceID         string        `json:"sequence_id"`
	TotalItems         int           `json:"total_items"`
	WindowStart        calendar.Date `json:"window_start"`
	WindowEnd          calendar.Date `json:"window_end"`
	Phase              Phase         `json:"phase"`
	Days               []DayStatus   `json:"days"`
	CompletedCount     int           `json:"completed_count"`
	ReflectionUnlocked bool          `json:"reflection_unlocked"`
}

// Evaluate combines unlock state with the window as seen on today.
// def must be windowed and bounded.
func Evaluate(def progress.SequenceDefinition, state progress.UnlockState, today calendar.Date) (Status, error) {
	start, end, ok := Window(def)
	if !ok || !def.Bounded() {
		return Status{}, progress.NewInvalidArgumentError("sequence %q is not a windowed experiment", def.ID)
	}

	st := Status{
		SequenceID:         def.ID,
		TotalItems:         def.TotalItems,
		WindowStart:        start,
		WindowEnd:          end,
		Phase:              PhaseOf(start, end, today),
		Days:               make([]DayStatus, 0, def.TotalItems),
		CompletedCount:     state.CompletedCount,
		ReflectionUnlocked: ReflectionUnlocked(state.CompletedCount, def.TotalItems),
	}

	for n := 1; n <= def.TotalItems; n++ {
		s := state.State(n)
		on := AvailableOn(def, n)
		st.Days = append(st.Days, DayStatus{
			Number:         n,
			State:          s,
			AvailableOn:    on,
			CompletableNow: s == progress.Unlocked && !today.Before(on),
		})
	}
	return st, nil
}
