// Package experiment specialises a bounded sequence with a date window.
//
// Day k of a window starting on D may be completed on or after D + (k-1),
// and only once day k-1 is completed. Completing ahead of the window (several
// days in one sitting) is rejected with TOO_EARLY, which is distinct from
// ITEM_LOCKED. Late completion after the window end is allowed.
package experiment

import (
	"github.com/roach88/pathway/internal/calendar"
	"github.com/roach88/pathway/internal/progress"
)

// Phase is where today falls relative to the window.
type Phase string

const (
	NotStarted Phase = "not_started"
	Active     Phase = "active"
	Ended      Phase = "ended"
)

// Window returns the first and last day of def's window. The end defaults to
// start + TotalItems - 1. ok is false when def is not windowed.
func Window(def progress.SequenceDefinition) (start, end calendar.Date, ok bool) {
	if def.WindowStart == nil {
		return calendar.Date{}, calendar.Date{}, false
	}
	start = *def.WindowStart
	switch {
	case def.WindowEnd != nil:
		end = *def.WindowEnd
	case def.TotalItems > 0:
		end = start.AddDays(def.TotalItems - 1)
	default:
		end = start
	}
	return start, end, true
}

// AvailableOn returns the first date item may be completed. For sequences
// without a window every item is available immediately (zero date).
func AvailableOn(def progress.SequenceDefinition, item int) calendar.Date {
	if def.WindowStart == nil || item < 1 {
		return calendar.Date{}
	}
	return def.WindowStart.AddDays(item - 1)
}

// CheckDate returns TOO_EARLY if item's date floor is after today.
func CheckDate(def progress.SequenceDefinition, item int, today calendar.Date) error {
	if def.WindowStart == nil {
		return nil
	}
	if on := AvailableOn(def, item); today.Before(on) {
		return progress.NewTooEarlyError(def.ID, item, on)
	}
	return nil
}

// ReflectionUnlocked reports whether the closing reflection is available:
// one day before full completion, not only at 100%.
func ReflectionUnlocked(completedCount, totalItems int) bool {
	return totalItems > 0 && completedCount >= totalItems-1
}

// PhaseOf places today relative to [start, end].
func PhaseOf(start, end, today calendar.Date) Phase {
	switch {
	case today.Before(start):
		return NotStarted
	case today.After(end):
		return Ended
	default:
		return Active
	}
}
