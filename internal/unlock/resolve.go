// Package unlock decides which items of an ordered sequence are accessible.
//
// The resolver is the sole authority on lock state. Every entry point (list
// view, direct link, back navigation, deep link) must go through Check or a
// Guard before rendering interactive content; views never re-implement the
// rule.
//
// Rule (strict, no skipping):
//   - item 1 is always unlocked
//   - item k > 1 is unlocked iff item k-1 is completed
//   - a completed item is always reported completed, so history is never
//     retroactively locked
//   - every item above (highest completed)+1 is therefore locked
package unlock

import (
	"github.com/roach88/pathway/internal/progress"
)

// Resolve computes the unlock state of one (user, sequence) pair from the set
// of completed item numbers. totalItems of zero means unbounded.
//
// Completed numbers outside 1..totalItems are ignored. Resolve is pure and may
// be called as often as needed.
func Resolve(sequenceID string, completed []int, totalItems int) progress.UnlockState {
	done := make(map[int]bool, len(completed))
	highest := 0
	for _, n := range completed {
		if n < 1 || (totalItems > 0 && n > totalItems) {
			continue
		}
		done[n] = true
		if n > highest {
			highest = n
		}
	}

	last := totalItems
	if last == 0 {
		last = highest + 1
	}

	state := progress.UnlockState{
		SequenceID:       sequenceID,
		TotalItems:       totalItems,
		Items:            make([]progress.ItemStatus, 0, last),
		CompletedCount:   len(done),
		HighestCompleted: highest,
	}

	for n := 1; n <= last; n++ {
		s := itemState(n, done)
		if s == progress.Unlocked && state.NextItem == 0 {
			state.NextItem = n
		}
		state.Items = append(state.Items, progress.ItemStatus{Number: n, State: s})
	}

	return state
}

func itemState(n int, done map[int]bool) progress.ItemState {
	switch {
	case done[n]:
		return progress.Completed
	case n == 1 || done[n-1]:
		return progress.Unlocked
	default:
		return progress.Locked
	}
}

// Check validates that item may be completed or opened under state.
//
// Returns OUT_OF_RANGE for item < 1 or item beyond a bounded sequence, and
// ITEM_LOCKED when the item is locked. Completed items pass: re-opening and
// re-completing history is always allowed.
func Check(state progress.UnlockState, item int) error {
	if item < 1 || (state.TotalItems > 0 && item > state.TotalItems) {
		return progress.NewOutOfRangeError(state.SequenceID, item, state.TotalItems)
	}
	if state.State(item) == progress.Locked {
		return progress.NewItemLockedError(state.SequenceID, item, item-1)
	}
	return nil
}
