package progress

import (
	"time"

	"github.com/roach88/pathway/internal/calendar"
)

// DefaultStreakGroup is the streak group of sequences that do not name one.
const DefaultStreakGroup = "default"

// CompletionRecord is one fact: user U completed item N of sequence S on
// calendar date D.
//
// Records are created exactly once per (UserID, SequenceID, ItemNumber) and
// are never mutated afterwards.
type CompletionRecord struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	SequenceID string `json:"sequence_id"`
	ItemNumber int    `json:"item_number"`

	// CompletedOn is the user's local calendar date of the write. It is the
	// only date streak and window logic ever look at.
	CompletedOn calendar.Date `json:"completed_on"`

	// CompletedAt is the wall-clock instant of the write, for audit and
	// display only.
	CompletedAt time.Time `json:"completed_at"`

	// IdempotencyKey is the canonical key ledger.Key(SequenceID, ItemNumber, CompletedOn).
	IdempotencyKey string `json:"idempotency_key"`

	// RequestKey is the key the client sent when it differed from the
	// canonical one. Empty otherwise.
	RequestKey string `json:"request_key,omitempty"`
}

// Triple returns the logical identity the ledger dedupes on.
func (r CompletionRecord) Triple() Triple {
	return Triple{UserID: r.UserID, SequenceID: r.SequenceID, ItemNumber: r.ItemNumber}
}

// Triple identifies one logical completion.
type Triple struct {
	UserID     string
	SequenceID string
	ItemNumber int
}

// Kind names the product surface a sequence belongs to. It does not change
// any rule; it is carried for display and filtering.
type Kind string

const (
	KindSpark       Kind = "spark"
	KindReadingPlan Kind = "reading_plan"
	KindJourney     Kind = "journey"
	KindCohort      Kind = "cohort"
	KindExperiment  Kind = "experiment"
)

// SequenceDefinition is the read-only description of an ordered sequence,
// owned by the content catalog.
type SequenceDefinition struct {
	ID    string `json:"id"`
	Kind  Kind   `json:"kind"`
	Title string `json:"title,omitempty"`

	// TotalItems bounds the sequence. Zero means unbounded (open-ended content).
	TotalItems int `json:"total_items,omitempty"`

	// WindowStart, when set, turns the sequence into a time-boxed experiment:
	// item k is not completable before WindowStart + (k-1).
	WindowStart *calendar.Date `json:"window_start,omitempty"`

	// WindowEnd is informational. When nil it defaults to
	// WindowStart + TotalItems - 1.
	WindowEnd *calendar.Date `json:"window_end,omitempty"`

	// StreakGroup selects which streak this sequence feeds.
	StreakGroup string `json:"streak_group,omitempty"`

	// ExcludeFromStreak removes the sequence from every streak.
	ExcludeFromStreak bool `json:"exclude_from_streak,omitempty"`
}

// Bounded reports whether the sequence has a fixed number of items.
func (d SequenceDefinition) Bounded() bool {
	return d.TotalItems > 0
}

// Windowed reports whether the sequence is a time-boxed experiment.
func (d SequenceDefinition) Windowed() bool {
	return d.WindowStart != nil
}

// Group returns the effective streak group.
func (d SequenceDefinition) Group() string {
	if d.StreakGroup == "" {
		return DefaultStreakGroup
	}
	return d.StreakGroup
}

// StreakEligible reports whether completions in this sequence count toward
// the given streak group. The empty group matches every eligible sequence.
func (d SequenceDefinition) StreakEligible(group string) bool {
	if d.ExcludeFromStreak {
		return false
	}
	return group == "" || d.Group() == group
}

// ItemState is the derived accessibility of one item.
type ItemState string

const (
	Locked    ItemState = "locked"
	Unlocked  ItemState = "unlocked"
	Completed ItemState = "completed"
)

// Accessible reports whether the item may be opened interactively.
func (s ItemState) Accessible() bool {
	return s == Unlocked || s == Completed
}

// ItemStatus pairs an item number with its state.
type ItemStatus struct {
	Number int       `json:"number"`
	State  ItemState `json:"state"`
}

// UnlockState is the derived lock view of one (user, sequence) pair.
// It is recomputed from the ledger on every request and never stored.
type UnlockState struct {
	SequenceID string `json:"sequence_id"`

	// TotalItems is zero for unbounded sequences.
	TotalItems int `json:"total_items,omitempty"`

	// Items lists every bounded item, or items 1..HighestCompleted+1 for an
	// unbounded sequence. Any item not listed is locked.
	Items []ItemStatus `json:"items"`

	CompletedCount   int `json:"completed_count"`
	HighestCompleted int `json:"highest_completed"`

	// NextItem is the lowest unlocked, uncompleted item, or zero when every
	// bounded item is completed.
	NextItem int `json:"next_item"`
}

// State returns the state of item n. Items outside Items are locked.
func (u UnlockState) State(n int) ItemState {
	if n >= 1 && n <= len(u.Items) {
		return u.Items[n-1].State
	}
	return Locked
}

// StreakSummary is the derived streak view for one user and streak group.
type StreakSummary struct {
	CurrentStreak     int            `json:"current_streak"`
	LongestStreak     int            `json:"longest_streak"`
	LastCompletedDate *calendar.Date `json:"last_completed_date,omitempty"`
	CompletedToday    bool           `json:"completed_today"`
	NextExpectedDate  calendar.Date  `json:"next_expected_date"`
}
