package reveal

import (
	"github.com/roach88/pathway/internal/progress"
)

// Plan describes how an item's content opens, for clients that run the
// pacer themselves. Unit texts are omitted; clients already hold the content.
type Plan struct {
	Policy            Policy     `json:"policy"`
	Units             []PlanUnit `json:"units"`
	InitiallyRevealed int        `json:"initially_revealed"`
	FullyRevealed     bool       `json:"fully_revealed"`
	TotalDurationMS   int64      `json:"total_duration_ms"`
}

// PlanUnit is the size and estimated duration of one unit.
type PlanUnit struct {
	Words      int   `json:"words"`
	DurationMS int64 `json:"duration_ms"`
}

// NewPlan opens a throwaway session to report the initial reveal state of
// text for an item in state.
func NewPlan(state progress.ItemState, policy Policy, text string, wordsPerSecond float64) (Plan, error) {
	units := UnitsFromText(text, wordsPerSecond)
	s, err := Open(state, policy, units)
	if err != nil {
		return Plan{}, err
	}

	plan := Plan{
		Policy:            policy,
		Units:             make([]PlanUnit, len(units)),
		InitiallyRevealed: s.Revealed(),
		FullyRevealed:     s.FullyRevealed(),
	}
	for i, u := range units {
		ms := u.Duration.Milliseconds()
		plan.Units[i] = PlanUnit{Words: u.Words, DurationMS: ms}
		plan.TotalDurationMS += ms
	}
	return plan, nil
}
