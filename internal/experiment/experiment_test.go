package experiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pathway/internal/calendar"
	"github.com/roach88/pathway/internal/progress"
	"github.com/roach88/pathway/internal/unlock"
)

var start = calendar.MustParseDate("2026-03-02")

func wdep() progress.SequenceDefinition {
	s := start
	return progress.SequenceDefinition{
		ID:          "wdep-7",
		Kind:        progress.KindExperiment,
		TotalItems:  7,
		WindowStart: &s,
	}
}

func TestWindow_DefaultEnd(t *testing.T) {
	s, e, ok := Window(wdep())
	require.True(t, ok)
	assert.Equal(t, start, s)
	assert.Equal(t, calendar.MustParseDate("2026-03-08"), e)

	def := wdep()
	end := calendar.MustParseDate("2026-03-20")
	def.WindowEnd = &end
	_, e, _ = Window(def)
	assert.Equal(t, end, e)

	_, _, ok = Window(progress.SequenceDefinition{ID: "plan", TotalItems: 3})
	assert.False(t, ok)
}

func TestCheckDate(t *testing.T) {
	def := wdep()

	err := CheckDate(def, 3, start)
	require.Error(t, err)
	assert.True(t, progress.IsTooEarly(err))
	var perr *progress.Error
	require.ErrorAs(t, err, &perr)
	require.NotNil(t, perr.AvailableOn)
	assert.Equal(t, calendar.MustParseDate("2026-03-04"), *perr.AvailableOn)

	assert.NoError(t, CheckDate(def, 1, start))
	assert.NoError(t, CheckDate(def, 3, start.AddDays(2)))
	assert.NoError(t, CheckDate(def, 3, start.AddDays(30)), "late completion is allowed")

	assert.NoError(t, CheckDate(progress.SequenceDefinition{ID: "plan"}, 9, start))
}

func TestReflectionUnlocked(t *testing.T) {
	assert.False(t, ReflectionUnlocked(5, 7))
	assert.True(t, ReflectionUnlocked(6, 7))
	assert.True(t, ReflectionUnlocked(7, 7))
	assert.False(t, ReflectionUnlocked(0, 0))
}

func TestPhaseOf(t *testing.T) {
	end := start.AddDays(6)
	assert.Equal(t, NotStarted, PhaseOf(start, end, start.Previous()))
	assert.Equal(t, Active, PhaseOf(start, end, start))
	assert.Equal(t, Active, PhaseOf(start, end, end))
	assert.Equal(t, Ended, PhaseOf(start, end, end.Next()))
}

func TestEvaluate(t *testing.T) {
	def := wdep()
	state := unlock.Resolve(def.ID, []int{1, 2}, def.TotalItems)
	today := start.AddDays(1) // day 2 of the window

	st, err := Evaluate(def, state, today)
	require.NoError(t, err)

	assert.Equal(t, Active, st.Phase)
	assert.Equal(t, 2, st.CompletedCount)
	assert.False(t, st.ReflectionUnlocked)
	require.Len(t, st.Days, 7)

	assert.Equal(t, progress.Completed, st.Days[1].State)
	assert.False(t, st.Days[1].CompletableNow)

	day3 := st.Days[2]
	assert.Equal(t, progress.Unlocked, day3.State)
	assert.Equal(t, calendar.MustParseDate("2026-03-04"), day3.AvailableOn)
	assert.False(t, day3.CompletableNow, "unlocked but before its date")

	st, err = Evaluate(def, state, start.AddDays(2))
	require.NoError(t, err)
	assert.True(t, st.Days[2].CompletableNow)
}

func TestEvaluate_RequiresWindow(t *testing.T) {
	_, err := Evaluate(progress.SequenceDefinition{ID: "plan", TotalItems: 3}, progress.UnlockState{}, start)
	assert.True(t, progress.IsInvalidArgument(err))
}
