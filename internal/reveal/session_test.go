package reveal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pathway/internal/progress"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func secs(n int) time.Duration { return time.Duration(n) * time.Second }

// units with durations 2s, 3s, 5s: thresholds 2s, 5s, 10s.
func threeUnits() []Unit {
	return []Unit{{Duration: secs(2)}, {Duration: secs(3)}, {Duration: secs(5)}}
}

func TestOpen_DerivesFromState(t *testing.T) {
	s, err := Open(progress.Unlocked, Manual, threeUnits())
	require.NoError(t, err)
	assert.Equal(t, 1, s.Revealed())
	assert.False(t, s.FullyRevealed())

	done, err := Open(progress.Completed, Manual, threeUnits())
	require.NoError(t, err)
	assert.Equal(t, 3, done.Revealed())
	assert.True(t, done.FullyRevealed())

	_, err = Open(progress.Locked, Manual, threeUnits())
	assert.ErrorIs(t, err, ErrLocked)

	_, err = Open(progress.Unlocked, Policy("scroll"), threeUnits())
	assert.Error(t, err)
}

func TestOpen_NoUnitsIsFullyRevealed(t *testing.T) {
	s, err := Open(progress.Unlocked, Timed, nil)
	require.NoError(t, err)
	assert.True(t, s.FullyRevealed())
	assert.Equal(t, 0, s.Revealed())
}

func TestOpen_ReopenNeverResumes(t *testing.T) {
	first, err := Open(progress.Unlocked, Manual, threeUnits())
	require.NoError(t, err)
	_, _ = first.Continue()
	_, _ = first.Continue()
	require.True(t, first.FullyRevealed())

	// A new, not yet completed item opens at one unit.
	next, err := Open(progress.Unlocked, Manual, threeUnits())
	require.NoError(t, err)
	assert.Equal(t, 1, next.Revealed())

	// The finished item opens fully revealed after completion.
	again, err := Open(progress.Completed, Manual, threeUnits())
	require.NoError(t, err)
	assert.True(t, again.FullyRevealed())
}

func TestManual_ContinueOneAtATime(t *testing.T) {
	s, err := Open(progress.Unlocked, Manual, threeUnits())
	require.NoError(t, err)

	n, err := s.Continue()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, _ = s.Continue()
	assert.Equal(t, 3, n)
	assert.True(t, s.FullyRevealed())

	n, _ = s.Continue()
	assert.Equal(t, 3, n, "never past total")
}

func TestManual_IgnoresTime(t *testing.T) {
	s, err := Open(progress.Unlocked, Manual, threeUnits())
	require.NoError(t, err)
	s.SetEngaged(true, t0)
	assert.Equal(t, 1, s.Tick(t0.Add(time.Hour)))
}

func TestTimed_ContinueRejected(t *testing.T) {
	s, err := Open(progress.Unlocked, Timed, threeUnits())
	require.NoError(t, err)
	_, err = s.Continue()
	assert.ErrorIs(t, err, ErrWrongPolicy)
}

func TestTimed_AdvancesAtThresholds(t *testing.T) {
	s, err := Open(progress.Unlocked, Timed, threeUnits())
	require.NoError(t, err)

	assert.Equal(t, 1, s.Tick(t0.Add(secs(60))), "no progress before engagement")

	s.SetEngaged(true, t0)
	assert.Equal(t, 1, s.Tick(t0.Add(1999*time.Millisecond)))
	assert.Equal(t, 2, s.Tick(t0.Add(secs(2))))
	assert.Equal(t, 2, s.Tick(t0.Add(secs(4))))
	assert.Equal(t, 3, s.Tick(t0.Add(secs(5))))
	assert.True(t, s.FullyRevealed())
}

func TestTimed_PauseResumesFromSameElapsed(t *testing.T) {
	s, err := Open(progress.Unlocked, Timed, threeUnits())
	require.NoError(t, err)

	s.SetEngaged(true, t0)
	s.Tick(t0.Add(secs(1)))
	s.SetEngaged(false, t0.Add(1500*time.Millisecond))
	assert.Equal(t, 1500*time.Millisecond, s.Elapsed(t0.Add(time.Hour)))

	// Paused: wall time passes, nothing advances.
	assert.Equal(t, 1, s.Tick(t0.Add(time.Hour)))

	// Resume: needs only 0.5s more for the 2s threshold.
	resume := t0.Add(2 * time.Hour)
	s.SetEngaged(true, resume)
	assert.Equal(t, 1, s.Tick(resume.Add(400*time.Millisecond)))
	assert.Equal(t, 2, s.Tick(resume.Add(500*time.Millisecond)))
}

func TestTimed_StopsAdvancingWhenDisengaged(t *testing.T) {
	s, err := Open(progress.Unlocked, Timed, threeUnits())
	require.NoError(t, err)

	s.SetEngaged(true, t0)
	// Disengaging at 3s banks the progress made up to that instant.
	assert.Equal(t, 2, s.SetEngaged(false, t0.Add(secs(3))))
	assert.Equal(t, 2, s.Tick(t0.Add(secs(100))))
}

func TestTimed_NeverBackward(t *testing.T) {
	s, err := Open(progress.Unlocked, Timed, threeUnits())
	require.NoError(t, err)

	s.SetEngaged(true, t0)
	assert.Equal(t, 2, s.Tick(t0.Add(secs(3))))
	// A clock that steps backwards cannot un-reveal.
	assert.Equal(t, 2, s.Tick(t0.Add(-secs(10))))
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("timed")
	require.NoError(t, err)
	assert.Equal(t, Timed, p)
	_, err = ParsePolicy("")
	assert.Error(t, err)
}

func TestNewPlan(t *testing.T) {
	text := "one two three four five six seven\n\nAmen."
	plan, err := NewPlan(progress.Unlocked, Timed, text, 3.5)
	require.NoError(t, err)
	assert.Equal(t, []PlanUnit{{Words: 7, DurationMS: 2000}, {Words: 1, DurationMS: 1000}}, plan.Units)
	assert.Equal(t, 1, plan.InitiallyRevealed)
	assert.False(t, plan.FullyRevealed)
	assert.Equal(t, int64(3000), plan.TotalDurationMS)

	done, err := NewPlan(progress.Completed, Manual, text, 3.5)
	require.NoError(t, err)
	assert.Equal(t, 2, done.InitiallyRevealed)
	assert.True(t, done.FullyRevealed)
}
