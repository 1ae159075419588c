package calendar

import (
	"encoding/json"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate_RoundTrip(t *testing.T) {
	d, err := ParseDate("2026-03-08")
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 2026, Month: time.March, Day: 8}, d)
	assert.Equal(t, "2026-03-08", d.String())
}

func TestParseDate_Invalid(t *testing.T) {
	for _, in := range []string{"", "2026-3-8", "2026-02-30", "yesterday"} {
		_, err := ParseDate(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestNew_Normalises(t *testing.T) {
	assert.Equal(t, MustParseDate("2026-02-01"), New(2026, time.January, 32))
}

func TestAddDays(t *testing.T) {
	d := MustParseDate("2026-12-31")
	assert.Equal(t, MustParseDate("2027-01-01"), d.Next())
	assert.Equal(t, MustParseDate("2026-12-30"), d.Previous())
	assert.Equal(t, MustParseDate("2027-01-07"), d.AddDays(7))
	assert.Equal(t, MustParseDate("2024-02-29"), MustParseDate("2024-03-01").Previous())
}

func TestDaysBetween(t *testing.T) {
	a := MustParseDate("2026-03-01")
	assert.Equal(t, 0, DaysBetween(a, a))
	assert.Equal(t, 7, DaysBetween(a, MustParseDate("2026-03-08")))
	assert.Equal(t, -1, DaysBetween(a, MustParseDate("2026-02-28")))
	assert.Equal(t, 365, DaysBetween(MustParseDate("2025-01-01"), MustParseDate("2026-01-01")))
}

func TestDaysBetween_AcrossDST(t *testing.T) {
	// 2026-03-08 is a 23-hour day in New York; it still counts as one day.
	assert.Equal(t, 1, DaysBetween(MustParseDate("2026-03-08"), MustParseDate("2026-03-09")))
	assert.Equal(t, 1, DaysBetween(MustParseDate("2026-11-01"), MustParseDate("2026-11-02")))
}

func TestCompare(t *testing.T) {
	a := MustParseDate("2026-03-01")
	b := MustParseDate("2026-03-02")
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.False(t, a.After(a))
	assert.Equal(t, 0, a.Compare(a))

	dates := []Date{b, a, MustParseDate("2025-12-31")}
	slices.SortFunc(dates, Date.Compare)
	assert.Equal(t, []Date{MustParseDate("2025-12-31"), a, b}, dates)
}

func TestIsZero(t *testing.T) {
	assert.True(t, Date{}.IsZero())
	assert.False(t, MustParseDate("2026-01-01").IsZero())
}

func TestDate_JSON(t *testing.T) {
	type wrapper struct {
		On Date `json:"on"`
	}
	data, err := json.Marshal(wrapper{On: MustParseDate("2026-03-08")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"on":"2026-03-08"}`, string(data))

	var back wrapper
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, MustParseDate("2026-03-08"), back.On)
}

func TestStartIn(t *testing.T) {
	loc, err := LoadLocation("America/New_York")
	require.NoError(t, err)
	start := MustParseDate("2026-03-08").StartIn(loc)
	assert.Equal(t, "2026-03-08T05:00:00Z", start.UTC().Format(time.RFC3339))
}
