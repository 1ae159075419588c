// Package streak derives consecutive-day engagement from completion dates.
package streak

import (
	"sort"

	"github.com/roach88/pathway/internal/calendar"
	"github.com/roach88/pathway/internal/progress"
)

// Compute returns the streak summary for a set of completion dates as seen
// on today.
//
// The current streak is anchored on today when today is completed, otherwise
// on yesterday: a streak does not drop to zero before the user has had a
// chance to act today. Any missed day breaks it; there are no grace days.
// The longest streak is the longest run anywhere in dates and does not
// depend on today.
//
// dates may contain duplicates and be in any order.
func Compute(dates []calendar.Date, today calendar.Date) progress.StreakSummary {
	set := make(map[calendar.Date]bool, len(dates))
	for _, d := range dates {
		if !d.IsZero() {
			set[d] = true
		}
	}

	summary := progress.StreakSummary{
		CompletedToday:   set[today],
		NextExpectedDate: today,
	}
	if summary.CompletedToday {
		summary.NextExpectedDate = today.Next()
	}
	if len(set) == 0 {
		return summary
	}

	distinct := make([]calendar.Date, 0, len(set))
	for d := range set {
		distinct = append(distinct, d)
	}
	sort.Slice(distinct, func(i, j int) bool { return distinct[i].Before(distinct[j]) })

	last := distinct[len(distinct)-1]
	summary.LastCompletedDate = &last
	summary.CurrentStreak = current(set, today)
	summary.LongestStreak = longest(distinct)

	return summary
}

func current(set map[calendar.Date]bool, today calendar.Date) int {
	day := today
	if !set[day] {
		day = today.Previous()
	}
	n := 0
	for set[day] {
		n++
		day = day.Previous()
	}
	return n
}

// longest expects distinct dates in ascending order.
func longest(distinct []calendar.Date) int {
	best, run := 0, 0
	for i, d := range distinct {
		if i > 0 && calendar.DaysBetween(distinct[i-1], d) == 1 {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}
