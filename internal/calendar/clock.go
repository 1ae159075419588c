package calendar

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // zone database for hosts without /usr/share/zoneinfo
)

// Clock is the injectable source of "now".
//
// Implementations must be safe for concurrent use. Today is called on every
// unlock, streak and window check and must never be memoised for longer than
// one logical request.
type Clock interface {
	// Now returns the current instant. Used for audit timestamps only.
	Now() time.Time

	// Today returns the calendar date of Now in loc.
	Today(loc *time.Location) Date
}

// SystemClock reads the host wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Today returns the current date in loc.
func (c SystemClock) Today(loc *time.Location) Date {
	return TodayAt(c.Now(), loc)
}

// TodayAt returns the calendar date of instant t in loc.
// A nil loc is treated as UTC.
func TodayAt(t time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(t.In(loc))
}

// LoadLocation resolves an IANA zone name. The empty string means UTC.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", name, err)
	}
	return loc, nil
}
