package testutil

import (
	"sync"
	"time"

	"github.com/roach88/pathway/internal/calendar"
)

// FixedClock is a settable calendar.Clock for tests.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

var _ calendar.Clock = (*FixedClock)(nil)

// NewFixedClock returns a clock frozen at now.
func NewFixedClock(now time.Time) *FixedClock {
	return &FixedClock{now: now}
}

// Now returns the frozen instant.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Today returns the frozen instant's calendar date in loc.
func (c *FixedClock) Today(loc *time.Location) calendar.Date {
	return calendar.TodayAt(c.Now(), loc)
}

// Set moves the clock to now.
func (c *FixedClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// AdvanceDays moves the clock forward by n whole days of wall time (24h each).
func (c *FixedClock) AdvanceDays(n int) {
	c.Advance(time.Duration(n) * 24 * time.Hour)
}
