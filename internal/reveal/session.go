package reveal

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/roach88/pathway/internal/progress"
)

// Policy selects how a session advances.
type Policy string

const (
	Manual Policy = "manual"
	Timed  Policy = "timed"
)

// ParsePolicy validates a configured policy name.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case Manual, Timed:
		return Policy(s), nil
	}
	return "", fmt.Errorf("unknown reveal policy %q (want manual or timed)", s)
}

var (
	// ErrLocked is returned when opening content for a locked item.
	ErrLocked = errors.New("reveal: item is locked")

	// ErrWrongPolicy is returned when an operation does not apply to the
	// session's policy.
	ErrWrongPolicy = errors.New("reveal: operation not supported by policy")
)

// Session is the reveal state of one open item. It is safe for concurrent
// use, though a session normally belongs to a single view.
type Session struct {
	mu sync.Mutex

	policy     Policy
	total      int
	thresholds []time.Duration // cumulative; thresholds[i] reveals unit i+2
	revealed   int

	engaged      bool
	engagedSince time.Time
	elapsed      time.Duration // engaged time banked before engagedSince
}

// Open starts a session for an item in the given state. It always derives
// progress from state: completed items and items with no units open fully
// revealed, other unlocked items open with one unit revealed.
func Open(state progress.ItemState, policy Policy, units []Unit) (*Session, error) {
	if state == progress.Locked {
		return nil, ErrLocked
	}
	if _, err := ParsePolicy(string(policy)); err != nil {
		return nil, err
	}

	s := &Session{
		policy:     policy,
		total:      len(units),
		thresholds: make([]time.Duration, 0, len(units)),
	}

	var sum time.Duration
	for _, u := range units {
		sum += u.Duration
		s.thresholds = append(s.thresholds, sum)
	}

	switch {
	case state == progress.Completed, s.total == 0:
		s.revealed = s.total
	default:
		s.revealed = 1
	}
	return s, nil
}

// Policy returns the session's policy.
func (s *Session) Policy() Policy { return s.policy }

// Total returns the number of units.
func (s *Session) Total() int { return s.total }

// Revealed returns the number of revealed units.
func (s *Session) Revealed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revealed
}

// FullyRevealed reports whether every unit is shown. Completion may only be
// offered once this is true.
func (s *Session) FullyRevealed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revealed >= s.total
}

// Continue reveals exactly one more unit under the manual policy.
func (s *Session) Continue() (int, error) {
	if s.policy != Manual {
		return 0, ErrWrongPolicy
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revealed < s.total {
		s.revealed++
	}
	return s.revealed, nil
}

// SetEngaged updates the engagement signal at instant now. Elapsed time only
// accrues while engaged. Returns the revealed count after the update.
func (s *Session) SetEngaged(engaged bool, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engaged {
		s.advanceLocked(now)
	}
	switch {
	case engaged && !s.engaged:
		s.engagedSince = now
	case !engaged && s.engaged:
		s.elapsed = s.elapsedLocked(now)
	}
	s.engaged = engaged
	return s.revealed
}

// Tick advances the timed policy to instant now. Returns the revealed count.
func (s *Session) Tick(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.policy == Timed && s.engaged {
		s.advanceLocked(now)
	}
	return s.revealed
}

// Elapsed returns the engaged time accumulated up to now.
func (s *Session) Elapsed(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.engaged {
		return s.elapsed
	}
	return s.elapsedLocked(now)
}

func (s *Session) elapsedLocked(now time.Time) time.Duration {
	d := now.Sub(s.engagedSince)
	if d < 0 {
		d = 0
	}
	return s.elapsed + d
}

func (s *Session) advanceLocked(now time.Time) {
	if s.policy != Timed {
		return
	}
	elapsed := s.elapsedLocked(now)
	n := 1
	for _, th := range s.thresholds {
		if th > elapsed || n >= s.total {
			break
		}
		n++
	}
	if n > s.revealed {
		s.revealed = n
	}
}
