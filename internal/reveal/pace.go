package reveal

import (
	"context"
	"time"
)

// Ticker delivers pacing ticks. Stop must release any underlying timer.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

// NewTicker returns a Ticker backed by time.Ticker.
func NewTicker(interval time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(interval)}
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// Pace drives a timed session from ticker until the content is fully
// revealed or ctx is done. onAdvance, when non-nil, is called with the new
// count each time a unit is revealed.
//
// Pace owns ticker: it is stopped on every return path.
func Pace(ctx context.Context, s *Session, ticker Ticker, onAdvance func(revealed int)) error {
	defer ticker.Stop()

	if s.Policy() != Timed {
		return ErrWrongPolicy
	}

	last := s.Revealed()
	for !s.FullyRevealed() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C():
			n := s.Tick(now)
			if n > last {
				last = n
				if onAdvance != nil {
					onAdvance(n)
				}
			}
		}
	}
	return nil
}
