package testutil

import (
	"sync"
	"time"
)

// ManualTicker is a ticker driven by the test. Tick delivers one tick and
// blocks until the consumer has received it.
type ManualTicker struct {
	c    chan time.Time
	done chan struct{}
	once sync.Once
}

// NewManualTicker returns a running ticker.
func NewManualTicker() *ManualTicker {
	return &ManualTicker{
		c:    make(chan time.Time),
		done: make(chan struct{}),
	}
}

// C returns the tick channel.
func (m *ManualTicker) C() <-chan time.Time { return m.c }

// Stop releases the ticker. Safe to call more than once.
func (m *ManualTicker) Stop() {
	m.once.Do(func() { close(m.done) })
}

// Stopped reports whether Stop has been called.
func (m *ManualTicker) Stopped() bool {
	select {
	case <-m.done:
		return true
	default:
		return false
	}
}

// Tick delivers t. It returns false without delivering if the ticker is
// stopped.
func (m *ManualTicker) Tick(t time.Time) bool {
	select {
	case <-m.done:
		return false
	default:
	}
	select {
	case m.c <- t:
		return true
	case <-m.done:
		return false
	}
}
