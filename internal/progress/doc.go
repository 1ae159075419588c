// Package progress defines the shared vocabulary of the progress engine.
//
// This package contains types only: completion records, sequence definitions,
// derived unlock and streak views, and the typed error taxonomy. Every other
// internal package imports progress; progress imports nothing internal except
// calendar. Derived types (UnlockState, StreakSummary) are never persisted.
package progress
