// Package calendar is the single source of truth for day boundaries.
//
// Streaks, unlock rules and experiment windows all reason in civil dates
// ("2026-03-08"), never in instants. A Date is resolved from an instant in the
// user's configured time zone exactly once per request, through a Clock, and
// all arithmetic afterwards happens on dates alone.
//
// Date arithmetic is done on a proleptic day count in UTC, so it is immune to
// DST transitions: a 23-hour or 25-hour local day is still one day.
//
// No component may read the system clock directly. Production code uses
// SystemClock; tests use testutil.FixedClock.
package calendar
