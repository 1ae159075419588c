// Package reveal paces the disclosure of one item's content within a single
// viewing session.
//
// A Session is always derived on open from the item's unlock state: a
// completed item opens fully revealed, anything else opens with exactly one
// unit shown. Sessions are never resumed from an earlier visit. The pacer
// never writes to the ledger; it only decides whether completion may be
// offered (FullyRevealed).
//
// Two policies exist. Manual advances one unit per Continue. Timed advances
// as engaged time crosses each unit's cumulative duration, pausing while the
// engagement signal is false and resuming from the same elapsed time.
//
// The server only reports the opening state through NewPlan. Session, Pace,
// SetEngaged and Tick are the pacing surface for clients that embed this
// package and drive the reveal on the device.
package reveal
