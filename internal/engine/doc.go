// Package engine is the sequential progress service: the one place commands
// and queries enter the progress rules.
//
// Every call reads the ledger afresh and asks the clock for today in the
// caller's time zone; nothing derived (unlock state, streaks, experiment
// status) is cached between calls.
//
// Completion commands run these checks in order:
//
//  1. user id and time zone are valid (INVALID_ARGUMENT)
//  2. the sequence exists (UNKNOWN_SEQUENCE)
//  3. the item is within bounds (OUT_OF_RANGE)
//  4. an existing record for the request key or the triple is returned as
//     an idempotent replay, which is success
//  5. an experiment's date floor has been reached (TOO_EARLY)
//  6. the item is unlocked (ITEM_LOCKED)
//
// and then append atomically to the ledger. A concurrent duplicate that loses
// the insert race is also reported as a replay of the winner's record.
package engine
