// Package harness runs progress scenarios against the real engine.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: experiment_window
//	description: "Day 3 is too early on day 2; day 2 retried on day 3 replays"
//	catalog: ../catalog          # directory of CUE sequence files, relative to the scenario
//	start: "2026-03-03T09:00:00Z" # frozen clock instant
//	timezone: America/New_York    # default zone for steps without tz
//	flow:
//	  - action: complete
//	    user: u1
//	    sequence: wdep-7
//	    item: 3
//	    expect:
//	      outcome: too_early
//	      result: { available_on: "2026-03-04" }
//	  - action: advance
//	    days: 1
//	assertions:
//	  - type: trace_count
//	    action: complete
//	    outcome: recorded
//	    count: 2
//	  - type: final_state
//	    user: u1
//	    sequence: wdep-7
//	    expect: { completed_count: 2, next_item: 3 }
//
// # Actions
//
//   - complete: RecordCompletion (user, sequence, item, optional key and tz)
//   - access: CheckAccess (user, sequence, item)
//   - unlock: GetUnlockState (user, sequence)
//   - streak: GetStreakSummary (user, optional group and tz)
//   - experiment: GetExperimentStatus (user, sequence, optional tz)
//   - advance: move the clock by days and/or hours
//   - set_clock: move the clock to an RFC 3339 instant
//
// # Assertion Types
//
//   - trace_contains: an event with the action, outcome and result subset exists
//   - trace_order: outcomes appear in this order (gaps allowed)
//   - trace_count: number of events with the action (and outcome)
//   - final_state: subset match against the user's unlock state for a sequence
//
// # Deterministic Testing
//
// Every scenario runs on a fresh in-memory SQLite ledger with a frozen clock
// and sequential record ids, so traces are byte-identical across runs and
// can be compared against golden files.
package harness
