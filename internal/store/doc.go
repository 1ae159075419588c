// Package store provides the SQLite-backed completion ledger.
//
// The completions table carries UNIQUE(user_id, sequence_id, item_number),
// which is the concurrency guard for duplicate submissions: Append inserts
// with ON CONFLICT DO NOTHING and reads back the surviving row inside the
// same transaction. A second unique index on (user_id, idempotency_key) backs
// the key check.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - single open connection: SQLite has one writer
//
// All reads use deterministic ORDER BY clauses and return empty slices, not
// nil, when nothing matches.
package store
