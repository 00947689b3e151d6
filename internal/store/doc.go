// Package store provides SQLite-backed durable storage for arthouse.
//
// One database holds both the contract state and the journal:
//   - state: ordered key/value pairs (implements kv.Backend)
//   - invocations: every request, successful or not
//   - completions: exactly one outcome per invocation
//
// A state batch and the journal entry that produced it commit in one SQL
// transaction (CommitWithJournal), so the journal never describes state
// that was not written.
//
// # Ordering
//
// Journal reads use ORDER BY seq ASC, id COLLATE BINARY ASC. Ordering is
// by logical clock only, never wall time.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
