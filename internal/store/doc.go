// Package store provides SQLite-backed durable storage for the emission
// engine: the schedule state row, account balances and allowances, and
// the append-only issuance log.
//
// # Critical Patterns
//
// Issuance Atomicity
//   - ApplyIssuance writes the balance credit, the issuance record, and
//     the schedule state row in ONE transaction
//   - The schedule row update is guarded on the previous cycle, so a
//     concurrent or replayed apply cannot skip or repeat a cycle
//
// Cycle-Level Idempotency
//   - UNIQUE(cycle) constraint on issuances
//   - Re-applying an already-recorded cycle is a no-op (no double credit)
//
// Append-Only Log
//   - issuances rows are never updated or deleted
//   - Reads order by cycle for a stable, human-checkable history
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Amounts are stored as SQLite INTEGER (int64). The config validator
// rejects supplies beyond the int64 range before a deployment exists.
package store
