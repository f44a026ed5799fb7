// Package store provides SQLite-backed durable storage for listsync sessions.
//
// A session is one materialization of an event stream. The store keeps:
//   - Sessions: the list layout (sibling or sorted, sort field) of each run
//   - Events: every delivery in dispatch order with its outcome
//   - Snapshots: the materialized sequence at the end of a run, plus its
//     state hash for deterministic replay checks
//
// # Ordering
//
// All ordering uses the seq INTEGER stamped by the engine's logical clock,
// never timestamps. Every query that returns events or entries orders by
// seq (or position) so results are identical across replays.
//
// # Idempotency
//
// Events are keyed by (session, seq); writing the same event twice is a
// no-op. Snapshots are replaced atomically in a transaction.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: events and snapshots must reference a session
//
// Payloads are stored as canonical JSON (ir.MarshalCanonical).
package store
