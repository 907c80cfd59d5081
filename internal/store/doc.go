// Package store provides SQLite-backed durable local state for cafesync.
//
// The store holds the three persisted keys of the synchronization loop:
//   - Cursors: last-seen remote identifiers (orders, reservations)
//   - Mailbox: one shared slot holding a JSON array of pending orders
//   - History: bounded FIFO of dispatched mailbox entries
//
// It also keeps arbitrary JSON slots, used for the backend auth session.
//
// # Invariants
//
// Cursors are monotonic: AdvanceCursor stores MAX(current, candidate), so a
// stale or out-of-order write can never move a cursor backwards, even when
// several processes share the file.
//
// The mailbox is deliberately a single slot read and cleared in two steps.
// An entry pushed by another process between a consumer's ReadMailbox and
// ClearMailbox is lost. This mirrors the cross-tab handoff it replaces and
// is documented rather than hidden behind a queue.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
package store
