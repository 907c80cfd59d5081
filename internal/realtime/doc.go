// Package realtime implements the café notification synchronization loop.
//
// The loop detects newly created orders and reservations on the remote data
// source and newly arrived entries in the local mailbox, and emits exactly
// one staff notification per newly detected item. There is no push channel
// from the backend; detection is by polling.
//
// # Sources
//
//   - Remote poll (default every 10s): fetch the most recent N orders and
//     reservations, notify every id strictly above the persisted cursor.
//   - Mailbox poll (default every 3s): dispatch every pending entry in the
//     shared mailbox slot, record it in history, then clear the slot.
//   - Storage signal: a change to the mailbox key triggers an immediate
//     mailbox poll.
//   - New-order event: an in-process signal shown synchronously.
//
// # Cursor policy
//
// Each poll sorts records ascending by id, notifies those above the cursor
// in that order, and advances the cursor once to the maximum id seen. The
// cursor is re-read from the store before each poll so that sibling
// processes sharing the state file do not re-notify each other's records.
// If persisting fails, the in-memory cursor still advances, so nothing is
// notified twice within one process lifetime.
//
// # Concurrency
//
// Run is a single-writer loop: ticks, storage signals and fetch results
// are applied on one goroutine. Remote fetches run on their own goroutine
// and hand their result back through the event queue. A remote tick is
// skipped while the previous fetch is still running. After Stop, late
// fetch results are discarded.
//
// PollRemote and PollMailbox perform one synchronous cycle and are safe to
// call while Run is active; state mutation is serialized by a mutex.
//
// # Errors
//
// Nothing in this package is fatal to the host process. Connectivity
// failures skip the cycle, malformed mailbox entries are skipped and
// render failures are dropped. All are logged as *SyncError.
package realtime
