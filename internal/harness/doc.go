// Package harness replays sync-loop scenarios described in YAML.
//
// A scenario scripts what the remote source returns, what lands in the
// mailbox and how time moves, then asserts on the notifications shown and
// the state left behind. Each run uses a fresh in-memory store, a fake
// clock and sequential notification ids, so the transcript of a scenario
// is identical across runs and can be compared against a golden file.
//
// # Scenario Format
//
//	name: remote_and_mailbox
//	description: "What this scenario validates"
//	start: 2024-05-01T09:00:00Z
//	config:
//	  fetch_limit: 10
//	setup:
//	  order_cursor: 40
//	flow:
//	  - step: remote
//	    orders:
//	      - { id: 41, order_number: ORD-41, total_amount: 15000 }
//	    expect: { orders_notified: 1, order_cursor: 41 }
//	  - step: push
//	    entry: { customerName: Budi, items: [...], totalAmount: 36000 }
//	  - step: mailbox
//	    expect: { dispatched: 1 }
//	assertions:
//	  - type: notification_count
//	    count: 2
//
// # Steps
//
//   - remote: queue one fetch result (orders, reservations, error,
//     reservations_error) and poll the remote source once
//   - push: append entry to the mailbox
//   - mailbox: poll the mailbox once
//   - event: show an in-process new-order event (message, order)
//   - advance: move the clock forward by duration
//   - set_cursor: advance a stored cursor (key orders or reservations) the
//     way another device sharing the state would
//   - corrupt_mailbox: overwrite the mailbox slot with a non-list value
//   - sink: make rendering fail with error, or succeed again when empty
//
// # Assertion Types
//
//   - notification_count, dismissed_count, mailbox_depth, history_count:
//     compare count
//   - notification_titles: exact title sequence
//   - notification_contains: some notification has title and contains
//     message
//   - cursor: stored cursor key equals value
//   - dashboard: today's dispatched orders and revenue
package harness
