package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runYAML(t *testing.T, src string) *Result {
	t.Helper()
	s, err := ParseScenario([]byte(src))
	require.NoError(t, err)
	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	return result
}

func TestRun_RemoteAndMailbox(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/remote_and_mailbox.yaml")
	require.NoError(t, err)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Len(t, result.Trace, 6)
	assert.Equal(t, "CONNECTIVITY", result.Trace[1].Error)
}

func TestRun_SharedCursor(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/shared_cursor.yaml")
	require.NoError(t, err)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, []string{"n-1", "n-3"}, []string{result.Notifications[0].ID, result.Notifications[1].ID})
	assert.Equal(t, int64(52), result.Final.OrderCursor)
}

func TestRun_ExpectMismatchFails(t *testing.T) {
	result := runYAML(t, `
name: wrong_expectation
description: "expect clause disagrees with the loop"
flow:
  - step: remote
    orders:
      - { id: 1, order_number: ORD-1, total_amount: 1000 }
    expect: { orders_notified: 5 }
assertions:
  - type: notification_count
    count: 1
`)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `field "orders_notified" = 1, expected 5`)
}

func TestRun_AssertionFailureListsTrace(t *testing.T) {
	result := runYAML(t, `
name: wrong_count
description: "assertion disagrees with the notifications"
flow:
  - step: remote
    orders:
      - { id: 1, order_number: ORD-1, total_amount: 1000 }
assertions:
  - type: notification_count
    count: 3
`)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Expected: 3 notifications")
	assert.Contains(t, result.Errors[0], "[1] remote")
}

func TestRun_SetupMailboxAndHistoryCapacity(t *testing.T) {
	result := runYAML(t, `
name: setup_mailbox
description: "entries present before the first poll are dispatched and history is capped"
config:
  history_capacity: 2
setup:
  mailbox:
    - { customerName: A, items: [{ name: Teh, quantity: 1, unit_price: 5000 }], totalAmount: 5000 }
    - { customerName: B, items: [{ name: Teh, quantity: 1, unit_price: 5000 }], totalAmount: 5000 }
    - { customerName: C, items: [{ name: Teh, quantity: 1, unit_price: 5000 }], totalAmount: 5000 }
flow:
  - step: mailbox
    expect: { dispatched: 3, malformed: 0 }
assertions:
  - type: history_count
    count: 2
  - type: dashboard
    orders: 3
    revenue: 15000
  - type: mailbox_depth
    count: 0
`)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_EventWithOrderRecord(t *testing.T) {
	result := runYAML(t, `
name: event_order
description: "an event carrying an order without a message uses the order text"
flow:
  - step: event
    order: { id: 7, order_number: ORD-7, total_amount: 25000 }
    expect: { id: n-1, message: "#ORD-7 - Rp 25.000" }
assertions:
  - type: notification_contains
    title: Pesanan Baru
    message: "#ORD-7"
`)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_CorruptMailboxLeftUnpolled(t *testing.T) {
	result := runYAML(t, `
name: corrupt_unpolled
description: "a corrupt slot that was never polled reports depth -1"
flow:
  - step: corrupt_mailbox
assertions:
  - type: mailbox_depth
    count: 0
`)
	assert.False(t, result.Pass)
	assert.Equal(t, -1, result.Final.MailboxDepth)
}

func TestRun_Deterministic(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/remote_and_mailbox.yaml")
	require.NoError(t, err)

	first, err := Run(context.Background(), s)
	require.NoError(t, err)
	second, err := Run(context.Background(), s)
	require.NoError(t, err)

	a, err := Snapshot(s.Name, first)
	require.NoError(t, err)
	b, err := Snapshot(s.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestMatchExpect(t *testing.T) {
	event := TraceEvent{Result: map[string]any{"depth": 2, "cursor": int64(9)}, Error: "STATE"}

	assert.Empty(t, matchExpect(event, nil))
	assert.Empty(t, matchExpect(event, map[string]any{"depth": 2, "cursor": 9, "error": "STATE"}))
	assert.Contains(t, matchExpect(event, map[string]any{"missing": 1}), `no field "missing"`)
	assert.Contains(t, matchExpect(event, map[string]any{"error": "CONNECTIVITY"}), "expected error CONNECTIVITY")
}
