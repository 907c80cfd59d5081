package realtime

import "sync"

// EventType distinguishes between event kinds.
type EventType int

const (
	// EventRemoteResult carries a completed remote fetch back to the writer.
	EventRemoteResult EventType = iota + 1
	// EventMailboxSignal requests an immediate mailbox poll.
	EventMailboxSignal
)

// Event is an item on the loop's queue.
type Event struct {
	Type   EventType
	Remote *remoteResult
}

// eventQueue hands events from fetch goroutines and signal handlers to the
// Run goroutine. Run selects on Wait next to its tickers and then drains
// everything pending in one go.
type eventQueue struct {
	mu      sync.Mutex
	pending []Event
	closed  bool
	wake    chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{wake: make(chan struct{}, 1)}
}

// Enqueue appends e. After Close it drops e and returns false.
func (q *eventQueue) Enqueue(e Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.pending = append(q.pending, e)
	select {
	case q.wake <- struct{}{}:
	default: // a wake-up is already pending
	}
	return true
}

// Drain removes and returns every pending event in arrival order.
func (q *eventQueue) Drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	events := q.pending
	q.pending = nil
	return events
}

// Wait fires after at least one Enqueue since the last receive, and is
// closed by Close.
func (q *eventQueue) Wait() <-chan struct{} {
	return q.wake
}

func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *eventQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close drops pending events, rejects new ones and releases Wait.
// Closing twice is a no-op.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.pending = nil
	close(q.wake)
}
