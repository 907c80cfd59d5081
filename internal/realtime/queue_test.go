package realtime

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventQueue_DrainKeepsArrivalOrder(t *testing.T) {
	q := newEventQueue()

	q.Enqueue(Event{Type: EventMailboxSignal})
	q.Enqueue(Event{Type: EventRemoteResult, Remote: &remoteResult{}})

	events := q.Drain()
	require.Len(t, events, 2)
	assert.Equal(t, EventMailboxSignal, events[0].Type)
	assert.Equal(t, EventRemoteResult, events[1].Type)
	assert.NotNil(t, events[1].Remote)

	assert.Empty(t, q.Drain())
	assert.Zero(t, q.Len())
}

func TestEventQueue_SignalCoalesces(t *testing.T) {
	q := newEventQueue()
	q.Enqueue(Event{Type: EventMailboxSignal})
	q.Enqueue(Event{Type: EventMailboxSignal})

	<-q.Wait()
	select {
	case <-q.Wait():
		t.Fatal("second signal should coalesce into the first")
	default:
	}
	assert.Equal(t, 2, q.Len())
}

func TestEventQueue_CloseRejectsAndWakes(t *testing.T) {
	q := newEventQueue()
	q.Enqueue(Event{Type: EventMailboxSignal})
	<-q.Wait()

	q.Close()
	q.Close()

	assert.True(t, q.Closed())
	assert.False(t, q.Enqueue(Event{Type: EventMailboxSignal}))
	assert.Equal(t, 0, q.Len(), "pending events dropped on close")

	_, open := <-q.Wait()
	assert.False(t, open)
}

func TestEventQueue_ThreadSafe(t *testing.T) {
	q := newEventQueue()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Enqueue(Event{Type: EventMailboxSignal})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, q.Len())
}
