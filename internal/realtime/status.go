package realtime

import (
	"time"

	"github.com/roach88/cafesync/internal/domain"
)

// Dashboard holds the live counters staff watch: orders and revenue
// dispatched from the mailbox today. Counters reset when the day changes.
type Dashboard struct {
	Day          string    `json:"day"`
	TodayOrders  int       `json:"today_orders"`
	TodayRevenue int64     `json:"today_revenue"`
	LastOrderAt  time.Time `json:"last_order_at,omitzero"`
}

func dayOf(t time.Time) string {
	return t.Format(time.DateOnly)
}

func (d *Dashboard) record(order domain.PendingOrder, now time.Time) {
	if day := dayOf(now); d.Day != day {
		*d = Dashboard{Day: day}
	}
	d.TodayOrders++
	d.TodayRevenue += order.TotalAmount
	d.LastOrderAt = now
}

// at returns the counters as seen at now, zeroed if the day has changed.
func (d Dashboard) at(now time.Time) Dashboard {
	if day := dayOf(now); d.Day != day {
		return Dashboard{Day: day}
	}
	return d
}

type counters struct {
	connected         bool
	lastRemotePoll    time.Time
	lastRemoteSuccess time.Time
	lastMailboxPoll   time.Time
	lastError         string
	lastErrorAt       time.Time
	skippedTicks      int64
	failedPolls       int64
	notified          int64
	renderFailures    int64
	malformed         int64
}

// Status is a point-in-time snapshot of the loop.
type Status struct {
	Running           bool      `json:"running"`
	Connected         bool      `json:"connected"`
	RemoteEnabled     bool      `json:"remote_enabled"`
	OrderCursor       int64     `json:"order_cursor"`
	ReservationCursor int64     `json:"reservation_cursor"`
	RemoteInFlight    bool      `json:"remote_in_flight"`
	LastRemotePoll    time.Time `json:"last_remote_poll,omitzero"`
	LastRemoteSuccess time.Time `json:"last_remote_success,omitzero"`
	LastMailboxPoll   time.Time `json:"last_mailbox_poll,omitzero"`
	LastError         string    `json:"last_error,omitempty"`
	LastErrorAt       time.Time `json:"last_error_at,omitzero"`
	SkippedTicks      int64     `json:"skipped_ticks"`
	FailedPolls       int64     `json:"failed_polls"`
	Notified          int64     `json:"notified"`
	RenderFailures    int64     `json:"render_failures"`
	MalformedEntries  int64     `json:"malformed_entries"`
	Dashboard         Dashboard `json:"dashboard"`
}

// Status returns a snapshot of cursors, poll times and counters.
func (l *Loop) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	c := l.counters
	return Status{
		Running:           l.running.Load(),
		Connected:         c.connected,
		RemoteEnabled:     l.source != nil,
		OrderCursor:       l.orderCursor,
		ReservationCursor: l.reservationCursor,
		RemoteInFlight:    l.remoteInFlight.Load(),
		LastRemotePoll:    c.lastRemotePoll,
		LastRemoteSuccess: c.lastRemoteSuccess,
		LastMailboxPoll:   c.lastMailboxPoll,
		LastError:         c.lastError,
		LastErrorAt:       c.lastErrorAt,
		SkippedTicks:      c.skippedTicks,
		FailedPolls:       c.failedPolls,
		Notified:          c.notified,
		RenderFailures:    c.renderFailures,
		MalformedEntries:  c.malformed,
		Dashboard:         l.dashboard.at(l.clock.Now()),
	}
}
