package realtime

import (
	"cmp"
	"context"
	"errors"
	"slices"

	"github.com/roach88/cafesync/internal/domain"
	"github.com/roach88/cafesync/internal/notify"
	"github.com/roach88/cafesync/internal/store"
)

// RemoteReport summarizes one remote poll.
type RemoteReport struct {
	Orders            int   `json:"orders_notified"`
	Reservations      int   `json:"reservations_notified"`
	OrderCursor       int64 `json:"order_cursor"`
	ReservationCursor int64 `json:"reservation_cursor"`
}

type remoteResult struct {
	orders    []domain.Order
	ordersErr error

	checkedReservations bool
	reservations        []domain.Reservation
	reservationsErr     error
}

// PollRemote performs one synchronous remote poll. It returns
// ErrPollInFlight if another remote poll has not completed, and a
// *SyncError with ErrCodeConnectivity (possibly joined) when a fetch fails.
// A failed fetch leaves its cursor unchanged.
func (l *Loop) PollRemote(ctx context.Context) (RemoteReport, error) {
	if l.source == nil {
		return RemoteReport{}, ErrNoSource
	}
	if !l.remoteInFlight.CompareAndSwap(false, true) {
		return RemoteReport{}, ErrPollInFlight
	}
	defer l.remoteInFlight.Store(false)

	return l.applyRemote(ctx, l.fetch(ctx))
}

// startRemoteFetch launches a fetch off the Run goroutine unless one is
// already running. The result comes back through the queue. The fetch is
// not cancelled with Run; a result arriving after Stop is discarded.
func (l *Loop) startRemoteFetch(ctx context.Context) {
	if l.source == nil {
		return
	}
	if !l.remoteInFlight.CompareAndSwap(false, true) {
		l.mu.Lock()
		l.counters.skippedTicks++
		l.mu.Unlock()
		l.logger.Debug("remote tick skipped: previous poll in flight")
		return
	}

	fetchCtx := context.WithoutCancel(ctx)
	go func() {
		res := l.fetch(fetchCtx)
		if !l.queue.Enqueue(Event{Type: EventRemoteResult, Remote: &res}) {
			l.remoteInFlight.Store(false)
			l.logger.Debug("remote result discarded: loop stopped")
		}
	}()
}

func (l *Loop) fetch(ctx context.Context) remoteResult {
	ctx, cancel := context.WithTimeout(ctx, l.fetchTimeout)
	defer cancel()

	var res remoteResult
	res.orders, res.ordersErr = l.source.FetchRecentOrders(ctx, l.fetchLimit)
	if l.reservations {
		res.checkedReservations = true
		res.reservations, res.reservationsErr = l.source.FetchRecentReservations(ctx, l.fetchLimit)
	}
	return res
}

func (l *Loop) applyRemote(ctx context.Context, res remoteResult) (RemoteReport, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	l.counters.lastRemotePoll = now

	var report RemoteReport
	var errs []error

	if res.ordersErr != nil {
		errs = append(errs, l.connectivityFailure("orders", res.ordersErr))
	} else {
		report.Orders = notifyAbove(l, ctx, "orders", store.KeyOrderCursor, &l.orderCursor,
			res.orders, func(o domain.Order) int64 { return o.ID }, notify.ForOrder)
	}

	if res.checkedReservations {
		if res.reservationsErr != nil {
			errs = append(errs, l.connectivityFailure("reservations", res.reservationsErr))
		} else {
			report.Reservations = notifyAbove(l, ctx, "reservations", store.KeyReservationCursor, &l.reservationCursor,
				res.reservations, func(r domain.Reservation) int64 { return r.ID }, notify.ForReservation)
		}
	}

	if len(errs) == 0 {
		l.counters.connected = true
		l.counters.lastRemoteSuccess = now
		l.counters.lastError = ""
	} else {
		l.counters.connected = false
		l.counters.failedPolls++
		l.counters.lastError = errors.Join(errs...).Error()
		l.counters.lastErrorAt = now
	}

	report.OrderCursor = l.orderCursor
	report.ReservationCursor = l.reservationCursor
	return report, errors.Join(errs...)
}

func (l *Loop) connectivityFailure(source string, err error) *SyncError {
	se := NewConnectivityError(source, err)
	l.logger.Warn("remote poll failed",
		"code", se.Code,
		"source", source,
		"error", err,
	)
	return se
}

// notifyAbove notifies every record with id above the cursor in ascending
// id order and advances the cursor once to the highest id seen. Duplicate
// ids within a batch notify once. Returns the number notified. Callers
// hold l.mu.
func notifyAbove[T any](
	l *Loop,
	ctx context.Context,
	source, key string,
	cursor *int64,
	records []T,
	id func(T) int64,
	build func(T) domain.Notification,
) int {
	start := l.refreshCursor(ctx, key, cursor)

	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b T) int {
		return cmp.Compare(id(a), id(b))
	})

	high := start
	notified := 0
	for _, r := range sorted {
		if id(r) <= high {
			continue
		}
		_, _ = l.show(ctx, source, build(r))
		high = id(r)
		notified++
	}

	if high > start {
		l.commitCursor(ctx, key, cursor, high)
	}
	return notified
}

// refreshCursor raises the in-memory cursor to the stored value, which a
// sibling process may have advanced. On read failure the in-memory value
// stands.
func (l *Loop) refreshCursor(ctx context.Context, key string, cursor *int64) int64 {
	stored, err := l.state.Cursor(ctx, key)
	if err != nil {
		se := newStateError(key, "read cursor", err)
		l.logger.Warn("cursor read failed", "code", se.Code, "key", key, "error", err)
		return *cursor
	}
	if stored > *cursor {
		*cursor = stored
	}
	return *cursor
}

// commitCursor advances the in-memory cursor and persists it. A persist
// failure is logged; the in-memory cursor still guards this process.
func (l *Loop) commitCursor(ctx context.Context, key string, cursor *int64, high int64) {
	*cursor = high
	stored, err := l.state.AdvanceCursor(ctx, key, high)
	if err != nil {
		se := newStateError(key, "persist cursor", err)
		l.logger.Error("cursor persist failed",
			"code", se.Code,
			"key", key,
			"cursor", high,
			"error", err,
		)
		return
	}
	if stored > *cursor {
		*cursor = stored
	}
	l.logger.Debug("cursor advanced", "key", key, "cursor", *cursor)
}
