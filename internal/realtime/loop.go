package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roach88/cafesync/internal/clock"
	"github.com/roach88/cafesync/internal/domain"
	"github.com/roach88/cafesync/internal/notify"
	"github.com/roach88/cafesync/internal/store"
)

// Defaults for Loop options.
const (
	DefaultRemoteInterval  = 10 * time.Second
	DefaultMailboxInterval = 3 * time.Second
	DefaultFetchLimit      = 10
	DefaultFetchTimeout    = 8 * time.Second
	DefaultHistoryCapacity = 50
)

var (
	// ErrNoSource is returned by PollRemote when the loop has no remote source.
	ErrNoSource = errors.New("no remote source configured")
	// ErrAlreadyRunning is returned when Run is called twice.
	ErrAlreadyRunning = errors.New("sync loop already running")
)

// Source fetches the most recent records from the remote data source.
// Implementations return ConnectivityError-style failures as plain errors;
// the loop classifies them.
type Source interface {
	FetchRecentOrders(ctx context.Context, limit int) ([]domain.Order, error)
	FetchRecentReservations(ctx context.Context, limit int) ([]domain.Reservation, error)
}

// State is the durable local state owned by the loop.
// Implemented by *store.Store.
type State interface {
	Cursor(ctx context.Context, key string) (int64, error)
	AdvanceCursor(ctx context.Context, key string, id int64) (int64, error)
	ReadMailbox(ctx context.Context) ([]json.RawMessage, error)
	ClearMailbox(ctx context.Context) error
	AppendHistory(ctx context.Context, entry domain.HistoryEntry, capacity int) (domain.HistoryEntry, error)
}

// Notifier presents notifications. Implemented by *notify.Presenter.
type Notifier interface {
	Show(ctx context.Context, n domain.Notification) (domain.Notification, error)
}

// Loop is the notification synchronization loop.
type Loop struct {
	source   Source
	state    State
	notifier Notifier
	clock    clock.Clock
	logger   *slog.Logger

	remoteInterval  time.Duration
	mailboxInterval time.Duration
	fetchLimit      int
	fetchTimeout    time.Duration
	historyCap      int
	reservations    bool
	pollOnStart     bool

	queue          *eventQueue
	running        atomic.Bool
	remoteInFlight atomic.Bool

	// Guarded by mu: everything below is mutated only while applying a
	// cycle.
	mu                sync.Mutex
	orderCursor       int64
	reservationCursor int64
	dashboard         Dashboard
	counters          counters
}

// Option configures a Loop.
type Option func(*Loop)

// WithClock sets the clock driving tickers and timestamps.
func WithClock(c clock.Clock) Option {
	return func(l *Loop) {
		l.clock = c
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

// WithRemoteInterval sets the remote poll period.
func WithRemoteInterval(d time.Duration) Option {
	return func(l *Loop) {
		if d > 0 {
			l.remoteInterval = d
		}
	}
}

// WithMailboxInterval sets the mailbox poll period.
func WithMailboxInterval(d time.Duration) Option {
	return func(l *Loop) {
		if d > 0 {
			l.mailboxInterval = d
		}
	}
}

// WithFetchLimit sets how many recent records each remote poll requests.
// Values below DefaultFetchLimit are raised to it.
func WithFetchLimit(n int) Option {
	return func(l *Loop) {
		l.fetchLimit = max(n, DefaultFetchLimit)
	}
}

// WithFetchTimeout bounds a single remote fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(l *Loop) {
		if d > 0 {
			l.fetchTimeout = d
		}
	}
}

// WithHistoryCapacity sets the mailbox history bound.
func WithHistoryCapacity(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.historyCap = n
		}
	}
}

// WithReservations enables or disables reservation polling.
func WithReservations(enabled bool) Option {
	return func(l *Loop) {
		l.reservations = enabled
	}
}

// WithPollOnStart runs one remote and one mailbox poll as soon as Run
// starts instead of waiting for the first tick.
func WithPollOnStart(enabled bool) Option {
	return func(l *Loop) {
		l.pollOnStart = enabled
	}
}

// New creates a Loop. source may be nil, in which case only the mailbox is
// polled.
func New(source Source, state State, notifier Notifier, opts ...Option) *Loop {
	l := &Loop{
		source:          source,
		state:           state,
		notifier:        notifier,
		clock:           clock.System(),
		logger:          slog.Default(),
		remoteInterval:  DefaultRemoteInterval,
		mailboxInterval: DefaultMailboxInterval,
		fetchLimit:      DefaultFetchLimit,
		fetchTimeout:    DefaultFetchTimeout,
		historyCap:      DefaultHistoryCapacity,
		reservations:    true,
		queue:           newEventQueue(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run drives the loop until ctx is cancelled or Stop is called.
// Returns ctx.Err() on cancellation and nil after Stop.
//
// Run must be called from exactly one goroutine.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer l.running.Store(false)

	l.logger.Info("sync loop starting",
		"remote_interval", l.remoteInterval,
		"mailbox_interval", l.mailboxInterval,
		"fetch_limit", l.fetchLimit,
		"reservations", l.reservations && l.source != nil,
	)

	l.mu.Lock()
	l.refreshCursor(ctx, store.KeyOrderCursor, &l.orderCursor)
	l.refreshCursor(ctx, store.KeyReservationCursor, &l.reservationCursor)
	l.mu.Unlock()

	remoteTicker := l.clock.NewTicker(l.remoteInterval)
	defer remoteTicker.Stop()
	mailboxTicker := l.clock.NewTicker(l.mailboxInterval)
	defer mailboxTicker.Stop()

	if l.pollOnStart {
		l.startRemoteFetch(ctx)
		l.pollMailboxLogged(ctx)
	}

	for {
		for _, event := range l.queue.Drain() {
			if l.queue.Closed() {
				break
			}
			l.processEvent(ctx, event)
		}

		if l.queue.Closed() {
			l.logger.Info("sync loop stopping: stopped")
			return nil
		}

		select {
		case <-ctx.Done():
			l.logger.Info("sync loop stopping: context cancelled")
			l.queue.Close()
			return ctx.Err()

		case <-remoteTicker.C():
			l.startRemoteFetch(ctx)

		case <-mailboxTicker.C():
			l.pollMailboxLogged(ctx)

		case <-l.queue.Wait():
			// Drain at the top; a closed queue exits there.
		}
	}
}

// Stop ends Run and discards results of fetches still in flight.
func (l *Loop) Stop() {
	l.queue.Close()
}

// StorageChanged reacts to a storage-change signal. A change to the
// mailbox key schedules an immediate mailbox poll on the Run goroutine.
// Returns false for other keys or after Stop.
func (l *Loop) StorageChanged(key string) bool {
	if key != store.KeyMailbox {
		return false
	}
	return l.queue.Enqueue(Event{Type: EventMailboxSignal})
}

// NewOrder shows a notification for an in-process new-order event. An
// empty message with a domain.Order record uses the standard order text.
func (l *Loop) NewOrder(ctx context.Context, message string, record any) (domain.Notification, error) {
	n := notify.ForEvent(message, record)
	if o, ok := record.(domain.Order); ok && strings.TrimSpace(message) == "" {
		n = notify.ForOrder(o)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.show(ctx, "event", n)
}

func (l *Loop) processEvent(ctx context.Context, event Event) {
	switch event.Type {
	case EventRemoteResult:
		if event.Remote != nil {
			_, _ = l.applyRemote(ctx, *event.Remote)
		}
		l.remoteInFlight.Store(false)

	case EventMailboxSignal:
		l.logger.Debug("storage change: polling mailbox")
		l.pollMailboxLogged(ctx)

	default:
		l.logger.Error("unknown event type", "type", event.Type)
	}
}

// show presents n and counts the outcome. Callers hold mu.
func (l *Loop) show(ctx context.Context, source string, n domain.Notification) (domain.Notification, error) {
	shown, err := l.notifier.Show(ctx, n)
	if err != nil {
		se := NewRenderError(source, err)
		l.counters.renderFailures++
		l.logger.Warn("notification dropped",
			"code", se.Code,
			"source", source,
			"title", n.Title,
			"error", err,
		)
		return shown, se
	}
	l.counters.notified++
	l.logger.Debug("notification shown",
		"id", shown.ID,
		"source", source,
		"category", shown.Category,
	)
	return shown, nil
}
