package notify

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roach88/cafesync/internal/clock"
	"github.com/roach88/cafesync/internal/domain"
)

// DefaultDisplayDuration is how long a notification stays on screen.
const DefaultDisplayDuration = 10 * time.Second

// Presenter renders notifications through a Sink and removes them after
// the display duration or on explicit Dismiss.
type Presenter struct {
	sink     Sink
	clock    clock.Clock
	ids      IDGenerator
	duration time.Duration

	mu     sync.Mutex
	active map[string]clock.Timer

	rendered atomic.Int64
	failed   atomic.Int64
}

// Option configures a Presenter.
type Option func(*Presenter)

// WithClock sets the clock used for timestamps and auto-dismissal.
func WithClock(c clock.Clock) Option {
	return func(p *Presenter) {
		p.clock = c
	}
}

// WithIDGenerator sets the id generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(p *Presenter) {
		p.ids = g
	}
}

// WithDisplayDuration overrides DefaultDisplayDuration.
// Non-positive values are ignored.
func WithDisplayDuration(d time.Duration) Option {
	return func(p *Presenter) {
		if d > 0 {
			p.duration = d
		}
	}
}

// NewPresenter creates a Presenter rendering through sink.
func NewPresenter(sink Sink, opts ...Option) *Presenter {
	p := &Presenter{
		sink:     sink,
		clock:    clock.System(),
		ids:      UUIDv7Generator{},
		duration: DefaultDisplayDuration,
		active:   make(map[string]clock.Timer),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Show stamps n with an id and creation time, renders it and schedules
// its removal. The stamped notification is returned even when rendering
// fails; the failure is counted and returned for the caller to log. A
// failed render is not scheduled for dismissal.
func (p *Presenter) Show(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	n.ID = p.ids.Generate()
	n.CreatedAt = p.clock.Now()
	if n.Category == "" {
		n.Category = domain.CategoryGeneric
	}

	if err := p.sink.Render(ctx, n); err != nil {
		p.failed.Add(1)
		return n, err
	}
	p.rendered.Add(1)

	id := n.ID
	p.mu.Lock()
	p.active[id] = p.clock.AfterFunc(p.duration, func() {
		p.expire(id)
	})
	p.mu.Unlock()

	return n, nil
}

// Dismiss removes an active notification before its display duration
// elapses. Returns false if id is not active.
func (p *Presenter) Dismiss(ctx context.Context, id string) (bool, error) {
	p.mu.Lock()
	timer, ok := p.active[id]
	if ok {
		delete(p.active, id)
	}
	p.mu.Unlock()

	if !ok {
		return false, nil
	}
	timer.Stop()
	return true, p.sink.Dismiss(ctx, id)
}

// DismissAll removes every active notification.
func (p *Presenter) DismissAll(ctx context.Context) error {
	p.mu.Lock()
	ids := make([]string, 0, len(p.active))
	for id := range p.active {
		ids = append(ids, id)
	}
	p.mu.Unlock()

	var firstErr error
	for _, id := range ids {
		if _, err := p.Dismiss(ctx, id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (p *Presenter) expire(id string) {
	p.mu.Lock()
	_, ok := p.active[id]
	delete(p.active, id)
	p.mu.Unlock()

	if ok {
		_ = p.sink.Dismiss(context.Background(), id)
	}
}

// Stats is a snapshot of presenter counters.
type Stats struct {
	Rendered int64 `json:"rendered"`
	Failed   int64 `json:"render_failures"`
	Active   int   `json:"active"`
}

// Stats returns current counters.
func (p *Presenter) Stats() Stats {
	p.mu.Lock()
	active := len(p.active)
	p.mu.Unlock()
	return Stats{
		Rendered: p.rendered.Load(),
		Failed:   p.failed.Load(),
		Active:   active,
	}
}
