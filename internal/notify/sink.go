package notify

import (
	"context"
	"errors"
	"sync"

	"github.com/roach88/cafesync/internal/domain"
)

// Sink renders and removes notifications.
type Sink interface {
	Render(ctx context.Context, n domain.Notification) error
	Dismiss(ctx context.Context, id string) error
}

// MultiSink fans out to every sink. All sinks are attempted; errors are
// joined.
type MultiSink []Sink

func (m MultiSink) Render(ctx context.Context, n domain.Notification) error {
	var errs []error
	for _, s := range m {
		if err := s.Render(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiSink) Dismiss(ctx context.Context, id string) error {
	var errs []error
	for _, s := range m {
		if err := s.Dismiss(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps every rendered and dismissed notification in memory.
type Recorder struct {
	mu        sync.Mutex
	rendered  []domain.Notification
	dismissed []string

	// Err, when set, is returned from Render without recording.
	Err error
}

func (r *Recorder) Render(_ context.Context, n domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.rendered = append(r.rendered, n)
	return nil
}

func (r *Recorder) Dismiss(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dismissed = append(r.dismissed, id)
	return nil
}

// Rendered returns a copy of the rendered notifications in order.
func (r *Recorder) Rendered() []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Notification, len(r.rendered))
	copy(out, r.rendered)
	return out
}

// Dismissed returns a copy of the dismissed ids in order.
func (r *Recorder) Dismissed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.dismissed))
	copy(out, r.dismissed)
	return out
}

// Titles returns the titles of rendered notifications, in order.
func (r *Recorder) Titles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.rendered))
	for i, n := range r.rendered {
		out[i] = n.Title
	}
	return out
}
