// Package bus carries storage-change signals between processes that share
// the local state file. A signal says only "key changed"; receivers re-read
// the store.
package bus

import (
	"context"
	"sync"
)

// Handler is called with the key that changed.
type Handler func(ctx context.Context, key string)

// Bus publishes and subscribes to storage-change signals.
type Bus interface {
	Publish(ctx context.Context, key string) error
	Subscribe(ctx context.Context, key string, fn Handler) (func(), error)
	Close() error
}

// LocalBus delivers signals to subscribers in the same process.
// Handlers run synchronously on the publisher's goroutine.
type LocalBus struct {
	mu     sync.RWMutex
	subs   map[string]map[int]Handler
	nextID int
	closed bool
}

// NewLocalBus creates an in-process bus.
func NewLocalBus() *LocalBus {
	return &LocalBus{subs: make(map[string]map[int]Handler)}
}

func (b *LocalBus) Publish(ctx context.Context, key string) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrClosed
	}
	handlers := make([]Handler, 0, len(b.subs[key]))
	for _, h := range b.subs[key] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, key)
	}
	return nil
}

func (b *LocalBus) Subscribe(_ context.Context, key string, fn Handler) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	if b.subs[key] == nil {
		b.subs[key] = make(map[int]Handler)
	}
	id := b.nextID
	b.nextID++
	b.subs[key][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[key], id)
			b.mu.Unlock()
		})
	}, nil
}

func (b *LocalBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = make(map[string]map[int]Handler)
	return nil
}
