package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/roach88/cafesync/internal/domain"
)

// WriterSink writes a plain text transcript, one line per event:
//
//	+ n-1 [order] Pesanan Baru | #ORD-7 - Rp 25.000
//	- n-1
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink creates a sink writing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Render(_ context.Context, n domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.w, "+ %s [%s] %s | %s\n", n.ID, n.Category, n.Title, n.Message)
	return err
}

func (s *WriterSink) Dismiss(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.w, "- %s\n", id)
	return err
}
