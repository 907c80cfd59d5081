package notify

import (
	"context"
	"log/slog"

	"github.com/roach88/cafesync/internal/domain"
)

// LogSink writes notifications to a structured logger.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s LogSink) Render(ctx context.Context, n domain.Notification) error {
	s.logger().InfoContext(ctx, "notification",
		"id", n.ID,
		"category", n.Category,
		"title", n.Title,
		"message", n.Message,
	)
	return nil
}

func (s LogSink) Dismiss(ctx context.Context, id string) error {
	s.logger().DebugContext(ctx, "notification dismissed", "id", id)
	return nil
}
