package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultSubjectPrefix prefixes every storage-change subject.
const DefaultSubjectPrefix = "cafesync.storage"

// Signal is the NATS message body.
type Signal struct {
	Key string    `json:"key"`
	At  time.Time `json:"at"`
}

// NATSBus carries storage-change signals over NATS so sibling processes on
// other hosts or terminals see mailbox pushes immediately.
type NATSBus struct {
	conn   *nats.Conn
	prefix string
	logger *slog.Logger
}

// NATSOption configures a NATSBus.
type NATSOption func(*NATSBus)

// WithSubjectPrefix overrides DefaultSubjectPrefix.
func WithSubjectPrefix(prefix string) NATSOption {
	return func(b *NATSBus) {
		if prefix != "" {
			b.prefix = prefix
		}
	}
}

// WithLogger sets the logger for dropped or malformed messages.
func WithLogger(l *slog.Logger) NATSOption {
	return func(b *NATSBus) {
		b.logger = l
	}
}

// NewNATSBus connects to the NATS server at url.
func NewNATSBus(url string, opts ...NATSOption) (*NATSBus, error) {
	conn, err := nats.Connect(url,
		nats.Name("cafesync"),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	b := &NATSBus{
		conn:   conn,
		prefix: DefaultSubjectPrefix,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Subject returns the NATS subject for key.
func (b *NATSBus) Subject(key string) string {
	return subject(b.prefix, key)
}

func subject(prefix, key string) string {
	return prefix + "." + key
}

func (b *NATSBus) Publish(ctx context.Context, key string) error {
	data, err := json.Marshal(Signal{Key: key, At: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encode signal: %w", err)
	}
	if err := b.conn.Publish(b.Subject(key), data); err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	return nil
}

func (b *NATSBus) Subscribe(ctx context.Context, key string, fn Handler) (func(), error) {
	sub, err := b.conn.Subscribe(b.Subject(key), func(msg *nats.Msg) {
		var sig Signal
		if err := json.Unmarshal(msg.Data, &sig); err != nil {
			b.logger.Warn("malformed storage signal", "subject", msg.Subject, "error", err)
			return
		}
		fn(ctx, sig.Key)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", key, err)
	}
	return func() { _ = sub.Unsubscribe() }, nil
}

func (b *NATSBus) Close() error {
	b.conn.Close()
	return nil
}
