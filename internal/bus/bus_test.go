package bus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Bus = (*LocalBus)(nil)
	_ Bus = (*NATSBus)(nil)
)

func TestBus_UnsubscribeThroughInterface(t *testing.T) {
	ctx := context.Background()
	var b Bus = NewLocalBus()
	defer b.Close()

	calls := 0
	unsubscribe, err := b.Subscribe(ctx, "pending_orders", func(context.Context, string) { calls++ })
	require.NoError(t, err)
	require.NoError(t, b.Publish(ctx, "pending_orders"))
	unsubscribe()
	unsubscribe()
	require.NoError(t, b.Publish(ctx, "pending_orders"))
	assert.Equal(t, 1, calls)
}

func TestLocalBus_DeliversToKeySubscribers(t *testing.T) {
	ctx := context.Background()
	b := NewLocalBus()

	var got []string
	unsub, err := b.Subscribe(ctx, "pending_orders", func(_ context.Context, key string) {
		got = append(got, key)
	})
	require.NoError(t, err)

	var other int
	_, err = b.Subscribe(ctx, "last_seen_order_id", func(context.Context, string) { other++ })
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, "pending_orders"))
	require.NoError(t, b.Publish(ctx, "pending_orders"))
	assert.Equal(t, []string{"pending_orders", "pending_orders"}, got)
	assert.Zero(t, other)

	unsub()
	unsub()
	require.NoError(t, b.Publish(ctx, "pending_orders"))
	assert.Len(t, got, 2)
}

func TestLocalBus_PublishWithoutSubscribers(t *testing.T) {
	assert.NoError(t, NewLocalBus().Publish(context.Background(), "pending_orders"))
}

func TestLocalBus_Closed(t *testing.T) {
	ctx := context.Background()
	b := NewLocalBus()
	require.NoError(t, b.Close())

	assert.ErrorIs(t, b.Publish(ctx, "k"), ErrClosed)
	_, err := b.Subscribe(ctx, "k", func(context.Context, string) {})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestNATSBus_Subject(t *testing.T) {
	assert.Equal(t, "cafesync.storage.pending_orders", subject(DefaultSubjectPrefix, "pending_orders"))

	b := &NATSBus{prefix: DefaultSubjectPrefix}
	WithSubjectPrefix("cafe.dev")(b)
	assert.Equal(t, "cafe.dev.pending_orders", b.Subject("pending_orders"))

	WithSubjectPrefix("")(b)
	assert.Equal(t, "cafe.dev.pending_orders", b.Subject("pending_orders"))
}

func TestNewNATSBus_ConnectFailure(t *testing.T) {
	_, err := NewNATSBus("nats://127.0.0.1:1")
	assert.ErrorContains(t, err, "failed to connect to NATS")
}
