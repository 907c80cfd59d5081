package realtime

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/cafesync/internal/clock"
	"github.com/roach88/cafesync/internal/domain"
	"github.com/roach88/cafesync/internal/notify"
	"github.com/roach88/cafesync/internal/store"
	"github.com/roach88/cafesync/internal/testutil"
)

var epoch = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	loop   *Loop
	store  *store.Store
	path   string
	source *testutil.FakeSource
	rec    *notify.Recorder
	clock  *clock.Fake
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openStore(t *testing.T, path string) *store.Store {
	t.Helper()
	s, err := store.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// newFixture builds a loop over a temp store, a fake source, a recorder
// sink and a fake clock. state, when non-nil, wraps the store.
func newFixture(t *testing.T, wrap func(*store.Store) State, opts ...Option) *fixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.db")
	s := openStore(t, path)

	f := &fixture{
		store:  s,
		path:   path,
		source: testutil.NewFakeSource(),
		rec:    &notify.Recorder{},
		clock:  clock.NewFake(epoch),
	}

	var state State = s
	if wrap != nil {
		state = wrap(s)
	}

	presenter := notify.NewPresenter(f.rec,
		notify.WithClock(f.clock),
		notify.WithIDGenerator(notify.NewSequenceGenerator("n")),
	)

	base := []Option{WithClock(f.clock), WithLogger(quietLogger())}
	f.loop = New(f.source, state, presenter, append(base, opts...)...)
	return f
}

func (f *fixture) push(t *testing.T, v any) {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	_, err = f.store.PushMailbox(context.Background(), raw)
	require.NoError(t, err)
}

func (f *fixture) cursor(t *testing.T, key string) int64 {
	t.Helper()
	v, err := f.store.Cursor(context.Background(), key)
	require.NoError(t, err)
	return v
}

func (f *fixture) messages() []string {
	rendered := f.rec.Rendered()
	out := make([]string, len(rendered))
	for i, n := range rendered {
		out[i] = n.Message
	}
	return out
}

func (f *fixture) categories() []domain.Category {
	rendered := f.rec.Rendered()
	out := make([]domain.Category, len(rendered))
	for i, n := range rendered {
		out[i] = n.Category
	}
	return out
}
