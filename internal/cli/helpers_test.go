package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cafesync/internal/clock"
	"github.com/roach88/cafesync/internal/config"
	"github.com/roach88/cafesync/internal/notify"
	"github.com/roach88/cafesync/internal/remote"
	"github.com/roach88/cafesync/internal/store"
	"github.com/roach88/cafesync/internal/testutil"
)

var epoch = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

const testConfig = `
state:
  path: state.db
server:
  enabled: false
notify:
  websocket: false
`

// cliEnv runs commands from a temp directory holding a config file, with
// an in-memory backend, a fake clock and sequential notification ids.
type cliEnv struct {
	dir       string
	goldenDir string
	clock     *clock.Fake
	backend   *testutil.MemoryBackend
	noBackend bool
	open      BackendFactory
	stdin     string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	dir := t.TempDir()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
	for _, key := range []string{
		"CAFESYNC_SUPABASE_URL", "CAFESYNC_SUPABASE_KEY", "CAFESYNC_DATABASE_URL",
		"CAFESYNC_DB_DRIVER", "CAFESYNC_NATS_URL", "CAFESYNC_STATE_PATH", "PORT",
		"CAFESYNC_PASSWORD",
	} {
		t.Setenv(key, "")
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cafesync.yaml"), []byte(testConfig), 0o644))

	clk := clock.NewFake(epoch)
	return &cliEnv{
		dir:       dir,
		goldenDir: filepath.Join(wd, "testdata", "golden"),
		clock:     clk,
		backend:   testutil.NewMemoryBackend(clk),
	}
}

// run executes the root command with args. The id sequence restarts on
// every call.
func (e *cliEnv) run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	opts := &RootOptions{
		Clock: e.clock,
		IDs:   notify.NewSequenceGenerator("n"),
		OpenBackend: func(cfg *config.Config, st *store.Store, logger *slog.Logger) (remote.Backend, error) {
			if e.open != nil {
				return e.open(cfg, st, logger)
			}
			if e.noBackend {
				return nil, nil
			}
			return e.backend, nil
		},
	}
	cmd := newRootCommand(opts)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(e.stdin))
	cmd.SetArgs(args)

	err = executeRoot(context.Background(), cmd, opts)
	return out.String(), errOut.String(), err
}

// runJSON executes args with --format json and decodes the response data
// into v.
func (e *cliEnv) runJSON(t *testing.T, v any, args ...string) error {
	t.Helper()
	stdout, _, err := e.run(t, append([]string{"--format", "json"}, args...)...)
	if stdout != "" && v != nil {
		var resp struct {
			Status string          `json:"status"`
			Data   json.RawMessage `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(stdout), &resp), "stdout: %s", stdout)
		require.Equal(t, "ok", resp.Status)
		require.NoError(t, json.Unmarshal(resp.Data, v))
	}
	return err
}

// openState opens the env's state file directly. The handle is closed at
// test cleanup.
func (e *cliEnv) openState(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(e.dir, "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

// assertGolden compares got with testdata/golden/<name>.golden.
func (e *cliEnv) assertGolden(t *testing.T, name, got string) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir(e.goldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(got))
}

const budiEntry = `{"customerName":"Budi","items":[{"name":"Kopi Susu","quantity":2,"unit_price":18000}],"totalAmount":36000}`
