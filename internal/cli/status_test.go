package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cafesync/internal/store"
)

func TestStatus_FreshState(t *testing.T) {
	env := newCLIEnv(t)

	stdout, _, err := env.run(t, "status")
	require.NoError(t, err)
	env.assertGolden(t, "status_fresh", stdout)
}

func TestStatus_JSONAfterPush(t *testing.T) {
	env := newCLIEnv(t)
	_, _, err := env.run(t, "mailbox", "push", budiEntry)
	require.NoError(t, err)

	var status StatusResult
	require.NoError(t, env.runJSON(t, &status, "status"))
	assert.Equal(t, "state.db", status.StatePath)
	assert.Equal(t, "cafesync.yaml", status.ConfigPath)
	assert.Equal(t, "none", status.Backend)
	assert.Equal(t, 1, status.MailboxDepth)
	assert.False(t, status.MailboxCorrupt)
	assert.Nil(t, status.BackendReachable)
}

func TestStatus_CorruptMailbox(t *testing.T) {
	env := newCLIEnv(t)
	st := env.openState(t)
	require.NoError(t, st.PutJSON(context.Background(), store.KeyMailbox, map[string]int{"not": 1}))

	var status StatusResult
	require.NoError(t, env.runJSON(t, &status, "status"))
	assert.Equal(t, -1, status.MailboxDepth)
	assert.True(t, status.MailboxCorrupt)

	stdout, _, err := env.run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "corrupt (will be discarded on next poll)")
}

func TestStatus_Ping(t *testing.T) {
	env := newCLIEnv(t)

	stdout, _, err := env.run(t, "status", "--ping")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ reachable")

	env.backend.FailWith(errors.New("dial tcp: connection refused"))
	var status StatusResult
	err = env.runJSON(t, &status, "status", "--ping")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	require.NotNil(t, status.BackendReachable)
	assert.False(t, *status.BackendReachable)
	assert.Contains(t, status.BackendError, "connection refused")
}

func TestStatus_PingWithoutBackend(t *testing.T) {
	env := newCLIEnv(t)
	env.noBackend = true

	stdout, _, err := env.run(t, "status", "--ping")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✗ backend required")
}
