package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cafesync/internal/domain"
)

const sariEntry = `{"customerName":"Sari","items":[{"name":"Teh Tarik","quantity":1,"unit_price":12000},{"name":"Roti Bakar","quantity":1,"unit_price":15000}],"totalAmount":27000}`

func dispatchMailbox(t *testing.T, env *cliEnv, entries ...string) {
	t.Helper()
	for _, e := range entries {
		_, _, err := env.run(t, "mailbox", "push", e)
		require.NoError(t, err)
	}
	_, _, err := env.run(t, "poll", "--mailbox-only")
	require.NoError(t, err)
}

func TestHistory_Empty(t *testing.T) {
	env := newCLIEnv(t)

	stdout, _, err := env.run(t, "history")
	require.NoError(t, err)
	assert.Equal(t, "No dispatched orders.\n", stdout)

	var entries []domain.HistoryEntry
	require.NoError(t, env.runJSON(t, &entries, "history"))
	assert.Empty(t, entries)
}

func TestHistory_AfterDispatch(t *testing.T) {
	env := newCLIEnv(t)
	dispatchMailbox(t, env, budiEntry, sariEntry)

	var entries []domain.HistoryEntry
	require.NoError(t, env.runJSON(t, &entries, "history"))
	require.Len(t, entries, 2)
	assert.Equal(t, "Sari", entries[0].Order.CustomerName)
	assert.Equal(t, "Budi", entries[1].Order.CustomerName)
	assert.NotEmpty(t, entries[0].Fingerprint)
	assert.True(t, entries[0].ProcessedAt.Equal(epoch))

	require.NoError(t, env.runJSON(t, &entries, "history", "-n", "1"))
	require.Len(t, entries, 1)
	assert.Equal(t, "Sari", entries[0].Order.CustomerName)

	stdout, _, err := env.run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, stdout, "SEQ")
	assert.Contains(t, stdout, "2024-05-01 09:00:00")
	assert.Contains(t, stdout, "Rp 27.000")
}

func TestHistory_NegativeLimit(t *testing.T) {
	env := newCLIEnv(t)

	_, _, err := env.run(t, "history", "--limit", "-1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestHistory_ByFingerprint(t *testing.T) {
	env := newCLIEnv(t)
	dispatchMailbox(t, env, budiEntry, sariEntry)
	dispatchMailbox(t, env, budiEntry)

	var all []domain.HistoryEntry
	require.NoError(t, env.runJSON(t, &all, "history"))
	require.Len(t, all, 3)
	budi := all[0].Fingerprint
	require.Equal(t, budi, all[2].Fingerprint, "same order, same fingerprint")
	require.NotEqual(t, budi, all[1].Fingerprint)

	var matched []domain.HistoryEntry
	require.NoError(t, env.runJSON(t, &matched, "history", "--fingerprint", budi[:10]))
	require.Len(t, matched, 2)
	assert.Equal(t, all[0].Seq, matched[0].Seq)
	assert.Equal(t, all[2].Seq, matched[1].Seq)

	require.NoError(t, env.runJSON(t, &matched, "history", "--fingerprint", budi, "-n", "1"))
	assert.Len(t, matched, 1)

	stdout, _, err := env.run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, stdout, budi[:8])
}

func TestHistory_BadFingerprint(t *testing.T) {
	env := newCLIEnv(t)

	_, _, err := env.run(t, "history", "--fingerprint", "not-hex")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
