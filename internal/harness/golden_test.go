package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden_RemoteAndMailbox(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/remote_and_mailbox.yaml")
	require.NoError(t, err)

	result, err := RunWithGolden(t, s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestSnapshot_EmptyListsEncodeAsArrays(t *testing.T) {
	data, err := Snapshot("empty", NewResult())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"notifications": []`)
	assert.Contains(t, string(data), `"dismissed": []`)
	assert.Equal(t, byte('\n'), data[len(data)-1])
}
