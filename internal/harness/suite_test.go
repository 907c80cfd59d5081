package harness

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindScenarios(t *testing.T) {
	files, err := FindScenarios("testdata/scenarios", "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join("testdata/scenarios", "remote_and_mailbox.yaml"),
		filepath.Join("testdata/scenarios", "shared_cursor.yaml"),
	}, files)

	filtered, err := FindScenarios("testdata/scenarios", "shared_*")
	require.NoError(t, err)
	assert.Len(t, filtered, 1)

	single, err := FindScenarios("testdata/scenarios/shared_cursor.yaml", "")
	require.NoError(t, err)
	assert.Len(t, single, 1)

	_, err = FindScenarios("testdata/none", "")
	assert.Error(t, err)

	_, err = FindScenarios("testdata/scenarios", "[")
	assert.Error(t, err)
}

func TestRunSuite_TestdataWithGolden(t *testing.T) {
	suite, err := RunSuite(context.Background(), "testdata/scenarios", SuiteConfig{GoldenDir: "testdata/golden"})
	require.NoError(t, err)
	assert.Equal(t, 2, suite.Total)
	assert.Equal(t, 2, suite.Passed)
	assert.Empty(t, suite.Failures())

	require.Len(t, suite.Scenarios, 2)
	assert.Equal(t, "match", suite.Scenarios[0].Golden)
	assert.Empty(t, suite.Scenarios[1].Golden, "no golden file for shared_cursor")
}

func TestRunSuite_CountsBrokenFiles(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "a_ok.yaml", `
name: ok
description: "empty mailbox"
flow:
  - step: mailbox
assertions:
  - type: notification_count
    count: 0
`)
	writeScenario(t, dir, "b_broken.yaml", "name: [\n")
	writeScenario(t, dir, "c_failing.yml", `
name: failing
description: "wrong count"
flow:
  - step: mailbox
assertions:
  - type: notification_count
    count: 1
`)
	writeScenario(t, dir, "notes.txt", "ignored")

	suite, err := RunSuite(context.Background(), dir, SuiteConfig{})
	require.NoError(t, err)
	assert.Equal(t, 3, suite.Total)
	assert.Equal(t, 1, suite.Passed)
	assert.Equal(t, 2, suite.Failed)

	failures := suite.Failures()
	require.Len(t, failures, 2)
	assert.Equal(t, "b_broken.yaml", failures[0].Name)
	assert.Equal(t, "failing", failures[1].Name)
}

func TestRunSuite_UpdateThenMismatch(t *testing.T) {
	dir := t.TempDir()
	golden := filepath.Join(dir, "golden")
	writeScenario(t, dir, "one.yaml", `
name: one
description: "single remote order"
flow:
  - step: remote
    orders:
      - { id: 1, order_number: ORD-1, total_amount: 1000 }
assertions:
  - type: notification_count
    count: 1
`)

	suite, err := RunSuite(context.Background(), dir, SuiteConfig{GoldenDir: golden, Update: true})
	require.NoError(t, err)
	require.Len(t, suite.Scenarios, 1)
	assert.Equal(t, "updated", suite.Scenarios[0].Golden)
	assert.FileExists(t, filepath.Join(golden, "one.golden"))

	suite, err = RunSuite(context.Background(), dir, SuiteConfig{GoldenDir: golden})
	require.NoError(t, err)
	assert.Equal(t, "match", suite.Scenarios[0].Golden)

	require.NoError(t, os.WriteFile(filepath.Join(golden, "one.golden"), []byte("{}\n"), 0o644))
	suite, err = RunSuite(context.Background(), dir, SuiteConfig{GoldenDir: golden})
	require.NoError(t, err)
	assert.Equal(t, "mismatch", suite.Scenarios[0].Golden)
	assert.False(t, suite.Scenarios[0].Pass)
	assert.Equal(t, 1, suite.Failed)
}

func TestRunSuite_EmptyDir(t *testing.T) {
	suite, err := RunSuite(context.Background(), t.TempDir(), SuiteConfig{})
	require.NoError(t, err)
	assert.Zero(t, suite.Total)
	assert.Empty(t, suite.Scenarios)
}
