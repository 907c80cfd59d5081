package harness

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TraceSnapshot is the golden transcript of a scenario run.
type TraceSnapshot struct {
	Scenario      string               `json:"scenario"`
	Trace         []TraceEvent         `json:"trace"`
	Notifications []NotificationRecord `json:"notifications"`
	Dismissed     []string             `json:"dismissed"`
	Final         FinalState           `json:"final"`
}

// Snapshot returns the transcript of result as indented JSON with a
// trailing newline. Map keys in step results are sorted by encoding/json.
func Snapshot(name string, result *Result) ([]byte, error) {
	data, err := json.MarshalIndent(TraceSnapshot{
		Scenario:      name,
		Trace:         result.Trace,
		Notifications: result.Notifications,
		Dismissed:     result.Dismissed,
		Final:         result.Final,
	}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// RunWithGolden executes a scenario and compares its transcript against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := Snapshot(name, result)
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
