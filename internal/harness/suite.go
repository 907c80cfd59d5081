package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SuiteConfig controls RunSuite.
type SuiteConfig struct {
	// GoldenDir holds {name}.golden transcripts. Scenarios without a
	// golden file are judged on their assertions alone. Empty disables
	// golden comparison.
	GoldenDir string

	// Update rewrites golden files instead of comparing against them.
	Update bool

	// Filter is a glob matched against file names without extension.
	Filter string

	Options []Option
}

// SuiteResult summarizes running every scenario under a path.
type SuiteResult struct {
	Scenarios []ScenarioOutcome `json:"scenarios"`
	Total     int               `json:"total"`
	Passed    int               `json:"passed"`
	Failed    int               `json:"failed"`
}

// ScenarioOutcome is the verdict for one scenario file.
type ScenarioOutcome struct {
	Name   string   `json:"name"`
	Path   string   `json:"path"`
	Pass   bool     `json:"pass"`
	Golden string   `json:"golden,omitempty"` // "match", "updated" or "mismatch"
	Errors []string `json:"errors,omitempty"`
}

// Failures returns the outcomes that did not pass.
func (s *SuiteResult) Failures() []ScenarioOutcome {
	var out []ScenarioOutcome
	for _, o := range s.Scenarios {
		if !o.Pass {
			out = append(out, o)
		}
	}
	return out
}

// FindScenarios returns path itself when it is a file, or every .yaml and
// .yml file directly under it whose base name matches filter, sorted.
func FindScenarios(path, filter string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("scenario path: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		if filter != "" {
			matched, err := filepath.Match(filter, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
			if err != nil {
				return nil, fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				continue
			}
		}
		files = append(files, filepath.Join(path, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// RunSuite loads and runs every scenario under path. A scenario that fails
// to load counts as a failure rather than aborting the suite.
func RunSuite(ctx context.Context, path string, cfg SuiteConfig) (*SuiteResult, error) {
	files, err := FindScenarios(path, cfg.Filter)
	if err != nil {
		return nil, err
	}

	suite := &SuiteResult{Scenarios: []ScenarioOutcome{}}
	for _, file := range files {
		outcome := runFile(ctx, file, cfg)
		suite.Scenarios = append(suite.Scenarios, outcome)
		suite.Total++
		if outcome.Pass {
			suite.Passed++
		} else {
			suite.Failed++
		}
	}
	return suite, nil
}

func runFile(ctx context.Context, file string, cfg SuiteConfig) ScenarioOutcome {
	outcome := ScenarioOutcome{Name: filepath.Base(file), Path: file}

	scenario, err := LoadScenario(file)
	if err != nil {
		outcome.Errors = []string{err.Error()}
		return outcome
	}
	outcome.Name = scenario.Name

	result, err := Run(ctx, scenario, cfg.Options...)
	if err != nil {
		outcome.Errors = []string{fmt.Sprintf("execution failed: %v", err)}
		return outcome
	}
	outcome.Errors = result.Errors
	outcome.Pass = result.Pass

	if cfg.GoldenDir == "" {
		return outcome
	}
	golden, err := checkGolden(filepath.Join(cfg.GoldenDir, scenario.Name+".golden"), scenario.Name, result, cfg.Update)
	if err != nil {
		outcome.Pass = false
		outcome.Errors = append(outcome.Errors, fmt.Sprintf("golden: %v", err))
		return outcome
	}
	outcome.Golden = golden
	if golden == "mismatch" {
		outcome.Pass = false
		outcome.Errors = append(outcome.Errors, "transcript does not match golden file (run with --update to regenerate)")
	}
	return outcome
}

// checkGolden compares or rewrites one golden transcript. It returns ""
// when no golden file exists and update is off.
func checkGolden(path, name string, result *Result, update bool) (string, error) {
	data, err := Snapshot(name, result)
	if err != nil {
		return "", err
	}
	if update {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return "", err
		}
		return "updated", nil
	}

	want, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if !bytes.Equal(want, data) {
		return "mismatch", nil
	}
	return "match", nil
}
