package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/cafesync/internal/harness"
)

// ScenarioOptions holds flags for the scenario command.
type ScenarioOptions struct {
	*RootOptions
	GoldenDir string
	Update    bool
	Filter    string
}

// NewScenarioCommand creates the scenario command.
func NewScenarioCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScenarioOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scenario <file-or-dir>",
		Short: "Run YAML sync scenarios against a simulated backend",
		Long: `Run YAML sync scenarios. Each scenario drives the real sync loop against
a scripted backend, an in-memory state file and a virtual clock, then
checks its assertions. When a golden transcript exists for a scenario it
must match too.

Golden files live in <golden-dir>/<name>.golden. The default golden
directory is "golden" next to the scenario directory.

Example:
  cafesync scenario ./scenarios
  cafesync scenario ./scenarios/shared_cursor.yaml --update
  cafesync scenario ./scenarios --filter "remote_*" --format json`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.GoldenDir, "golden", "", "golden transcript directory")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "rewrite golden transcripts")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "glob on scenario file names")

	return cmd
}

func runScenarios(opts *ScenarioOptions, path string, cmd *cobra.Command) error {
	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := newLogger(cmd.ErrOrStderr(), slog.LevelError, opts.Verbose)

	info, err := os.Stat(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "scenario path not found", err)
	}
	goldenDir := opts.GoldenDir
	if goldenDir == "" {
		dir := path
		if !info.IsDir() {
			dir = filepath.Dir(path)
		}
		goldenDir = filepath.Join(filepath.Dir(dir), "golden")
	}
	out.VerboseLog("golden directory: %s", goldenDir)

	suite, err := harness.RunSuite(cmd.Context(), path, harness.SuiteConfig{
		GoldenDir: goldenDir,
		Update:    opts.Update,
		Filter:    opts.Filter,
		Options:   []harness.Option{harness.WithLogger(logger)},
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to run scenarios", err)
	}
	if suite.Total == 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("no scenario files under %s", path))
	}

	if err := out.Result(suite, func(w io.Writer) error {
		return writeSuite(w, suite)
	}); err != nil {
		return err
	}
	if suite.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenarios failed", suite.Failed, suite.Total))
	}
	return nil
}

func writeSuite(w io.Writer, suite *harness.SuiteResult) error {
	for _, s := range suite.Scenarios {
		mark := "✓"
		if !s.Pass {
			mark = "✗"
		}
		line := fmt.Sprintf("%s %s", mark, s.Name)
		if s.Golden != "" {
			line += fmt.Sprintf(" (golden %s)", s.Golden)
		}
		fmt.Fprintln(w, line)
		for _, e := range s.Errors {
			fmt.Fprintf(w, "    %s\n", e)
		}
	}
	fmt.Fprintf(w, "\n%d/%d scenarios passed\n", suite.Passed, suite.Total)
	return nil
}
