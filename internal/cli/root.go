// Package cli implements the cafesync command line: the long-running sync
// process, one-shot maintenance commands against the local state file, and
// the café record commands backed by the remote data source.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/cafesync/internal/clock"
	"github.com/roach88/cafesync/internal/config"
	"github.com/roach88/cafesync/internal/notify"
	"github.com/roach88/cafesync/internal/remote"
	"github.com/roach88/cafesync/internal/store"
)

// BackendFactory opens the remote backend for cfg. It returns a nil
// backend when none is configured.
type BackendFactory func(cfg *config.Config, st *store.Store, logger *slog.Logger) (remote.Backend, error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// OpenBackend overrides backend selection (for testing).
	// If nil, the backend is chosen from the configuration.
	OpenBackend BackendFactory

	// Clock overrides the system clock (for testing).
	Clock clock.Clock

	// IDs overrides the notification id generator (for testing).
	// If nil, defaults to notify.UUIDv7Generator.
	IDs notify.IDGenerator

	// started is set once a command's RunE begins. Errors cobra returns
	// before that point are command-line errors.
	started bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the cafesync CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cafesync",
		Short: "cafesync - café order notification sync",
		Long: `cafesync keeps a café's admin dashboard in step with its order backend.

It polls the remote data source for new orders and reservations, drains the
local mailbox of orders placed through the customer pages, and shows a
notification for each one. The same binary manages menu, orders, tables,
reservations and sales reports.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	})

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to cafesync.yaml")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewPollCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewMailboxCommand(opts))
	cmd.AddCommand(NewOrdersCommand(opts))
	cmd.AddCommand(NewMenuCommand(opts))
	cmd.AddCommand(NewReservationsCommand(opts))
	cmd.AddCommand(NewCustomersCommand(opts))
	cmd.AddCommand(NewTablesCommand(opts))
	cmd.AddCommand(NewReportCommand(opts))
	cmd.AddCommand(NewAuthCommand(opts))
	cmd.AddCommand(NewScenarioCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))

	trackStart(cmd, opts)
	return cmd
}

// trackStart wraps every RunE in the tree so that opts.started records
// whether cobra got as far as running a command.
func trackStart(cmd *cobra.Command, opts *RootOptions) {
	if run := cmd.RunE; run != nil {
		cmd.RunE = func(c *cobra.Command, args []string) error {
			opts.started = true
			return run(c, args)
		}
	}
	for _, sub := range cmd.Commands() {
		trackStart(sub, opts)
	}
}

// executeRoot runs cmd. Unknown commands, flag-group conflicts and other
// errors cobra raises before RunE become ExitCommandError.
func executeRoot(ctx context.Context, cmd *cobra.Command, opts *RootOptions) error {
	err := cmd.ExecuteContext(ctx)
	if err == nil || opts.started {
		return err
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	return WrapExitError(ExitCommandError, "invalid command line", err)
}

// Execute runs the CLI with args and returns the process exit code.
// Errors are reported on stderr in the selected format.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := &RootOptions{}
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := executeRoot(ctx, cmd, opts)
	if err == nil {
		return ExitSuccess
	}

	format := opts.Format
	if !isValidFormat(format) {
		format = "text"
	}
	out := &OutputFormatter{Format: format, Writer: stderr, Verbose: opts.Verbose}
	_ = out.Error(ErrorCode(err), err.Error(), nil)
	return GetExitCode(err)
}

// Main is the entry point used by cmd/cafesync.
func Main() int {
	return Execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
}

// exactArgs is cobra.ExactArgs reporting a command error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return WrapExitError(ExitCommandError, "invalid arguments", err)
		}
		return nil
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
