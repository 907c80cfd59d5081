package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/cafesync/internal/domain"
	"github.com/roach88/cafesync/internal/notify"
	"github.com/roach88/cafesync/internal/realtime"
)

// PollOptions holds flags for the poll command.
type PollOptions struct {
	*RootOptions
	MailboxOnly bool
	RemoteOnly  bool
}

// PollResult is the outcome of one poll cycle.
type PollResult struct {
	Remote        *realtime.RemoteReport  `json:"remote,omitempty"`
	RemoteError   string                  `json:"remote_error,omitempty"`
	Mailbox       *realtime.MailboxReport `json:"mailbox,omitempty"`
	Notifications []domain.Notification   `json:"notifications"`
}

// NewPollCommand creates the poll command.
func NewPollCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PollOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Run one remote and mailbox poll and exit",
		Long: `Run a single poll cycle against the configured backend and the local
mailbox, print the notifications it produced, and exit.

The cursors and history are updated exactly as a running loop would update
them. A connectivity failure leaves the cursors untouched and exits 1.

Example:
  cafesync poll
  cafesync poll --mailbox-only --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPoll(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.MailboxOnly, "mailbox-only", false, "skip the remote poll")
	cmd.Flags().BoolVar(&opts.RemoteOnly, "remote-only", false, "skip the mailbox poll")
	cmd.MarkFlagsMutuallyExclusive("mailbox-only", "remote-only")

	return cmd
}

func runPoll(opts *PollOptions, cmd *cobra.Command) error {
	a, err := openApp(cmd, opts.RootOptions, slog.LevelWarn)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	var source realtime.Source
	if !opts.MailboxOnly {
		backend, err := a.Backend()
		if err != nil {
			return err
		}
		if backend != nil {
			source = backend
		} else if opts.RemoteOnly {
			return WrapExitError(ExitCommandError, "backend required", errNoBackend)
		}
	}

	recorder := &notify.Recorder{}
	var sink notify.Sink = recorder
	if opts.Format != "json" {
		sink = notify.MultiSink{recorder, notify.NewWriterSink(cmd.OutOrStdout())}
	}
	presenter := notify.NewPresenter(sink, a.presenterOptions()...)
	loop := realtime.New(source, a.store, presenter, a.loopOptions()...)

	result := PollResult{}
	var failure error
	if source != nil {
		report, err := loop.PollRemote(ctx)
		result.Remote = &report
		if err != nil {
			result.RemoteError = err.Error()
			failure = err
		}
	}
	if !opts.RemoteOnly {
		report, err := loop.PollMailbox(ctx)
		if err != nil {
			return WrapExitError(ExitFailure, "mailbox poll failed", err)
		}
		result.Mailbox = &report
	}
	result.Notifications = recorder.Rendered()
	if result.Notifications == nil {
		result.Notifications = []domain.Notification{}
	}

	if err := a.out.Result(result, func(w io.Writer) error {
		return writePollSummary(w, result)
	}); err != nil {
		return err
	}
	if failure != nil {
		code := ExitFailure
		if errors.Is(failure, realtime.ErrNoSource) {
			code = ExitCommandError
		}
		return WrapExitError(code, "remote poll failed", failure)
	}
	return nil
}

func writePollSummary(w io.Writer, r PollResult) error {
	if r.Remote != nil {
		status := "✓"
		if r.RemoteError != "" {
			status = "✗"
		}
		fmt.Fprintf(w, "%s remote: %d orders, %d reservations (cursors %d/%d)\n",
			status, r.Remote.Orders, r.Remote.Reservations, r.Remote.OrderCursor, r.Remote.ReservationCursor)
	}
	if r.Mailbox != nil {
		fmt.Fprintf(w, "✓ mailbox: %d dispatched, %d malformed\n", r.Mailbox.Dispatched, r.Mailbox.Malformed)
	}
	return nil
}
