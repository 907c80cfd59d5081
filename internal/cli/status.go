package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/cafesync/internal/format"
	"github.com/roach88/cafesync/internal/store"
)

// StatusOptions holds flags for the status command.
type StatusOptions struct {
	*RootOptions
	Ping bool
}

// StatusResult describes the local state file and, optionally, backend
// reachability.
type StatusResult struct {
	StatePath         string `json:"state_path"`
	ConfigPath        string `json:"config_path,omitempty"`
	Backend           string `json:"backend"`
	OrderCursor       int64  `json:"order_cursor"`
	ReservationCursor int64  `json:"reservation_cursor"`
	MailboxDepth      int    `json:"mailbox_depth"`
	MailboxCorrupt    bool   `json:"mailbox_corrupt,omitempty"`
	HistoryLen        int    `json:"history_len"`
	SignedInAs        string `json:"signed_in_as,omitempty"`
	BackendReachable  *bool  `json:"backend_reachable,omitempty"`
	BackendError      string `json:"backend_error,omitempty"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatusOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show cursors, mailbox depth and history size",
		Long: `Show what the local state file holds: the last order and reservation
ids already notified, how many entries wait in the mailbox, and how many
dispatched entries the history keeps.

Example:
  cafesync status
  cafesync status --ping --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Ping, "ping", false, "also check that the backend answers")

	return cmd
}

func runStatus(opts *StatusOptions, cmd *cobra.Command) error {
	a, err := openApp(cmd, opts.RootOptions, slog.LevelWarn)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	result := StatusResult{
		StatePath:  a.cfg.State.Path,
		ConfigPath: a.cfg.ConfigPath,
		Backend:    a.cfg.BackendKind(),
	}

	cursors, err := a.store.Cursors(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read cursors", err)
	}
	result.OrderCursor = cursors[store.KeyOrderCursor]
	result.ReservationCursor = cursors[store.KeyReservationCursor]

	entries, err := a.store.ReadMailbox(ctx)
	switch {
	case errors.Is(err, store.ErrCorruptMailbox):
		result.MailboxDepth = -1
		result.MailboxCorrupt = true
	case err != nil:
		return WrapExitError(ExitFailure, "failed to read mailbox", err)
	default:
		result.MailboxDepth = len(entries)
	}

	if result.HistoryLen, err = a.store.HistoryLen(ctx); err != nil {
		return WrapExitError(ExitFailure, "failed to read history", err)
	}

	sess, ok, err := a.store.LoadSession(ctx)
	if err != nil {
		a.logger.Warn("failed to read session", "error", err)
	} else if ok {
		result.SignedInAs = sess.Email
	}

	if opts.Ping {
		reachable := false
		svc, err := a.Service()
		if err == nil {
			err = svc.Ping(ctx)
		}
		if err != nil {
			result.BackendError = err.Error()
		} else {
			reachable = true
		}
		result.BackendReachable = &reachable
	}

	if err := a.out.Result(result, func(w io.Writer) error {
		return writeStatus(w, result)
	}); err != nil {
		return err
	}
	if result.BackendReachable != nil && !*result.BackendReachable {
		return NewExitError(ExitFailure, "backend unreachable")
	}
	return nil
}

func writeStatus(w io.Writer, s StatusResult) error {
	mailbox := format.Number(int64(s.MailboxDepth))
	if s.MailboxCorrupt {
		mailbox = "corrupt (will be discarded on next poll)"
	}
	rows := [][]string{
		{"state", s.StatePath},
		{"backend", s.Backend},
		{"order cursor", fmt.Sprint(s.OrderCursor)},
		{"reservation cursor", fmt.Sprint(s.ReservationCursor)},
		{"mailbox", mailbox},
		{"history", format.Number(int64(s.HistoryLen))},
	}
	if s.ConfigPath != "" {
		rows = append([][]string{{"config", s.ConfigPath}}, rows...)
	}
	if s.SignedInAs != "" {
		rows = append(rows, []string{"signed in as", s.SignedInAs})
	}
	if s.BackendReachable != nil {
		reach := "✓ reachable"
		if !*s.BackendReachable {
			reach = "✗ " + s.BackendError
		}
		rows = append(rows, []string{"backend check", reach})
	}
	tw := newTableWriter(w)
	for _, row := range rows {
		fmt.Fprintf(tw, "%s:\t%s\n", row[0], row[1])
	}
	return tw.Flush()
}
