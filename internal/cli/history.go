package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/cafesync/internal/domain"
	"github.com/roach88/cafesync/internal/format"
	"github.com/roach88/cafesync/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit       int
	Fingerprint string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List dispatched mailbox orders, newest first",
		Long: `List mailbox orders the sync loop has already notified, newest first.

Every entry carries a fingerprint of the order as it was pushed. The REF
column shows its first characters; pass them to --fingerprint to find
every dispatch of the same order, for instance one picked up by two
processes at once.

Example:
  cafesync history -n 5
  cafesync history --fingerprint 3fa81c`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum entries to show (0 for all)")
	cmd.Flags().StringVar(&opts.Fingerprint, "fingerprint", "", "only entries whose fingerprint starts with this hex prefix")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	if opts.Limit < 0 {
		return NewExitError(ExitCommandError, "--limit must not be negative")
	}
	a, err := openApp(cmd, opts.RootOptions, slog.LevelWarn)
	if err != nil {
		return err
	}
	defer a.Close()

	var entries []domain.HistoryEntry
	if opts.Fingerprint != "" {
		entries, err = a.store.HistoryByFingerprint(cmd.Context(), opts.Fingerprint)
		if errors.Is(err, store.ErrBadFingerprint) {
			return WrapExitError(ExitCommandError, "invalid --fingerprint", err)
		}
		if opts.Limit > 0 && len(entries) > opts.Limit {
			entries = entries[:opts.Limit]
		}
	} else {
		entries, err = a.store.History(cmd.Context(), opts.Limit)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read history", err)
	}
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}

	return a.out.Result(entries, func(w io.Writer) error {
		if len(entries) == 0 {
			fmt.Fprintln(w, "No dispatched orders.")
			return nil
		}
		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []string{
				fmt.Sprint(e.Seq),
				shortRef(e.Fingerprint),
				e.ProcessedAt.Format("2006-01-02 15:04:05"),
				e.Order.CustomerName,
				fmt.Sprint(e.Order.ItemCount()),
				format.Currency(e.Order.TotalAmount),
			})
		}
		return writeTable(w, []string{"SEQ", "REF", "PROCESSED", "CUSTOMER", "ITEMS", "TOTAL"}, rows)
	})
}

func shortRef(fingerprint string) string {
	if len(fingerprint) > 8 {
		return fingerprint[:8]
	}
	return fingerprint
}
