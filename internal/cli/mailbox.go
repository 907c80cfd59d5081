package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/cafesync/internal/domain"
	"github.com/roach88/cafesync/internal/format"
	"github.com/roach88/cafesync/internal/store"
)

// NewMailboxCommand creates the mailbox command group.
func NewMailboxCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mailbox",
		Short: "Inspect or feed the pending-order mailbox",
		Long: `The mailbox holds orders placed through the customer pages that the
sync loop has not dispatched yet. Entries are dispatched in order on the
next mailbox poll and then removed.`,
	}
	cmd.AddCommand(newMailboxPushCommand(rootOpts))
	cmd.AddCommand(newMailboxShowCommand(rootOpts))
	return cmd
}

// MailboxPushResult reports the mailbox depth after a push.
type MailboxPushResult struct {
	Queued   int  `json:"queued"`
	Signaled bool `json:"signaled"`
}

func newMailboxPushCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "push <json|->",
		Short: "Append a pending order to the mailbox",
		Long: `Append a pending order to the mailbox. The argument is the order as JSON,
or "-" to read it from stdin. The order is validated before it is queued.
When bus.nats_url is configured, a running loop is signalled to poll the
mailbox immediately.

Example:
  cafesync mailbox push '{"customerName":"Budi","items":[{"name":"Kopi Susu","quantity":2,"unit_price":18000}],"totalAmount":36000}'`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMailboxPush(rootOpts, cmd, args[0])
		},
	}
}

func runMailboxPush(opts *RootOptions, cmd *cobra.Command, arg string) error {
	raw, err := readEntry(cmd.InOrStdin(), arg)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read entry", err)
	}
	var order domain.PendingOrder
	if err := json.Unmarshal(raw, &order); err != nil {
		return WrapExitError(ExitCommandError, "entry is not a pending order", err)
	}
	if err := order.Validate(); err != nil {
		return WrapExitError(ExitFailure, "invalid pending order", err)
	}

	a, err := openApp(cmd, opts, slog.LevelWarn)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	depth, err := a.store.PushMailbox(ctx, raw)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to push mailbox entry", err)
	}

	result := MailboxPushResult{Queued: depth}
	if a.cfg.Bus.NATSURL != "" {
		if err := signalMailbox(cmd, a); err != nil {
			a.logger.Warn("mailbox signal failed, loop will pick the entry up on its next tick", "error", err)
		} else {
			result.Signaled = true
		}
	}

	return a.out.Result(result, func(w io.Writer) error {
		fmt.Fprintf(w, "✓ queued %s for %s (%d waiting)\n",
			format.Currency(order.TotalAmount), order.CustomerName, depth)
		return nil
	})
}

func signalMailbox(cmd *cobra.Command, a *app) error {
	signals, err := openBus(a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer signals.Close()
	return signals.Publish(cmd.Context(), store.KeyMailbox)
}

func readEntry(stdin io.Reader, arg string) (json.RawMessage, error) {
	var data []byte
	if arg == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, err
		}
		data = b
	} else if strings.HasPrefix(arg, "@") {
		b, err := os.ReadFile(strings.TrimPrefix(arg, "@"))
		if err != nil {
			return nil, err
		}
		data = b
	} else {
		data = []byte(arg)
	}
	data = []byte(strings.TrimSpace(string(data)))
	if !json.Valid(data) {
		return nil, errors.New("entry is not valid JSON")
	}
	return data, nil
}

// MailboxEntry is one mailbox entry as shown by `mailbox show`.
type MailboxEntry struct {
	Index int                  `json:"index"`
	Order *domain.PendingOrder `json:"order,omitempty"`
	Raw   json.RawMessage      `json:"raw,omitempty"`
	Error string               `json:"error,omitempty"`
}

func newMailboxShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "List entries waiting in the mailbox",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMailboxShow(rootOpts, cmd)
		},
	}
}

func runMailboxShow(opts *RootOptions, cmd *cobra.Command) error {
	a, err := openApp(cmd, opts, slog.LevelWarn)
	if err != nil {
		return err
	}
	defer a.Close()

	raws, err := a.store.ReadMailbox(cmd.Context())
	if errors.Is(err, store.ErrCorruptMailbox) {
		return WrapExitError(ExitFailure, "mailbox is corrupt and will be discarded on the next poll", err)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read mailbox", err)
	}

	entries := make([]MailboxEntry, 0, len(raws))
	for i, raw := range raws {
		entry := MailboxEntry{Index: i}
		var order domain.PendingOrder
		err := json.Unmarshal(raw, &order)
		if err == nil {
			err = order.Validate()
		}
		if err != nil {
			entry.Raw = raw
			entry.Error = err.Error()
		} else {
			entry.Order = &order
		}
		entries = append(entries, entry)
	}

	return a.out.Result(entries, func(w io.Writer) error {
		if len(entries) == 0 {
			fmt.Fprintln(w, "Mailbox is empty.")
			return nil
		}
		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			if e.Order == nil {
				rows = append(rows, []string{fmt.Sprint(e.Index), "✗ malformed", e.Error, ""})
				continue
			}
			rows = append(rows, []string{
				fmt.Sprint(e.Index),
				e.Order.CustomerName,
				fmt.Sprintf("%d items", e.Order.ItemCount()),
				format.Currency(e.Order.TotalAmount),
			})
		}
		return writeTable(w, []string{"#", "CUSTOMER", "ITEMS", "TOTAL"}, rows)
	})
}
