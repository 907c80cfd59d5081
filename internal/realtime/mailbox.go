package realtime

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/roach88/cafesync/internal/domain"
	"github.com/roach88/cafesync/internal/notify"
	"github.com/roach88/cafesync/internal/store"
)

// MailboxReport summarizes one mailbox poll.
type MailboxReport struct {
	Dispatched int `json:"dispatched"`
	Malformed  int `json:"malformed"`
}

// PollMailbox dispatches every entry in the mailbox slot and clears it.
//
// For each well-formed entry, in slot order: an urgent notification is
// shown, the dashboard counters are updated and the entry is appended to
// history. Malformed entries are logged and skipped. The slot is cleared
// once all entries are handled; an entry written by another process
// between the read and the clear is lost.
//
// The returned error reports local state failures only.
func (l *Loop) PollMailbox(ctx context.Context) (MailboxReport, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	l.counters.lastMailboxPoll = now

	entries, err := l.state.ReadMailbox(ctx)
	if errors.Is(err, store.ErrCorruptMailbox) {
		se := &SyncError{
			Code:    ErrCodeMalformedEntry,
			Message: "mailbox slot is not a list; discarded",
			Source:  "mailbox",
			Err:     err,
		}
		l.counters.malformed++
		l.logger.Error("mailbox corrupt", "code", se.Code, "error", err)
		if err := l.state.ClearMailbox(ctx); err != nil {
			return MailboxReport{Malformed: 1}, newStateError("mailbox", "clear mailbox", err)
		}
		return MailboxReport{Malformed: 1}, nil
	}
	if err != nil {
		se := newStateError("mailbox", "read mailbox", err)
		l.logger.Error("mailbox read failed", "code", se.Code, "error", err)
		return MailboxReport{}, se
	}
	if len(entries) == 0 {
		return MailboxReport{}, nil
	}

	var report MailboxReport
	for i, raw := range entries {
		order, err := decodePending(raw)
		if err != nil {
			se := NewMalformedEntryError(i, err)
			report.Malformed++
			l.counters.malformed++
			l.logger.Warn("mailbox entry skipped",
				"code", se.Code,
				"index", i,
				"error", err,
			)
			continue
		}

		_, _ = l.show(ctx, "mailbox", notify.ForPending(order))
		l.dashboard.record(order, now)
		l.recordHistory(ctx, order)
		report.Dispatched++
	}

	if err := l.state.ClearMailbox(ctx); err != nil {
		se := newStateError("mailbox", "clear mailbox", err)
		l.logger.Error("mailbox clear failed", "code", se.Code, "error", err)
		return report, se
	}

	l.logger.Debug("mailbox dispatched",
		"dispatched", report.Dispatched,
		"malformed", report.Malformed,
	)
	return report, nil
}

func (l *Loop) pollMailboxLogged(ctx context.Context) {
	// Failures are logged inside PollMailbox.
	_, _ = l.PollMailbox(ctx)
}

func (l *Loop) recordHistory(ctx context.Context, order domain.PendingOrder) {
	fp, err := domain.Fingerprint(order)
	if err != nil {
		l.logger.Debug("history fingerprint failed", "error", err)
	}
	entry := domain.HistoryEntry{
		Order:       order,
		Fingerprint: fp,
		ProcessedAt: l.clock.Now(),
	}
	if _, err := l.state.AppendHistory(ctx, entry, l.historyCap); err != nil {
		se := newStateError("mailbox", "append history", err)
		l.logger.Error("history append failed", "code", se.Code, "error", err)
	}
}

func decodePending(raw json.RawMessage) (domain.PendingOrder, error) {
	var order domain.PendingOrder
	if err := json.Unmarshal(raw, &order); err != nil {
		return order, err
	}
	return order, order.Validate()
}
