package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrCorruptMailbox is returned when the mailbox slot does not hold a JSON
// array. Individual malformed entries inside a valid array are not an error
// here; the consumer decides what to skip.
var ErrCorruptMailbox = errors.New("mailbox slot is not a JSON array")

// ReadMailbox returns the raw entries in the mailbox slot, oldest first.
// An empty or absent slot yields a nil slice.
func (s *Store) ReadMailbox(ctx context.Context) ([]json.RawMessage, error) {
	raw, ok, err := getSlot(ctx, s.db, KeyMailbox)
	if err != nil || !ok {
		return nil, err
	}
	return decodeMailbox(raw)
}

// ClearMailbox empties the mailbox slot.
//
// ReadMailbox followed by ClearMailbox is not atomic. A push landing between
// the two calls is discarded with the rest of the slot.
func (s *Store) ClearMailbox(ctx context.Context) error {
	return deleteSlot(ctx, s.db, KeyMailbox)
}

// PushMailbox appends one entry to the mailbox slot. The append itself is a
// read-modify-write inside a single transaction, so concurrent pushers do
// not overwrite each other.
func (s *Store) PushMailbox(ctx context.Context, entry json.RawMessage) (int, error) {
	if !json.Valid(entry) {
		return 0, fmt.Errorf("push mailbox: entry is not valid JSON")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	raw, ok, err := getSlot(ctx, tx, KeyMailbox)
	if err != nil {
		return 0, err
	}
	var entries []json.RawMessage
	if ok {
		entries, err = decodeMailbox(raw)
		if err != nil {
			return 0, err
		}
	}
	entries = append(entries, entry)

	encoded, err := json.Marshal(entries)
	if err != nil {
		return 0, fmt.Errorf("encode mailbox: %w", err)
	}
	if err := putSlot(ctx, tx, KeyMailbox, encoded); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit mailbox: %w", err)
	}
	return len(entries), nil
}

func decodeMailbox(raw []byte) ([]json.RawMessage, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptMailbox, err)
	}
	return entries, nil
}
