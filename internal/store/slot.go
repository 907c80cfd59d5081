package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func getSlot(ctx context.Context, q querier, key string) ([]byte, bool, error) {
	var value string
	err := q.QueryRowContext(ctx, "SELECT value FROM slots WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read slot %s: %w", key, err)
	}
	return []byte(value), true, nil
}

func putSlot(ctx context.Context, q querier, key string, value []byte) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO slots (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`, key, string(value))
	if err != nil {
		return fmt.Errorf("write slot %s: %w", key, err)
	}
	return nil
}

func deleteSlot(ctx context.Context, q querier, key string) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM slots WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete slot %s: %w", key, err)
	}
	return nil
}

// GetJSON decodes the slot stored at key into v.
// Returns false when the slot is empty.
func (s *Store) GetJSON(ctx context.Context, key string, v any) (bool, error) {
	raw, ok, err := getSlot(ctx, s.db, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode slot %s: %w", key, err)
	}
	return true, nil
}

// PutJSON encodes v and stores it at key, replacing any previous value.
func (s *Store) PutJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode slot %s: %w", key, err)
	}
	return putSlot(ctx, s.db, key, raw)
}

// DeleteSlot removes key. Deleting an empty slot is not an error.
func (s *Store) DeleteSlot(ctx context.Context, key string) error {
	return deleteSlot(ctx, s.db, key)
}
