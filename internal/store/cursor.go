package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Cursor returns the stored high-water mark for key, or 0 when it has
// never been written.
func (s *Store) Cursor(ctx context.Context, key string) (int64, error) {
	var value int64
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM cursors WHERE name = ?", key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read cursor %s: %w", key, err)
	}
	return value, nil
}

// AdvanceCursor stores MAX(current, id) for key and returns the value now
// stored. A candidate at or below the current value is a no-op, so the
// cursor never decreases regardless of caller ordering.
func (s *Store) AdvanceCursor(ctx context.Context, key string, id int64) (int64, error) {
	if id < 0 {
		return 0, fmt.Errorf("advance cursor %s: negative id %d", key, id)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cursors (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET
			value = MAX(cursors.value, excluded.value),
			updated_at = CURRENT_TIMESTAMP
	`, key, id)
	if err != nil {
		return 0, fmt.Errorf("write cursor %s: %w", key, err)
	}

	var stored int64
	if err := tx.QueryRowContext(ctx,
		"SELECT value FROM cursors WHERE name = ?", key,
	).Scan(&stored); err != nil {
		return 0, fmt.Errorf("read cursor %s: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit cursor %s: %w", key, err)
	}
	return stored, nil
}

// Cursors returns every stored cursor keyed by name.
func (s *Store) Cursors(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name, value FROM cursors ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("query cursors: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var name string
		var value int64
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scan cursor: %w", err)
		}
		out[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cursors: %w", err)
	}
	return out, nil
}
