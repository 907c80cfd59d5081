package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/cafesync/internal/domain"
)

// ErrBadFingerprint is returned for a fingerprint lookup that is not a
// lowercase hex prefix.
var ErrBadFingerprint = errors.New("fingerprint must be a lowercase hex prefix")

// AppendHistory records a dispatched mailbox entry and evicts the oldest
// rows so that at most capacity remain. Returns the stored entry with its
// sequence number assigned.
func (s *Store) AppendHistory(ctx context.Context, entry domain.HistoryEntry, capacity int) (domain.HistoryEntry, error) {
	if capacity <= 0 {
		return entry, fmt.Errorf("append history: capacity must be positive, got %d", capacity)
	}

	payload, err := json.Marshal(entry.Order)
	if err != nil {
		return entry, fmt.Errorf("encode history entry: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return entry, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO history (fingerprint, payload, processed_at)
		VALUES (?, ?, ?)
	`, entry.Fingerprint, string(payload), entry.ProcessedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return entry, fmt.Errorf("write history: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return entry, fmt.Errorf("history seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM history
		WHERE seq NOT IN (
			SELECT seq FROM history ORDER BY seq DESC LIMIT ?
		)
	`, capacity)
	if err != nil {
		return entry, fmt.Errorf("evict history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return entry, fmt.Errorf("commit history: %w", err)
	}

	entry.Seq = seq
	return entry, nil
}

// History returns up to limit entries, newest first. A non-positive limit
// returns every entry.
func (s *Store) History(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	return s.queryHistory(ctx, "", nil, limit)
}

// HistoryByFingerprint returns entries whose fingerprint starts with prefix,
// newest first. prefix must be lowercase hex.
func (s *Store) HistoryByFingerprint(ctx context.Context, prefix string) ([]domain.HistoryEntry, error) {
	if prefix == "" || strings.Trim(prefix, "0123456789abcdef") != "" {
		return nil, fmt.Errorf("fingerprint %q: %w", prefix, ErrBadFingerprint)
	}
	return s.queryHistory(ctx, "WHERE fingerprint LIKE ?", []any{prefix + "%"}, 0)
}

func (s *Store) queryHistory(ctx context.Context, where string, args []any, limit int) ([]domain.HistoryEntry, error) {
	query := "SELECT seq, fingerprint, payload, processed_at FROM history " + where + " ORDER BY seq DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var (
			e           domain.HistoryEntry
			payload     string
			processedAt string
		)
		if err := rows.Scan(&e.Seq, &e.Fingerprint, &payload, &processedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &e.Order); err != nil {
			return nil, fmt.Errorf("decode history %d: %w", e.Seq, err)
		}
		e.ProcessedAt, err = time.Parse(time.RFC3339Nano, processedAt)
		if err != nil {
			return nil, fmt.Errorf("parse history %d time: %w", e.Seq, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

// HistoryLen returns the number of stored history entries.
func (s *Store) HistoryLen(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM history").Scan(&n); err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return n, nil
}
