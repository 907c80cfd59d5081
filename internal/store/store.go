package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Persisted key names. They match the keys the browser dashboard used so
// that operators recognise them in `cafesync status`.
const (
	KeyOrderCursor       = "last_seen_order_id"
	KeyReservationCursor = "last_seen_reservation_id"
	KeyMailbox           = "pending_orders"
	KeySession           = "auth_session"
)

// Connection parameters understood by go-sqlite3. They are applied to every
// connection the pool opens, so a reconnect never loses them.
var connParams = url.Values{
	"_journal_mode": {"WAL"},
	"_synchronous":  {"NORMAL"},
	"_busy_timeout": {"5000"},
	"_txlock":       {"immediate"},
}

// migrations[i] upgrades a file from user_version i to i+1. Version 0 is
// the bare schema.sql layout.
var migrations = []func(*sql.DB) error{
	indexHistoryFingerprints,
}

// Store is the device-local state shared by every cafesync process on the
// machine: cursors, the mailbox slot, the dispatched history and the auth
// session.
type Store struct {
	db *sql.DB
}

// Open opens the state file at path, creating it when missing, and brings
// its schema up to date. Several processes may hold the same file open.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?"+connParams.Encode())
	if err != nil {
		return nil, fmt.Errorf("open state %s: %w", path, err)
	}
	// One connection per process; SQLite serializes writers anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open state %s: %w", path, err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare state %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks that the state file is still usable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func migrate(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	for v := version; v < len(migrations); v++ {
		if err := migrations[v](db); err != nil {
			return fmt.Errorf("migrate to v%d: %w", v+1, err)
		}
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", v+1)); err != nil {
			return fmt.Errorf("set user_version %d: %w", v+1, err)
		}
	}
	return nil
}

func indexHistoryFingerprints(db *sql.DB) error {
	_, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_history_fingerprint ON history(fingerprint)`)
	return err
}

// pragma reads the current value of a connection pragma.
func (s *Store) pragma(name string) (string, error) {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return "", fmt.Errorf("read pragma %s: %w", name, err)
	}
	return value, nil
}
