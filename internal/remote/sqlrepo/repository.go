// Package sqlrepo implements remote.Backend directly against the café
// database over database/sql. Postgres is reached through the pgx stdlib
// driver and MySQL through go-sql-driver/mysql. SQLite is accepted for
// local development.
package sqlrepo

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/cafesync/internal/clock"
	"github.com/roach88/cafesync/internal/domain"
	"github.com/roach88/cafesync/internal/query"
	"github.com/roach88/cafesync/internal/remote"
)

// Pool settings for Open.
const (
	MaxOpenConns    = 25
	MaxIdleConns    = 25
	ConnMaxLifetime = 5 * time.Minute
	PingTimeout     = 5 * time.Second
)

var _ remote.Backend = (*Repository)(nil)

// dbtx is satisfied by *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository is a SQL-backed café backend.
//
// Thread-safety: safe for concurrent use; the pool serializes nothing
// beyond what the database does.
type Repository struct {
	db      *sql.DB
	dialect query.Dialect
	clock   clock.Clock
	logger  *slog.Logger
}

// Option configures a Repository.
type Option func(*Repository)

// WithClock sets the clock used for created_at, updated_at and order_date.
func WithClock(clk clock.Clock) Option {
	return func(r *Repository) { r.clock = clk }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Repository) { r.logger = l }
}

// Open connects with driver ("pgx", "postgres", "mysql" or "sqlite3"),
// applies the pool settings and pings the database.
//
// MySQL DSNs are rewritten to parse times in UTC and to report matched
// rather than changed rows, so updates that change nothing still find
// their row.
func Open(driverName, dsn string, opts ...Option) (*Repository, error) {
	dialect, err := query.DialectFor(driverName)
	if err != nil {
		return nil, err
	}
	switch driverName {
	case "postgres":
		driverName = "pgx"
	case "sqlite":
		driverName = "sqlite3"
	}
	if dialect == query.MySQL {
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse mysql dsn: %w", err)
		}
		cfg.ParseTime = true
		cfg.Loc = time.UTC
		cfg.ClientFoundRows = true
		dsn = cfg.FormatDSN()
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverName, err)
	}
	db.SetMaxOpenConns(MaxOpenConns)
	db.SetMaxIdleConns(MaxIdleConns)
	db.SetConnMaxLifetime(ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), PingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect %s: %w", driverName, classify(err))
	}
	return New(db, dialect, opts...), nil
}

// New wraps an existing pool.
func New(db *sql.DB, dialect query.Dialect, opts ...Option) *Repository {
	r := &Repository{
		db:      db,
		dialect: dialect,
		clock:   clock.System(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Close closes the pool.
func (r *Repository) Close() error {
	return r.db.Close()
}

// DB returns the underlying pool.
func (r *Repository) DB() *sql.DB {
	return r.db
}

// classify maps driver errors onto the backend error vocabulary.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	}
	var (
		netErr     net.Error
		connectErr *pgconn.ConnectError
	)
	switch {
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, mysql.ErrInvalidConn),
		errors.Is(err, sql.ErrConnDone),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &connectErr),
		errors.As(err, &netErr):
		return fmt.Errorf("%w: %w", remote.ErrUnavailable, err)
	}
	return err
}

// selectAll compiles q and scans every row with scan.
func selectAll[T any](ctx context.Context, r *Repository, db dbtx, q *query.Query, scan func(scanner) (T, error)) ([]T, error) {
	stmt, args, err := query.CompileSQL(q, r.dialect)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// selectOne compiles q and scans its single row.
func selectOne[T any](ctx context.Context, r *Repository, db dbtx, q *query.Query, scan func(scanner) (T, error)) (T, error) {
	var zero T
	stmt, args, err := query.CompileSQL(q, r.dialect)
	if err != nil {
		return zero, err
	}
	v, err := scan(db.QueryRowContext(ctx, stmt, args...))
	if err != nil {
		return zero, classify(err)
	}
	return v, nil
}

// insert writes row and returns the new id.
func (r *Repository) insert(ctx context.Context, db dbtx, table string, row remote.Row) (int64, error) {
	stmt, err := query.InsertSQL(r.dialect, table, row.Columns)
	if err != nil {
		return 0, err
	}
	if r.dialect.Returning {
		var id int64
		if err := db.QueryRowContext(ctx, stmt, row.Values...).Scan(&id); err != nil {
			return 0, classify(err)
		}
		return id, nil
	}
	res, err := db.ExecContext(ctx, stmt, row.Values...)
	if err != nil {
		return 0, classify(err)
	}
	return res.LastInsertId()
}

// update writes row to the record with id. A missing record yields
// domain.ErrNotFound.
func (r *Repository) update(ctx context.Context, table string, id int64, row remote.Row) error {
	stmt, err := query.UpdateSQL(r.dialect, table, row.Columns)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, stmt, append(row.Values, id)...)
	if err != nil {
		return classify(err)
	}
	return requireAffected(res, table, id)
}

func requireAffected(res sql.Result, table string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", table, id, domain.ErrNotFound)
	}
	return nil
}

func (r *Repository) now() time.Time {
	return r.clock.Now().UTC()
}

func (r *Repository) today() string {
	return r.clock.Now().Format("2006-01-02")
}
