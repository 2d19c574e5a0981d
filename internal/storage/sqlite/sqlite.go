// Package sqlite is the durable Store backend, built on the CGo-free
// modernc.org/sqlite driver with schema migrations embedded in the
// binary.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite3 "modernc.org/sqlite"

	"bilancio/internal/core"
	"bilancio/internal/storage"
)

// dateFormat is how timestamps are stored; RFC 3339 keeps them
// comparable with plain string ordering.
const dateFormat = time.RFC3339Nano

// querier abstracts *sql.DB and *sql.Tx so the same query code serves
// both the autocommit store and transactional views.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the SQLite implementation of storage.Store.
type Store struct {
	db *sql.DB
	q  querier
}

var _ storage.Store = (*Store)(nil)

// New opens (creating if needed) the database at dbPath and brings the
// schema up to date. Transactions start in immediate mode so writers
// serialize up front instead of failing at commit.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := "file:" + dbPath + "?_txlock=immediate" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db, q: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// maxTxAttempts bounds the transparent retry on serialization
// failures before the caller sees core.ErrConflict.
const maxTxAttempts = 3

// InTx runs fn inside a database transaction. Busy/locked failures are
// retried a bounded number of times with a short backoff; other
// failures roll back and propagate. A Store already bound to a
// transaction joins it.
func (s *Store) InTx(ctx context.Context, fn func(storage.Store) error) error {
	if _, inTx := s.q.(*sql.Tx); inTx {
		return fn(s)
	}

	var lastErr error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err := s.runTx(ctx, fn)
		if err == nil {
			return nil
		}
		if !isBusy(err) {
			return err
		}
		lastErr = err
		slog.WarnContext(ctx, "Transaction serialization conflict, retrying",
			"attempt", attempt, "error", err)
		select {
		case <-time.After(time.Duration(attempt) * 10 * time.Millisecond):
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", core.ErrStoreUnavailable, ctx.Err())
		}
	}
	return fmt.Errorf("%w: %v", core.ErrConflict, lastErr)
}

func (s *Store) runTx(ctx context.Context, fn func(storage.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapErr("begin transaction", err)
	}
	view := &Store{db: s.db, q: tx}
	if err := fn(view); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			slog.ErrorContext(ctx, "Transaction rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return mapErr("commit transaction", err)
	}
	return nil
}

// mapErr classifies driver failures onto the core taxonomy and wraps
// them with the failing operation.
func mapErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%s: %w: %v", op, core.ErrStoreUnavailable, err)
	case isBusy(err):
		return fmt.Errorf("%s: %w: %v", op, core.ErrConflict, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func isBusy(err error) bool {
	var serr *sqlite3.Error
	if errors.As(err, &serr) {
		// SQLITE_BUSY (5) and SQLITE_LOCKED (6)
		code := serr.Code() & 0xff
		return code == 5 || code == 6
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}

// nullString maps "" <-> NULL for optional text columns.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored date %q: %w", s, err)
	}
	return t, nil
}
