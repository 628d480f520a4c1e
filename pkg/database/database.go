package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/rs/zerolog/log"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect identifies the SQL engine behind a DB.
type Dialect string

const (
	// DialectSQLite is the embedded single-file engine (modernc.org/sqlite).
	DialectSQLite Dialect = "sqlite"
	// DialectPostgres is PostgreSQL through pgx's database/sql adapter.
	DialectPostgres Dialect = "postgres"
)

// driverName returns the database/sql driver registered for the dialect.
func (d Dialect) driverName() (string, error) {
	switch d {
	case DialectSQLite:
		return "sqlite", nil
	case DialectPostgres:
		return "pgx", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", string(d))
	}
}

// LockClause returns the row-locking suffix for a SELECT inside a transaction.
// SQLite has no row locks; writers are serialized by the single connection.
func (d Dialect) LockClause() string {
	if d == DialectPostgres {
		return " FOR UPDATE"
	}
	return ""
}

// TxQuerier is implemented by both *sql.DB and *sql.Tx.
// Repository methods that need transaction support should accept TxQuerier.
type TxQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Tx is a TxQuerier that must be committed or rolled back. *sql.Tx implements it.
type Tx interface {
	TxQuerier
	Commit() error
	Rollback() error
}

// DB is a *sql.DB that remembers which dialect it speaks.
type DB struct {
	*sql.DB
	dialect Dialect
}

// Dialect returns the engine this DB was opened against.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Begin starts a transaction bound to ctx.
func (db *DB) Begin(ctx context.Context) (Tx, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// Ping verifies the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.PingContext(ctx)
}

// Options configures Open.
type Options struct {
	Dialect      Dialect
	DSN          string
	MaxOpenConns int
	MaxRetries   int
}

// SQLiteDSN builds a modernc.org/sqlite DSN for the database file at path with
// foreign keys enforced, WAL journaling and a busy timeout.
func SQLiteDSN(path string) string {
	return "file:" + path +
		"?_pragma=foreign_keys(1)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=journal_mode(WAL)"
}

// Open opens the database described by opts and verifies it with a ping.
// Retries with exponential backoff: 1s, 2s, 4s, 8s, ... between attempts.
func Open(ctx context.Context, opts Options) (*DB, error) {
	driver, err := opts.Dialect.driverName()
	if err != nil {
		return nil, err
	}

	// Ensure at least one attempt even if MaxRetries is 0
	attempts := opts.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		var sqlDB *sql.DB
		sqlDB, err = sql.Open(driver, opts.DSN)
		if err == nil {
			configurePool(sqlDB, opts)
			if pingErr := sqlDB.PingContext(ctx); pingErr == nil {
				log.Info().Str("driver", string(opts.Dialect)).Msg("database connection established")
				return &DB{DB: sqlDB, dialect: opts.Dialect}, nil
			} else {
				_ = sqlDB.Close()
				err = fmt.Errorf("ping failed: %w", pingErr)
			}
		}

		if attempt == attempts-1 {
			break
		}

		backoff := time.Duration(1<<attempt) * time.Second
		log.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Int("max_retries", opts.MaxRetries).
			Dur("next_retry_in", backoff).
			Msg("database connection failed, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	return nil, fmt.Errorf("failed to connect after %d attempts: %w", attempts, err)
}

func configurePool(db *sql.DB, opts Options) {
	if opts.Dialect == DialectSQLite {
		// One connection serializes writers and keeps pragmas on a single handle.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		return
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
		db.SetMaxIdleConns(opts.MaxOpenConns)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
}

// IsUniqueViolation reports whether err is a unique or primary key violation
// from either supported engine.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return false
}
