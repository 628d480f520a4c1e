package database

import (
	"context"
	"fmt"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS customers (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		address    TEXT NOT NULL DEFAULT '',
		phone      TEXT NOT NULL DEFAULT '',
		points     REAL NOT NULL DEFAULT 0 CHECK (points >= 0),
		visits     INTEGER NOT NULL DEFAULT 0 CHECK (visits >= 0),
		tier       TEXT NOT NULL DEFAULT 'NEW',
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		customer_id TEXT NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
		created_at  TIMESTAMP NOT NULL,
		amount      REAL NOT NULL CHECK (amount >= 0),
		points      REAL NOT NULL,
		multiplier  REAL NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		branch      TEXT NOT NULL DEFAULT '',
		txn_type    TEXT NOT NULL DEFAULT 'purchase'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_customer ON transactions(customer_id, created_at)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS customers (
		id         VARCHAR(8) PRIMARY KEY,
		name       VARCHAR(255) NOT NULL,
		address    VARCHAR(255) NOT NULL DEFAULT '',
		phone      VARCHAR(64) NOT NULL DEFAULT '',
		points     DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (points >= 0),
		visits     INTEGER NOT NULL DEFAULT 0 CHECK (visits >= 0),
		tier       VARCHAR(16) NOT NULL DEFAULT 'NEW',
		created_at TIMESTAMP WITH TIME ZONE NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id          BIGSERIAL PRIMARY KEY,
		customer_id VARCHAR(8) NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
		created_at  TIMESTAMP WITH TIME ZONE NOT NULL,
		amount      DOUBLE PRECISION NOT NULL CHECK (amount >= 0),
		points      DOUBLE PRECISION NOT NULL,
		multiplier  DOUBLE PRECISION NOT NULL,
		description VARCHAR(255) NOT NULL DEFAULT '',
		branch      VARCHAR(100) NOT NULL DEFAULT '',
		txn_type    VARCHAR(32) NOT NULL DEFAULT 'purchase'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_customer ON transactions(customer_id, created_at)`,
}

// Migrate creates the customers and transactions tables if they do not exist.
// It is safe to run on every start.
func (db *DB) Migrate(ctx context.Context) error {
	schema := sqliteSchema
	if db.dialect == DialectPostgres {
		schema = postgresSchema
	}

	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i+1, err)
		}
	}
	return nil
}
