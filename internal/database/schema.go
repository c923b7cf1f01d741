package database

import (
	"database/sql"
	"fmt"
)

// schemaStatements are applied in order on startup. Each statement is
// idempotent.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS user_preferences (
		user_id INTEGER PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		currency TEXT NOT NULL DEFAULT 'EUR',
		date_format TEXT NOT NULL DEFAULT 'dd.MM.yyyy',
		timezone TEXT NOT NULL DEFAULT 'Europe/Berlin',
		budget_alerts BOOLEAN NOT NULL DEFAULT TRUE,
		transaction_reminders BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		subtype TEXT,
		currency TEXT NOT NULL DEFAULT 'EUR',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS account_balances (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		date DATE NOT NULL,
		balance BIGINT NOT NULL,
		UNIQUE (account_id, date)
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		color TEXT,
		parent_id TEXT REFERENCES categories(id) ON DELETE SET NULL
	)`,
	`CREATE TABLE IF NOT EXISTS budgets (
		id TEXT PRIMARY KEY,
		category_id TEXT NOT NULL UNIQUE REFERENCES categories(id) ON DELETE CASCADE,
		amount BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		category_id TEXT REFERENCES categories(id) ON DELETE SET NULL,
		date DATE NOT NULL,
		amount BIGINT NOT NULL CHECK (amount > 0),
		type TEXT NOT NULL CHECK (type IN ('inflow', 'outflow')),
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		is_pending BOOLEAN NOT NULL DEFAULT FALSE,
		transfer_id TEXT REFERENCES transactions(id) ON DELETE SET NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_account_date ON transactions (account_id, date)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_category ON transactions (category_id)`,
	`CREATE INDEX IF NOT EXISTS idx_account_balances_account_date ON account_balances (account_id, date DESC)`,
}

// EnsureSchema creates missing tables and indexes.
func EnsureSchema(db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("error applying schema: %w", err)
		}
	}
	return nil
}
