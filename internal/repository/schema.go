package repository

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE SCHEMA IF NOT EXISTS bank`,
	`CREATE TABLE IF NOT EXISTS bank.users (
		id            BIGSERIAL PRIMARY KEY,
		username      VARCHAR(255) NOT NULL,
		email         VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_idx ON bank.users (LOWER(email))`,
	`CREATE TABLE IF NOT EXISTS bank.debit_cards (
		id              BIGSERIAL PRIMARY KEY,
		user_id         BIGINT NOT NULL REFERENCES bank.users(id),
		number          TEXT NOT NULL,
		number_hmac     CHAR(64) NOT NULL UNIQUE,
		type            VARCHAR(255) NOT NULL,
		expiration_date TIMESTAMPTZ NOT NULL,
		disabled_at     TIMESTAMPTZ NULL,
		deleted_at      TIMESTAMPTZ NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS debit_cards_user_id_idx ON bank.debit_cards (user_id) WHERE deleted_at IS NULL`,
	`CREATE TABLE IF NOT EXISTS bank.debit_card_transactions (
		id            BIGSERIAL PRIMARY KEY,
		debit_card_id BIGINT NOT NULL REFERENCES bank.debit_cards(id),
		amount        NUMERIC(15, 2) NOT NULL CHECK (amount > 0),
		currency_code CHAR(3) NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS debit_card_transactions_card_idx ON bank.debit_card_transactions (debit_card_id)`,
}

// Migrate creates the bank schema and its tables if they do not exist
func (r *Repository) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}
	return nil
}
