package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrate creates the tables on startup if they do not exist yet
func Migrate(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			user_id          BIGINT PRIMARY KEY,
			username         VARCHAR(64) NOT NULL DEFAULT '',
			balance          DOUBLE PRECISION NOT NULL DEFAULT 0,
			is_banned        BOOLEAN NOT NULL DEFAULT FALSE,
			is_enabled       BOOLEAN NOT NULL DEFAULT FALSE,
			paid_until       TIMESTAMPTZ,
			credential_id    VARCHAR(64) NOT NULL DEFAULT '',
			credential_label VARCHAR(128) NOT NULL DEFAULT '',
			menu_message_id  INTEGER NOT NULL DEFAULT 0,
			created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS deposit_requests (
			id         BIGSERIAL PRIMARY KEY,
			user_id    BIGINT NOT NULL REFERENCES accounts(user_id),
			amount     DOUBLE PRECISION NOT NULL,
			status     VARCHAR(16) NOT NULL DEFAULT 'pending',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_deposit_requests_user_id ON deposit_requests(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_expiry ON accounts(is_enabled, paid_until)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	return nil
}
