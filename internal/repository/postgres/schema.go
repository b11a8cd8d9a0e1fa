package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema holds the tables owned by this service. The bot's users, groups and
// names tables are read-only here and are not created.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS payment_history (
		reference     TEXT PRIMARY KEY,
		merchant_ref  TEXT NOT NULL UNIQUE,
		phone_number  TEXT,
		group_id      TEXT,
		customer_name TEXT NOT NULL DEFAULT '',
		method        TEXT NOT NULL,
		amount        BIGINT NOT NULL,
		status        TEXT NOT NULL,
		order_items   JSONB NOT NULL DEFAULT '[]',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		paid_at       TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_payment_history_phone ON payment_history (phone_number, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_payment_history_group ON payment_history (group_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS transaction_events (
		id           UUID PRIMARY KEY,
		merchant_ref TEXT NOT NULL,
		reference    TEXT NOT NULL DEFAULT '',
		status       TEXT NOT NULL,
		source       TEXT NOT NULL,
		payload      JSONB,
		observed_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transaction_events_merchant_ref ON transaction_events (merchant_ref, observed_at)`,
}

// EnsureSchema creates the service's tables if they do not exist. The
// statements are applied in one transaction.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	return inTx(ctx, db, func(q Querier) error {
		for _, stmt := range schema {
			if _, err := q.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("apply schema: %w", err)
			}
		}
		return nil
	})
}
