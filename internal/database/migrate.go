package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS chat_messages (
		id          TEXT PRIMARY KEY,
		contact_key TEXT NOT NULL,
		display     TEXT NOT NULL DEFAULT '',
		direction   TEXT NOT NULL,
		text        TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_chat_messages_contact_created
		ON chat_messages (contact_key, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_chat_messages_created
		ON chat_messages (created_at)`,
	`CREATE TABLE IF NOT EXISTS contact_profiles (
		contact_key   TEXT PRIMARY KEY,
		display       TEXT NOT NULL DEFAULT '',
		messages_in   BIGINT NOT NULL DEFAULT 0,
		messages_out  BIGINT NOT NULL DEFAULT 0,
		quotes_sent   BIGINT NOT NULL DEFAULT 0,
		confirmations BIGINT NOT NULL DEFAULT 0,
		handoffs      BIGINT NOT NULL DEFAULT 0,
		fallbacks     BIGINT NOT NULL DEFAULT 0,
		intents       JSONB NOT NULL DEFAULT '{}'::jsonb,
		first_seen_at TIMESTAMPTZ NOT NULL,
		last_seen_at  TIMESTAMPTZ NOT NULL
	)`,
}

// Migrate creates the archive schema. Every statement is idempotent.
func (db *DB) Migrate(ctx context.Context) error {
	err := db.WithTx(ctx, func(tx *sqlx.Tx) error {
		for i, stmt := range migrations {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migration %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Info().Int("statements", len(migrations)).Msg("database schema ready")
	return nil
}
