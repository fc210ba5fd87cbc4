package database

import (
	"context"
	"database/sql"
	"fmt"
)

// TafsSchema creates the intake table. status, criteria and post_recruitment
// are JSON rather than JSONB so key order survives storage.
const TafsSchema = `
CREATE TABLE IF NOT EXISTS tafs (
	id                      TEXT PRIMARY KEY,
	candidate_name          TEXT NOT NULL,
	passport_id             TEXT NOT NULL,
	recruiter_name          TEXT NOT NULL,
	auxiliary_name          TEXT,
	photo_url               TEXT,
	date                    TIMESTAMPTZ NOT NULL,
	status                  JSON NOT NULL,
	correct_questions       INTEGER NOT NULL,
	correct_exercises       INTEGER NOT NULL,
	total_criteria          INTEGER NOT NULL,
	criteria                JSON NOT NULL,
	post_recruitment        JSON NOT NULL,
	accepted_transfer_rules BOOLEAN NOT NULL DEFAULT FALSE,
	created_at              TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS tafs_created_at_idx ON tafs (created_at DESC);
`

// Migrate applies TafsSchema.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, TafsSchema); err != nil {
		return fmt.Errorf("failed to apply tafs schema: %w", err)
	}
	return nil
}

// VerifySchema checks that every table in tables exists in the public schema.
func VerifySchema(ctx context.Context, db *sql.DB, tables ...string) error {
	const query = `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = 'public'
			AND table_name = $1
		)`

	for _, table := range tables {
		var exists bool
		if err := db.QueryRowContext(ctx, query, table).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check table %s: %w", table, err)
		}
		if !exists {
			return fmt.Errorf("required table %s does not exist", table)
		}
	}
	return nil
}
