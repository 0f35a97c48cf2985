package db

import (
	"context"
	"fmt"
)

// migrations run in order against databases whose user_version is below
// their position. Index 0 brings a version 0 file to version 1.
var migrations = []string{
	// Archives written before tiers were recorded stored NULL.
	`UPDATE usage_records SET tier = 'UNKNOWN' WHERE tier IS NULL OR tier = ''`,
	`CREATE INDEX IF NOT EXISTS idx_usage_records_model ON usage_records(day, model)`,
}

// SchemaVersion returns the user_version pragma of the open database.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	if err := db.QueryRowContext(context.Background(), "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// migrate applies pending migrations and advances user_version.
func (db *DB) migrate() error {
	version, err := db.SchemaVersion()
	if err != nil {
		return err
	}

	for i := version; i < len(migrations); i++ {
		if _, err := db.ExecContext(context.Background(), migrations[i]); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		if _, err := db.ExecContext(context.Background(), fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			return fmt.Errorf("failed to set schema version %d: %w", i+1, err)
		}
	}

	return nil
}
