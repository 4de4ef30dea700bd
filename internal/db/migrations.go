package db

import (
	"database/sql"
	"fmt"
)

// migrations are applied in order after schema creation. The database's
// user_version records how many have run. Append new migrations at the end.
var migrations = []string{
	// 1: sales are looked up by day for the end-of-day summary.
	`CREATE INDEX IF NOT EXISTS idx_pos_transactions_date ON pos_transactions(transaction_date)`,
	// 2: history is listed newest first.
	`CREATE INDEX IF NOT EXISTS idx_transactions_last_updated ON transactions(last_updated)`,
}

// Version returns the number of applied migrations.
func Version(db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRow(`PRAGMA user_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("reading user_version: %w", err)
	}
	return v, nil
}

// Migrate runs the migrations newer than the recorded user_version.
func Migrate(db *sql.DB) error {
	current, err := Version(db)
	if err != nil {
		return err
	}

	for i := current; i < len(migrations); i++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("starting migration %d: %w", i+1, err)
		}
		if _, err := tx.Exec(migrations[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
		if _, err := tx.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, i+1)); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", i+1, err)
		}
	}

	return nil
}
