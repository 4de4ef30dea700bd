package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nvaprinting/stockroom/internal/model"
)

// InsertTransaction records a history entry. The item and user are resolved by
// name and stored as NULL when they no longer exist.
func InsertTransaction(ctx context.Context, db *sql.DB, tx model.Transaction) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO transactions (item_id, user_id, quantity, last_updated, description)
		 VALUES (
		     (SELECT id FROM inventory_items WHERE name = ? COLLATE NOCASE ORDER BY id LIMIT 1),
		     (SELECT id FROM users WHERE username = ? AND deleted_at IS NULL),
		     ?, ?, ?)`,
		tx.ItemName, model.CleanUser(tx.User), tx.Quantity, tx.Date, tx.Description(),
	)
	if err != nil {
		return fmt.Errorf("inserting transaction: %w", err)
	}
	return nil
}

// InsertArchive records an archive note for a removed or consumed item.
func InsertArchive(ctx context.Context, db *sql.DB, rec model.ArchiveRecord) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO archive (item_id, archive_date, archive_note)
		 VALUES ((SELECT id FROM inventory_items WHERE id = ?), ?, ?)`,
		rec.ItemID, rec.DateUsed, rec.Note(),
	)
	if err != nil {
		return fmt.Errorf("inserting archive: %w", err)
	}
	return nil
}

// InsertStockAlert records a low-stock transition.
func InsertStockAlert(ctx context.Context, db *sql.DB, alert model.StockAlert) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO stock_alerts (item_id, alert_date, minimum_stock, status_description)
		 VALUES ((SELECT id FROM inventory_items WHERE id = ?), ?, ?, ?)`,
		alert.ItemID, alert.AlertDate, alert.MinimumStock, alert.Status,
	)
	if err != nil {
		return fmt.Errorf("inserting stock alert: %w", err)
	}
	return nil
}

// CountRows returns the number of rows in one of the history tables.
func CountRows(ctx context.Context, db *sql.DB, table string) (int, error) {
	switch table {
	case "transactions", "archive", "stock_alerts", "pos_transactions", "pos_sales":
	default:
		return 0, fmt.Errorf("counting rows: unknown table %q", table)
	}

	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", table, err)
	}
	return n, nil
}
